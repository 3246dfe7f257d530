package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/idom/pkg/idom"
)

const defaultTracerName = "idom"

// TracingConfig configures the OpenTelemetry hooks.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "idom").
	TracerName string

	// TracerProvider provides the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Attributes are added to every patch span.
	Attributes []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry hooks.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithAttributes adds attributes to every patch span.
func WithAttributes(attrs ...attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracing opens a span per patch. A nested patch starts from the outer
// patch's context, so its span is a child of the outer span. Sequencing
// errors are added to the innermost span as events.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it before creating the hooks:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
	// spans holds the spans of active patches, innermost last.
	spans []trace.Span
}

var _ idom.Hooks = (*Tracing)(nil)

// NewTracing creates tracing hooks.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: tp.Tracer(config.TracerName),
		attrs:  config.Attributes,
	}
}

func (t *Tracing) PatchStart(ctx context.Context, depth int) context.Context {
	if n := len(t.spans); n > 0 {
		ctx = trace.ContextWithSpan(ctx, t.spans[n-1])
	}
	attrs := append([]attribute.KeyValue{attribute.Int("idom.depth", depth)}, t.attrs...)
	ctx, span := t.tracer.Start(ctx, "idom.patch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
	t.spans = append(t.spans, span)
	return ctx
}

func (t *Tracing) PatchEnd(ctx context.Context, stats idom.PatchStats, err error) {
	span := trace.SpanFromContext(ctx)
	if n := len(t.spans); n > 0 {
		span = t.spans[n-1]
		t.spans[n-1] = nil
		t.spans = t.spans[:n-1]
	}

	span.SetAttributes(
		attribute.Int("idom.created", stats.Created),
		attribute.Int("idom.moved", stats.Moved),
		attribute.Int("idom.removed", stats.Removed),
		attribute.Int("idom.attr_sets", stats.AttrSets),
		attribute.Int("idom.attr_removes", stats.AttrDels),
		attribute.Int("idom.text_updates", stats.Texts),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracing) Mutation(idom.MutationKind, string) {}

func (t *Tracing) SequencingError(err *idom.SequencingError) {
	n := len(t.spans)
	if n == 0 {
		return
	}
	t.spans[n-1].AddEvent("idom.sequencing_error", trace.WithAttributes(
		attribute.String("idom.op", err.Op.String()),
		attribute.String("idom.message", err.Message),
	))
}
