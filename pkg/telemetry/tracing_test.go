package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
)

type recordedSpan struct {
	noop.Span
	name   string
	parent *recordedSpan
	attrs  map[attribute.Key]attribute.Value
	events []string
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: map[attribute.Key]attribute.Value{}}
	if parent, ok := trace.SpanFromContext(ctx).(*recordedSpan); ok {
		s.parent = parent
	}
	s.SetAttributes(cfg.Attributes()...)
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func newRecordingTracing(opts ...TracingOption) (*Tracing, *recordingTracer) {
	tr := &recordingTracer{}
	opts = append(opts, WithTracerProvider(recordingProvider{tracer: tr}))
	return NewTracing(opts...), tr
}

func TestTracingNestedSpans(t *testing.T) {
	tracing, tr := newRecordingTracing(WithAttributes(attribute.String("app", "test")))
	p := idom.New[*livetree.Node](livetree.NewTree(), idom.WithHooks(tracing))
	ctx := context.Background()

	err := p.Patch(ctx, livetree.NewElement("div"), func() error {
		p.ElementVoid("hr", "", nil)
		return p.Patch(ctx, livetree.NewElement("aside"), func() error { return nil })
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(tr.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tr.spans))
	}
	outer, inner := tr.spans[0], tr.spans[1]
	if inner.parent != outer {
		t.Error("nested patch span should be a child of the outer span")
	}
	if outer.attrs["idom.depth"].AsInt64() != 0 || inner.attrs["idom.depth"].AsInt64() != 1 {
		t.Errorf("depths = %v, %v", outer.attrs["idom.depth"], inner.attrs["idom.depth"])
	}
	if outer.attrs["app"].AsString() != "test" {
		t.Error("configured attributes should be added to spans")
	}
	if outer.attrs["idom.created"].AsInt64() != 1 {
		t.Errorf("idom.created = %v, want 1", outer.attrs["idom.created"])
	}
	for _, s := range tr.spans {
		if !s.ended || s.status != codes.Ok {
			t.Errorf("span %s ended=%v status=%v", s.name, s.ended, s.status)
		}
	}
	if len(tracing.spans) != 0 {
		t.Errorf("active spans = %d after patches, want 0", len(tracing.spans))
	}
}

func TestTracingRecordsErrors(t *testing.T) {
	tracing, tr := newRecordingTracing()
	p := idom.New[*livetree.Node](livetree.NewTree(), idom.WithHooks(tracing))
	boom := errors.New("boom")

	_ = p.Patch(context.Background(), livetree.NewElement("div"), func() error {
		p.Attr("a", "b")
		return boom
	})

	s := tr.spans[0]
	if s.status != codes.Error {
		t.Errorf("status = %v, want Error", s.status)
	}
	if len(s.errs) != 1 || !errors.Is(s.errs[0], boom) {
		t.Errorf("recorded errors = %v", s.errs)
	}
	if len(s.events) != 1 || s.events[0] != "idom.sequencing_error" {
		t.Errorf("events = %v", s.events)
	}
}
