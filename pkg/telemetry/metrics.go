package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/idom/pkg/idom"
)

// MetricsConfig configures the Prometheus hooks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "idom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for patch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hooks.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "idom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records patch outcomes, mutations and sequencing errors.
//
// Metrics collected (with the default namespace):
//   - idom_patches_total: Counter of patches by status (ok, sequencing_error, error)
//   - idom_patch_duration_seconds: Histogram of patch duration
//   - idom_nested_patches_total: Counter of patches started inside another patch
//   - idom_mutations_total: Counter of tree mutations by kind
//   - idom_sequencing_errors_total: Counter of sequencing errors by call
//   - idom_frames_total: Counter of encoded frames (RecordFrame)
//   - idom_frame_bytes: Histogram of encoded frame sizes (RecordFrame)
type Metrics struct {
	patches       *prometheus.CounterVec
	patchDuration prometheus.Histogram
	nested        prometheus.Counter
	mutations     *prometheus.CounterVec
	seqErrors     *prometheus.CounterVec
	frames        prometheus.Counter
	frameBytes    prometheus.Histogram
}

var _ idom.Hooks = (*Metrics)(nil)

// NewMetrics registers the metrics with the configured registry. It
// panics if they are already registered there, like promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		patchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Patch duration in seconds, render callback included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		nested: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nested_patches_total",
			Help:        "Total number of patches started inside another patch",
			ConstLabels: config.ConstLabels,
		}),

		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of live tree mutations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		seqErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sequencing_errors_total",
			Help:        "Total number of call-stream sequencing errors by call",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Total number of encoded mutation frames",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes",
			Help:        "Encoded mutation frame size in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(16, 4, 8), // 16B to 256KB
		}),
	}
}

func (m *Metrics) PatchStart(ctx context.Context, depth int) context.Context {
	if depth > 0 {
		m.nested.Inc()
	}
	return ctx
}

func (m *Metrics) PatchEnd(_ context.Context, stats idom.PatchStats, err error) {
	m.patchDuration.Observe(stats.Duration.Seconds())
	m.patches.WithLabelValues(patchStatus(err)).Inc()
}

func (m *Metrics) Mutation(kind idom.MutationKind, _ string) {
	m.mutations.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) SequencingError(err *idom.SequencingError) {
	m.seqErrors.WithLabelValues(err.Op.String()).Inc()
}

// RecordFrame records an encoded frame of size bytes.
func (m *Metrics) RecordFrame(size int) {
	m.frames.Inc()
	m.frameBytes.Observe(float64(size))
}

// patchStatus keeps the status label low-cardinality.
func patchStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case idom.IsSequencingError(err):
		return "sequencing_error"
	default:
		return "error"
	}
}
