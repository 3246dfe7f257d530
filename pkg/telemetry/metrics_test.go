package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRecordPatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	p := idom.New[*livetree.Node](livetree.NewTree(), idom.WithHooks(m))
	root := livetree.NewElement("div")
	ctx := context.Background()

	if err := p.Patch(ctx, root, func() error {
		p.ElementOpen("p", "", nil, idom.A("id", "x"))
		p.Text("hi")
		p.ElementClose("p")
		return p.Patch(ctx, livetree.NewElement("aside"), func() error { return nil })
	}); err != nil {
		t.Fatal(err)
	}
	_ = p.Patch(ctx, root, func() error {
		p.ElementOpenEnd()
		return nil
	})

	if got := metricCounterValue(t, m.patches.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok patches = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.patches.WithLabelValues("sequencing_error")); got != 1 {
		t.Errorf("failed patches = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.nested); got != 1 {
		t.Errorf("nested patches = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.patchDuration); got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
	if got := metricCounterValue(t, m.mutations.WithLabelValues("create")); got != 2 {
		t.Errorf("create mutations = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.mutations.WithLabelValues("set_attr")); got != 1 {
		t.Errorf("set_attr mutations = %v, want 1", got)
	}
	// The second pass declared nothing, so the paragraph was removed.
	if got := metricCounterValue(t, m.mutations.WithLabelValues("remove")); got != 1 {
		t.Errorf("remove mutations = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.seqErrors.WithLabelValues("elementOpenEnd()")); got != 1 {
		t.Errorf("sequencing errors = %v, want 1", got)
	}
}

func TestMetricsRecordFrame(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m.RecordFrame(40)
	m.RecordFrame(4000)

	if got := metricCounterValue(t, m.frames); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := metricHistogramCount(t, m.frameBytes); got != 2 {
		t.Errorf("frame size samples = %d, want 2", got)
	}
}

func TestMetricsRegisterWithNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"env": "test"}))
	m.PatchEnd(context.Background(), idom.PatchStats{}, nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "app_ui_patches_total" {
			found = true
			if l := mf.GetMetric()[0].GetLabel(); len(l) != 2 {
				t.Errorf("labels = %v, want env and status", l)
			}
		}
	}
	if !found {
		t.Error("app_ui_patches_total not registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("ui"))
}
