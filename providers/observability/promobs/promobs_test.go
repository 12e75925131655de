package promobs

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/unillm/unillm/providers/observability"
)

func gather(t *testing.T, registry *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := map[string]*dto.MetricFamily{}
	for _, family := range families {
		out[family.GetName()] = family
	}
	return out
}

func TestCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry, WithNamespace("unillm"))

	counter := provider.Counter("llm.requests")
	counter.Add(context.Background(), 1)
	counter.Add(context.Background(), 2)
	counter.Add(context.Background(), -5) // negative adds are dropped

	families := gather(t, registry)
	family, ok := families["unillm_llm_requests"]
	if !ok {
		t.Fatalf("expected sanitized metric name, got %v", families)
	}
	if got := family.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("expected counter value 3, got %v", got)
	}
}

func TestCounterReuse(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry)

	// Requesting the same name twice must reuse the registered collector
	// instead of panicking on duplicate registration.
	provider.Counter("llm.requests").Add(context.Background(), 1)
	provider.Counter("llm.requests").Add(context.Background(), 1)

	families := gather(t, registry)
	if got := families["llm_requests"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}

func TestHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry)

	histogram := provider.Histogram("llm.request.duration_ms")
	histogram.Record(context.Background(), 12)
	histogram.Record(context.Background(), 30)

	families := gather(t, registry)
	family, ok := families["llm_request_duration_ms"]
	if !ok {
		t.Fatalf("expected histogram family, got %v", families)
	}
	h := family.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 || h.GetSampleSum() != 42 {
		t.Errorf("unexpected histogram: count=%d sum=%v", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestFallbackDelegation(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry, WithFallback(observability.Noop()))

	// The provider satisfies the full capability; tracing and logging go to
	// the fallback without touching Prometheus.
	var _ observability.Provider = provider
	ctx, span := provider.StartSpan(context.Background(), "test")
	span.End()
	provider.Info(ctx, "hello")

	if families := gather(t, registry); len(families) != 0 {
		t.Errorf("tracing and logging must not create metrics, got %v", families)
	}
}
