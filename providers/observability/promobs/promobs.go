// Package promobs backs the observability.Metrics capability with Prometheus
// counters and histograms. Tracing and logging delegate to a fallback provider
// (Noop by default), so a promobs provider can be injected wherever a full
// observability.Provider is expected.
package promobs

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unillm/unillm/providers/observability"
)

// Provider implements observability.Provider with Prometheus-backed metrics.
type Provider struct {
	observability.Tracer
	observability.Logger

	registerer prometheus.Registerer
	namespace  string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// Option configures a Provider.
type Option func(*Provider)

// WithNamespace sets the Prometheus namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(p *Provider) { p.namespace = namespace }
}

// WithFallback sets the provider used for tracing and logging.
func WithFallback(fallback observability.Provider) Option {
	return func(p *Provider) {
		p.Tracer = fallback
		p.Logger = fallback
	}
}

// New creates a Prometheus-backed provider registering metrics on the given
// registerer. A nil registerer uses prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer, opts ...Option) *Provider {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	noop := observability.Noop()
	provider := &Provider{
		Tracer:     noop,
		Logger:     noop,
		registerer: registerer,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Counter returns the Prometheus counter registered under name, creating and
// registering it on first use. Metric names have dots replaced by underscores
// to satisfy the Prometheus naming rules.
func (p *Provider) Counter(name string) observability.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	counter, ok := p.counters[name]
	if !ok {
		counter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
		})
		p.registerer.MustRegister(counter)
		p.counters[name] = counter
	}
	return promCounter{counter}
}

// Histogram returns the Prometheus histogram registered under name, creating
// and registering it on first use.
func (p *Provider) Histogram(name string) observability.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	histogram, ok := p.histograms[name]
	if !ok {
		histogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
		})
		p.registerer.MustRegister(histogram)
		p.histograms[name] = histogram
	}
	return promHistogram{histogram}
}

type promCounter struct {
	counter prometheus.Counter
}

func (c promCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	if value > 0 {
		c.counter.Add(float64(value))
	}
}

type promHistogram struct {
	histogram prometheus.Histogram
}

func (h promHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.histogram.Observe(value)
}

// sanitize maps dotted metric names onto the Prometheus character set.
func sanitize(name string) string {
	out := []byte(name)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
