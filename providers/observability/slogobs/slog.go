// Package slogobs adapts the standard library's log/slog to the
// observability.Provider capability. Spans become paired start/end log
// records, metric updates are logged at debug level, and log calls map
// directly onto slog levels (Trace maps to slog.LevelDebug-4).
package slogobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/unillm/unillm/providers/observability"
)

// LevelTrace sits below slog.LevelDebug, mirroring the extra Trace level of
// the observability.Logger interface.
const LevelTrace = slog.LevelDebug - 4

// New creates an observability.Provider backed by the given slog.Logger.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger) observability.Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogProvider{logger: logger}
}

type slogProvider struct {
	logger *slog.Logger
}

// --- Tracer ---

func (p *slogProvider) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{provider: p, name: name, start: time.Now(), attrs: attrs}
	p.logger.Log(ctx, slog.LevelDebug, "span.start", toSlogArgs(attrs, slog.String("span", name))...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	provider *slogProvider
	name     string
	start    time.Time
	attrs    []observability.Attribute
	status   observability.StatusCode
	desc     string
}

func (s *slogSpan) End() {
	s.provider.logger.Log(context.Background(), slog.LevelDebug, "span.end",
		toSlogArgs(s.attrs,
			slog.String("span", s.name),
			slog.Duration("duration", time.Since(s.start)),
			slog.Int("status", int(s.status)),
		)...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.status = code
	s.desc = description
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.provider.logger.Log(context.Background(), slog.LevelError, "span.error",
		slog.String("span", s.name), slog.String("error", err.Error()))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.provider.logger.Log(context.Background(), slog.LevelDebug, name,
		toSlogArgs(attrs, slog.String("span", s.name))...)
}

// --- Metrics ---

func (p *slogProvider) Counter(name string) observability.Counter {
	return &slogCounter{provider: p, name: name}
}

func (p *slogProvider) Histogram(name string) observability.Histogram {
	return &slogHistogram{provider: p, name: name}
}

type slogCounter struct {
	provider *slogProvider
	name     string
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.provider.logger.Log(ctx, slog.LevelDebug, "metric.counter",
		toSlogArgs(attrs, slog.String("name", c.name), slog.Int64("value", value))...)
}

type slogHistogram struct {
	provider *slogProvider
	name     string
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.provider.logger.Log(ctx, slog.LevelDebug, "metric.histogram",
		toSlogArgs(attrs, slog.String("name", h.name), slog.Float64("value", value))...)
}

// --- Logger ---

func (p *slogProvider) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.Log(ctx, LevelTrace, msg, toSlogArgs(attrs)...)
}

func (p *slogProvider) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.Log(ctx, slog.LevelDebug, msg, toSlogArgs(attrs)...)
}

func (p *slogProvider) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.Log(ctx, slog.LevelInfo, msg, toSlogArgs(attrs)...)
}

func (p *slogProvider) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.Log(ctx, slog.LevelWarn, msg, toSlogArgs(attrs)...)
}

func (p *slogProvider) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.logger.Log(ctx, slog.LevelError, msg, toSlogArgs(attrs)...)
}

// toSlogArgs converts observability attributes to slog arguments, with any
// fixed attributes prepended.
func toSlogArgs(attrs []observability.Attribute, fixed ...slog.Attr) []any {
	args := make([]any, 0, len(fixed)+len(attrs))
	for _, attr := range fixed {
		args = append(args, attr)
	}
	for _, attr := range attrs {
		args = append(args, slog.Any(attr.Key, attr.Value))
	}
	return args
}
