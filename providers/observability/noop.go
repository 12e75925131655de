package observability

import "context"

// Noop returns a Provider that discards everything. It is the default
// capability wired into adapters when the caller does not inject one, so
// adapter code can call the observer unconditionally.
func Noop() Provider {
	return noopProvider{}
}

type noopProvider struct{}

func (noopProvider) StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (noopProvider) Counter(name string) Counter     { return noopInstrument{} }
func (noopProvider) Histogram(name string) Histogram { return noopInstrument{} }

func (noopProvider) Trace(ctx context.Context, msg string, attrs ...Attribute) {}
func (noopProvider) Debug(ctx context.Context, msg string, attrs ...Attribute) {}
func (noopProvider) Info(ctx context.Context, msg string, attrs ...Attribute)  {}
func (noopProvider) Warn(ctx context.Context, msg string, attrs ...Attribute)  {}
func (noopProvider) Error(ctx context.Context, msg string, attrs ...Attribute) {}

type noopSpan struct{}

func (noopSpan) End()                                          {}
func (noopSpan) SetAttributes(attrs ...Attribute)              {}
func (noopSpan) SetStatus(code StatusCode, description string) {}
func (noopSpan) RecordError(err error)                         {}
func (noopSpan) AddEvent(name string, attrs ...Attribute)      {}

type noopInstrument struct{}

func (noopInstrument) Add(ctx context.Context, value int64, attrs ...Attribute)      {}
func (noopInstrument) Record(ctx context.Context, value float64, attrs ...Attribute) {}
