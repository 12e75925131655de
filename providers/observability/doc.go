// Package observability defines the tracing, metrics, and logging capability
// injected into provider adapters. Adapters receive a Provider at construction
// (defaulting to Noop) and may additionally pick up a per-request observer or
// span from the context. Backends live in subpackages: slogobs adapts log/slog,
// promobs adapts Prometheus metrics.
package observability
