package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartStoreSpan starts an internal span named "fscache.<op>" for a single
// cache store operation. A nil cfg falls back to the global provider, which
// is a no-op unless the process installed one.
func StartStoreSpan(ctx context.Context, cfg *TracingConfig, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if cfg == nil {
		cfg = &TracingConfig{}
	}
	ctx, span := cfg.tracer().Start(ctx, "fscache."+op, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attrs...)
	return ctx, span
}

// EndStoreSpan records the boolean outcome of the operation and ends span.
// A false outcome is not an error: misses and refused writes are part of
// the store's contract.
func EndStoreSpan(span trace.Span, ok bool) {
	span.SetAttributes(attribute.Bool("cache.ok", ok))
	span.SetStatus(codes.Ok, "")
	span.End()
}
