package tracing

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestStoreSpan_RecordsOperation(t *testing.T) {
	cfg, rec := newTestConfig(t)

	_, span := StartStoreSpan(t.Context(), cfg, "Set", attribute.String("cache.key", "user_1"))
	EndStoreSpan(span, true)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != "fscache.Set" {
		t.Fatalf("expected span name %q, got %q", "fscache.Set", got.Name())
	}
	if got.SpanKind() != trace.SpanKindInternal {
		t.Fatalf("expected SpanKindInternal, got %v", got.SpanKind())
	}
	assertAttr(t, got.Attributes(), "cache.key", "user_1")

	var found bool
	for _, a := range got.Attributes() {
		if a.Key == "cache.ok" {
			found = true
			if !a.Value.AsBool() {
				t.Fatal("expected cache.ok=true")
			}
		}
	}
	if !found {
		t.Fatal("cache.ok attribute missing")
	}
}

func TestStoreSpan_ChildOfRPCSpan(t *testing.T) {
	cfg, rec := newTestConfig(t)

	ctx, parent := cfg.tracer().Start(t.Context(), "/rawr.Cache/Get")
	_, child := StartStoreSpan(ctx, cfg, "Get")
	EndStoreSpan(child, false)
	parent.End()

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Fatal("store span is not a child of the RPC span")
	}
}

func TestStoreSpan_NilConfig(t *testing.T) {
	ctx, span := StartStoreSpan(t.Context(), nil, "Get")
	if ctx == nil || span == nil {
		t.Fatal("expected a usable context and span")
	}
	EndStoreSpan(span, false)
}
