package service

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/Keksclan/goRawrCache/tracing"
)

// HandlerOption configures a StoreHandler.
type HandlerOption func(*StoreHandler)

// WithTracing wraps every store call in a span from cfg.
func WithTracing(cfg *tracing.TracingConfig) HandlerOption {
	return func(h *StoreHandler) { h.tracing = cfg }
}

// WithHandlerLogger sets the logger used for per-call debug output.
func WithHandlerLogger(l logr.Logger) HandlerOption {
	return func(h *StoreHandler) { h.log = l }
}

// WithHub enables Watch, streaming the events hub observes. hub must also
// be registered as an observer of the store.
func WithHub(hub *Hub) HandlerOption {
	return func(h *StoreHandler) { h.hub = hub }
}

// StoreHandler serves rawr.Cache from an fscache.Store.
type StoreHandler struct {
	store   *fscache.Store
	tracing *tracing.TracingConfig
	hub     *Hub
	log     logr.Logger
	nowFunc func() time.Time
}

// NewHandler returns a Handler backed by store.
func NewHandler(store *fscache.Store, opts ...HandlerOption) *StoreHandler {
	h := &StoreHandler{
		store:   store,
		log:     logr.Discard(),
		nowFunc: time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Set implements Handler.
func (h *StoreHandler) Set(ctx context.Context, req *SetRequest) (*Result, error) {
	ok := h.do(ctx, "Set", req.Key, func() bool {
		return h.store.Set(req.Key, req.Value, lifetime(req.TTLSeconds))
	})
	return &Result{OK: ok}, nil
}

// Get implements Handler. The stored JSON is returned byte for byte.
func (h *StoreHandler) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	var raw json.RawMessage
	found := h.do(ctx, "Get", req.Key, func() bool {
		return h.store.Scan(req.Key, &raw)
	})
	if !found {
		return &GetResponse{Value: req.Default}, nil
	}
	return &GetResponse{Value: raw, Found: true}, nil
}

// Has implements Handler.
func (h *StoreHandler) Has(ctx context.Context, req *KeyRequest) (*Result, error) {
	ok := h.do(ctx, "Has", req.Key, func() bool { return h.store.Has(req.Key) })
	return &Result{OK: ok}, nil
}

// Delete implements Handler.
func (h *StoreHandler) Delete(ctx context.Context, req *KeyRequest) (*Result, error) {
	ok := h.do(ctx, "Delete", req.Key, func() bool { return h.store.Delete(req.Key) })
	return &Result{OK: ok}, nil
}

// Touch implements Handler.
func (h *StoreHandler) Touch(ctx context.Context, req *TouchRequest) (*Result, error) {
	ok := h.do(ctx, "Touch", req.Key, func() bool {
		return h.store.Touch(req.Key, lifetime(req.TTLSeconds))
	})
	return &Result{OK: ok}, nil
}

// Clear implements Handler.
func (h *StoreHandler) Clear(ctx context.Context, _ *Empty) (*Result, error) {
	ok := h.do(ctx, "Clear", "", h.store.Clear)
	return &Result{OK: ok}, nil
}

// DeleteByPattern implements Handler.
func (h *StoreHandler) DeleteByPattern(ctx context.Context, req *PatternRequest) (*Result, error) {
	_, span := tracing.StartStoreSpan(ctx, h.tracing, "DeleteByPattern", attribute.String("cache.pattern", req.Pattern))
	ok := h.store.DeleteByPattern(req.Pattern)
	tracing.EndStoreSpan(span, ok)
	h.log.V(1).Info("store call", "op", "DeleteByPattern", "pattern", req.Pattern, "ok", ok)
	return &Result{OK: ok}, nil
}

// GetMultiple implements Handler.
func (h *StoreHandler) GetMultiple(ctx context.Context, req *KeysRequest) (*ValuesResponse, error) {
	out := make(map[string]json.RawMessage, len(req.Keys))
	for _, k := range req.Keys {
		resp, err := h.Get(ctx, &GetRequest{Key: k, Default: req.Default})
		if err != nil {
			return nil, err
		}
		out[k] = resp.Value
	}
	return &ValuesResponse{Values: out}, nil
}

// SetMultiple implements Handler.
func (h *StoreHandler) SetMultiple(ctx context.Context, req *SetMultipleRequest) (*Result, error) {
	values := make(map[string]any, len(req.Values))
	for k, v := range req.Values {
		values[k] = v
	}
	ok := h.do(ctx, "SetMultiple", "", func() bool {
		return h.store.SetMultiple(values, lifetime(req.TTLSeconds))
	})
	return &Result{OK: ok}, nil
}

// DeleteMultiple implements Handler.
func (h *StoreHandler) DeleteMultiple(ctx context.Context, req *KeysRequest) (*Result, error) {
	ok := h.do(ctx, "DeleteMultiple", "", func() bool {
		return h.store.DeleteMultiple(req.Keys)
	})
	return &Result{OK: ok}, nil
}

// All implements Handler.
func (h *StoreHandler) All(ctx context.Context, _ *Empty) (*AllResponse, error) {
	_, span := tracing.StartStoreSpan(ctx, h.tracing, "All")
	entries := h.store.All()
	tracing.EndStoreSpan(span, true)
	return &AllResponse{Entries: entries}, nil
}

// Ping implements Handler.
func (h *StoreHandler) Ping(_ context.Context, req *PingRequest) (*PingResponse, error) {
	return &PingResponse{
		Message:        req.Message,
		ServerTimeUnix: h.nowFunc().Unix(),
		Directory:      h.store.Dir(),
	}, nil
}

func (h *StoreHandler) do(ctx context.Context, op, key string, fn func() bool) bool {
	var attrs []attribute.KeyValue
	if key != "" {
		attrs = append(attrs, attribute.String("cache.key", key))
	}
	_, span := tracing.StartStoreSpan(ctx, h.tracing, op, attrs...)
	ok := fn()
	tracing.EndStoreSpan(span, ok)
	h.log.V(1).Info("store call", "op", op, "key", key, "ok", ok)
	return ok
}

// lifetime maps an optional TTL in seconds onto a store lifetime; nil keeps
// the store default.
func lifetime(seconds *int64) fscache.Lifetime {
	if seconds == nil {
		return nil
	}
	return fscache.Seconds(*seconds)
}
