// Package tracing provides OpenTelemetry spans for the rawr.Cache gRPC
// server and for the store operations behind it. Tracing is optional and
// only active when a [TracingConfig] is wired in via the WithOpenTelemetry
// server option.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcStatus "google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/contextx"
)

const instrumentationName = "github.com/Keksclan/goRawrCache/tracing"

// TracingConfig selects where spans go and how incoming trace context is
// read. The zero value uses the global provider and propagator.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

func (c *TracingConfig) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(instrumentationName)
	}
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

func (c *TracingConfig) propagator() propagation.TextMapPropagator {
	if c.Propagators != nil {
		return c.Propagators
	}
	return otel.GetTextMapPropagator()
}

// keyed is implemented by requests that address a single cache entry.
type keyed interface {
	CacheKey() string
}

// UnaryServerInterceptor starts a server span per call, named after the
// method ("rawr.Cache/Get"). Requests that address a single entry add a
// cache.key attribute. A nil cfg disables tracing.
func UnaryServerInterceptor(cfg *TracingConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg == nil {
			return handler(ctx, req)
		}
		ctx, span := cfg.startServerSpan(ctx, info.FullMethod)
		defer span.End()
		if k, ok := req.(keyed); ok {
			span.SetAttributes(attribute.String("cache.key", k.CacheKey()))
		}

		resp, err := handler(ctx, req)
		endStatus(span, err)
		return resp, err
	}
}

// StreamServerInterceptor starts a server span per stream and counts the
// messages sent on it, which for Watch is the number of delivered events.
// A nil cfg disables tracing.
func StreamServerInterceptor(cfg *TracingConfig) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg == nil {
			return handler(srv, ss)
		}
		ctx, span := cfg.startServerSpan(ss.Context(), info.FullMethod)
		defer span.End()

		ts := &tracedStream{ServerStream: ss, ctx: ctx}
		err := handler(srv, ts)
		span.SetAttributes(attribute.Int("rpc.messages_sent", ts.sent))
		endStatus(span, err)
		return err
	}
}

func (c *TracingConfig) startServerSpan(ctx context.Context, fullMethod string) (context.Context, trace.Span) {
	md, _ := metadata.FromIncomingContext(ctx)
	ctx = c.propagator().Extract(ctx, mdCarrier{md})

	name := strings.TrimPrefix(fullMethod, "/")
	svc, method, _ := strings.Cut(name, "/")
	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.service", svc),
		attribute.String("rpc.method", method),
	}
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("cache.request_id", id))
	}
	return c.tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// endStatus records the gRPC code. Only codes that point at the server mark
// the span as failed; a rejected key or an exhausted rate limit does not.
func endStatus(span trace.Span, err error) {
	code := grpcStatus.Code(err)
	span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
	switch code {
	case grpcCodes.OK:
		span.SetStatus(codes.Ok, "")
	case grpcCodes.Unknown, grpcCodes.DeadlineExceeded, grpcCodes.Unimplemented,
		grpcCodes.Internal, grpcCodes.Unavailable, grpcCodes.DataLoss:
		span.RecordError(err)
		span.SetStatus(codes.Error, grpcStatus.Convert(err).Message())
	}
}

// mdCarrier reads and writes trace headers in gRPC metadata.
type mdCarrier struct {
	md metadata.MD
}

func (c mdCarrier) Get(key string) string {
	if v := c.md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c mdCarrier) Set(key, value string) {
	if c.md != nil {
		c.md.Set(key, value)
	}
}

func (c mdCarrier) Keys() []string {
	keys := make([]string, 0, len(c.md))
	for k := range c.md {
		keys = append(keys, k)
	}
	return keys
}

// tracedStream carries the span context to the handler and counts sends.
type tracedStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent int
}

func (s *tracedStream) Context() context.Context { return s.ctx }

func (s *tracedStream) SendMsg(m any) error {
	err := s.ServerStream.SendMsg(m)
	if err == nil {
		s.sent++
	}
	return err
}
