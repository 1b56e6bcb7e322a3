package interceptors

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/goRawrCache/contextx"
)

// newRequestID generates a random hex-encoded request identifier.
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// requestID picks the caller's x-request-id when present and generates one
// otherwise.
func requestID(ctx context.Context) string {
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(contextx.RequestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return newRequestID()
}

// RequestIDUnary returns a unary server interceptor that stores a request ID
// in the context and echoes it to the caller as a response header.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		id := requestID(ctx)
		// Fails only outside a real RPC (e.g. direct calls in tests).
		_ = grpc.SetHeader(ctx, metadata.Pairs(contextx.RequestIDHeader, id))
		return handler(contextx.WithRequestID(ctx, id), req)
	}
}

// RequestIDStream does the same for streams by wrapping the stream context.
func RequestIDStream() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		id := requestID(ss.Context())
		_ = ss.SetHeader(metadata.Pairs(contextx.RequestIDHeader, id))
		return handler(srv, &contextStream{ServerStream: ss, ctx: contextx.WithRequestID(ss.Context(), id)})
	}
}

// contextStream overrides Context() to carry an enriched context.
type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }
