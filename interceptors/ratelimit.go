package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/ratelimit"
)

// errRateLimited is allocated once to avoid per-request allocations on the hot path.
var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// RateLimitUnary returns a unary server interceptor that rejects requests
// with ResourceExhausted once the limiter for the called method is drained.
func RateLimitUnary(limits *ratelimit.Limits) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !limits.Allow(info.FullMethod) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}

// RateLimitStream is the streaming counterpart of [RateLimitUnary].
func RateLimitStream(limits *ratelimit.Limits) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if !limits.Allow(info.FullMethod) {
			return errRateLimited
		}
		return handler(srv, ss)
	}
}
