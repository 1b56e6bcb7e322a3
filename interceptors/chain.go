// Package interceptors contains the gRPC server interceptors that sit in
// front of the cache service: panic recovery, request IDs, access logging
// and rate limiting.
package interceptors

import (
	"context"

	"google.golang.org/grpc"
)

// ChainUnary composes multiple unary interceptors into a single one.
// Interceptors execute in the order they appear in the slice.
func ChainUnary(interceptors []grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	switch len(interceptors) {
	case 0:
		return nil
	case 1:
		return interceptors[0]
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return unaryAt(interceptors, 0, info, handler)(ctx, req)
	}
}

// unaryAt returns the handler that runs interceptors[i:] and then final.
func unaryAt(interceptors []grpc.UnaryServerInterceptor, i int, info *grpc.UnaryServerInfo, final grpc.UnaryHandler) grpc.UnaryHandler {
	if i == len(interceptors) {
		return final
	}
	return func(ctx context.Context, req any) (any, error) {
		return interceptors[i](ctx, req, info, unaryAt(interceptors, i+1, info, final))
	}
}

// ChainStream composes multiple stream interceptors into a single one.
// Interceptors execute in the order they appear in the slice.
func ChainStream(interceptors []grpc.StreamServerInterceptor) grpc.StreamServerInterceptor {
	switch len(interceptors) {
	case 0:
		return nil
	case 1:
		return interceptors[0]
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return streamAt(interceptors, 0, info, handler)(srv, ss)
	}
}

func streamAt(interceptors []grpc.StreamServerInterceptor, i int, info *grpc.StreamServerInfo, final grpc.StreamHandler) grpc.StreamHandler {
	if i == len(interceptors) {
		return final
	}
	return func(srv any, ss grpc.ServerStream) error {
		return interceptors[i](srv, ss, info, streamAt(interceptors, i+1, info, final))
	}
}
