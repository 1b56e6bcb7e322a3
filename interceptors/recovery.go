package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/contextx"
)

// errInternal is allocated once; panics never leak their value to callers.
var errInternal = status.Error(codes.Internal, "internal server error")

// RecoveryUnary returns a unary server interceptor that recovers from panics,
// logs them with their stack and returns an Internal gRPC error instead of
// crashing the process.
func RecoveryUnary(log logr.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("panic: %v", r), "handler panicked",
					"method", info.FullMethod,
					"request_id", contextx.RequestIDFromContext(ctx),
					"stack", string(debug.Stack()),
				)
				resp, err = nil, errInternal
			}
		}()
		return handler(ctx, req)
	}
}

// RecoveryStream is the streaming counterpart of [RecoveryUnary].
func RecoveryStream(log logr.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("panic: %v", r), "stream handler panicked",
					"method", info.FullMethod,
					"stack", string(debug.Stack()),
				)
				err = errInternal
			}
		}()
		return handler(srv, ss)
	}
}
