package interceptors

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/contextx"
)

// LoggingUnary logs one line per unary call. Successful calls log at V(1);
// failures other than client mistakes log at the default level.
func LoggingUnary(log logr.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(log, info.FullMethod, contextx.RequestIDFromContext(ctx), time.Since(start), err)
		return resp, err
	}
}

// LoggingStream logs one line per stream once it finishes.
func LoggingStream(log logr.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(log, info.FullMethod, contextx.RequestIDFromContext(ss.Context()), time.Since(start), err)
		return err
	}
}

func logCall(log logr.Logger, method, requestID string, took time.Duration, err error) {
	code := status.Code(err)
	kv := []any{
		"method", method,
		"code", code.String(),
		"duration", took,
	}
	if requestID != "" {
		kv = append(kv, "request_id", requestID)
	}
	switch code {
	case codes.OK:
		log.V(1).Info("rpc", kv...)
	case codes.InvalidArgument, codes.NotFound, codes.ResourceExhausted, codes.Canceled:
		log.Info("rpc", kv...)
	default:
		log.Error(err, "rpc", kv...)
	}
}
