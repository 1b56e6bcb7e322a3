package core

import "google.golang.org/grpc"

// BuildServerOptions chains the builder's interceptors and returns the
// grpc.ServerOption values for grpc.NewServer, followed by extra.
func BuildServerOptions(
	b *MiddlewareBuilder,
	chainUnary func([]grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor,
	chainStream func([]grpc.StreamServerInterceptor) grpc.StreamServerInterceptor,
	extra ...grpc.ServerOption,
) []grpc.ServerOption {
	unary, stream := b.Build()

	var opts []grpc.ServerOption
	if u := chainUnary(unary); u != nil {
		opts = append(opts, grpc.UnaryInterceptor(u))
	}
	if s := chainStream(stream); s != nil {
		opts = append(opts, grpc.StreamInterceptor(s))
	}
	return append(opts, extra...)
}
