package gorawrcache

import (
	"github.com/go-logr/logr"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrCache/cache"
	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/Keksclan/goRawrCache/ratelimit"
	"github.com/Keksclan/goRawrCache/tracing"
)

// config holds the internal configuration assembled via functional options.
// Interceptors are built in NewServer so that every option sees the final
// logger regardless of option order.
type config struct {
	dir       string
	storeOpts []fscache.Option
	logger    logr.Logger

	recovery  bool
	requestID bool
	accessLog bool
	metrics   bool
	tracing   *tracing.TracingConfig
	limits    *ratelimit.Limits

	l1 *cache.L1
	l2 *cache.L2

	unaryInterceptors  []grpc.UnaryServerInterceptor
	streamInterceptors []grpc.StreamServerInterceptor
	serverOptions      []grpc.ServerOption

	err error
}

func (c *config) rateLimits() *ratelimit.Limits {
	if c.limits == nil {
		c.limits = &ratelimit.Limits{Methods: make(map[string]*ratelimit.Limiter)}
	}
	return c.limits
}
