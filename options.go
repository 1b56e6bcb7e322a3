package gorawrcache

import (
	"fmt"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrCache/cache"
	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/Keksclan/goRawrCache/ratelimit"
	"github.com/Keksclan/goRawrCache/service"
	"github.com/Keksclan/goRawrCache/tracing"
)

// Option configures a Server.
type Option func(*config)

// WithDirectory sets the cache directory. An empty string selects
// fscache.DefaultDir(); relative paths resolve against the working directory.
func WithDirectory(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithStoreOptions passes extra options to fscache.New.
func WithStoreOptions(opts ...fscache.Option) Option {
	return func(c *config) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithLogger sets the logger shared by the store, the service and the
// logging interceptors.
func WithLogger(l logr.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRecovery installs panic-recovery interceptors so that a panic inside a
// handler returns codes.Internal instead of crashing the process.
func WithRecovery() Option {
	return func(c *config) { c.recovery = true }
}

// WithRequestID attaches a request ID to every call, taken from the
// x-request-id header when the caller sends one.
func WithRequestID() Option {
	return func(c *config) { c.requestID = true }
}

// WithAccessLog logs every RPC through the configured logger.
func WithAccessLog() Option {
	return func(c *config) { c.accessLog = true }
}

// WithMetrics counts store events and RPCs; see [Server.MetricsHandler].
func WithMetrics() Option {
	return func(c *config) { c.metrics = true }
}

// WithOpenTelemetry enables server and store spans using cfg.
func WithOpenTelemetry(cfg tracing.TracingConfig) Option {
	return func(c *config) { c.tracing = &cfg }
}

// WithRateLimitGlobal limits all RPCs to rps requests per second with the
// given burst.
func WithRateLimitGlobal(rps float64, burst int) Option {
	return func(c *config) { c.rateLimits().Global = ratelimit.NewLimiter(rps, burst) }
}

// WithRateLimitMethod gives a single cache method, e.g. "Clear", its own
// limiter in place of the global one.
func WithRateLimitMethod(method string, rps float64, burst int) Option {
	return func(c *config) {
		c.rateLimits().Methods[service.FullMethod(method)] = ratelimit.NewLimiter(rps, burst)
	}
}

// WithCacheL1 puts a bounded in-process cache of up to maxCost entries in front of
// the disk store for [Server.Cache].
func WithCacheL1(maxCost int64) Option {
	return func(c *config) {
		l1, err := cache.NewL1(maxCost)
		if err != nil {
			c.err = fmt.Errorf("gorawrcache: l1 cache: %w", err)
			return
		}
		c.l1 = l1
	}
}

// WithCacheL2 adds a shared Redis layer behind the disk store for
// [Server.Cache]. Redis failures are absorbed and never fail a call.
func WithCacheL2(addr, password string, db int) Option {
	return func(c *config) { c.l2 = cache.NewL2(addr, password, db) }
}

// WithUnaryInterceptor appends a unary server interceptor that runs after
// the built-in middleware.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.unaryInterceptors = append(c.unaryInterceptors, i)
	}
}

// WithStreamInterceptor appends a stream server interceptor that runs after
// the built-in middleware.
func WithStreamInterceptor(i grpc.StreamServerInterceptor) Option {
	return func(c *config) {
		c.streamInterceptors = append(c.streamInterceptors, i)
	}
}

// WithGRPCOptions passes extra options to grpc.NewServer.
func WithGRPCOptions(opts ...grpc.ServerOption) Option {
	return func(c *config) { c.serverOptions = append(c.serverOptions, opts...) }
}
