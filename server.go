// Package gorawrcache serves a filesystem TTL cache over gRPC. [NewServer]
// opens an fscache.Store, exposes it as the rawr.Cache service and layers
// optional middleware (recovery, request IDs, tracing, metrics, access
// logging, rate limiting) selected with functional [Option] values.
//
//	srv, err := gorawrcache.NewServer(
//		gorawrcache.WithDirectory("/var/cache/rawr"),
//		gorawrcache.WithRecovery(),
//		gorawrcache.WithRateLimitGlobal(500, 100),
//	)
//	if err != nil { ... }
//	defer srv.Close()
//	_ = srv.Serve(lis)
package gorawrcache

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrCache/cache"
	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/Keksclan/goRawrCache/interceptors"
	"github.com/Keksclan/goRawrCache/internal/core"
	"github.com/Keksclan/goRawrCache/metrics"
	"github.com/Keksclan/goRawrCache/service"
	"github.com/Keksclan/goRawrCache/tracing"
)

// Server owns the cache store and the gRPC server that exposes it.
//
// After construction the underlying gRPC server is available through
// [Server.GRPC] so further services can be registered next to rawr.Cache.
type Server struct {
	grpcServer *grpc.Server
	store      *fscache.Store
	cache      cache.Cache
	metrics    *metrics.Collector
	log        logr.Logger

	l1 *cache.L1
	l2 *cache.L2
}

// NewServer creates a [Server] by applying the supplied options, opening the
// store and wiring the interceptor chain into [grpc.NewServer]. Middleware
// execution order is fixed by priority (see defaults.go), not by the order
// options are passed.
func NewServer(opts ...Option) (*Server, error) {
	cfg := config{logger: logr.Discard()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	log := cfg.logger.WithName("gorawrcache")

	var collector *metrics.Collector
	hub := service.NewHub()
	storeOpts := []fscache.Option{fscache.WithLogger(cfg.logger), fscache.WithObserver(hub)}
	if cfg.metrics {
		collector = metrics.New()
		storeOpts = append(storeOpts, fscache.WithObserver(collector))
	}
	store, err := fscache.New(cfg.dir, append(storeOpts, cfg.storeOpts...)...)
	if err != nil {
		return nil, err
	}

	mw := middlewares(&cfg, collector)
	serverOpts := core.BuildServerOptions(mw, interceptors.ChainUnary, interceptors.ChainStream, cfg.serverOptions...)
	gs := grpc.NewServer(serverOpts...)
	service.Register(gs, service.NewHandler(store,
		service.WithTracing(cfg.tracing),
		service.WithHub(hub),
		service.WithHandlerLogger(log),
	))

	log.Info("server ready", "directory", store.Dir(), "middleware", mw.Names())

	return &Server{
		grpcServer: gs,
		store:      store,
		cache:      layers(store, cfg.l1, cfg.l2),
		metrics:    collector,
		log:        log,
		l1:         cfg.l1,
		l2:         cfg.l2,
	}, nil
}

func middlewares(cfg *config, collector *metrics.Collector) *core.MiddlewareBuilder {
	var b core.MiddlewareBuilder
	if cfg.recovery {
		b.Add("recovery", priorityRecovery, interceptors.RecoveryUnary(cfg.logger), interceptors.RecoveryStream(cfg.logger))
	}
	if cfg.requestID {
		b.Add("request_id", priorityRequestID, interceptors.RequestIDUnary(), interceptors.RequestIDStream())
	}
	if cfg.tracing != nil {
		b.Add("tracing", priorityTracing, tracing.UnaryServerInterceptor(cfg.tracing), tracing.StreamServerInterceptor(cfg.tracing))
	}
	if collector != nil {
		b.Add("metrics", priorityMetrics, collector.UnaryServerInterceptor(), collector.StreamServerInterceptor())
	}
	if cfg.accessLog {
		access := cfg.logger.WithName("access")
		b.Add("access_log", priorityAccessLog, interceptors.LoggingUnary(access), interceptors.LoggingStream(access))
	}
	if cfg.limits != nil {
		b.Add("rate_limit", priorityRateLimit, interceptors.RateLimitUnary(cfg.limits), interceptors.RateLimitStream(cfg.limits))
	}
	for _, u := range cfg.unaryInterceptors {
		b.Add("custom", priorityUser, u, nil)
	}
	for _, s := range cfg.streamInterceptors {
		b.Add("custom", priorityUser, nil, s)
	}
	return &b
}

// layers stacks the configured caches nearest first: memory, disk, Redis.
func layers(store *fscache.Store, l1 *cache.L1, l2 *cache.L2) cache.Cache {
	disk := cache.NewDisk(store)
	if l1 == nil && l2 == nil {
		return disk
	}
	var ls []cache.Cache
	if l1 != nil {
		ls = append(ls, l1)
	}
	ls = append(ls, disk)
	if l2 != nil {
		ls = append(ls, l2)
	}
	return cache.NewTiered(ls...)
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Store returns the entry store served by rawr.Cache.
func (s *Server) Store() *fscache.Store {
	return s.store
}

// Cache returns a view of the store for in-process callers, fronted by the
// L1 and backed by the L2 layer when configured. Values are raw JSON
// documents, the same bytes rawr.Cache clients send and receive.
func (s *Server) Cache() cache.Cache {
	return s.cache
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics. It
// answers 404 unless WithMetrics was given.
func (s *Server) MetricsHandler() http.Handler {
	if s.metrics == nil {
		return http.NotFoundHandler()
	}
	return s.metrics.Handler()
}

// Serve accepts connections on lis until Close is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("serving", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Close stops the gRPC server after in-flight calls finish and releases the
// cache layers.
func (s *Server) Close() error {
	s.grpcServer.GracefulStop()

	var errs []error
	if s.l1 != nil {
		s.l1.Close()
	}
	if s.l2 != nil {
		errs = append(errs, s.l2.Close())
	}
	return errors.Join(errs...)
}
