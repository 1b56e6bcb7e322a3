// Command gorawrcache runs the filesystem cache as a gRPC service with an
// HTTP side for health checks and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	gc "github.com/Keksclan/goRawrCache"
	"github.com/Keksclan/goRawrCache/internal/httpapi"
	"github.com/Keksclan/goRawrCache/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gorawrcache: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	listen := flag.String("listen", "", "gRPC listen address (overrides config)")
	httpListen := flag.String("http", "", "HTTP listen address for /healthz and /metrics; \"-\" disables it")
	dir := flag.String("dir", "", "cache directory (overrides config)")
	verbosity := flag.Int("v", -1, "log verbosity (overrides config)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *httpListen != "" {
		cfg.HTTPListen = *httpListen
	}
	if *dir != "" {
		cfg.Directory = *dir
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	stdr.SetVerbosity(cfg.Log.Verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
	otel.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := append(cfg.ServerOptions(), gc.WithLogger(logger))
	if cfg.Tracing.Stdout {
		tp, err := stdoutTracer()
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
		opts = append(opts, gc.WithOpenTelemetry(tracing.TracingConfig{
			TracerProvider: tp,
			Propagators:    propagation.TraceContext{},
		}))
	}

	srv, err := gc.NewServer(opts...)
	if err != nil {
		return err
	}

	lis, err := listen(logger, srv, cfg.Listen)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() { errc <- srv.Serve(lis) }()

	var hs *http.Server
	if cfg.HTTPListen != "-" {
		hs = &http.Server{
			Addr:              cfg.HTTPListen,
			Handler:           httpapi.NewRouter(srv.Store(), srv.MetricsHandler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http listening", "addr", cfg.HTTPListen)
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error(err, "listener failed")
	}
	return shutdown(logger, srv, hs, err)
}

// listen opens the gRPC listener. When that fails srv is closed before the
// error is returned, so the store and cache layers are released.
func listen(logger logr.Logger, srv *gc.Server, addr string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, shutdown(logger, srv, nil, fmt.Errorf("listen %s: %w", addr, err))
	}
	return lis, nil
}

func shutdown(logger logr.Logger, srv *gc.Server, hs *http.Server, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if cause != nil {
		errs = append(errs, cause)
	}
	if hs != nil {
		errs = append(errs, hs.Shutdown(ctx))
	}
	errs = append(errs, srv.Close())
	err := errors.Join(errs...)
	if err == nil {
		logger.Info("stopped")
	}
	return err
}

func stdoutTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("stdout exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}
