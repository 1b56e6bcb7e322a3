// Package metrics exports cache store events and RPC traffic as Prometheus
// metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/fscache"
)

const namespace = "gorawrcache"

// Collector counts store events and RPCs. It implements fscache.Observer,
// so a Store reports into it directly via fscache.WithObserver.
type Collector struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates a Collector registered on its own registry, together with the
// Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "events_total",
			Help:      "Entry store events by kind: hits, misses, writes, deletes and self-heals.",
		}, []string{"event"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Handled RPCs by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "RPC handling latency by method.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
		}, []string{"method"}),
	}
	c.registry.MustRegister(
		c.events,
		c.requests,
		c.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Observe implements fscache.Observer.
func (c *Collector) Observe(ev fscache.Event) {
	c.events.WithLabelValues(ev.String()).Inc()
}

// Registry exposes the underlying registry, mainly for tests and for
// callers that want to add their own collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// UnaryServerInterceptor records a request count and latency per method.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		c.record(info.FullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor records a request count and latency per stream.
func (c *Collector) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		c.record(info.FullMethod, start, err)
		return err
	}
}

func (c *Collector) record(method string, start time.Time, err error) {
	c.requests.WithLabelValues(method, status.Code(err).String()).Inc()
	c.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
