package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/fscache"
	"github.com/Keksclan/goRawrCache/metrics"
)

func TestCollectorCountsStoreEvents(t *testing.T) {
	c := metrics.New()
	st, err := fscache.New(t.TempDir(), fscache.WithObserver(c))
	require.NoError(t, err)

	require.True(t, st.Set("k", "v", nil))
	st.Get("k", nil)
	st.Get("missing", nil)
	require.True(t, st.Delete("k"))

	expected := `
# HELP gorawrcache_store_events_total Entry store events by kind: hits, misses, writes, deletes and self-heals.
# TYPE gorawrcache_store_events_total counter
gorawrcache_store_events_total{event="delete"} 1
gorawrcache_store_events_total{event="hit"} 1
gorawrcache_store_events_total{event="miss"} 1
gorawrcache_store_events_total{event="set"} 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "gorawrcache_store_events_total"))
}

func TestUnaryInterceptorRecordsCodes(t *testing.T) {
	c := metrics.New()
	ic := c.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/rawr.Cache/Get"}

	ok := func(context.Context, any) (any, error) { return "ok", nil }
	limited := func(context.Context, any) (any, error) {
		return nil, status.Error(codes.ResourceExhausted, "slow down")
	}

	for range 3 {
		_, _ = ic(t.Context(), nil, info, ok)
	}
	_, _ = ic(t.Context(), nil, info, limited)

	assert.Equal(t, 2, testutil.CollectAndCount(c.Registry(), "gorawrcache_rpc_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Registry(), "gorawrcache_rpc_duration_seconds"))
}

func TestStreamInterceptorRecords(t *testing.T) {
	c := metrics.New()
	ic := c.StreamServerInterceptor()

	err := ic(nil, nil, &grpc.StreamServerInfo{FullMethod: "/rawr.Cache/Watch"}, func(any, grpc.ServerStream) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(c.Registry(), "gorawrcache_rpc_requests_total"))
}

func TestHandlerServesMetrics(t *testing.T) {
	c := metrics.New()
	c.Observe(fscache.EventCorrupt)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gorawrcache_store_events_total{event="corrupt"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
