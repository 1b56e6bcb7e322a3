package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keksclan/goRawrCache/fscache"
)

func newRouter(t *testing.T) (http.Handler, *fscache.Store) {
	t.Helper()
	st, err := fscache.New(t.TempDir())
	require.NoError(t, err)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	return NewRouter(st, metrics), st
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h, st := newRouter(t)

	rec := do(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), st.Dir())
}

func TestMetricsMounted(t *testing.T) {
	h, _ := newRouter(t)

	rec := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestGetEntry(t *testing.T) {
	h, st := newRouter(t)
	require.True(t, st.Set("user_1", map[string]any{"name": "ada"}, nil))

	rec := do(h, http.MethodGet, "/v1/entries/user_1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"ada"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/v1/entries/nobody").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/v1/entries/bad$key").Code)
}

func TestDeleteEntryAndPattern(t *testing.T) {
	h, st := newRouter(t)
	require.True(t, st.SetMultiple(map[string]any{"a_1": 1, "a_2": 2, "b_1": 3}, nil))

	rec := do(h, http.MethodDelete, "/v1/entries/b_1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.False(t, st.Has("b_1"))

	rec = do(h, http.MethodDelete, "/v1/entries/?pattern=a_*")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, st.Has("a_1"))
	assert.False(t, st.Has("a_2"))
}
