// Package httpapi is the daemon's HTTP side: health, Prometheus metrics and
// a small read/delete view of the entry store for operators.
package httpapi

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/Keksclan/goRawrCache/fscache"
)

// NewRouter returns the HTTP handler for the daemon. metrics may be nil.
func NewRouter(store *fscache.Store, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz(store))
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/v1/entries", func(r chi.Router) {
		r.Get("/{key}", getEntry(store))
		r.Delete("/{key}", deleteEntry(store))
		r.Delete("/", deletePattern(store))
	})
	return r
}

func healthz(store *fscache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if fi, err := os.Stat(store.Dir()); err != nil || !fi.IsDir() {
			http.Error(w, "cache directory unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "directory": store.Dir()})
	}
}

func getEntry(store *fscache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if !fscache.ValidKey(key) {
			http.Error(w, fscache.ErrInvalidKey.Error(), http.StatusBadRequest)
			return
		}
		var raw json.RawMessage
		if !store.Scan(key, &raw) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func deleteEntry(store *fscache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if !fscache.ValidKey(key) {
			http.Error(w, fscache.ErrInvalidKey.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": store.Delete(key)})
	}
}

// deletePattern removes entries matching ?pattern=, defaulting to all.
func deletePattern(store *fscache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pattern := r.URL.Query().Get("pattern")
		if pattern == "" {
			pattern = "*"
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": store.DeleteByPattern(pattern)})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
