package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/davidkirwan/asset-monitoring/internal/source"
	"github.com/davidkirwan/asset-monitoring/internal/telemetry"
)

// NewRouter creates the HTTP router with all routes.
func NewRouter(agg *source.Aggregator, tel *telemetry.Telemetry, basePath string, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	ha := &healthAPI{}
	ma := &metricsAPI{agg: agg, log: log}

	mux.HandleFunc("GET /health", ha.health)
	mux.HandleFunc("GET /ready", ha.ready)
	mux.HandleFunc("GET /metrics", ma.scrape)
	if tel != nil {
		mux.Handle("GET /telemetry", tel.Handler())
	}

	// Everything else is a plain-text 404.
	mux.HandleFunc("/", notFound)

	var handler http.Handler = mux

	// If base_path is set, strip the prefix so internal routing works unchanged
	if basePath != "/" && basePath != "" {
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, basePath) {
				r.URL.Path = strings.TrimPrefix(r.URL.Path, basePath)
				if r.URL.Path == "" {
					r.URL.Path = "/"
				}
				r.URL.RawPath = strings.TrimPrefix(r.URL.RawPath, basePath)
			}
			inner.ServeHTTP(w, r)
		})
	}

	return withMiddleware(handler, log)
}

func withMiddleware(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Recovery
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("[http] panic: %v", err)
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("500 internal server error"))
			}
		}()

		next.ServeHTTP(w, r)

		log.Debugf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("404 not found"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
