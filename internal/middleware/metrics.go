package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"image-gallery/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are exact paths that are not recorded. Library folders may
	// share a prefix with them, so prefixes are not matched.
	SkipPaths []string
}

// DefaultMetricsConfig skips the probes and the metrics endpoint itself.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records request count, latency and
// in-flight gauge. Installed with mux.Router.Use, it labels requests by
// route template; outside a router it falls back to normalizePath.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			path := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel returns the matched mux route template, if any.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath maps a request path to a bounded label. API routes keep
// their first two segments; anything else is served by the file fallback
// and collapses to one label.
func normalizePath(path string) string {
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
		if len(parts) > 3 {
			parts = parts[:3]
		}
		return "/" + strings.Join(parts, "/")
	}
	if healthCheckPaths[path] || path == "/version" || path == "/" {
		return path
	}
	return "/{file}"
}
