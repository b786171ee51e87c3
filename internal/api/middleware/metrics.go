// metrics.go: HTTP-метрики Prometheus.
// Регистрирует ac_http_requests_total и ac_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ac_http_requests_total",
			Help: "HTTP requests served by the asset console",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ac_http_request_duration_seconds",
			Help:    "Duration of asset console HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware учитывает число и длительность запросов по маршрутам.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

var staticPaths = map[string]bool{
	"/": true, "/login": true, "/logout": true, "/dashboard": true, "/unauthorized": true,
	"/session/ping": true, "/set-language": true,
	"/admin": true, "/admin/assetForm": true, "/admin/viewAsset": true,
	"/admin/reportPage": true, "/admin/reportPage/export.csv": true, "/admin/reportPage/export.pdf": true,
	"/admin/viewUsers": true, "/admin/users": true, "/admin/roles": true, "/admin/requests": true,
	"/superadmin": true, "/user": true, "/user/requests": true,
	"/api/v1/categories": true, "/api/v1/depreciation": true,
	"/health/live": true, "/health/ready": true, "/metrics": true,
}

// normalizePath заменяет id записей на {id} и сворачивает неизвестные пути,
// чтобы набор меток оставался ограниченным.
// /admin/assets/66f1.../edit -> /admin/assets/{id}/edit
func normalizePath(path string) string {
	if staticPaths[path] {
		return path
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	prefixes := []struct {
		prefix   string
		suffixes []string
	}{
		{"/admin/assets/", []string{"/edit", "/delete"}},
		{"/admin/roles/", []string{"", "/unassign"}},
		{"/admin/requests/", []string{"/status"}},
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if !ok || rest == "" {
			continue
		}
		id, suffix, _ := strings.Cut(rest, "/")
		if id == "" {
			continue
		}
		if suffix != "" {
			suffix = "/" + suffix
		}
		for _, s := range p.suffixes {
			if s == suffix {
				return p.prefix + "{id}" + suffix
			}
		}
	}
	return "other"
}
