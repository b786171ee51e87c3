package assetapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ac_upstream_requests_total",
			Help: "Calls to the external asset API",
		},
		[]string{"operation", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ac_upstream_request_duration_seconds",
			Help:    "Latency of calls to the external asset API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// observe учитывает один вызов. Транспортные ошибки помечаются "error".
func observe(op string, status int, err error, d time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	} else if err == nil {
		label = "ok"
	}
	upstreamRequestsTotal.WithLabelValues(op, label).Inc()
	upstreamRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}
