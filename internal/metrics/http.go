package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of API requests.",
	}, []string{"route", "method", "code"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// HTTP tracks the JSON API.
type HTTP struct{}

// NewHTTP creates an HTTP metrics collector.
func NewHTTP() *HTTP {
	return &HTTP{}
}

func (m HTTP) ObserveRequest(route, method string, code int, started time.Time) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(started).Seconds())
}
