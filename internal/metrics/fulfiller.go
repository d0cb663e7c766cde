package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fulfillerPendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rafflekeeper",
		Subsystem: "fulfiller",
		Name:      "pending_requests",
		Help:      "Randomness requests waiting for fulfilment.",
	})
	fulfillerFulfillmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "fulfiller",
		Name:      "fulfillments_total",
		Help:      "Count of fulfilments by outcome.",
	}, []string{"status"})
	fulfillerFulfillmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "fulfiller",
		Name:      "fulfillment_duration_seconds",
		Help:      "Duration of fulfilments including the consumer callback.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// Fulfiller tracks the development VRF node.
type Fulfiller struct{}

// NewFulfiller creates a Fulfiller metrics collector.
func NewFulfiller() *Fulfiller {
	return &Fulfiller{}
}

func (m Fulfiller) SetPending(n int) {
	fulfillerPendingRequests.Set(float64(n))
}

// ObserveFulfillment records one request. callbackOK is false when the request was
// consumed but the consumer's callback failed.
func (m Fulfiller) ObserveFulfillment(err error, callbackOK bool, started time.Time) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case !callbackOK:
		status = "callback_failed"
	}
	fulfillerFulfillmentsTotal.WithLabelValues(status).Inc()
	fulfillerFulfillmentDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
