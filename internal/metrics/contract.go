package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contractCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "contract",
		Name:      "calls_total",
		Help:      "Count of contract calls by outcome.",
	}, []string{"contract", "operation", "status"})
	contractCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "contract",
		Name:      "call_duration_seconds",
		Help:      "Duration of contract calls.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"contract", "operation", "status"})
)

// Contract tracks calls into a hosted contract.
type Contract struct {
	name string
}

// NewContract creates a Contract collector labelled with name.
func NewContract(name string) *Contract {
	if name == "" {
		name = "unknown"
	}
	return &Contract{name: name}
}

// Observe records duration and status of a contract call.
func (m Contract) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	contractCallsTotal.WithLabelValues(m.name, operation, status).Inc()
	contractCallDuration.WithLabelValues(m.name, operation, status).Observe(time.Since(started).Seconds())
}
