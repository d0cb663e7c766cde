package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keeperChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "keeper",
		Name:      "checks_total",
		Help:      "Count of checkUpkeep calls by result.",
	}, []string{"needed"})
	keeperUpkeepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "keeper",
		Name:      "upkeeps_total",
		Help:      "Count of performUpkeep attempts by outcome.",
	}, []string{"status"})
	keeperUpkeepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "keeper",
		Name:      "upkeep_duration_seconds",
		Help:      "Duration of performUpkeep attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// Keeper tracks the automation loop.
type Keeper struct{}

// NewKeeper creates a Keeper metrics collector.
func NewKeeper() *Keeper {
	return &Keeper{}
}

func (m Keeper) ObserveCheck(needed bool) {
	label := "false"
	if needed {
		label = "true"
	}
	keeperChecksTotal.WithLabelValues(label).Inc()
}

// ObserveUpkeep records a performUpkeep attempt. notNeeded marks an attempt that lost
// the race against another caller; it is counted apart from failures.
func (m Keeper) ObserveUpkeep(err error, notNeeded bool, started time.Time) {
	status := "success"
	switch {
	case notNeeded:
		status = "not_needed"
	case err != nil:
		status = "error"
	}
	keeperUpkeepsTotal.WithLabelValues(status).Inc()
	keeperUpkeepDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
