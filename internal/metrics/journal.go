package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	journalFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "journal",
		Name:      "flush_total",
		Help:      "Count of event batch flushes.",
	}, []string{"status"})
	journalFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "journal",
		Name:      "flush_duration_seconds",
		Help:      "Duration of event batch flushes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
	journalFlushSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "journal",
		Name:      "flush_size",
		Help:      "Number of events per flush.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	journalDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "journal",
		Name:      "dropped_events_total",
		Help:      "Events the journal subscription missed because its buffer was full.",
	})
)

// Journal tracks the event journal.
type Journal struct{}

// NewJournal creates a Journal metrics collector.
func NewJournal() *Journal {
	return &Journal{}
}

func (m Journal) ObserveFlush(err error, events int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	journalFlushTotal.WithLabelValues(status).Inc()
	journalFlushDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	journalFlushSize.Observe(float64(events))
}

func (m Journal) AddDropped(n uint64) {
	journalDroppedTotal.Add(float64(n))
}
