package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clickhouseQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rafflekeeper",
		Subsystem: "clickhouse",
		Name:      "queries_total",
		Help:      "Count of ClickHouse queries by table, operation and status.",
	}, []string{"table", "operation", "status"})
	clickhouseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rafflekeeper",
		Subsystem: "clickhouse",
		Name:      "query_duration_seconds",
		Help:      "Duration of ClickHouse queries.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"table", "operation", "status"})
)

// ClickhouseRepository tracks queries against one ClickHouse table.
type ClickhouseRepository struct {
	table string
}

func NewClickhouseRepository(table string) *ClickhouseRepository {
	if table == "" {
		table = "unknown"
	}
	return &ClickhouseRepository{table: table}
}

// Observe records duration and status of a query. Canceled queries are counted
// apart from failures.
func (m ClickhouseRepository) Observe(operation string, err error, started time.Time) {
	status := "success"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	case err != nil:
		status = "error"
	}
	clickhouseQueriesTotal.WithLabelValues(m.table, operation, status).Inc()
	clickhouseQueryDuration.WithLabelValues(m.table, operation, status).Observe(time.Since(started).Seconds())
}
