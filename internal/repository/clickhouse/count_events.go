package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

const countEventsQuery = `
SELECT count() AS events
FROM raffle_events
WHERE kind = ?`

// CountEvents returns how many events of kind were journaled.
func (r *Repository) CountEvents(ctx context.Context, kind model.EventKind) (count uint64, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("count_events", err, start)
	}()

	rows, err := r.conn.Query(ctx, countEventsQuery, string(kind))
	if err != nil {
		return 0, fmt.Errorf("query event count: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		return 0, fmt.Errorf("event count not found")
	}
	if err = rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan event count: %w", err)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate event count: %w", err)
	}

	return count, nil
}
