package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

const insertEventsQuery = `
INSERT INTO raffle_events (
	kind,
	contract,
	account,
	request_id,
	subscription_id,
	amount,
	round,
	success,
	timestamp
) VALUES`

// InsertEvents stores journal rows in ClickHouse.
func (r *Repository) InsertEvents(ctx context.Context, events []model.Event) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertEventsQuery)
	if err != nil {
		return fmt.Errorf("prepare events batch: %w", err)
	}

	for _, evt := range events {
		if err = batch.Append(eventRow(evt)...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append event: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}

func eventRow(evt model.Event) []any {
	return []any{
		string(evt.Kind),
		evt.Contract.Hex(),
		evt.Account.Hex(),
		evt.RequestID,
		evt.SubscriptionID,
		evt.AmountOrZero(),
		evt.Round,
		evt.Success,
		evt.Timestamp,
	}
}
