package clickhouse

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

const recentWinnersQuery = `
SELECT contract, round, account, amount, timestamp
FROM raffle_events
WHERE kind = ?
ORDER BY timestamp DESC, round DESC
LIMIT ?`

// RecentWinners returns up to limit WinnerPicked events, newest first.
func (r *Repository) RecentWinners(ctx context.Context, limit uint64) (winners []model.Winner, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("recent_winners", err, start)
	}()

	if limit == 0 {
		return nil, nil
	}

	rows, err := r.conn.Query(ctx, recentWinnersQuery, string(model.EventWinnerPicked), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent winners: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	winners = make([]model.Winner, 0, limit)
	for rows.Next() {
		var (
			contract string
			account  string
			w        model.Winner
		)
		w.Amount = new(big.Int)
		if err = rows.Scan(&contract, &w.Round, &account, w.Amount, &w.Timestamp); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		w.Contract = common.HexToAddress(contract)
		w.Winner = common.HexToAddress(account)
		winners = append(winners, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate winners: %w", err)
	}

	return winners, nil
}
