package keeper

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Raffle interface {
		CheckUpkeep(ctx context.Context) bool
		PerformUpkeep(ctx context.Context) (uint64, error)
	}
	Metrics interface {
		ObserveCheck(needed bool)
		ObserveUpkeep(err error, notNeeded bool, started time.Time)
	}
)
