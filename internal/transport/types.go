package transport

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Raffle interface {
		Snapshot() model.RaffleSnapshot
		EnterRaffle(ctx context.Context, player common.Address, deposit *big.Int) error
		CheckUpkeep(ctx context.Context) bool
		PerformUpkeep(ctx context.Context) (uint64, error)
		Player(index int) (common.Address, error)
	}
	Accounts interface {
		BalanceOf(addr common.Address) *big.Int
	}
	Winners interface {
		RecentWinners(ctx context.Context, limit uint64) ([]model.Winner, error)
	}
	Metrics interface {
		ObserveRequest(route, method string, code int, started time.Time)
	}
)
