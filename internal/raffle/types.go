package raffle

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Coordinator interface {
		RequestRandomWords(
			ctx context.Context,
			consumer common.Address,
			keyHash common.Hash,
			subID uint64,
			confirmations uint16,
			callbackGasLimit uint32,
			numWords uint32,
		) (uint64, error)
	}
	Ledger interface {
		Transfer(from, to common.Address, amount *big.Int) error
	}
	Publisher interface {
		Publish(evt model.Event)
	}
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
