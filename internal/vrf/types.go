package vrf

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Consumer interface {
		RawFulfillRandomWords(ctx context.Context, caller common.Address, requestID uint64, words []*big.Int) error
	}
	Publisher interface {
		Publish(evt model.Event)
	}
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
