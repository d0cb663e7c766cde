package fulfiller

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/rafflekeeper/internal/vrf"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Coordinator interface {
		PendingRequests() []vrf.Request
		FulfillRandomWords(ctx context.Context, requestID uint64, consumer common.Address) (vrf.Fulfillment, error)
	}
	Metrics interface {
		SetPending(n int)
		ObserveFulfillment(err error, callbackOK bool, started time.Time)
	}
)
