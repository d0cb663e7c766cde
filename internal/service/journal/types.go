package journal

import (
	"context"
	"time"

	"github.com/goodnatureofminers/rafflekeeper/internal/event"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Bus interface {
		Subscribe(buffer int) *event.Subscription
		Unsubscribe(s *event.Subscription) uint64
	}
	Repository interface {
		InsertEvents(ctx context.Context, events []model.Event) error
	}
	EventWriter interface {
		Start(ctx context.Context)
		Stop()
		Add(ctx context.Context, evt model.Event) error
	}
	Metrics interface {
		ObserveFlush(err error, events int, started time.Time)
		AddDropped(n uint64)
	}
)
