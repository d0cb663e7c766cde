package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind names an event emitted by a hosted contract.
type EventKind string

const (
	EventEnteredRaffle        EventKind = "entered_raffle"
	EventRandomnessRequested  EventKind = "randomness_requested"
	EventWinnerPicked         EventKind = "winner_picked"
	EventSubscriptionCreated  EventKind = "subscription_created"
	EventSubscriptionFunded   EventKind = "subscription_funded"
	EventConsumerAdded        EventKind = "consumer_added"
	EventConsumerRemoved      EventKind = "consumer_removed"
	EventRandomWordsRequested EventKind = "random_words_requested"
	EventRandomWordsFulfilled EventKind = "random_words_fulfilled"
)

// Event is a flattened contract log. Fields not relevant to Kind stay zero.
type Event struct {
	Kind           EventKind
	Contract       common.Address
	Account        common.Address
	RequestID      uint64
	SubscriptionID uint64
	Amount         *big.Int
	Round          uint64
	Success        bool
	Timestamp      time.Time
}

// AmountOrZero returns Amount, or zero when it was not set.
func (e Event) AmountOrZero() *big.Int {
	if e.Amount == nil {
		return new(big.Int)
	}
	return e.Amount
}

// Winner is a persisted WinnerPicked event.
type Winner struct {
	Contract  common.Address
	Round     uint64
	Winner    common.Address
	Amount    *big.Int
	Timestamp time.Time
}
