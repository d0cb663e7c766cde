// Package model defines domain models for the raffle host.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RaffleState is the lifecycle state of a raffle round.
type RaffleState uint8

const (
	// RaffleOpen accepts entries.
	RaffleOpen RaffleState = iota
	// RaffleCalculating waits for a randomness callback; entries are refused.
	RaffleCalculating
)

func (s RaffleState) String() string {
	switch s {
	case RaffleOpen:
		return "open"
	case RaffleCalculating:
		return "calculating"
	default:
		return "unknown"
	}
}

// RaffleSnapshot is a consistent read of the raffle taken under its lock.
type RaffleSnapshot struct {
	Address           common.Address
	State             RaffleState
	EntranceFee       *big.Int
	Interval          time.Duration
	LastTimestamp     time.Time
	Players           []common.Address
	Balance           *big.Int
	RecentWinner      common.Address
	PendingRequestID  uint64
	HasPendingRequest bool
	Round             uint64
}
