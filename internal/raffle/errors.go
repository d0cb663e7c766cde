package raffle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

var (
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrNotOpen               = errors.New("raffle not open")
	ErrUpkeepNotNeeded       = errors.New("upkeep not needed")
	ErrUnknownRequest        = errors.New("unknown randomness request")
	ErrPayoutFailed          = errors.New("payout failed")
	ErrUnauthorized          = errors.New("caller is not the coordinator")
	ErrInvalidRandomWords    = errors.New("invalid random words")
	ErrPlayerIndexOutOfRange = errors.New("player index out of range")

	errNoPlayers = errors.New("calculating round has no players")
)

// UpkeepNotNeededError carries the counters that made upkeep ineligible.
// It matches ErrUpkeepNotNeeded, and ErrNotOpen when the round is calculating.
type UpkeepNotNeededError struct {
	Balance *big.Int
	Players int
	State   model.RaffleState
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("%s: balance=%s players=%d state=%s", ErrUpkeepNotNeeded, e.Balance, e.Players, e.State)
}

func (e *UpkeepNotNeededError) Is(target error) bool {
	switch target {
	case ErrUpkeepNotNeeded:
		return true
	case ErrNotOpen:
		return e.State != model.RaffleOpen
	default:
		return false
	}
}
