// Package raffle implements the lottery contract: players buy in while the round is
// open, automation closes the round once the interval has passed, and the VRF
// coordinator's callback picks and pays the winner.
package raffle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

const (
	defaultRequestConfirmations uint16 = 3
	defaultNumWords             uint32 = 1
)

// Config holds the constructor arguments fixed at deployment.
type Config struct {
	Address              common.Address
	Coordinator          common.Address
	EntranceFee          *big.Int
	GasLane              common.Hash
	SubscriptionID       uint64
	CallbackGasLimit     uint32
	Interval             time.Duration
	RequestConfirmations uint16
	NumWords             uint32
}

// Raffle is the contract state. Every exported method runs under one mutex, so calls
// are serialized the way transactions are on a chain.
type Raffle struct {
	mu sync.Mutex

	address          common.Address
	coordinatorAddr  common.Address
	coordinator      Coordinator
	ledger           Ledger
	publisher        Publisher
	clock            clock.Clock
	metrics          Metrics
	logger           *zap.Logger
	entranceFee      *big.Int
	interval         time.Duration
	gasLane          common.Hash
	subscriptionID   uint64
	callbackGasLimit uint32
	confirmations    uint16
	numWords         uint32

	state            model.RaffleState
	players          []common.Address
	balance          *big.Int
	lastTimestamp    time.Time
	recentWinner     common.Address
	pendingRequestID uint64
	hasPending       bool
	round            uint64
}

// New deploys a Raffle. publisher and metrics may be nil.
func New(
	cfg Config,
	coordinator Coordinator,
	ledger Ledger,
	publisher Publisher,
	clk clock.Clock,
	metrics Metrics,
	logger *zap.Logger,
) (*Raffle, error) {
	if coordinator == nil {
		return nil, errors.New("raffle coordinator is required")
	}
	if ledger == nil {
		return nil, errors.New("raffle ledger is required")
	}
	if clk == nil {
		return nil, errors.New("raffle clock is required")
	}
	if cfg.Coordinator == (common.Address{}) {
		return nil, errors.New("raffle coordinator address is required")
	}
	if cfg.EntranceFee == nil || cfg.EntranceFee.Sign() < 0 {
		return nil, errors.New("raffle entrance fee must be non-negative")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("raffle interval must be positive, got %s", cfg.Interval)
	}
	if cfg.RequestConfirmations == 0 {
		cfg.RequestConfirmations = defaultRequestConfirmations
	}
	if cfg.NumWords == 0 {
		cfg.NumWords = defaultNumWords
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Raffle{
		address:          cfg.Address,
		coordinatorAddr:  cfg.Coordinator,
		coordinator:      coordinator,
		ledger:           ledger,
		publisher:        publisher,
		clock:            clk,
		metrics:          metrics,
		logger:           logger.With(zap.Stringer("raffle", cfg.Address)),
		entranceFee:      new(big.Int).Set(cfg.EntranceFee),
		interval:         cfg.Interval,
		gasLane:          cfg.GasLane,
		subscriptionID:   cfg.SubscriptionID,
		callbackGasLimit: cfg.CallbackGasLimit,
		confirmations:    cfg.RequestConfirmations,
		numWords:         cfg.NumWords,
		state:            model.RaffleOpen,
		balance:          new(big.Int),
		lastTimestamp:    clk.Now(),
	}, nil
}

// EnterRaffle escrows deposit from player and adds the player to the current round.
func (r *Raffle) EnterRaffle(ctx context.Context, player common.Address, deposit *big.Int) (err error) {
	started := time.Now()
	defer func() {
		r.observe("enter_raffle", err, started)
	}()
	if err = ctx.Err(); err != nil {
		return err
	}
	if deposit == nil {
		deposit = new(big.Int)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if deposit.Cmp(r.entranceFee) < 0 {
		return fmt.Errorf("%w: sent %s wei, entrance fee is %s wei", ErrInsufficientPayment, deposit, r.entranceFee)
	}
	if r.state != model.RaffleOpen {
		return ErrNotOpen
	}
	if err = r.ledger.Transfer(player, r.address, deposit); err != nil {
		return fmt.Errorf("escrow entrance fee: %w", err)
	}

	r.players = append(r.players, player)
	r.balance.Add(r.balance, deposit)

	r.publish(model.Event{
		Kind:    model.EventEnteredRaffle,
		Account: player,
		Amount:  new(big.Int).Set(deposit),
		Round:   r.round + 1,
	})
	r.logger.Debug("player entered", zap.Stringer("player", player), zap.Int("players", len(r.players)))
	return nil
}

// CheckUpkeep reports whether PerformUpkeep would succeed now. It changes nothing.
func (r *Raffle) CheckUpkeep(_ context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upkeepNeeded()
}

// PerformUpkeep closes the round and asks the coordinator for randomness. Eligibility
// is checked again inside the call; if the request fails the raffle stays open.
func (r *Raffle) PerformUpkeep(ctx context.Context) (requestID uint64, err error) {
	started := time.Now()
	defer func() {
		r.observe("perform_upkeep", err, started)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.upkeepNeeded() {
		return 0, &UpkeepNotNeededError{
			Balance: new(big.Int).Set(r.balance),
			Players: len(r.players),
			State:   r.state,
		}
	}

	requestID, err = r.coordinator.RequestRandomWords(
		ctx,
		r.address,
		r.gasLane,
		r.subscriptionID,
		r.confirmations,
		r.callbackGasLimit,
		r.numWords,
	)
	if err != nil {
		return 0, fmt.Errorf("request random words: %w", err)
	}

	r.state = model.RaffleCalculating
	r.pendingRequestID = requestID
	r.hasPending = true

	r.publish(model.Event{
		Kind:      model.EventRandomnessRequested,
		RequestID: requestID,
		Round:     r.round + 1,
	})
	r.logger.Info("randomness requested",
		zap.Uint64("request_id", requestID),
		zap.Int("players", len(r.players)),
		zap.String("pot", model.FormatEther(r.balance)),
	)
	return requestID, nil
}

// RawFulfillRandomWords is the coordinator callback. caller must be the coordinator
// the raffle was deployed with and requestID must be the outstanding request.
func (r *Raffle) RawFulfillRandomWords(ctx context.Context, caller common.Address, requestID uint64, words []*big.Int) (err error) {
	started := time.Now()
	defer func() {
		r.observe("fulfill_random_words", err, started)
	}()
	if err = ctx.Err(); err != nil {
		return err
	}
	if caller != r.coordinatorAddr {
		return fmt.Errorf("%w: got %s", ErrUnauthorized, caller.Hex())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != model.RaffleCalculating || !r.hasPending || requestID != r.pendingRequestID {
		return fmt.Errorf("%w: %d", ErrUnknownRequest, requestID)
	}
	if len(words) == 0 || words[0] == nil {
		return fmt.Errorf("%w: request %d returned no words", ErrInvalidRandomWords, requestID)
	}
	if len(r.players) == 0 {
		return errNoPlayers
	}

	idx := new(big.Int).Mod(words[0], big.NewInt(int64(len(r.players))))
	winner := r.players[idx.Int64()]
	prize := new(big.Int).Set(r.balance)

	if err = r.ledger.Transfer(r.address, winner, prize); err != nil {
		return fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}

	r.recentWinner = winner
	r.players = nil
	r.balance = new(big.Int)
	r.lastTimestamp = r.clock.Now()
	r.pendingRequestID = 0
	r.hasPending = false
	r.state = model.RaffleOpen
	r.round++

	r.publish(model.Event{
		Kind:      model.EventWinnerPicked,
		Account:   winner,
		RequestID: requestID,
		Amount:    prize,
		Round:     r.round,
	})
	r.logger.Info("winner picked",
		zap.Stringer("winner", winner),
		zap.Uint64("round", r.round),
		zap.String("prize", model.FormatEther(prize)),
	)
	return nil
}

// Address returns the raffle's account address.
func (r *Raffle) Address() common.Address {
	return r.address
}

// Coordinator returns the address of the coordinator allowed to fulfil requests.
func (r *Raffle) Coordinator() common.Address {
	return r.coordinatorAddr
}

func (r *Raffle) EntranceFee() *big.Int {
	return new(big.Int).Set(r.entranceFee)
}

func (r *Raffle) Interval() time.Duration {
	return r.interval
}

func (r *Raffle) NumWords() uint32 {
	return r.numWords
}

func (r *Raffle) RequestConfirmations() uint16 {
	return r.confirmations
}

func (r *Raffle) State() model.RaffleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RecentWinner returns the last paid winner, or the zero address before the first payout.
func (r *Raffle) RecentWinner() common.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentWinner
}

// Player returns the player that entered at index in the current round.
func (r *Raffle) Player(index int) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.players) {
		return common.Address{}, fmt.Errorf("%w: %d of %d", ErrPlayerIndexOutOfRange, index, len(r.players))
	}
	return r.players[index], nil
}

func (r *Raffle) NumberOfPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Raffle) LastTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTimestamp
}

// PendingRequest returns the outstanding request ID while the round is calculating.
func (r *Raffle) PendingRequest() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingRequestID, r.hasPending
}

// Balance returns the pot collected since the last payout.
func (r *Raffle) Balance() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return new(big.Int).Set(r.balance)
}

// Round returns the number of completed rounds.
func (r *Raffle) Round() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

// Snapshot returns every field at once.
func (r *Raffle) Snapshot() model.RaffleSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]common.Address, len(r.players))
	copy(players, r.players)
	return model.RaffleSnapshot{
		Address:           r.address,
		State:             r.state,
		EntranceFee:       new(big.Int).Set(r.entranceFee),
		Interval:          r.interval,
		LastTimestamp:     r.lastTimestamp,
		Players:           players,
		Balance:           new(big.Int).Set(r.balance),
		RecentWinner:      r.recentWinner,
		PendingRequestID:  r.pendingRequestID,
		HasPendingRequest: r.hasPending,
		Round:             r.round,
	}
}

func (r *Raffle) upkeepNeeded() bool {
	isOpen := r.state == model.RaffleOpen
	timePassed := r.clock.Now().Sub(r.lastTimestamp) >= r.interval
	hasPlayers := len(r.players) > 0
	hasBalance := r.balance.Sign() > 0
	return isOpen && timePassed && hasPlayers && hasBalance
}

func (r *Raffle) publish(evt model.Event) {
	if r.publisher == nil {
		return
	}
	evt.Contract = r.address
	evt.Timestamp = r.clock.Now()
	r.publisher.Publish(evt)
}

func (r *Raffle) observe(operation string, err error, started time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.Observe(operation, err, started)
}
