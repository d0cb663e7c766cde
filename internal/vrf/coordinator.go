// Package vrf is a development VRF coordinator: it holds LINK subscriptions, accepts
// randomness requests from registered consumers and fulfils them on demand with
// deterministic words.
package vrf

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

const (
	MaxNumWords  uint32 = 500
	MaxConsumers        = 100

	// DefaultFulfillmentGas is the gas a callback is billed for, capped by the
	// request's callback gas limit.
	DefaultFulfillmentGas uint32 = 100_000
)

var (
	// DefaultBaseFee is the flat premium per fulfilment, 0.25 LINK.
	DefaultBaseFee = big.NewInt(250_000_000_000_000_000)
	// DefaultGasPriceLink is the LINK price per gas unit, 1e9 juels.
	DefaultGasPriceLink = big.NewInt(1_000_000_000)
)

type Config struct {
	Address        common.Address
	BaseFee        *big.Int
	GasPriceLink   *big.Int
	FulfillmentGas uint32
}

// Subscription is a copy of a subscription's state.
type Subscription struct {
	ID           uint64
	Owner        common.Address
	Balance      *big.Int
	RequestCount uint64
	Consumers    []common.Address
}

// Request is an outstanding randomness request.
type Request struct {
	ID               uint64
	SubscriptionID   uint64
	Consumer         common.Address
	KeyHash          common.Hash
	Confirmations    uint16
	CallbackGasLimit uint32
	NumWords         uint32
	RequestedAt      time.Time
}

type subscription struct {
	owner        common.Address
	balance      *big.Int
	requestCount uint64
	consumers    []common.Address
}

// Coordinator never holds its mutex while calling into a consumer, so consumers may
// call back into it from their callback.
type Coordinator struct {
	mu sync.Mutex

	address        common.Address
	baseFee        *big.Int
	gasPriceLink   *big.Int
	fulfillmentGas uint32
	clock          clock.Clock
	publisher      Publisher
	metrics        Metrics
	logger         *zap.Logger

	nextSubID     uint64
	nextRequestID uint64
	subscriptions map[uint64]*subscription
	requests      map[uint64]Request
	callbacks     map[common.Address]Consumer
}

// New deploys a Coordinator. Zero fees fall back to the defaults; publisher and
// metrics may be nil.
func New(cfg Config, clk clock.Clock, publisher Publisher, metrics Metrics, logger *zap.Logger) (*Coordinator, error) {
	if clk == nil {
		return nil, errors.New("vrf clock is required")
	}
	if cfg.Address == (common.Address{}) {
		return nil, errors.New("vrf coordinator address is required")
	}
	if cfg.BaseFee == nil {
		cfg.BaseFee = DefaultBaseFee
	}
	if cfg.GasPriceLink == nil {
		cfg.GasPriceLink = DefaultGasPriceLink
	}
	if cfg.BaseFee.Sign() < 0 || cfg.GasPriceLink.Sign() < 0 {
		return nil, fmt.Errorf("vrf fees: %w", ErrNegativeAmount)
	}
	if cfg.FulfillmentGas == 0 {
		cfg.FulfillmentGas = DefaultFulfillmentGas
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		address:        cfg.Address,
		baseFee:        new(big.Int).Set(cfg.BaseFee),
		gasPriceLink:   new(big.Int).Set(cfg.GasPriceLink),
		fulfillmentGas: cfg.FulfillmentGas,
		clock:          clk,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger.With(zap.Stringer("coordinator", cfg.Address)),
		subscriptions:  map[uint64]*subscription{},
		requests:       map[uint64]Request{},
		callbacks:      map[common.Address]Consumer{},
	}, nil
}

func (c *Coordinator) Address() common.Address {
	return c.address
}

func (c *Coordinator) BaseFee() *big.Int {
	return new(big.Int).Set(c.baseFee)
}

func (c *Coordinator) GasPriceLink() *big.Int {
	return new(big.Int).Set(c.gasPriceLink)
}

// Bind attaches the callback target deployed at addr.
func (c *Coordinator) Bind(addr common.Address, consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks[addr] = consumer
}

// CreateSubscription opens an empty subscription owned by owner.
func (c *Coordinator) CreateSubscription(owner common.Address) uint64 {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subscriptions[id] = &subscription{owner: owner, balance: new(big.Int)}
	c.mu.Unlock()

	c.publish(model.Event{Kind: model.EventSubscriptionCreated, SubscriptionID: id, Account: owner})
	c.logger.Info("subscription created", zap.Uint64("sub_id", id), zap.Stringer("owner", owner))
	return id
}

// FundSubscription adds amount juels to subID.
func (c *Coordinator) FundSubscription(subID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	sub.balance.Add(sub.balance, amount)
	c.mu.Unlock()

	c.publish(model.Event{
		Kind:           model.EventSubscriptionFunded,
		SubscriptionID: subID,
		Amount:         new(big.Int).Set(amount),
	})
	return nil
}

// AddConsumer registers consumer on subID. Adding an existing consumer is a no-op.
func (c *Coordinator) AddConsumer(caller common.Address, subID uint64, consumer common.Address) error {
	c.mu.Lock()
	sub, err := c.ownedSubscription(caller, subID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if slices.Contains(sub.consumers, consumer) {
		c.mu.Unlock()
		return nil
	}
	if len(sub.consumers) >= MaxConsumers {
		c.mu.Unlock()
		return fmt.Errorf("%w: subscription %d", ErrTooManyConsumers, subID)
	}
	sub.consumers = append(sub.consumers, consumer)
	c.mu.Unlock()

	c.publish(model.Event{Kind: model.EventConsumerAdded, SubscriptionID: subID, Account: consumer})
	return nil
}

// RemoveConsumer unregisters consumer from subID.
func (c *Coordinator) RemoveConsumer(caller common.Address, subID uint64, consumer common.Address) error {
	c.mu.Lock()
	sub, err := c.ownedSubscription(caller, subID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	idx := slices.Index(sub.consumers, consumer)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s on subscription %d", ErrInvalidConsumer, consumer.Hex(), subID)
	}
	sub.consumers = slices.Delete(sub.consumers, idx, idx+1)
	c.mu.Unlock()

	c.publish(model.Event{Kind: model.EventConsumerRemoved, SubscriptionID: subID, Account: consumer})
	return nil
}

func (c *Coordinator) GetSubscription(subID uint64) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		return Subscription{}, fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	return Subscription{
		ID:           subID,
		Owner:        sub.owner,
		Balance:      new(big.Int).Set(sub.balance),
		RequestCount: sub.requestCount,
		Consumers:    slices.Clone(sub.consumers),
	}, nil
}

// RequestRandomWords queues a request on behalf of consumer, which must be registered
// on subID. It implements raffle.Coordinator.
func (c *Coordinator) RequestRandomWords(
	ctx context.Context,
	consumer common.Address,
	keyHash common.Hash,
	subID uint64,
	confirmations uint16,
	callbackGasLimit uint32,
	numWords uint32,
) (requestID uint64, err error) {
	started := time.Now()
	defer func() {
		c.observe("request_random_words", err, started)
	}()
	if err = ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	sub, ok := c.subscriptions[subID]
	if !ok {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	if !slices.Contains(sub.consumers, consumer) {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: %s on subscription %d", ErrInvalidConsumer, consumer.Hex(), subID)
	}
	if numWords > MaxNumWords {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: %d > %d", ErrNumWordsTooBig, numWords, MaxNumWords)
	}

	c.nextRequestID++
	requestID = c.nextRequestID
	sub.requestCount++
	c.requests[requestID] = Request{
		ID:               requestID,
		SubscriptionID:   subID,
		Consumer:         consumer,
		KeyHash:          keyHash,
		Confirmations:    confirmations,
		CallbackGasLimit: callbackGasLimit,
		NumWords:         numWords,
		RequestedAt:      c.clock.Now(),
	}
	c.mu.Unlock()

	c.publish(model.Event{
		Kind:           model.EventRandomWordsRequested,
		RequestID:      requestID,
		SubscriptionID: subID,
		Account:        consumer,
	})
	c.logger.Debug("random words requested",
		zap.Uint64("request_id", requestID),
		zap.Uint64("sub_id", subID),
		zap.Stringer("consumer", consumer),
	)
	return requestID, nil
}

// PendingRequests returns the outstanding requests ordered by ID.
func (c *Coordinator) PendingRequests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, 0, len(c.requests))
	for _, r := range c.requests {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Request) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// FulfillRandomWords fulfils requestID with words derived from the request ID.
func (c *Coordinator) FulfillRandomWords(ctx context.Context, requestID uint64, consumer common.Address) (Fulfillment, error) {
	return c.FulfillRandomWordsWithOverride(ctx, requestID, consumer, nil)
}

// Fulfillment describes a processed request. Success is false when the consumer's
// callback failed; the request is consumed and paid for either way.
type Fulfillment struct {
	RequestID uint64
	Words     []*big.Int
	Payment   *big.Int
	Success   bool
	Err       error
}

// FulfillRandomWordsWithOverride fulfils requestID with words, or with derived words
// when words is empty. The subscription is charged before the callback runs.
func (c *Coordinator) FulfillRandomWordsWithOverride(
	ctx context.Context,
	requestID uint64,
	consumer common.Address,
	words []*big.Int,
) (f Fulfillment, err error) {
	started := time.Now()
	defer func() {
		c.observe("fulfill_random_words", err, started)
	}()
	if err = ctx.Err(); err != nil {
		return Fulfillment{}, err
	}

	c.mu.Lock()
	req, ok := c.requests[requestID]
	if !ok {
		c.mu.Unlock()
		return Fulfillment{}, ErrNonexistentRequest
	}
	if len(words) == 0 {
		if words, err = DeriveWords(requestID, req.NumWords); err != nil {
			c.mu.Unlock()
			return Fulfillment{}, err
		}
	} else if uint32(len(words)) != req.NumWords {
		c.mu.Unlock()
		return Fulfillment{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidRandomWords, len(words), req.NumWords)
	}

	payment := c.payment(req.CallbackGasLimit)
	sub := c.subscriptions[req.SubscriptionID]
	if sub == nil || sub.balance.Cmp(payment) < 0 {
		c.mu.Unlock()
		return Fulfillment{}, fmt.Errorf("%w: request %d costs %s", ErrInsufficientBalance, requestID, payment)
	}
	sub.balance.Sub(sub.balance, payment)
	delete(c.requests, requestID)
	callback := c.callbacks[consumer]
	c.mu.Unlock()

	f = Fulfillment{RequestID: requestID, Words: words, Payment: payment}
	f.Err = c.callConsumer(ctx, callback, requestID, words)
	f.Success = f.Err == nil
	if f.Err != nil {
		c.logger.Warn("consumer callback failed",
			zap.Uint64("request_id", requestID),
			zap.Stringer("consumer", consumer),
			zap.Error(f.Err),
		)
	}

	c.publish(model.Event{
		Kind:           model.EventRandomWordsFulfilled,
		RequestID:      requestID,
		SubscriptionID: req.SubscriptionID,
		Account:        consumer,
		Amount:         new(big.Int).Set(payment),
		Success:        f.Success,
	})
	return f, nil
}

func (c *Coordinator) callConsumer(ctx context.Context, callback Consumer, requestID uint64, words []*big.Int) (err error) {
	if callback == nil {
		return ErrNoCallback
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer callback panicked: %v", r)
		}
	}()
	return callback.RawFulfillRandomWords(ctx, c.address, requestID, words)
}

func (c *Coordinator) payment(callbackGasLimit uint32) *big.Int {
	gasUsed := min(c.fulfillmentGas, callbackGasLimit)
	p := new(big.Int).Mul(new(big.Int).SetUint64(uint64(gasUsed)), c.gasPriceLink)
	return p.Add(p, c.baseFee)
}

func (c *Coordinator) ownedSubscription(caller common.Address, subID uint64) (*subscription, error) {
	sub, ok := c.subscriptions[subID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSubscription, subID)
	}
	if sub.owner != caller {
		return nil, fmt.Errorf("%w: %s", ErrMustBeSubOwner, caller.Hex())
	}
	return sub, nil
}

func (c *Coordinator) publish(evt model.Event) {
	if c.publisher == nil {
		return
	}
	evt.Contract = c.address
	evt.Timestamp = c.clock.Now()
	c.publisher.Publish(evt)
}

func (c *Coordinator) observe(operation string, err error, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.Observe(operation, err, started)
}
