// Package deploy stands up the raffle and, on development chains, the mock VRF
// coordinator it depends on, then publishes the results for the front end.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
	"github.com/goodnatureofminers/rafflekeeper/internal/raffle"
	"github.com/goodnatureofminers/rafflekeeper/internal/vrf"
)

const (
	MockContract   = "VRFCoordinatorV2Mock"
	RaffleContract = "Raffle"
)

var (
	// DefaultSubFundAmount is what a development subscription is funded with, 2 LINK.
	DefaultSubFundAmount = model.MustParseEther("2")

	ErrCoordinatorNotFound = errors.New("vrf coordinator not deployed")
	ErrNotConsumer         = errors.New("raffle is not a subscription consumer")
)

type Config struct {
	Network        string
	Deployer       common.Address
	SubFundAmount  *big.Int
	Records        RecordStore
	UpdateFrontEnd bool
	FrontEnd       FrontEnd
	// Verify queues the raffle for block explorer verification on live networks.
	Verify bool
}

// Host is the in-process chain the contracts are deployed to.
type Host struct {
	Ledger        raffle.Ledger
	Clock         clock.Clock
	Publisher     Publisher
	RaffleMetrics raffle.Metrics
	VRFMetrics    vrf.Metrics
}

// Deployment is the outcome of Run.
type Deployment struct {
	Network        Network
	Coordinator    *vrf.Coordinator
	Raffle         *raffle.Raffle
	SubscriptionID uint64
	EventTopics    map[string]common.Hash
}

// CheckSubscription reports whether the raffle can request randomness: its
// subscription must exist and list the raffle as a consumer.
func (d *Deployment) CheckSubscription() error {
	sub, err := d.Coordinator.GetSubscription(d.SubscriptionID)
	if err != nil {
		return fmt.Errorf("subscription %d: %w", d.SubscriptionID, err)
	}
	if !slices.Contains(sub.Consumers, d.Raffle.Address()) {
		return fmt.Errorf("%w: %s on subscription %d", ErrNotConsumer, d.Raffle.Address(), d.SubscriptionID)
	}
	return nil
}

// Deployer sends deployment transactions from a single account. Contract addresses
// follow the account nonce, so a fresh development deployment always lands on the
// same addresses.
type Deployer struct {
	cfg          Config
	networks     *Networks
	network      Network
	host         Host
	logger       *zap.Logger
	nonce        uint64
	mock         *vrf.Coordinator
	coordinators map[common.Address]*vrf.Coordinator
}

func New(cfg Config, networks *Networks, host Host, logger *zap.Logger) (*Deployer, error) {
	if networks == nil {
		return nil, errors.New("deploy network table is required")
	}
	if host.Ledger == nil {
		return nil, errors.New("deploy ledger is required")
	}
	if host.Clock == nil {
		return nil, errors.New("deploy clock is required")
	}
	if cfg.Deployer == (common.Address{}) {
		return nil, errors.New("deploy account is required")
	}
	network, err := networks.Lookup(cfg.Network)
	if err != nil {
		return nil, err
	}
	if cfg.SubFundAmount == nil {
		cfg.SubFundAmount = DefaultSubFundAmount
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Deployer{
		cfg:          cfg,
		networks:     networks,
		network:      network,
		host:         host,
		logger:       logger.With(zap.String("network", network.Name), zap.Int64("chain_id", network.ChainID)),
		coordinators: map[common.Address]*vrf.Coordinator{},
	}, nil
}

func (d *Deployer) Network() Network {
	return d.network
}

func (d *Deployer) IsDevelopment() bool {
	return d.networks.IsDevelopment(d.network.Name)
}

// RegisterCoordinator makes an already running coordinator known to the deployer,
// which is how live networks provide theirs.
func (d *Deployer) RegisterCoordinator(c *vrf.Coordinator) {
	d.coordinators[c.Address()] = c
}

// Run deploys everything for the configured network.
func (d *Deployer) Run(ctx context.Context) (*Deployment, error) {
	if _, err := d.DeployMocks(ctx); err != nil {
		return nil, err
	}
	dep, err := d.DeployRaffle(ctx)
	if err != nil {
		return nil, err
	}
	if d.cfg.UpdateFrontEnd {
		d.logger.Info("updating front end")
		if err := d.cfg.FrontEnd.Update(d.network.ChainID, dep.Raffle.Address()); err != nil {
			return nil, fmt.Errorf("update front end: %w", err)
		}
	}
	return dep, nil
}

// DeployMocks deploys the mock coordinator on development chains and does nothing elsewhere.
func (d *Deployer) DeployMocks(ctx context.Context) (*vrf.Coordinator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.IsDevelopment() {
		return nil, nil
	}
	d.logger.Info("local network detected, deploying mocks")

	addr := d.nextAddress()
	coordinator, err := vrf.New(vrf.Config{
		Address:      addr,
		BaseFee:      vrf.DefaultBaseFee,
		GasPriceLink: vrf.DefaultGasPriceLink,
	}, d.host.Clock, d.host.Publisher, d.host.VRFMetrics, d.logger.Named("vrf"))
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", MockContract, err)
	}
	d.mock = coordinator
	d.coordinators[addr] = coordinator

	if err := d.cfg.Records.Save(d.network.Name, Record{
		Contract:   MockContract,
		Address:    addr,
		ChainID:    d.network.ChainID,
		Args:       []string{vrf.DefaultBaseFee.String(), vrf.DefaultGasPriceLink.String()},
		DeployedAt: d.host.Clock.Now(),
	}); err != nil {
		return nil, err
	}
	d.logger.Info("mocks deployed", zap.Stringer("address", addr))
	return coordinator, nil
}

// DeployRaffle deploys the raffle against the network's coordinator. On development
// chains it also creates and funds a subscription and registers the raffle on it.
func (d *Deployer) DeployRaffle(ctx context.Context) (*Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topics, err := EventTopics()
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", RaffleContract, err)
	}
	var (
		coordinator *vrf.Coordinator
		subID       uint64
	)

	if d.IsDevelopment() {
		if d.mock == nil {
			return nil, fmt.Errorf("%w: deploy mocks first", ErrCoordinatorNotFound)
		}
		coordinator = d.mock
		subID = coordinator.CreateSubscription(d.cfg.Deployer)
		d.nonce++
		if err := coordinator.FundSubscription(subID, d.cfg.SubFundAmount); err != nil {
			return nil, fmt.Errorf("fund subscription %d: %w", subID, err)
		}
		d.nonce++
	} else {
		c, ok := d.coordinators[d.network.Coordinator()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCoordinatorNotFound, d.network.VRFCoordinatorV2)
		}
		coordinator = c
		subID = d.network.SubscriptionID
	}

	fee, err := d.network.EntranceFeeWei()
	if err != nil {
		return nil, err
	}
	addr := d.nextAddress()
	r, err := raffle.New(raffle.Config{
		Address:          addr,
		Coordinator:      coordinator.Address(),
		EntranceFee:      fee,
		GasLane:          d.network.KeyHash(),
		SubscriptionID:   subID,
		CallbackGasLimit: d.network.CallbackGasLimit,
		Interval:         d.network.IntervalDuration(),
	}, coordinator, d.host.Ledger, d.host.Publisher, d.host.Clock, d.host.RaffleMetrics, d.logger.Named("raffle"))
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", RaffleContract, err)
	}
	coordinator.Bind(addr, r)

	d.logPreviousDeployment(RaffleContract, addr)
	rec := Record{
		Contract: RaffleContract,
		Address:  addr,
		ChainID:  d.network.ChainID,
		Args: []string{
			coordinator.Address().Hex(),
			fee.String(),
			d.network.KeyHash().Hex(),
			strconv.FormatUint(subID, 10),
			strconv.FormatUint(uint64(d.network.CallbackGasLimit), 10),
			strconv.FormatUint(d.network.Interval, 10),
		},
		ABI:        RaffleABIJSON(),
		DeployedAt: d.host.Clock.Now(),
	}
	if d.cfg.Verify && !d.IsDevelopment() {
		d.logger.Info("verifying", zap.Stringer("address", addr))
		rec.Verification = &Verification{Status: VerificationPending, RequestedAt: rec.DeployedAt}
	}
	if err := d.cfg.Records.Save(d.network.Name, rec); err != nil {
		return nil, err
	}
	d.logger.Info("raffle deployed", zap.Stringer("address", addr), zap.Uint64("sub_id", subID))

	if d.IsDevelopment() {
		d.logger.Info("adding consumer")
		if err := coordinator.AddConsumer(d.cfg.Deployer, subID, addr); err != nil {
			return nil, fmt.Errorf("add consumer: %w", err)
		}
		d.nonce++
		d.logger.Info("consumer added")
	}

	return &Deployment{
		Network:        d.network,
		Coordinator:    coordinator,
		Raffle:         r,
		SubscriptionID: subID,
		EventTopics:    topics,
	}, nil
}

func (d *Deployer) logPreviousDeployment(contract string, addr common.Address) {
	if d.cfg.Records.Dir == "" {
		return
	}
	prev, err := d.cfg.Records.Load(d.network.Name, contract)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		d.logger.Warn("unreadable deployment record", zap.String("contract", contract), zap.Error(err))
	case prev.Address != addr:
		d.logger.Info("replacing previous deployment",
			zap.String("contract", contract),
			zap.Stringer("previous", prev.Address),
			zap.Time("deployed_at", prev.DeployedAt),
		)
	}
}

func (d *Deployer) nextAddress() common.Address {
	addr := crypto.CreateAddress(d.cfg.Deployer, d.nonce)
	d.nonce++
	return addr
}
