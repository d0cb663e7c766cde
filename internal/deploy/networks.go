package deploy

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"os"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/goodnatureofminers/rafflekeeper/internal/model"
)

//go:embed networks.yaml
var defaultNetworks []byte

var ErrUnknownNetwork = errors.New("unknown network")

// Network is one entry of the network table. Amounts are ether decimal strings,
// interval is in seconds.
type Network struct {
	ChainID            int64  `yaml:"chainId"`
	Name               string `yaml:"name"`
	VRFCoordinatorV2   string `yaml:"vrfCoordinatorV2"`
	EntranceFee        string `yaml:"entranceFee"`
	GasLane            string `yaml:"gasLane"`
	SubscriptionID     uint64 `yaml:"subscriptionId"`
	CallbackGasLimit   uint32 `yaml:"callbackGasLimit"`
	Interval           uint64 `yaml:"interval"`
	BlockConfirmations uint64 `yaml:"blockConfirmations"`
}

func (n Network) EntranceFeeWei() (*big.Int, error) {
	return model.ParseEther(n.EntranceFee)
}

func (n Network) IntervalDuration() time.Duration {
	return time.Duration(n.Interval) * time.Second
}

func (n Network) Coordinator() common.Address {
	return common.HexToAddress(n.VRFCoordinatorV2)
}

func (n Network) KeyHash() common.Hash {
	return common.HexToHash(n.GasLane)
}

// Networks is the deployment configuration for every known chain.
type Networks struct {
	DevelopmentChains []string  `yaml:"developmentChains"`
	Networks          []Network `yaml:"networks"`
}

// LoadNetworks reads the network table at path, or the built-in table when path is empty.
func LoadNetworks(path string) (*Networks, error) {
	raw := defaultNetworks
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read network table: %w", err)
		}
		raw = b
	}
	return ParseNetworks(raw)
}

func ParseNetworks(raw []byte) (*Networks, error) {
	var n Networks
	if err := yaml.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("parse network table: %w", err)
	}
	for i, nw := range n.Networks {
		if nw.Name == "" {
			return nil, fmt.Errorf("network #%d: name is required", i)
		}
		if _, err := nw.EntranceFeeWei(); err != nil {
			return nil, fmt.Errorf("network %s: entrance fee: %w", nw.Name, err)
		}
		if nw.Interval == 0 {
			return nil, fmt.Errorf("network %s: interval must be positive", nw.Name)
		}
		if !n.IsDevelopment(nw.Name) && !common.IsHexAddress(nw.VRFCoordinatorV2) {
			return nil, fmt.Errorf("network %s: vrfCoordinatorV2 %q is not an address", nw.Name, nw.VRFCoordinatorV2)
		}
	}
	return &n, nil
}

func (n *Networks) Lookup(name string) (Network, error) {
	for _, nw := range n.Networks {
		if nw.Name == name {
			return nw, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
}

// IsDevelopment reports whether mocks are deployed on the named network.
func (n *Networks) IsDevelopment(name string) bool {
	return slices.Contains(n.DevelopmentChains, name)
}
