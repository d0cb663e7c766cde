package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record is the deployment artifact written to <dir>/<network>/<Contract>.json.
type Record struct {
	Contract     string          `json:"contract"`
	Address      common.Address  `json:"address"`
	ChainID      int64           `json:"chainId"`
	Args         []string        `json:"args"`
	ABI          json.RawMessage `json:"abi,omitempty"`
	DeployedAt   time.Time       `json:"deployedAt"`
	Verification *Verification   `json:"verification,omitempty"`
}

// Verification marks a record queued for block explorer source verification.
type Verification struct {
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requestedAt"`
}

const VerificationPending = "pending"

// RecordStore persists deployment records. A zero Dir disables it.
type RecordStore struct {
	Dir string
}

func (s RecordStore) path(network, contract string) string {
	return filepath.Join(s.Dir, network, contract+".json")
}

func (s RecordStore) Save(network string, r Record) error {
	if s.Dir == "" {
		return nil
	}
	p := s.path(network, r.Contract)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create deployments dir: %w", err)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", r.Contract, err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return fmt.Errorf("write %s record: %w", r.Contract, err)
	}
	return nil
}

// Load reads a saved record. A missing record matches fs.ErrNotExist.
func (s RecordStore) Load(network, contract string) (Record, error) {
	var r Record
	b, err := os.ReadFile(s.path(network, contract))
	if err != nil {
		return r, fmt.Errorf("read %s record: %w", contract, err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode %s record: %w", contract, err)
	}
	return r, nil
}
