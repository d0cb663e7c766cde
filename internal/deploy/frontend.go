package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// FrontEnd points at the constants files of the web front end.
type FrontEnd struct {
	AddressesFile string
	ABIFile       string
}

// Update writes the raffle ABI and adds address to the chain's address list.
// Addresses already listed are not duplicated and other chains are preserved.
func (f FrontEnd) Update(chainID int64, address common.Address) error {
	if err := f.updateAddresses(chainID, address); err != nil {
		return err
	}
	if err := writeFile(f.ABIFile, RaffleABIJSON()); err != nil {
		return fmt.Errorf("write front end ABI: %w", err)
	}
	return nil
}

// Addresses reads the chain ID to addresses map. A missing file is empty.
func (f FrontEnd) Addresses() (map[string][]string, error) {
	out := map[string][]string{}
	b, err := os.ReadFile(f.AddressesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read front end addresses: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode front end addresses: %w", err)
	}
	return out, nil
}

func (f FrontEnd) updateAddresses(chainID int64, address common.Address) error {
	current, err := f.Addresses()
	if err != nil {
		return err
	}
	key := strconv.FormatInt(chainID, 10)
	hex := address.Hex()
	if !slices.Contains(current[key], hex) {
		current[key] = append(current[key], hex)
	}
	b, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode front end addresses: %w", err)
	}
	if err := writeFile(f.AddressesFile, b); err != nil {
		return fmt.Errorf("write front end addresses: %w", err)
	}
	return nil
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
