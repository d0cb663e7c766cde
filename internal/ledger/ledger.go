// Package ledger keeps native-currency balances for accounts on the in-process host.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrTransferRejected  = errors.New("recipient rejected transfer")
)

// Ledger is a map of account balances guarded by a mutex. Transfers are atomic.
type Ledger struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	refusing map[common.Address]struct{}
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{
		balances: map[common.Address]*big.Int{},
		refusing: map[common.Address]struct{}{},
	}
}

// Fund mints amount into addr, like a dev chain's prefunded accounts.
func (l *Ledger) Fund(addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
	return nil
}

// BalanceOf returns a copy of the balance of addr.
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Refuse makes addr reject every incoming transfer.
func (l *Ledger) Refuse(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refusing[addr] = struct{}{}
}

// Transfer moves amount from one account to another. On error no balance changes.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.refusing[to]; ok {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), ErrTransferRejected)
	}
	have := l.balances[from]
	if have == nil {
		have = new(big.Int)
	}
	if have.Cmp(amount) < 0 {
		return fmt.Errorf("transfer %s from %s (balance %s): %w", amount, from.Hex(), have, ErrInsufficientFunds)
	}
	if from == to {
		return nil
	}
	have.Sub(have, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(addr common.Address, amount *big.Int) {
	b, ok := l.balances[addr]
	if !ok {
		b = new(big.Int)
		l.balances[addr] = b
	}
	b.Add(b, amount)
}
