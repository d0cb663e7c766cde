package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// ParseEther converts a decimal ether string such as "0.01" to wei.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse ether amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("ether amount %q is negative", s)
	}
	wei := d.Shift(etherDecimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("ether amount %q has more than %d decimals", s, etherDecimals)
	}
	return wei.BigInt(), nil
}

// MustParseEther is ParseEther for constants; it panics on malformed input.
func MustParseEther(s string) *big.Int {
	wei, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return wei
}

// FormatEther renders wei as a decimal ether string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
