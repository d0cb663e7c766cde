// Package safe provides helpers for safe numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Uint64 converts signed or unsigned integers to uint64 while guarding against negatives.
func Uint64[T constraints.Integer](v T) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("value %d out of uint64 range", v)
	}
	return uint64(v), nil
}

// Int converts to int, rejecting unsigned values above math.MaxInt.
func Int[T constraints.Integer](v T) (int, error) {
	if v >= 0 && uint64(v) > math.MaxInt {
		return 0, fmt.Errorf("value %d out of int range", v)
	}
	return int(v), nil
}
