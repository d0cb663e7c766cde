package vrf

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

var wordSeedArgs = func() abi.Arguments {
	uint256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: uint256}, {Type: uint256}}
}()

// DeriveWords returns keccak256(abi.encode(requestID, i)) for i in [0, n).
func DeriveWords(requestID uint64, n uint32) ([]*big.Int, error) {
	id := new(big.Int).SetUint64(requestID)
	words := make([]*big.Int, n)
	for i := range words {
		packed, err := wordSeedArgs.Pack(id, big.NewInt(int64(i)))
		if err != nil {
			return nil, fmt.Errorf("encode word seed %d: %w", i, err)
		}
		words[i] = new(big.Int).SetBytes(crypto.Keccak256(packed))
	}
	return words, nil
}
