package deploy

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed raffle.abi.json
var raffleABIJSON []byte

var (
	raffleABIOnce sync.Once
	raffleABI     abi.ABI
	raffleABIErr  error
)

// RaffleABIJSON returns the raw ABI exported to the front end.
func RaffleABIJSON() []byte {
	return bytes.Clone(raffleABIJSON)
}

// RaffleABI returns the parsed raffle ABI.
func RaffleABI() (abi.ABI, error) {
	raffleABIOnce.Do(func() {
		raffleABI, raffleABIErr = abi.JSON(bytes.NewReader(raffleABIJSON))
		if raffleABIErr != nil {
			raffleABIErr = fmt.Errorf("failed to parse raffle ABI: %w", raffleABIErr)
		}
	})
	return raffleABI, raffleABIErr
}

// EventTopics returns the log topic of every raffle event, keyed by event name.
func EventTopics() (map[string]common.Hash, error) {
	parsed, err := RaffleABI()
	if err != nil {
		return nil, err
	}
	topics := make(map[string]common.Hash, len(parsed.Events))
	for name, evt := range parsed.Events {
		topics[name] = evt.ID
	}
	return topics, nil
}
