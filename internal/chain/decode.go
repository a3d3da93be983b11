package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// decodeLog decodes l against the contract ABI. ok is false when the log was
// not emitted by c or its topic is not an event of the ABI.
func decodeLog(c Contract, l *types.Log) (e Event, ok bool, err error) {
	if l.Address != c.Address || len(l.Topics) == 0 {
		return Event{}, false, nil
	}
	def, err := c.ABI.EventByID(l.Topics[0])
	if err != nil {
		return Event{}, false, nil
	}

	values := make(map[string]interface{}, len(def.Inputs))
	if err := c.ABI.UnpackIntoMap(values, def.Name, l.Data); err != nil {
		return Event{}, false, fmt.Errorf("failed to unpack %s.%s data: %w", c.Name, def.Name, err)
	}
	var indexed abi.Arguments
	for _, arg := range def.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
			return Event{}, false, fmt.Errorf("failed to parse %s.%s topics: %w", c.Name, def.Name, err)
		}
	}

	return Event{
		Name:        def.Name,
		Contract:    l.Address,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		Values:      values,
	}, true, nil
}

// eventTopics builds the topic filter for an event query. Filters on indexed
// arguments become topics, the rest are only checked after decoding.
func eventTopics(c Contract, event string, filter map[string]interface{}) ([][]common.Hash, error) {
	def, ok := c.ABI.Events[event]
	if !ok {
		return nil, fmt.Errorf("event %s not found in %s abi", event, c.Name)
	}

	known := make(map[string]bool, len(def.Inputs))
	var query [][]interface{}
	for _, arg := range def.Inputs {
		known[arg.Name] = true
		if !arg.Indexed {
			continue
		}
		if v, ok := filter[arg.Name]; ok {
			query = append(query, []interface{}{v})
		} else {
			query = append(query, nil)
		}
	}
	for name := range filter {
		if !known[name] {
			return nil, fmt.Errorf("event %s.%s has no argument %s", c.Name, event, name)
		}
	}

	rest, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, fmt.Errorf("failed to build topics for %s.%s: %w", c.Name, event, err)
	}
	return append([][]common.Hash{{def.ID}}, rest...), nil
}

func decodeReceipt(c Contract, from common.Address, r *types.Receipt) (*Receipt, error) {
	receipt := &Receipt{
		TxHash:      r.TxHash,
		From:        from,
		BlockNumber: r.BlockNumber.Uint64(),
		Events:      make(map[string][]Event),
	}
	for _, l := range r.Logs {
		e, ok, err := decodeLog(c, l)
		if err != nil {
			return nil, err
		}
		if ok {
			receipt.Events[e.Name] = append(receipt.Events[e.Name], e)
		}
	}
	return receipt, nil
}
