package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract binds a deployed address to the ABI used to talk to it. Name is
// used in logs and metrics only.
type Contract struct {
	Name    string
	Address common.Address
	ABI     *abi.ABI
}

// Event is a decoded contract log. Values holds both indexed and non-indexed
// arguments keyed by their ABI name.
type Event struct {
	Name        string
	Contract    common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Values      map[string]interface{}
}

// Receipt is the mined result of a Send. Events only contains logs emitted by
// the called contract, grouped by event name in log order.
type Receipt struct {
	TxHash      common.Hash
	From        common.Address
	BlockNumber uint64
	Events      map[string][]Event
}

// FirstEvent returns the first event of the given name, if any.
func (r *Receipt) FirstEvent(name string) (Event, bool) {
	if r == nil || len(r.Events[name]) == 0 {
		return Event{}, false
	}
	return r.Events[name][0], true
}

// EventQuery selects historical events. A nil ToBlock means the chain head.
// Filter matches argument names to exact values.
type EventQuery struct {
	FromBlock uint64
	ToBlock   *uint64
	Filter    map[string]interface{}
}

// Matches reports whether e lies in the queried block range and every
// filtered argument equals the requested value.
func (q EventQuery) Matches(e Event) bool {
	if e.BlockNumber < q.FromBlock {
		return false
	}
	if q.ToBlock != nil && e.BlockNumber > *q.ToBlock {
		return false
	}
	for name, want := range q.Filter {
		got, ok := e.Values[name]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

type SendOptions struct {
	// GasLimit of 0 lets the node estimate.
	GasLimit uint64
	// From pins the signer, otherwise signers are used in turn.
	From *common.Address
}

// Gateway is the narrow view of a chain the task engines depend on.
type Gateway interface {
	Call(ctx context.Context, c Contract, method string, args ...interface{}) ([]interface{}, error)
	Send(ctx context.Context, c Contract, method string, opts SendOptions, args ...interface{}) (*Receipt, error)
	GetPastEvents(ctx context.Context, c Contract, event string, q EventQuery) ([]Event, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
}

func (e Event) BigInt(name string) (*big.Int, error) {
	v, ok := e.Values[name]
	if !ok {
		return nil, fmt.Errorf("event %s has no argument %s", e.Name, name)
	}
	return BigInt(v)
}

func (e Event) Address(name string) (common.Address, error) {
	v, ok := e.Values[name]
	if !ok {
		return common.Address{}, fmt.Errorf("event %s has no argument %s", e.Name, name)
	}
	return Address(v)
}

func (e Event) Uint64(name string) (uint64, error) {
	v, ok := e.Values[name]
	if !ok {
		return 0, fmt.Errorf("event %s has no argument %s", e.Name, name)
	}
	return Uint64(v)
}
