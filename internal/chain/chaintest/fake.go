// Package chaintest provides a scripted in-memory chain.Gateway for tests.
package chaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ubi-economy/staking-tasks-service/internal/chain"
)

type (
	CallHandler   func(args ...interface{}) ([]interface{}, error)
	SendHandler   func(opts chain.SendOptions, args ...interface{}) (*chain.Receipt, error)
	EventsHandler func(q chain.EventQuery) ([]chain.Event, error)
)

// Invocation records one gateway call. Key is "<contract>.<method or event>".
type Invocation struct {
	Key   string
	Args  []interface{}
	Opts  chain.SendOptions
	Query chain.EventQuery
}

// Gateway answers calls from handlers registered per contract method. A call
// without a handler fails, so tests see every unexpected interaction.
type Gateway struct {
	mu          sync.Mutex
	calls       map[string]CallHandler
	sends       map[string]SendHandler
	events      map[string]EventsHandler
	blockNumber uint64
	blockErr    error
	invocations []Invocation
}

var _ chain.Gateway = (*Gateway)(nil)

func NewGateway() *Gateway {
	return &Gateway{
		calls:  make(map[string]CallHandler),
		sends:  make(map[string]SendHandler),
		events: make(map[string]EventsHandler),
	}
}

func Key(c chain.Contract, name string) string {
	return c.Name + "." + name
}

func (g *Gateway) HandleCall(c chain.Contract, method string, h CallHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[Key(c, method)] = h
}

func (g *Gateway) HandleSend(c chain.Contract, method string, h SendHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends[Key(c, method)] = h
}

func (g *Gateway) HandleEvents(c chain.Contract, event string, h EventsHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events[Key(c, event)] = h
}

func (g *Gateway) SetBlockNumber(n uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blockNumber = n
	g.blockErr = nil
}

func (g *Gateway) SetBlockNumberError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blockErr = err
}

// Invocations returns the recorded invocations for key, in call order.
func (g *Gateway) Invocations(key string) []Invocation {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Invocation
	for _, inv := range g.invocations {
		if inv.Key == key {
			out = append(out, inv)
		}
	}
	return out
}

func (g *Gateway) CallCount(key string) int {
	return len(g.Invocations(key))
}

func (g *Gateway) record(inv Invocation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invocations = append(g.invocations, inv)
}

func (g *Gateway) Call(ctx context.Context, c chain.Contract, method string, args ...interface{}) ([]interface{}, error) {
	key := Key(c, method)
	g.record(Invocation{Key: key, Args: args})
	g.mu.Lock()
	h, ok := g.calls[key]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no call handler for %s", key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h(args...)
}

func (g *Gateway) Send(
	ctx context.Context, c chain.Contract, method string, opts chain.SendOptions, args ...interface{},
) (*chain.Receipt, error) {
	key := Key(c, method)
	g.record(Invocation{Key: key, Args: args, Opts: opts})
	g.mu.Lock()
	h, ok := g.sends[key]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no send handler for %s", key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h(opts, args...)
}

func (g *Gateway) GetPastEvents(ctx context.Context, c chain.Contract, event string, q chain.EventQuery) ([]chain.Event, error) {
	key := Key(c, event)
	g.record(Invocation{Key: key, Query: q})
	g.mu.Lock()
	h, ok := g.events[key]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no events handler for %s", key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h(q)
}

func (g *Gateway) GetBlockNumber(ctx context.Context) (uint64, error) {
	g.record(Invocation{Key: "blockNumber"})
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blockNumber, g.blockErr
}

// Returns answers every call with the given values.
func Returns(values ...interface{}) CallHandler {
	return func(...interface{}) ([]interface{}, error) {
		return values, nil
	}
}

func Fails(err error) CallHandler {
	return func(...interface{}) ([]interface{}, error) {
		return nil, err
	}
}

// Events serves a fixed event log, applying the query range and filter the
// way a node would.
func Events(events ...chain.Event) EventsHandler {
	return func(q chain.EventQuery) ([]chain.Event, error) {
		var out []chain.Event
		for _, e := range events {
			if q.Matches(e) {
				out = append(out, e)
			}
		}
		return out, nil
	}
}

// Mined answers a send with a receipt carrying the given events.
func Mined(blockNumber uint64, events ...chain.Event) SendHandler {
	return func(opts chain.SendOptions, args ...interface{}) (*chain.Receipt, error) {
		return NewReceipt(blockNumber, events...), nil
	}
}

func NewReceipt(blockNumber uint64, events ...chain.Event) *chain.Receipt {
	r := &chain.Receipt{BlockNumber: blockNumber, Events: make(map[string][]chain.Event)}
	for _, e := range events {
		e.BlockNumber = blockNumber
		r.Events[e.Name] = append(r.Events[e.Name], e)
	}
	return r
}

func NewEvent(name string, blockNumber uint64, values map[string]interface{}) chain.Event {
	return chain.Event{Name: name, BlockNumber: blockNumber, Values: values}
}
