// Package idutil generates the unique order and trade identifiers the
// engine assigns on acceptance, and the monotonic per-symbol sequence
// trade IDs rely on for total ordering within a symbol.
package idutil

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewOrderID mints an opaque order identifier. Grounded on the teacher's
// internal/net/messages.go, which assigns uuid.New().String() as the order
// UUID on acceptance.
func NewOrderID() string {
	return uuid.New().String()
}

// TradeSequencer hands out monotonically increasing trade IDs for a single
// symbol. The zero value is ready to use.
type TradeSequencer struct {
	symbol  string
	counter atomic.Uint64
}

// NewTradeSequencer builds a sequencer whose IDs are prefixed with symbol
// so trade IDs stay human-readable in logs and snapshots.
func NewTradeSequencer(symbol string) *TradeSequencer {
	return &TradeSequencer{symbol: symbol}
}

// Next returns the next trade ID for this symbol. Safe for concurrent use,
// though the engine only ever calls it while holding the symbol lock.
func (s *TradeSequencer) Next() string {
	n := s.counter.Add(1)
	return fmt.Sprintf("%s-%d", s.symbol, n)
}
