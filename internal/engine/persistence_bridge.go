package engine

import (
	"github.com/shopspring/decimal"

	"coreforge/internal/common"
)

// SymbolSnapshot is the consistent, point-in-time view of one symbol's
// state the persistence writer needs: the resting book flattened to its
// replay order, the pending triggers in table order, the last trade price
// and the retained recent-trades window. Everything is cloned out from
// under the symbol lock so the writer can serialize it without blocking
// further matching on that symbol (spec.md §5).
type SymbolSnapshot struct {
	Symbol         string
	OpenOrders     []*common.Order
	Triggers       []*common.Order
	LastTradePrice *decimal.Decimal
	RecentTrades   []common.Trade
}

// SnapshotSymbol takes a brief lock on symbol to build a SymbolSnapshot.
// Each order is copied by value so the writer never observes a change to
// its remaining/filled/status in progress elsewhere; the price pointer
// fields are shared with the live order.
func (e *MatchingEngine) SnapshotSymbol(symbol string) SymbolSnapshot {
	st := e.getOrCreateSymbol(symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	resting := st.book.RestingOrders()
	openOrders := make([]*common.Order, len(resting))
	for i, o := range resting {
		cp := *o
		openOrders[i] = &cp
	}

	triggers := make([]*common.Order, len(st.triggers))
	for i, o := range st.triggers {
		cp := *o
		triggers[i] = &cp
	}

	var last *decimal.Decimal
	if st.book.LastTradePrice != nil {
		p := *st.book.LastTradePrice
		last = &p
	}

	return SymbolSnapshot{
		Symbol:         symbol,
		OpenOrders:     openOrders,
		Triggers:       triggers,
		LastTradePrice: last,
		RecentTrades:   st.trades.snapshot(),
	}
}

// RestoreSymbol replays a previously captured SymbolSnapshot into a fresh
// symbol state: resting orders re-enter the book via AddLimit in the
// snapshot's own order, which is bids-then-asks best-to-worst,
// oldest-first-per-level — exactly the order that reconstructs identical
// FIFO queues (spec.md §4.3 recovery). Called once at startup, before the
// engine accepts any requests, so no locking race is possible.
func (e *MatchingEngine) RestoreSymbol(snap SymbolSnapshot) {
	st := e.getOrCreateSymbol(snap.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, o := range snap.OpenOrders {
		st.book.AddLimit(o)
		e.claimOwner(o.OrderID, snap.Symbol)
	}

	st.triggers = append(st.triggers, snap.Triggers...)
	for _, o := range snap.Triggers {
		e.claimOwner(o.OrderID, snap.Symbol)
	}

	if snap.LastTradePrice != nil {
		p := *snap.LastTradePrice
		st.book.LastTradePrice = &p
	}

	st.trades.restore(snap.RecentTrades)
}
