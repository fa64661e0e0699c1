// Package api defines the in-process request/response surface spec.md §6
// names as the boundary the transport layer (internal/transport) and any
// other external collaborator consume. Nothing here knows about sockets or
// wire formats — that is the transport's job.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"coreforge/internal/common"
)

// OrderRequest is the caller-supplied description of a new order. Fields
// that don't apply to Type are simply left nil/zero; validation enforces
// which combinations are required (spec.md §4.2).
type OrderRequest struct {
	ClientOrderID   string
	Symbol          string
	Side            common.Side
	Type            common.OrderType
	Price           *decimal.Decimal
	StopPrice       *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	Quantity        decimal.Decimal
}

// OrderResponse is returned synchronously from Submit.
type OrderResponse struct {
	OrderID        string
	ClientOrderID  string
	Status         common.OrderStatus
	FilledQuantity decimal.Decimal
	RemainingQty   decimal.Decimal
	Trades         []common.Trade
	RejectReason   string
}

// CancelResult is returned synchronously from Cancel.
type CancelResult struct {
	OK     bool
	Reason string
}

// BBO is the best bid/offer for a symbol; either price may be nil.
type BBO struct {
	Bid *decimal.Decimal
	Ask *decimal.Decimal
}

// L2 is the aggregated top-of-book view spec.md §6 names.
type L2 struct {
	Bids []LevelView
	Asks []LevelView
}

// LevelView is one (price, total resting quantity) pair with no order
// identities, matching book.LevelView's shape at the API boundary.
type LevelView struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// EventType distinguishes the two kinds of value on a symbol's event
// stream.
type EventType int

const (
	EventTrade EventType = iota
	EventBookChanged
)

// Event is delivered on a symbol's subscription channel. Exactly one of
// Trade/Book is populated depending on Type. The event stream preserves
// trade order and always follows a trade with the L2 state reflecting it
// (spec.md §5).
type Event struct {
	Type      EventType
	Symbol    string
	Timestamp time.Time
	Trade     *common.Trade
	Book      *L2
}
