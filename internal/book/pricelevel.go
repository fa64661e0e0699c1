package book

import (
	"github.com/shopspring/decimal"

	"coreforge/internal/common"
)

// PriceLevel is a FIFO queue of live orders resting at one price, plus a
// cached total of their remaining quantity. Orders is append-only at the
// tail; matching consumes from the head. Grounded on the teacher's
// engine/orderbook.go PriceLevel (price + []*Order) generalized from
// float64 to decimal.Decimal and given an explicit running total instead
// of being recomputed from scratch on every match.
type PriceLevel struct {
	Price          decimal.Decimal
	Orders         []*common.Order
	TotalRemaining decimal.Decimal
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, TotalRemaining: decimal.Zero}
}

// append adds an order to the tail of the queue (newest arrival).
func (l *PriceLevel) append(o *common.Order) {
	l.Orders = append(l.Orders, o)
	l.TotalRemaining = l.TotalRemaining.Add(o.Remaining)
}

// head returns the oldest live order in the level, or nil if empty.
func (l *PriceLevel) head() *common.Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// popHead removes the oldest order after it has been fully filled.
func (l *PriceLevel) popHead() {
	l.Orders = l.Orders[1:]
}

// removeByID scans the level for orderID and removes it in place,
// returning true if found. O(k) in the level length; the spec explicitly
// permits this (spec.md §4.1 cancel step 2).
func (l *PriceLevel) removeByID(orderID string) (*common.Order, bool) {
	for i, o := range l.Orders {
		if o.OrderID == orderID {
			l.TotalRemaining = l.TotalRemaining.Sub(o.Remaining)
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return o, true
		}
	}
	return nil, false
}

func (l *PriceLevel) empty() bool { return len(l.Orders) == 0 }
