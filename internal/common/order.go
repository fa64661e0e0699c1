package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the identity and mutable state of a single resting or aggressing
// order. Price, StopPrice and TakeProfitPrice are nil-able: which of them
// is required depends on Type (see validate in the engine package).
type Order struct {
	OrderID         string // assigned by the engine on acceptance
	ClientOrderID   string // optional, opaque, echoed back only
	Symbol          string
	Side            Side
	Type            OrderType
	Price           *decimal.Decimal
	StopPrice       *decimal.Decimal
	TakeProfitPrice *decimal.Decimal

	Quantity  decimal.Decimal // original requested quantity
	Remaining decimal.Decimal // monotonically non-increasing
	Filled    decimal.Decimal // Quantity - Remaining

	Status    OrderStatus
	CreatedAt time.Time // UTC
}

// Fill consumes qty from the order's remainder, keeping Filled and Status
// consistent. qty must not exceed Remaining.
func (o *Order) Fill(qty decimal.Decimal) {
	o.Remaining = o.Remaining.Sub(qty)
	o.Filled = o.Filled.Add(qty)
	switch {
	case o.Remaining.IsZero():
		o.Status = Filled
	case o.Filled.IsPositive():
		o.Status = PartiallyFilled
	}
}

func (o Order) String() string {
	priceStr := "-"
	if o.Price != nil {
		priceStr = o.Price.String()
	}
	return fmt.Sprintf(
		`OrderID:   %s
ClientID:  %s
Symbol:    %s
Side:      %s
Type:      %s
Price:     %s
Quantity:  %s (remaining %s, filled %s)
Status:    %s
CreatedAt: %s`,
		o.OrderID,
		o.ClientOrderID,
		o.Symbol,
		o.Side,
		o.Type,
		priceStr,
		o.Quantity, o.Remaining, o.Filled,
		o.Status,
		o.CreatedAt.Format(time.RFC3339Nano),
	)
}
