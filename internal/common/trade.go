package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is immutable once created: the resting (maker) order's price is
// always the execution price, never the taker's limit.
type Trade struct {
	TradeID       string
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	AggressorSide Side
	MakerOrderID  string
	TakerOrderID  string
	Timestamp     time.Time

	MakerFee decimal.Decimal // signed; negative is a rebate
	TakerFee decimal.Decimal
}

// Notional is Price * Quantity, the base for fee computation.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade[%s] %s %s@%s maker=%s taker=%s aggressor=%s makerFee=%s takerFee=%s at %s",
		t.TradeID, t.Symbol, t.Quantity, t.Price,
		t.MakerOrderID, t.TakerOrderID, t.AggressorSide,
		t.MakerFee, t.TakerFee,
		t.Timestamp.Format(time.RFC3339Nano),
	)
}
