package engine

import (
	"github.com/shopspring/decimal"

	"coreforge/internal/common"
)

// evaluateTriggersLocked scans the parked trigger table against the book's
// current last-trade price and BBO, activating every order whose condition
// holds, one at a time, re-scanning from the top after each activation
// since activation can itself trade and move both of those again. It stops
// when a full scan finds nothing left to fire (spec.md P8: an activated
// order is removed from the table before being dispatched, so it cannot
// re-trigger itself).
func (e *MatchingEngine) evaluateTriggersLocked(st *symbolState) {
	for {
		fired := -1
		for i, order := range st.triggers {
			if triggerCondition(st, order) {
				fired = i
				break
			}
		}
		if fired == -1 {
			return
		}

		order := st.triggers[fired]
		st.triggers = append(st.triggers[:fired], st.triggers[fired+1:]...)
		e.forgetOwner(order.OrderID)

		// dispatchLocked re-claims ownership itself if the activated order
		// (a stop_limit converted to a resting limit) ends up resting;
		// a market-converted stop/take_profit never rests and needs none.
		e.dispatchLocked(st, activateTrigger(order))
	}
}

// triggerCondition reports whether order's parked condition holds against
// st.book's current last-trade price and BBO, per the table spec.md §4.2
// names: stop and stop_limit resolve off the side of the book the order
// would cross (ask for a buy, bid for a sell), take_profit off that same
// side with the comparison reversed (bid at or above the target for a
// sell, ask at or below it for a buy), and
// either the last trade or the relevant BBO side having already crossed
// the trigger price is sufficient.
func triggerCondition(st *symbolState, order *common.Order) bool {
	last := st.book.LastTradePrice
	bestBid := st.book.BestBid()
	bestAsk := st.book.BestAsk()

	// stopUp/stopDown check the last trade against the same side of the
	// book the order itself would need to cross: a stop-buy only
	// resolves once the ask side has risen to meet it, a stop-sell once
	// the bid side has fallen to meet it.
	stopUp := func(level decimal.Decimal) bool {
		if last != nil && last.GreaterThanOrEqual(level) {
			return true
		}
		return bestAsk != nil && bestAsk.Price.GreaterThanOrEqual(level)
	}
	stopDown := func(level decimal.Decimal) bool {
		if last != nil && last.LessThanOrEqual(level) {
			return true
		}
		return bestBid != nil && bestBid.Price.LessThanOrEqual(level)
	}
	// takeProfitUp/takeProfitDown mirror the same last-trade check but
	// against the OPPOSITE side of the book from a stop at the same
	// level: a take-profit sell fires once the bid side has risen to
	// meet it, a take-profit buy once the ask side has fallen to meet
	// it (spec.md §4.2).
	takeProfitUp := func(level decimal.Decimal) bool {
		if last != nil && last.GreaterThanOrEqual(level) {
			return true
		}
		return bestBid != nil && bestBid.Price.GreaterThanOrEqual(level)
	}
	takeProfitDown := func(level decimal.Decimal) bool {
		if last != nil && last.LessThanOrEqual(level) {
			return true
		}
		return bestAsk != nil && bestAsk.Price.LessThanOrEqual(level)
	}

	switch order.Type {
	case common.Stop, common.StopLimit:
		if order.Side == common.Buy {
			return stopUp(*order.StopPrice)
		}
		return stopDown(*order.StopPrice)

	case common.TakeProfit:
		if order.Side == common.Sell {
			return takeProfitUp(*order.TakeProfitPrice)
		}
		return takeProfitDown(*order.TakeProfitPrice)

	default:
		return false
	}
}

// activateTrigger converts a parked trigger order into the live order it
// becomes once fired: stop and take_profit enter the matching loop as
// market orders, stop_limit as a limit order at its own Price. OrderID and
// CreatedAt are preserved across the conversion; an activated stop_limit
// that rests joins the tail of its price level like any new arrival.
func activateTrigger(order *common.Order) *common.Order {
	activated := &common.Order{
		OrderID:       order.OrderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Quantity:      order.Quantity,
		Remaining:     order.Remaining,
		Filled:        order.Filled,
		Status:        common.New,
		CreatedAt:     order.CreatedAt,
	}

	switch order.Type {
	case common.StopLimit:
		activated.Type = common.Limit
		activated.Price = order.Price
	default: // Stop, TakeProfit
		activated.Type = common.Market
	}

	return activated
}
