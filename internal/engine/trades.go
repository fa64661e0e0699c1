package engine

import (
	"coreforge/internal/api"
	"coreforge/internal/book"
	"coreforge/internal/common"
	"coreforge/internal/money"
)

// onTrades turns the book's raw fills into fee-bearing, sequenced trades:
// it assigns maker/taker fees, updates the book's last-trade price, appends
// each trade to the symbol's recent-trades window, emits the trade and
// book-changed events, and finally re-runs trigger evaluation since a new
// last-trade price may have armed a parked stop/take-profit order. Returns
// the trades for the caller's synchronous response.
func (e *MatchingEngine) onTrades(st *symbolState, taker *common.Order, fills []book.MatchFill) []common.Trade {
	if len(fills) == 0 {
		return nil
	}

	trades := make([]common.Trade, 0, len(fills))
	ts := now()

	for _, f := range fills {
		notional := f.Price.Mul(f.Quantity)
		trade := common.Trade{
			TradeID:       st.seq.Next(),
			Symbol:        st.book.Symbol,
			Price:         f.Price,
			Quantity:      f.Quantity,
			AggressorSide: taker.Side,
			MakerOrderID:  f.MakerID,
			TakerOrderID:  f.TakerID,
			Timestamp:     ts,
			MakerFee:      money.FeeBps(notional, e.cfg.MakerFeeBps),
			TakerFee:      money.FeeBps(notional, e.cfg.TakerFeeBps),
		}
		st.book.LastTradePrice = &trade.Price
		st.trades.add(trade)
		trades = append(trades, trade)
	}

	for i := range trades {
		t := trades[i]
		e.bus.publish(api.Event{
			Type:      api.EventTrade,
			Symbol:    st.book.Symbol,
			Timestamp: t.Timestamp,
			Trade:     &t,
		})
	}

	bids, asks := st.book.L2Snapshot(0)
	e.bus.publish(api.Event{
		Type:      api.EventBookChanged,
		Symbol:    st.book.Symbol,
		Timestamp: ts,
		Book:      &api.L2{Bids: toAPILevels(bids), Asks: toAPILevels(asks)},
	})

	e.evaluateTriggersLocked(st)

	return trades
}
