// Package book implements the per-symbol limit order book: sorted price
// ladders, per-level FIFO time priority, an order index for O(log n)
// cancellation lookup, and the price-time-priority matching loop. It holds
// no locks of its own — the matching engine serializes all mutation per
// symbol (spec.md §5) and the book assumes single-threaded access.
package book

import (
	"github.com/shopspring/decimal"

	"coreforge/internal/common"
)

// indexEntry lets cancel find an order's side and price in O(1) before
// doing the O(k) in-level scan.
type indexEntry struct {
	side  common.Side
	price decimal.Decimal
}

// OrderBook holds one symbol's resting liquidity. Grounded on the
// teacher's engine/orderbook.go OrderBook (bids/asks btrees, Match loop),
// generalized to decimal prices and split into the smaller operations
// spec.md §4.1 names individually (add_limit/cancel/bbo/l2_snapshot/
// crossable/match/fok_precheck) rather than one monolithic handler.
type OrderBook struct {
	Symbol string

	bids *Bids
	asks *Asks

	index map[string]indexEntry

	LastTradePrice *decimal.Decimal
}

// NewOrderBook creates an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids:   newBids(),
		asks:   newAsks(),
		index:  make(map[string]indexEntry),
	}
}

// ladderFor returns the ladder an order of this side rests on.
func (b *OrderBook) ladderFor(side common.Side) interface {
	best() (*PriceLevel, bool)
	get(decimal.Decimal) (*PriceLevel, bool)
	set(*PriceLevel)
	delete(*PriceLevel)
	len() int
} {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// contraLadderFor returns the ladder on the opposite side of order.Side —
// the liquidity an incoming order of this side would sweep.
func (b *OrderBook) contraLadderFor(side common.Side) interface {
	best() (*PriceLevel, bool)
	get(decimal.Decimal) (*PriceLevel, bool)
	set(*PriceLevel)
	delete(*PriceLevel)
	len() int
} {
	return b.ladderFor(side.Opposite())
}

// AddLimit inserts order at the tail of the PriceLevel keyed by its price
// on its own side, creating the level if absent. order.Remaining must be
// positive and order.Price must be set.
func (b *OrderBook) AddLimit(order *common.Order) {
	ladder := b.ladderFor(order.Side)
	price := *order.Price

	level, ok := ladder.get(price)
	if !ok {
		level = newPriceLevel(price)
		ladder.set(level)
	}
	level.append(order)
	b.index[order.OrderID] = indexEntry{side: order.Side, price: price}
}

// Cancel removes a resting order by ID. Returns the removed order and true,
// or (nil, false) if the order is not resting in this book.
func (b *OrderBook) Cancel(orderID string) (*common.Order, bool) {
	entry, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	ladder := b.ladderFor(entry.side)
	level, ok := ladder.get(entry.price)
	if !ok {
		delete(b.index, orderID)
		return nil, false
	}
	order, ok := level.removeByID(orderID)
	if !ok {
		delete(b.index, orderID)
		return nil, false
	}
	if level.empty() {
		ladder.delete(level)
	}
	delete(b.index, orderID)
	order.Status = common.Cancelled
	return order, true
}

// BestBid peeks the best (highest) resting buy price level, or nil.
func (b *OrderBook) BestBid() *PriceLevel {
	level, ok := b.bids.best()
	if !ok {
		return nil
	}
	return level
}

// BestAsk peeks the best (lowest) resting sell price level, or nil.
func (b *OrderBook) BestAsk() *PriceLevel {
	level, ok := b.asks.best()
	if !ok {
		return nil
	}
	return level
}

// BBO returns the best bid and ask prices; either may be nil.
func (b *OrderBook) BBO() (bid, ask *decimal.Decimal) {
	if level := b.BestBid(); level != nil {
		p := level.Price
		bid = &p
	}
	if level := b.BestAsk(); level != nil {
		p := level.Price
		ask = &p
	}
	return bid, ask
}

// LevelView is an aggregated (price, quantity) pair with no order
// identities, used by L2Snapshot.
type LevelView struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// L2Snapshot returns the top depth levels of each side, best-to-worst.
// depth <= 0 means unlimited.
func (b *OrderBook) L2Snapshot(depth int) (bids, asks []LevelView) {
	for _, level := range b.bids.levels(depth) {
		bids = append(bids, LevelView{Price: level.Price, Quantity: level.TotalRemaining})
	}
	for _, level := range b.asks.levels(depth) {
		asks = append(asks, LevelView{Price: level.Price, Quantity: level.TotalRemaining})
	}
	return bids, asks
}

// RestingOrders returns every live order currently resting in the book,
// bids then asks, each side best-to-worst and each level oldest-first —
// i.e. exactly the order AddLimit would need to replay them in to
// reconstruct identical FIFO queues. Used only by the persistence writer.
func (b *OrderBook) RestingOrders() []*common.Order {
	var out []*common.Order
	for _, level := range b.bids.levels(0) {
		out = append(out, level.Orders...)
	}
	for _, level := range b.asks.levels(0) {
		out = append(out, level.Orders...)
	}
	return out
}

// Crossable reports whether an incoming order of the given side, with an
// optional price cap (nil for market/stop orders), has any liquidity to
// take on the contra ladder right now.
func (b *OrderBook) Crossable(side common.Side, priceCap *decimal.Decimal) bool {
	var best *PriceLevel
	if side == common.Buy {
		best = b.BestAsk()
	} else {
		best = b.BestBid()
	}
	if best == nil {
		return false
	}
	if priceCap == nil {
		return true
	}
	if side == common.Buy {
		return best.Price.LessThanOrEqual(*priceCap)
	}
	return best.Price.GreaterThanOrEqual(*priceCap)
}

// FOKPrecheck reports whether sweeping the contra ladder best-to-worst,
// capped at priceCap (nil means unlimited), accumulates at least qty of
// remaining quantity. Read-only: it must not, and does not, mutate the
// book.
func (b *OrderBook) FOKPrecheck(side common.Side, priceCap *decimal.Decimal, qty decimal.Decimal) bool {
	var levels []*PriceLevel
	if side == common.Buy {
		levels = b.asks.levels(0)
	} else {
		levels = b.bids.levels(0)
	}

	total := decimal.Zero
	for _, level := range levels {
		if priceCap != nil {
			if side == common.Buy && level.Price.GreaterThan(*priceCap) {
				break
			}
			if side == common.Sell && level.Price.LessThan(*priceCap) {
				break
			}
		}
		total = total.Add(level.TotalRemaining)
		if total.GreaterThanOrEqual(qty) {
			return true
		}
	}
	return false
}

// Match sweeps the contra ladder against incoming, respecting incoming's
// optional price cap, and returns the list of resulting trades (price,
// quantity and maker/taker identity only — fee assignment and event
// emission are the matching engine's job). Execution price is always the
// maker's resting price: incoming's price only bounds how deep the sweep
// goes, it never becomes the trade price (no trade-through, spec.md P2).
func (b *OrderBook) Match(incoming *common.Order) []MatchFill {
	var fills []MatchFill
	contra := b.contraLadderFor(incoming.Side)

	for incoming.Remaining.IsPositive() {
		level, ok := contra.best()
		if !ok {
			break
		}
		if incoming.Price != nil {
			if incoming.Side == common.Buy && level.Price.GreaterThan(*incoming.Price) {
				break
			}
			if incoming.Side == common.Sell && level.Price.LessThan(*incoming.Price) {
				break
			}
		}

		maker := level.head()
		if maker == nil {
			// Defensive: an empty level should never be resting in the ladder.
			contra.delete(level)
			continue
		}

		qty := decimal.Min(incoming.Remaining, maker.Remaining)
		execPrice := level.Price

		maker.Fill(qty)
		incoming.Fill(qty)
		level.TotalRemaining = level.TotalRemaining.Sub(qty)

		fills = append(fills, MatchFill{
			Price:    execPrice,
			Quantity: qty,
			MakerID:  maker.OrderID,
			TakerID:  incoming.OrderID,
		})

		if maker.Remaining.IsZero() {
			level.popHead()
			delete(b.index, maker.OrderID)
			if level.empty() {
				contra.delete(level)
			}
		}
	}

	return fills
}

// MatchFill is one resting-order consumption produced by Match. The
// matching engine turns these into common.Trade values once fees are
// assigned.
type MatchFill struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	MakerID  string
	TakerID  string
}
