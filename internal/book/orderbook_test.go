package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coreforge/internal/common"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func limitOrder(id string, side common.Side, price, qty string) *common.Order {
	p := d(price)
	q := d(qty)
	return &common.Order{
		OrderID:   id,
		Side:      side,
		Type:      common.Limit,
		Price:     &p,
		Quantity:  q,
		Remaining: q,
	}
}

func TestAddLimit_SortsLevelsBestFirst(t *testing.T) {
	b := NewOrderBook("BTC-USD")

	b.AddLimit(limitOrder("b1", common.Buy, "99", "1"))
	b.AddLimit(limitOrder("b2", common.Buy, "100", "1"))
	b.AddLimit(limitOrder("a1", common.Sell, "102", "1"))
	b.AddLimit(limitOrder("a2", common.Sell, "101", "1"))

	bid, ask := b.BBO()
	require.NotNil(t, bid)
	require.NotNil(t, ask)
	assert.True(t, bid.Equal(d("100")), "best bid should be the highest resting buy price")
	assert.True(t, ask.Equal(d("101")), "best ask should be the lowest resting sell price")
}

func TestAddLimit_SamePriceIsFIFO(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("first", common.Buy, "100", "1"))
	b.AddLimit(limitOrder("second", common.Buy, "100", "1"))

	level := b.BestBid()
	require.NotNil(t, level)
	require.Len(t, level.Orders, 2)
	assert.Equal(t, "first", level.Orders[0].OrderID)
	assert.Equal(t, "second", level.Orders[1].OrderID)
}

// TestMatch_ExecutesAtMakerPrice asserts P2: execution always happens at
// the resting maker's price, never the taker's limit, even when the taker
// would have accepted a worse price.
func TestMatch_ExecutesAtMakerPrice(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("maker", common.Sell, "30000", "1"))

	takerPrice := d("30050")
	taker := &common.Order{
		OrderID:   "taker",
		Side:      common.Buy,
		Type:      common.Limit,
		Price:     &takerPrice,
		Quantity:  d("1"),
		Remaining: d("1"),
	}

	fills := b.Match(taker)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Price.Equal(d("30000")), "trade must execute at the maker's resting price")
	assert.True(t, taker.Remaining.IsZero())
}

// TestMatch_PriceTimePriority asserts P1: at a single price level, the
// oldest order is consumed first.
func TestMatch_PriceTimePriority(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("old", common.Sell, "100", "1"))
	b.AddLimit(limitOrder("new", common.Sell, "100", "1"))

	taker := &common.Order{
		OrderID:   "taker",
		Side:      common.Buy,
		Type:      common.Market,
		Quantity:  d("1"),
		Remaining: d("1"),
	}
	fills := b.Match(taker)
	require.Len(t, fills, 1)
	assert.Equal(t, "old", fills[0].MakerID)
}

func TestMatch_SweepsMultipleLevels(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("a", common.Sell, "30000", "1"))
	b.AddLimit(limitOrder("b", common.Sell, "30010", "1"))

	taker := &common.Order{
		OrderID:   "taker",
		Side:      common.Buy,
		Type:      common.Market,
		Quantity:  d("1.5"),
		Remaining: d("1.5"),
	}
	fills := b.Match(taker)
	require.Len(t, fills, 2)
	assert.True(t, fills[0].Price.Equal(d("30000")))
	assert.True(t, fills[0].Quantity.Equal(d("1")))
	assert.True(t, fills[1].Price.Equal(d("30010")))
	assert.True(t, fills[1].Quantity.Equal(d("0.5")))
	assert.True(t, taker.Remaining.IsZero())

	bid, ask := b.BBO()
	assert.Nil(t, bid)
	require.NotNil(t, ask)
	assert.True(t, ask.Equal(d("30010")))
}

func TestMatch_RespectsLimitPriceCap(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("a", common.Sell, "30000", "1"))
	b.AddLimit(limitOrder("b", common.Sell, "30100", "1"))

	priceCap := d("30050")
	taker := &common.Order{
		OrderID:   "taker",
		Side:      common.Buy,
		Type:      common.Limit,
		Price:     &priceCap,
		Quantity:  d("2"),
		Remaining: d("2"),
	}
	fills := b.Match(taker)
	require.Len(t, fills, 1)
	assert.True(t, taker.Remaining.Equal(d("1")), "sweep must stop at the price cap, leaving remainder unfilled")
}

func TestCancel_RemovesRestingOrder(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("only", common.Buy, "100", "1"))

	removed, ok := b.Cancel("only")
	require.True(t, ok)
	assert.Equal(t, common.Cancelled, removed.Status)

	bid, _ := b.BBO()
	assert.Nil(t, bid)
}

func TestCancel_UnknownOrderIsNotFound(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	_, ok := b.Cancel("missing")
	assert.False(t, ok)
}

func TestFOKPrecheck(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("a", common.Sell, "100", "1"))
	b.AddLimit(limitOrder("b", common.Sell, "101", "1"))

	priceCap := d("101")
	assert.True(t, b.FOKPrecheck(common.Buy, &priceCap, d("2")))
	assert.False(t, b.FOKPrecheck(common.Buy, &priceCap, d("3")))

	// A read-only precheck must never mutate the book.
	bid, ask := b.BBO()
	assert.Nil(t, bid)
	require.NotNil(t, ask)
	assert.True(t, ask.Equal(d("100")))
}

func TestL2Snapshot_AggregatesByLevel(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("a", common.Buy, "100", "1"))
	b.AddLimit(limitOrder("b", common.Buy, "100", "2"))
	b.AddLimit(limitOrder("c", common.Sell, "101", "5"))

	bids, asks := b.L2Snapshot(0)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Quantity.Equal(d("3")))
	require.Len(t, asks, 1)
	assert.True(t, asks[0].Quantity.Equal(d("5")))
}

// TestL2Snapshot_NegativeDepthMeansUnlimited asserts that depth < 0, like
// depth == 0, returns every level rather than panicking: both are
// documented as "unlimited" and must behave identically.
func TestL2Snapshot_NegativeDepthMeansUnlimited(t *testing.T) {
	b := NewOrderBook("BTC-USD")
	b.AddLimit(limitOrder("a", common.Buy, "100", "1"))
	b.AddLimit(limitOrder("b", common.Buy, "99", "1"))
	b.AddLimit(limitOrder("c", common.Sell, "101", "1"))

	var bids, asks []LevelView
	assert.NotPanics(t, func() {
		bids, asks = b.L2Snapshot(-1)
	})
	assert.Len(t, bids, 2)
	assert.Len(t, asks, 1)
}
