package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coreforge/internal/api"
	"coreforge/internal/book"
	"coreforge/internal/common"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testEngine() *MatchingEngine {
	return New(DefaultConfig())
}

func limitReq(symbol string, side common.Side, price, qty string) api.OrderRequest {
	return api.OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     common.Limit,
		Price:    decPtr(price),
		Quantity: dec(qty),
	}
}

func TestSubmit_LimitRestsWhenNoCross(t *testing.T) {
	e := testEngine()
	resp := e.Submit(limitReq("BTC-USD", common.Buy, "100", "1"))
	assert.Equal(t, common.New, resp.Status)
	assert.Empty(t, resp.Trades)

	bbo := e.BBO("BTC-USD")
	require.NotNil(t, bbo.Bid)
	assert.True(t, bbo.Bid.Equal(dec("100")))
}

func TestSubmit_LimitCrossesAndFills(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "100", "1"))

	resp := e.Submit(limitReq("BTC-USD", common.Buy, "100", "1"))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, common.Filled, resp.Status)
	assert.True(t, resp.Trades[0].Price.Equal(dec("100")))
}

func TestSubmit_MarketOrderCancelsUnfilledRemainder(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "100", "1"))

	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Buy,
		Type:     common.Market,
		Quantity: dec("5"),
	})
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, common.Cancelled, resp.Status)
	assert.True(t, resp.RemainingQty.Equal(dec("4")))
}

func TestSubmit_IOCNeverRests(t *testing.T) {
	e := testEngine()
	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Buy,
		Type:     common.IOC,
		Price:    decPtr("100"),
		Quantity: dec("1"),
	})
	assert.Equal(t, common.Cancelled, resp.Status)
	assert.Empty(t, resp.Trades)

	bbo := e.BBO("BTC-USD")
	assert.Nil(t, bbo.Bid)
}

func TestSubmit_FOKRejectsWhenInsufficientLiquidity(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "100", "1"))

	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Buy,
		Type:     common.FOK,
		Price:    decPtr("100"),
		Quantity: dec("2"),
	})
	assert.Equal(t, common.Rejected, resp.Status)
	assert.Empty(t, resp.Trades)

	// Liquidity must be untouched by a failed precheck.
	bbo := e.BBO("BTC-USD")
	require.NotNil(t, bbo.Ask)
	assert.True(t, bbo.Ask.Equal(dec("100")))
}

func TestSubmit_FOKFillsCompletelyWhenLiquiditySuffices(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "100", "2"))

	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Buy,
		Type:     common.FOK,
		Price:    decPtr("100"),
		Quantity: dec("2"),
	})
	assert.Equal(t, common.Filled, resp.Status)
	require.Len(t, resp.Trades, 1)
}

func TestSubmit_Validation_RejectsMissingLimitPrice(t *testing.T) {
	e := testEngine()
	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Buy,
		Type:     common.Limit,
		Quantity: dec("1"),
	})
	assert.Equal(t, common.Rejected, resp.Status)
	assert.NotEmpty(t, resp.RejectReason)
}

func TestSubmit_Validation_RejectsNonPositiveQuantity(t *testing.T) {
	e := testEngine()
	resp := e.Submit(limitReq("BTC-USD", common.Buy, "100", "0"))
	assert.Equal(t, common.Rejected, resp.Status)
}

func TestCancel_RestingLimitOrder(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Buy, "100", "1"))

	orders := e.SnapshotSymbol("BTC-USD").OpenOrders
	require.Len(t, orders, 1)

	result := e.Cancel(orders[0].OrderID)
	assert.True(t, result.OK)

	bbo := e.BBO("BTC-USD")
	assert.Nil(t, bbo.Bid)
}

func TestCancel_UnknownOrderNotFound(t *testing.T) {
	e := testEngine()
	result := e.Cancel("does-not-exist")
	assert.False(t, result.OK)
	assert.Equal(t, "not_found", result.Reason)
}

// TestStopOrder_ParksEvenWhenConditionAlreadyHolds matches spec.md's
// worked scenario S6: a trigger order always parks at submission time,
// even if its condition already holds against the current BBO — only a
// subsequent trade re-runs trigger evaluation.
func TestStopOrder_ParksEvenWhenConditionAlreadyHolds(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Buy, "29900", "10"))

	resp := e.Submit(api.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      common.Sell,
		Type:      common.Stop,
		StopPrice: decPtr("29950"),
		Quantity:  dec("1"),
	})
	assert.Equal(t, common.PendingTrigger, resp.Status)
}

// TestStopOrder_ActivatesOnSubsequentTrade covers S6: a parked sell stop
// fires once a later trade pushes last_trade_price through its stop_price.
func TestStopOrder_ActivatesOnSubsequentTrade(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Buy, "29900", "10"))

	parked := e.Submit(api.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      common.Sell,
		Type:      common.Stop,
		StopPrice: decPtr("29950"),
		Quantity:  dec("1"),
	})
	require.Equal(t, common.PendingTrigger, parked.Status)

	resp := e.Submit(api.OrderRequest{
		Symbol:   "BTC-USD",
		Side:     common.Sell,
		Type:     common.Market,
		Quantity: dec("1"),
	})
	require.Len(t, resp.Trades, 1, "the market sell itself trades against the resting bid")

	result := e.Cancel(parked.OrderID)
	assert.False(t, result.OK, "the stop order should have already fired and left the trigger table")
}

// TestStopLimitOrder_ActivatesAsRestingLimit covers a stop_limit buy: once
// fired it must enter the book as a limit order at its own Price rather
// than sweeping the book as a market order would, and keeps its original
// order ID usable since activateTrigger preserves identity across the
// conversion.
func TestStopLimitOrder_ActivatesAsRestingLimit(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "30000", "10"))

	parked := e.Submit(api.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      common.Buy,
		Type:      common.StopLimit,
		StopPrice: decPtr("29950"),
		Price:     decPtr("29000"),
		Quantity:  dec("1"),
	})
	require.Equal(t, common.PendingTrigger, parked.Status)

	// A trade at 29950 meets the stop_price; the activated order then
	// rests at its own limit price (29000) since nothing on the ask side
	// crosses that low.
	e.Submit(limitReq("BTC-USD", common.Sell, "29950", "1"))
	e.Submit(limitReq("BTC-USD", common.Buy, "29950", "1"))

	bbo := e.BBO("BTC-USD")
	require.NotNil(t, bbo.Bid)
	assert.True(t, bbo.Bid.Equal(dec("29000")), "activated stop_limit should rest at its own price, not sweep the book")

	result := e.Cancel(parked.OrderID)
	assert.True(t, result.OK, "activated stop_limit should remain cancellable under its original order ID")
}

// TestTriggerCondition_TakeProfitSell_UsesBestBidNotBestAsk is a direct
// regression test for the take_profit condition table (spec.md §4.2):
// a take-profit sell fires off best_bid, not best_ask. The book below is
// built directly (bypassing Submit/Match) so best_bid and best_ask can be
// pinned independently of any trade, isolating exactly which side the
// condition consults: best_bid already meets the target while best_ask
// does not, and no trade has occurred at all.
func TestTriggerCondition_TakeProfitSell_UsesBestBidNotBestAsk(t *testing.T) {
	b := book.NewOrderBook("BTC-USD")
	b.AddLimit(&common.Order{OrderID: "bid-1", Symbol: "BTC-USD", Side: common.Buy, Price: decPtr("150"), Quantity: dec("1"), Remaining: dec("1")})
	b.AddLimit(&common.Order{OrderID: "ask-1", Symbol: "BTC-USD", Side: common.Sell, Price: decPtr("100"), Quantity: dec("1"), Remaining: dec("1")})

	st := &symbolState{book: b}
	order := &common.Order{
		OrderID:         "tp-sell",
		Side:            common.Sell,
		Type:            common.TakeProfit,
		TakeProfitPrice: decPtr("150"),
	}

	assert.True(t, triggerCondition(st, order), "take_profit sell must fire off best_bid >= tp (best_ask here is 100, below tp)")
}

// TestTriggerCondition_TakeProfitBuy_UsesBestAskNotBestBid is the mirror
// regression test: a take-profit buy fires off best_ask, not best_bid.
func TestTriggerCondition_TakeProfitBuy_UsesBestAskNotBestBid(t *testing.T) {
	b := book.NewOrderBook("BTC-USD")
	b.AddLimit(&common.Order{OrderID: "bid-1", Symbol: "BTC-USD", Side: common.Buy, Price: decPtr("500"), Quantity: dec("1"), Remaining: dec("1")})
	b.AddLimit(&common.Order{OrderID: "ask-1", Symbol: "BTC-USD", Side: common.Sell, Price: decPtr("150"), Quantity: dec("1"), Remaining: dec("1")})

	st := &symbolState{book: b}
	order := &common.Order{
		OrderID:         "tp-buy",
		Side:            common.Buy,
		Type:            common.TakeProfit,
		TakeProfitPrice: decPtr("150"),
	}

	assert.True(t, triggerCondition(st, order), "take_profit buy must fire off best_ask <= tp (best_bid here is 500, above tp)")
}

func TestFeeAssignment_MakerRebateTakerFee(t *testing.T) {
	e := testEngine()
	e.Submit(limitReq("BTC-USD", common.Sell, "100", "1"))
	resp := e.Submit(limitReq("BTC-USD", common.Buy, "100", "1"))

	require.Len(t, resp.Trades, 1)
	trade := resp.Trades[0]
	// Default config: maker -1.0bps (rebate, negative), taker +2.5bps.
	assert.True(t, trade.MakerFee.IsNegative())
	assert.True(t, trade.TakerFee.IsPositive())
}
