package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"coreforge/internal/api"
	"coreforge/internal/common"
	"coreforge/internal/idutil"
)

// Sentinel errors for the validation/rejection taxonomy spec.md §7 names.
// Renamed and regrounded from the teacher's ErrNotEnoughLiquidity/
// ErrRejection (internal/engine/orderbook.go), which guarded the same two
// cases — FOK-style insufficient liquidity and generic rejection — before
// the book/engine split.
var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for fill-or-kill")
	ErrValidation            = errors.New("order validation failed")
)

// Submit validates and dispatches req, returning synchronously once the
// order (and any chain of trigger activations it caused) has settled.
// Partial fills are not errors (spec.md §7): an IOC or market order that
// only partially fills returns a non-rejected response with status
// cancelled, its trades, and the filled/remaining quantities.
func (e *MatchingEngine) Submit(req api.OrderRequest) api.OrderResponse {
	if err := validate(req, e.cfg); err != nil {
		return api.OrderResponse{
			ClientOrderID: req.ClientOrderID,
			Status:        common.Rejected,
			RejectReason:  err.Error(),
		}
	}

	order := &common.Order{
		OrderID:         idutil.NewOrderID(),
		ClientOrderID:   req.ClientOrderID,
		Symbol:          req.Symbol,
		Side:            req.Side,
		Type:            req.Type,
		Price:           req.Price,
		StopPrice:       req.StopPrice,
		TakeProfitPrice: req.TakeProfitPrice,
		Quantity:        req.Quantity,
		Remaining:       req.Quantity,
		Status:          common.New,
		CreatedAt:       now(),
	}

	st := e.getOrCreateSymbol(req.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	resp := e.dispatchLocked(st, order)
	return resp
}

// dispatchLocked executes order under st.mu and returns the resulting
// response. Separated from Submit so trigger activation (triggers.go) can
// resubmit through the same path while already holding the lock.
func (e *MatchingEngine) dispatchLocked(st *symbolState, order *common.Order) api.OrderResponse {
	var trades []common.Trade

	switch order.Type {
	case common.Market:
		fills := st.book.Match(order)
		trades = e.onTrades(st, order, fills)
		if order.Remaining.IsPositive() {
			order.Status = common.Cancelled
		}

	case common.Limit:
		fills := st.book.Match(order)
		trades = e.onTrades(st, order, fills)
		if order.Remaining.IsPositive() {
			order.Status = orderRestStatus(order)
			st.book.AddLimit(order)
			e.claimOwner(order.OrderID, order.Symbol)
		}

	case common.IOC:
		fills := st.book.Match(order)
		trades = e.onTrades(st, order, fills)
		if order.Remaining.IsPositive() {
			order.Status = common.Cancelled
		}

	case common.FOK:
		if !st.book.FOKPrecheck(order.Side, order.Price, order.Quantity) {
			order.Status = common.Rejected
			return api.OrderResponse{
				OrderID:        order.OrderID,
				ClientOrderID:  order.ClientOrderID,
				Status:         common.Rejected,
				FilledQuantity: decimal.Zero,
				RemainingQty:   order.Quantity,
				RejectReason:   ErrInsufficientLiquidity.Error(),
			}
		}
		fills := st.book.Match(order)
		trades = e.onTrades(st, order, fills)
		// FOKPrecheck guarantees complete consumption; order.Status is
		// already Filled via Order.Fill.

	case common.Stop, common.StopLimit, common.TakeProfit:
		// Always parks, even if its condition already holds against the
		// current book: trigger evaluation only re-runs after a trade
		// (spec.md §4.2, matching worked scenario S6). See DESIGN.md for
		// the resolution of the corresponding open question.
		order.Status = common.PendingTrigger
		st.triggers = append(st.triggers, order)
		e.claimOwner(order.OrderID, order.Symbol)
		return api.OrderResponse{
			OrderID:        order.OrderID,
			ClientOrderID:  order.ClientOrderID,
			Status:         order.Status,
			FilledQuantity: order.Filled,
			RemainingQty:   order.Remaining,
		}

	default:
		order.Status = common.Rejected
		return api.OrderResponse{
			ClientOrderID: order.ClientOrderID,
			Status:        common.Rejected,
			RejectReason:  fmt.Sprintf("unsupported order type %s", order.Type),
		}
	}

	return api.OrderResponse{
		OrderID:        order.OrderID,
		ClientOrderID:  order.ClientOrderID,
		Status:         order.Status,
		FilledQuantity: order.Filled,
		RemainingQty:   order.Remaining,
		Trades:         trades,
	}
}

// orderRestStatus picks New vs PartiallyFilled for a limit order that is
// about to rest with some fill already applied.
func orderRestStatus(order *common.Order) common.OrderStatus {
	if order.Filled.IsPositive() {
		return common.PartiallyFilled
	}
	return common.New
}

