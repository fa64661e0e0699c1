// Package persistence implements the snapshot/recovery protocol spec.md
// §4.3 names: a single self-contained JSON document per snapshot, written
// atomically on a background timer and replayed deterministically at
// startup. Grounded on the teacher's internal/net/messages.go wire-encoding
// style (explicit Serialize/parse pairs, no reflection-based codec beyond
// encoding/json for the document itself) and internal/worker.go's
// tomb.v2-supervised background loop shape.
package persistence

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coreforge/internal/common"
	"coreforge/internal/engine"
)

// schemaVersion is the "version" field spec.md §6 names; bump it if the
// document shape ever changes incompatibly.
const schemaVersion = 1

// Document is the root of one snapshot file.
type Document struct {
	Version int                  `json:"version"`
	Symbols map[string]SymbolDoc `json:"symbols"`
}

// SymbolDoc is one symbol's persisted state, matching spec.md §6's schema
// field-for-field.
type SymbolDoc struct {
	OpenOrders     []OrderDoc `json:"open_orders"`
	Triggers       []OrderDoc `json:"triggers"`
	LastTradePrice *string    `json:"last_trade_price"`
	RecentTrades   []TradeDoc `json:"recent_trades"`
}

// OrderDoc is the wire shape of a resting or pending-trigger order. Prices
// and quantities are strings, never JSON numbers, so recovery round-trips
// through decimal.Decimal without going anywhere near float64.
type OrderDoc struct {
	OrderID         string  `json:"order_id"`
	ClientOrderID   string  `json:"client_order_id,omitempty"`
	Symbol          string  `json:"symbol"`
	Side            string  `json:"side"`
	Type            string  `json:"type"`
	Price           *string `json:"price,omitempty"`
	StopPrice       *string `json:"stop_price,omitempty"`
	TakeProfitPrice *string `json:"take_profit_price,omitempty"`
	Quantity        string  `json:"quantity"`
	Remaining       string  `json:"remaining"`
	Filled          string  `json:"filled"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

// TradeDoc is the wire shape of one retained trade.
type TradeDoc struct {
	TradeID       string `json:"trade_id"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	AggressorSide string `json:"aggressor_side"`
	MakerOrderID  string `json:"maker_order_id"`
	TakerOrderID  string `json:"taker_order_id"`
	Timestamp     string `json:"timestamp"`
	MakerFee      string `json:"maker_fee"`
	TakerFee      string `json:"taker_fee"`
}

func buildDocument(snapshots []engine.SymbolSnapshot) Document {
	doc := Document{Version: schemaVersion, Symbols: make(map[string]SymbolDoc, len(snapshots))}
	for _, snap := range snapshots {
		sd := SymbolDoc{
			OpenOrders:   make([]OrderDoc, len(snap.OpenOrders)),
			Triggers:     make([]OrderDoc, len(snap.Triggers)),
			RecentTrades: make([]TradeDoc, len(snap.RecentTrades)),
		}
		for i, o := range snap.OpenOrders {
			sd.OpenOrders[i] = toOrderDoc(o)
		}
		for i, o := range snap.Triggers {
			sd.Triggers[i] = toOrderDoc(o)
		}
		if snap.LastTradePrice != nil {
			s := snap.LastTradePrice.String()
			sd.LastTradePrice = &s
		}
		for i, t := range snap.RecentTrades {
			sd.RecentTrades[i] = toTradeDoc(t)
		}
		doc.Symbols[snap.Symbol] = sd
	}
	return doc
}

// restoreInto parses every symbol first and replays them into eng only if
// the whole document parsed, so a parse error leaves eng empty.
func (d Document) restoreInto(eng *engine.MatchingEngine) error {
	snaps := make([]engine.SymbolSnapshot, 0, len(d.Symbols))
	for symbol, sd := range d.Symbols {
		snap := engine.SymbolSnapshot{Symbol: symbol}

		for _, od := range sd.OpenOrders {
			o, err := fromOrderDoc(od)
			if err != nil {
				return fmt.Errorf("symbol %s open order %s: %w", symbol, od.OrderID, err)
			}
			snap.OpenOrders = append(snap.OpenOrders, o)
		}
		for _, od := range sd.Triggers {
			o, err := fromOrderDoc(od)
			if err != nil {
				return fmt.Errorf("symbol %s trigger %s: %w", symbol, od.OrderID, err)
			}
			snap.Triggers = append(snap.Triggers, o)
		}
		if sd.LastTradePrice != nil {
			p, err := decimal.NewFromString(*sd.LastTradePrice)
			if err != nil {
				return fmt.Errorf("symbol %s last_trade_price: %w", symbol, err)
			}
			snap.LastTradePrice = &p
		}
		for _, td := range sd.RecentTrades {
			t, err := fromTradeDoc(td)
			if err != nil {
				return fmt.Errorf("symbol %s trade %s: %w", symbol, td.TradeID, err)
			}
			snap.RecentTrades = append(snap.RecentTrades, t)
		}

		snaps = append(snaps, snap)
	}
	for _, snap := range snaps {
		eng.RestoreSymbol(snap)
	}
	return nil
}

func toOrderDoc(o *common.Order) OrderDoc {
	d := OrderDoc{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          o.Side.String(),
		Type:          o.Type.String(),
		Quantity:      o.Quantity.String(),
		Remaining:     o.Remaining.String(),
		Filled:        o.Filled.String(),
		Status:        o.Status.String(),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339Nano),
	}
	if o.Price != nil {
		s := o.Price.String()
		d.Price = &s
	}
	if o.StopPrice != nil {
		s := o.StopPrice.String()
		d.StopPrice = &s
	}
	if o.TakeProfitPrice != nil {
		s := o.TakeProfitPrice.String()
		d.TakeProfitPrice = &s
	}
	return d
}

func fromOrderDoc(d OrderDoc) (*common.Order, error) {
	quantity, err := decimal.NewFromString(d.Quantity)
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	remaining, err := decimal.NewFromString(d.Remaining)
	if err != nil {
		return nil, fmt.Errorf("remaining: %w", err)
	}
	filled, err := decimal.NewFromString(d.Filled)
	if err != nil {
		return nil, fmt.Errorf("filled: %w", err)
	}
	side, err := parseSide(d.Side)
	if err != nil {
		return nil, err
	}
	otype, err := parseOrderType(d.Type)
	if err != nil {
		return nil, err
	}
	status, err := parseOrderStatus(d.Status)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	order := &common.Order{
		OrderID:       d.OrderID,
		ClientOrderID: d.ClientOrderID,
		Symbol:        d.Symbol,
		Side:          side,
		Type:          otype,
		Quantity:      quantity,
		Remaining:     remaining,
		Filled:        filled,
		Status:        status,
		CreatedAt:     createdAt,
	}
	if order.Price, err = parseOptionalDecimal(d.Price); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if order.StopPrice, err = parseOptionalDecimal(d.StopPrice); err != nil {
		return nil, fmt.Errorf("stop_price: %w", err)
	}
	if order.TakeProfitPrice, err = parseOptionalDecimal(d.TakeProfitPrice); err != nil {
		return nil, fmt.Errorf("take_profit_price: %w", err)
	}
	return order, nil
}

func toTradeDoc(t common.Trade) TradeDoc {
	return TradeDoc{
		TradeID:       t.TradeID,
		Symbol:        t.Symbol,
		Price:         t.Price.String(),
		Quantity:      t.Quantity.String(),
		AggressorSide: t.AggressorSide.String(),
		MakerOrderID:  t.MakerOrderID,
		TakerOrderID:  t.TakerOrderID,
		Timestamp:     t.Timestamp.Format(time.RFC3339Nano),
		MakerFee:      t.MakerFee.String(),
		TakerFee:      t.TakerFee.String(),
	}
}

func fromTradeDoc(d TradeDoc) (common.Trade, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return common.Trade{}, fmt.Errorf("price: %w", err)
	}
	quantity, err := decimal.NewFromString(d.Quantity)
	if err != nil {
		return common.Trade{}, fmt.Errorf("quantity: %w", err)
	}
	makerFee, err := decimal.NewFromString(d.MakerFee)
	if err != nil {
		return common.Trade{}, fmt.Errorf("maker_fee: %w", err)
	}
	takerFee, err := decimal.NewFromString(d.TakerFee)
	if err != nil {
		return common.Trade{}, fmt.Errorf("taker_fee: %w", err)
	}
	side, err := parseSide(d.AggressorSide)
	if err != nil {
		return common.Trade{}, err
	}
	timestamp, err := time.Parse(time.RFC3339Nano, d.Timestamp)
	if err != nil {
		return common.Trade{}, fmt.Errorf("timestamp: %w", err)
	}

	return common.Trade{
		TradeID:       d.TradeID,
		Symbol:        d.Symbol,
		Price:         price,
		Quantity:      quantity,
		AggressorSide: side,
		MakerOrderID:  d.MakerOrderID,
		TakerOrderID:  d.TakerOrderID,
		Timestamp:     timestamp,
		MakerFee:      makerFee,
		TakerFee:      takerFee,
	}, nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseSide(s string) (common.Side, error) {
	switch s {
	case "buy":
		return common.Buy, nil
	case "sell":
		return common.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseOrderType(s string) (common.OrderType, error) {
	switch s {
	case "market":
		return common.Market, nil
	case "limit":
		return common.Limit, nil
	case "ioc":
		return common.IOC, nil
	case "fok":
		return common.FOK, nil
	case "stop":
		return common.Stop, nil
	case "stop_limit":
		return common.StopLimit, nil
	case "take_profit":
		return common.TakeProfit, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

func parseOrderStatus(s string) (common.OrderStatus, error) {
	switch s {
	case "new":
		return common.New, nil
	case "partially_filled":
		return common.PartiallyFilled, nil
	case "filled":
		return common.Filled, nil
	case "cancelled":
		return common.Cancelled, nil
	case "rejected":
		return common.Rejected, nil
	case "pending_trigger":
		return common.PendingTrigger, nil
	default:
		return 0, fmt.Errorf("unknown order status %q", s)
	}
}
