// Package transport is the binary TCP wire protocol and worker-pool server
// that expose the matching engine (internal/engine) to external clients.
// Grounded on the teacher's internal/net/messages.go and internal/net/
// server.go: the same explicit big-endian, length-prefixed framing style,
// generalized from float64 price/uint64 quantity fields to length-prefixed
// decimal strings so no price or quantity ever passes through a float,
// and from the teacher's two message types (new_order, cancel_order) to
// the full order-type surface spec.md §4.2 names.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"coreforge/internal/api"
	"coreforge/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort     = errors.New("message too short")
)

// MessageType identifies a client-to-server request.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

// BaseHeaderLen is the 2-byte message-type header every request starts
// with.
const BaseHeaderLen = 2

var sideCodes = map[common.Side]byte{common.Buy: 0, common.Sell: 1}
var sideFromCode = map[byte]common.Side{0: common.Buy, 1: common.Sell}

var typeCodes = map[common.OrderType]byte{
	common.Market: 0, common.Limit: 1, common.IOC: 2, common.FOK: 3,
	common.Stop: 4, common.StopLimit: 5, common.TakeProfit: 6,
}
var typeFromCode = map[byte]common.OrderType{
	0: common.Market, 1: common.Limit, 2: common.IOC, 3: common.FOK,
	4: common.Stop, 5: common.StopLimit, 6: common.TakeProfit,
}

// putString appends a 1-byte length prefix and s itself. Callers are
// responsible for keeping s under 256 bytes, true for every field this
// protocol carries (symbols, UUIDs, decimal strings).
func putString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

// takeString reads a length-prefixed string starting at buf[0], returning
// it and the remainder of buf.
func takeString(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, ErrMessageTooShort
	}
	n := int(buf[0])
	buf = buf[1:]
	if len(buf) < n {
		return "", nil, ErrMessageTooShort
	}
	return string(buf[:n]), buf[n:], nil
}

// NewOrderRequest is the decoded form of a NewOrder wire message.
type NewOrderRequest struct {
	ClientOrderID   string
	Symbol          string
	Side            common.Side
	Type            common.OrderType
	Quantity        string
	Price           string
	StopPrice       string
	TakeProfitPrice string
}

// EncodeNewOrder serializes req as a complete wire message, header
// included.
func EncodeNewOrder(req NewOrderRequest) ([]byte, error) {
	sideCode, ok := sideCodes[req.Side]
	if !ok {
		return nil, fmt.Errorf("unknown side %v", req.Side)
	}
	typeCode, ok := typeCodes[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown order type %v", req.Type)
	}

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(NewOrder))
	buf = append(buf, sideCode, typeCode)
	buf = putString(buf, req.Symbol)
	buf = putString(buf, req.ClientOrderID)
	buf = putString(buf, req.Quantity)
	buf = putString(buf, req.Price)
	buf = putString(buf, req.StopPrice)
	buf = putString(buf, req.TakeProfitPrice)
	return buf, nil
}

// decodeNewOrder parses body, the message with the 2-byte type header
// already stripped.
func decodeNewOrder(body []byte) (NewOrderRequest, error) {
	if len(body) < 2 {
		return NewOrderRequest{}, ErrMessageTooShort
	}
	side, ok := sideFromCode[body[0]]
	if !ok {
		return NewOrderRequest{}, fmt.Errorf("unknown side code %d", body[0])
	}
	otype, ok := typeFromCode[body[1]]
	if !ok {
		return NewOrderRequest{}, fmt.Errorf("unknown order type code %d", body[1])
	}
	rest := body[2:]

	var req NewOrderRequest
	req.Side = side
	req.Type = otype

	var err error
	if req.Symbol, rest, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	if req.ClientOrderID, rest, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	if req.Quantity, rest, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	if req.Price, rest, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	if req.StopPrice, rest, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	if req.TakeProfitPrice, _, err = takeString(rest); err != nil {
		return NewOrderRequest{}, err
	}
	return req, nil
}

// EncodeCancelOrder serializes a cancel request, header included.
func EncodeCancelOrder(orderID string) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(CancelOrder))
	return putString(buf, orderID)
}

func decodeCancelOrder(body []byte) (string, error) {
	orderID, _, err := takeString(body)
	return orderID, err
}

// Request is the decoded form of any client message, with exactly one of
// NewOrder/CancelOrderID populated depending on Type.
type Request struct {
	Type          MessageType
	NewOrder      NewOrderRequest
	CancelOrderID string
}

// DecodeRequest parses a complete wire message, header included.
func DecodeRequest(msg []byte) (Request, error) {
	if len(msg) < BaseHeaderLen {
		return Request{}, ErrMessageTooShort
	}
	msgType := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]

	switch msgType {
	case Heartbeat:
		return Request{Type: Heartbeat}, nil
	case NewOrder:
		req, err := decodeNewOrder(body)
		if err != nil {
			return Request{}, err
		}
		return Request{Type: NewOrder, NewOrder: req}, nil
	case CancelOrder:
		orderID, err := decodeCancelOrder(body)
		if err != nil {
			return Request{}, err
		}
		return Request{Type: CancelOrder, CancelOrderID: orderID}, nil
	default:
		return Request{}, ErrInvalidMessageType
	}
}

// ReportType distinguishes the two kinds of server-to-client response this
// protocol sends.
type ReportType uint16

const (
	AckReport ReportType = iota
	ErrorReport
)

// EncodeAckReport serializes a completed OrderResponse as a wire message.
func EncodeAckReport(resp api.OrderResponse) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(AckReport))
	buf = append(buf, byte(resp.Status))
	buf = putString(buf, resp.OrderID)
	buf = putString(buf, resp.ClientOrderID)
	buf = putString(buf, resp.FilledQuantity.String())
	buf = putString(buf, resp.RemainingQty.String())
	buf = putString(buf, resp.RejectReason)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(resp.Trades)))
	for _, t := range resp.Trades {
		buf = putString(buf, t.TradeID)
		buf = putString(buf, t.Price.String())
		buf = putString(buf, t.Quantity.String())
		buf = putString(buf, t.MakerOrderID)
		buf = putString(buf, t.TakerOrderID)
		buf = putString(buf, t.MakerFee.String())
		buf = putString(buf, t.TakerFee.String())
	}
	return buf
}

// EncodeErrorReport serializes a transport- or protocol-level error (not
// an order rejection, which rides on an AckReport).
func EncodeErrorReport(err error) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(ErrorReport))
	return putString(buf, err.Error())
}
