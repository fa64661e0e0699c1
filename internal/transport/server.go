package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"coreforge/internal/api"
	"coreforge/internal/common"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

// Engine is the subset of *engine.MatchingEngine the server needs. Kept as
// an interface, as the teacher's internal/net/server.go did, so tests can
// substitute a fake.
type Engine interface {
	Submit(req api.OrderRequest) api.OrderResponse
	Cancel(orderID string) api.CancelResult
}

// Server accepts TCP connections and dispatches NewOrder/CancelOrder
// requests to an Engine, replying synchronously on the same connection.
// Adapted from the teacher's internal/net/server.go: the listener/worker-
// pool/tomb shape is unchanged, the per-client session bookkeeping built
// for asynchronous trade reports is dropped since this protocol's replies
// are synchronous (see DESIGN.md).
type Server struct {
	address string
	port    int
	engine  Engine
	pool    WorkerPool
	cancel  context.CancelFunc
}

func New(address string, port int, engine Engine) *Server {
	return &Server{
		address: address,
		port:    port,
		engine:  engine,
		pool:    NewWorkerPool(defaultNWorkers),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("transport server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run blocks, accepting connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	// Closing the listener once ctx is done unblocks a pending Accept, so
	// Run returns on cancellation instead of waiting for one more client.
	// Every return below happens after ctx is done (Shutdown cancels it).
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("transport server listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			s.pool.AddTask(conn)
		}
	}
}

// handleConnection reads and answers one request off conn, then returns
// the connection to the pool for its next read — or, on a read or decode
// error, closes it. Errors on conn are local to it and never fatal to the
// pool itself.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("unexpected task type %T", task)
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Msg("failed setting connection deadline")
		conn.Close()
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
	}

	n, err := conn.Read(buffer)
	if err != nil {
		log.Debug().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
		conn.Close()
		return nil
	}

	req, err := DecodeRequest(buffer[:n])
	if err != nil {
		log.Error().Err(err).Msg("error parsing message")
		conn.Write(EncodeErrorReport(err))
		conn.Close()
		return nil
	}

	if err := s.handleRequest(conn, req); err != nil {
		log.Error().Err(err).Msg("error handling request")
	}

	s.pool.AddTask(conn)
	return nil
}

func (s *Server) handleRequest(conn net.Conn, req Request) error {
	switch req.Type {
	case Heartbeat:
		return nil

	case NewOrder:
		orderReq, err := toOrderRequest(req.NewOrder)
		if err != nil {
			_, writeErr := conn.Write(EncodeErrorReport(err))
			return writeErr
		}
		resp := s.engine.Submit(orderReq)
		_, err = conn.Write(EncodeAckReport(resp))
		return err

	case CancelOrder:
		result := s.engine.Cancel(req.CancelOrderID)
		resp := api.OrderResponse{OrderID: req.CancelOrderID}
		if result.OK {
			resp.Status = common.Cancelled
		} else {
			resp.Status = common.Rejected
			resp.RejectReason = result.Reason
		}
		_, err := conn.Write(EncodeAckReport(resp))
		return err

	default:
		_, err := conn.Write(EncodeErrorReport(ErrInvalidMessageType))
		return err
	}
}

// toOrderRequest converts the wire NewOrderRequest into the engine's
// api.OrderRequest, parsing decimal strings and leaving unset optional
// prices nil.
func toOrderRequest(r NewOrderRequest) (api.OrderRequest, error) {
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return api.OrderRequest{}, fmt.Errorf("quantity: %w", err)
	}

	req := api.OrderRequest{
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          r.Side,
		Type:          r.Type,
		Quantity:      quantity,
	}
	if req.Price, err = parseOptionalWireDecimal(r.Price); err != nil {
		return api.OrderRequest{}, fmt.Errorf("price: %w", err)
	}
	if req.StopPrice, err = parseOptionalWireDecimal(r.StopPrice); err != nil {
		return api.OrderRequest{}, fmt.Errorf("stop_price: %w", err)
	}
	if req.TakeProfitPrice, err = parseOptionalWireDecimal(r.TakeProfitPrice); err != nil {
		return api.OrderRequest{}, fmt.Errorf("take_profit_price: %w", err)
	}
	return req, nil
}

func parseOptionalWireDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
