package bridgeproxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/go-ctap/biometry/pkg/bridge"
	"github.com/go-ctap/biometry/pkg/options"
)

var operationByCommand = map[Command]string{
	CommandCheckBiometry: bridge.OperationCheckBiometry,
	CommandAuthenticate:  bridge.OperationAuthenticate,
}

// Server accepts host-shell connections and relays framed requests into
// the bridge registry.
type Server struct {
	logger   *slog.Logger
	registry *bridge.Registry
}

func NewServer(registry *bridge.Registry, opts ...options.Option) *Server {
	oo := options.NewOptions(opts...)

	return &Server{
		logger:   oo.Logger,
		registry: registry,
	}
}

// Serve accepts connections until the context is canceled or the listener
// fails. Each connection is handled on its own goroutine; requests within
// one connection are processed in order.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	connID := uuid.New()
	defer func() {
		_ = conn.Close()
	}()

	for {
		msg, err := ParseMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("dropping connection", "conn_id", connID, "error", err)
			}
			return
		}

		resp := s.dispatch(ctx, connID, msg)
		if _, err := resp.WriteTo(conn); err != nil {
			s.logger.Debug("response write failed", "conn_id", connID, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, connID uuid.UUID, msg *Message) *Message {
	operation, ok := operationByCommand[msg.Command]
	if !ok {
		return errorMessage(bridge.ErrUnknownOperation)
	}

	s.logger.Debug("dispatching operation", "conn_id", connID, "operation", operation)

	payload, err := s.registry.Handle(ctx, operation, msg.Data)
	if err != nil {
		return errorMessage(err)
	}

	return NewRawMessage(CommandOK, payload)
}

func errorMessage(err error) *Message {
	msg, encErr := NewMessage(CommandError, bridge.EnvelopeFromError(err))
	if encErr != nil {
		// The envelope is two strings; encoding it cannot realistically
		// fail, but never leave the peer without a response frame.
		return NewRawMessage(CommandError, nil)
	}
	return msg
}
