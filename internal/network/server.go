package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/leengari/dbon/internal/executor"
	"github.com/leengari/dbon/internal/storage/manager"
)

// Server accepts newline-delimited JSON Commands and answers each with a
// JSON Result. Every connection has its own session.
type Server struct {
	registry *manager.Registry
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewServer creates a server over registry.
func NewServer(registry *manager.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{registry: registry, logger: logger}
}

// Start listens on addr and serves until ctx is cancelled.
func Start(ctx context.Context, addr string, registry *manager.Registry) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	return NewServer(registry, nil).Serve(ctx, listener)
}

// Serve accepts connections from listener until ctx is cancelled, then
// closes the listener and waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.logger.Info("Running on address", slog.String("addr", listener.Addr().String()))

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			s.logger.Error("Failed to accept connection", slog.Any("error", err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	session := executor.NewSession(s.registry)
	logger := s.logger.With(slog.String("remote", conn.RemoteAddr().String()))
	logger.Debug("Connection opened")

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var cmd executor.Command
		if err := decoder.Decode(&cmd); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Debug("Connection closed")
				return
			}
			logger.Error("decode error", slog.Any("error", err))

			// Send error back to client
			_ = encoder.Encode(&executor.Result{
				Error: fmt.Sprintf("Invalid request format: %v", err),
			})
			return
		}

		if err := encoder.Encode(session.ExecuteResult(cmd)); err != nil {
			logger.Error("encode error", slog.Any("error", err))
			return
		}
	}
}
