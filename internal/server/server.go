package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	httptransport "github.com/example/court-scheduler/internal/http"
	"github.com/example/court-scheduler/internal/logging"
	"github.com/example/court-scheduler/internal/protocol"
)

const (
	msgMalformedRequest = "Malformed HTTP request"
	msgInternalError    = "Internal server error"
)

// Accept failures back off from minAcceptDelay, doubling up to maxAcceptDelay.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Config tunes connection handling. Zero values fall back to defaults.
type Config struct {
	// ConnTimeout bounds the read and write of a connection. Zero disables it.
	ConnTimeout     time.Duration
	MaxRequestBytes int
	Logger          *slog.Logger
}

// Server accepts connections and answers exactly one request per connection.
type Server struct {
	handler httptransport.Handler
	cfg     Config
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	stopOnce sync.Once
	conns    sync.WaitGroup
	connSeq  atomic.Uint64
}

// New builds a server dispatching to handler.
func New(handler httptransport.Handler, cfg Config) (*Server, error) {
	if handler == nil {
		return nil, errors.New("server: handler is required")
	}
	if cfg.ConnTimeout < 0 {
		return nil, fmt.Errorf("server: connection timeout cannot be negative: %s", cfg.ConnTimeout)
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = protocol.DefaultMaxRequestBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler: handler,
		cfg:     cfg,
		logger:  logger.With("component", "server"),
	}, nil
}

// Serve runs the accept loop on ln until the listener is closed or ctx ends.
// Each accepted connection is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		return errors.New("server: listener is required")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	if s.listener != nil {
		s.mu.Unlock()
		return errors.New("server: already serving")
	}
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.closeListener() })
	defer stop()

	s.logger.Info("listening", "addr", ln.Addr().String())

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isClosedError(err) {
				s.logger.Info("listener closed, exiting accept loop")
				return ErrServerClosed
			}
			tempDelay = nextAcceptDelay(tempDelay)
			s.logger.Error("accept connection", "error", err, "retry_in", tempDelay)
			select {
			case <-time.After(tempDelay):
			case <-ctx.Done():
				s.closeListener()
				s.logger.Info("context done, exiting accept loop")
				return ErrServerClosed
			}
			continue
		}
		tempDelay = 0

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Shutdown closes the listener and waits for in-flight connections to finish
// or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeListener()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("server: waiting for connections: %w", ctx.Err())
	}
}

func (s *Server) closeListener() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.listener == nil {
			return
		}
		if err := s.listener.Close(); err != nil && !isClosedError(err) {
			s.logger.Error("close listener", "error", err)
		}
	})
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	logger := s.logger.With(
		"conn_id", s.connSeq.Add(1),
		"remote_addr", conn.RemoteAddr().String(),
	)
	ctx = logging.ContextWithLogger(ctx, logger)

	written := false
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection panic", "panic", r)
			if !written {
				s.write(conn, logger, protocol.Error(protocol.StatusInternalServerError, msgInternalError))
			}
		}
		if err := conn.Close(); err != nil && !isClosedError(err) {
			logger.Debug("close connection", "error", err)
		}
	}()

	if s.cfg.ConnTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.cfg.ConnTimeout)); err != nil {
			logger.Warn("set connection deadline", "error", err)
		}
	}

	raw, err := protocol.ReadRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		if !errors.Is(err, protocol.ErrRequestTooLarge) {
			logger.Warn("read request", "error", err)
			return
		}
	}

	var resp *protocol.Response
	if err == nil {
		req, parseErr := protocol.ParseRequest(raw)
		if parseErr == nil {
			resp = s.handler.Serve(ctx, req)
		} else {
			err = parseErr
		}
	}
	if err != nil {
		logger.Info("malformed request", "error", err)
		resp = protocol.Error(protocol.StatusBadRequest, msgMalformedRequest)
	}
	if resp == nil {
		resp = protocol.Error(protocol.StatusInternalServerError, msgInternalError)
	}

	written = true
	s.write(conn, logger, resp)
}

func (s *Server) write(conn net.Conn, logger *slog.Logger, resp *protocol.Response) {
	if _, err := conn.Write(resp.Bytes()); err != nil {
		logger.Warn("write response", "status", resp.Status, "error", err)
	}
}

// isClosedError reports whether err indicates a closed listener or connection.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(prev*2, maxAcceptDelay)
}

func isClosedError(err error) bool {
	return err != nil && errors.Is(err, net.ErrClosed)
}
