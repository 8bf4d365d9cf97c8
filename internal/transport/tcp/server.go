package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/core"
)

// Server accepts raw TCP connections and feeds complete input lines into the
// core, one goroutine per connection. The worker's lifetime ends exactly at
// the disconnection cleanup: whatever path a connection dies by, core.Conn's
// Close runs once.
type Server struct {
	addr string
	hub  *core.Hub
	log  *zerolog.Logger

	mu sync.Mutex
	ln net.Listener
}

// New builds a TCP server bound to addr once Run is called.
func New(addr string, hub *core.Hub, logger *zerolog.Logger) *Server {
	return &Server{
		addr: addr,
		hub:  hub,
		log:  logger,
	}
}

// Addr returns the bound listen address, or "" before Run.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Run listens and serves until ctx is cancelled. Accept errors after
// cancellation are treated as a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp listener started")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	logger := s.log.With().Str("conn_id", connID).Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Info().Msg("connection accepted")

	sender := newLineSender(conn)
	c := core.NewConn(s.hub, sender)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Any("panic", r).Msg("connection worker panicked")
		}
		c.Close()
		_ = conn.Close()
		logger.Info().Msg("connection closed")
	}()

	if err := c.Greet(); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			// Matches the disconnect-on-empty-read contract.
			return
		}
		if err := c.HandleLine(ctx, line); err != nil {
			if errors.Is(err, core.ErrTerminated) {
				return
			}
			logger.Warn().Err(err).Msg("command handling failed")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug().Err(err).Msg("read failed")
	}
}

// lineSender writes newline-terminated lines to a net.Conn. Its own mutex
// keeps a direct reply from interleaving with a broadcast issued under the
// hub lock.
type lineSender struct {
	mu   sync.Mutex
	conn net.Conn
}

func newLineSender(conn net.Conn) *lineSender {
	return &lineSender{conn: conn}
}

func (w *lineSender) Send(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.conn.Write([]byte(line + "\n"))
	return err
}

func (w *lineSender) Close() error {
	return w.conn.Close()
}
