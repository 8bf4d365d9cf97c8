package ws

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/core"
)

// Handler upgrades HTTP connections and bridges them to the same line
// protocol the TCP listener speaks: one text frame carries one protocol line,
// in both directions. Framing stays the transport's job; the core never sees
// the difference.
type Handler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewHandler builds a new WebSocket handler.
func NewHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &Handler{hub: hub, log: logger}
}

func (h *Handler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	connID := uuid.NewString()
	logger := h.log.With().Str("conn_id", connID).Str("remote", r.RemoteAddr).Logger()
	logger.Info().Msg("ws connection accepted")

	sender := &frameSender{conn: conn}
	c := core.NewConn(h.hub, sender)
	defer func() {
		c.Close()
		conn.Close(websocket.StatusNormalClosure, "closing")
		logger.Info().Msg("ws connection closed")
	}()

	if err := c.Greet(); err != nil {
		return
	}

	for {
		kind, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return
			}
			logger.Debug().Err(err).Msg("ws read failed")
			return
		}
		if kind != websocket.MessageText {
			continue
		}
		line := strings.TrimSpace(string(data))
		if line == "" {
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
}

// NewServer builds the HTTP server hosting the WebSocket bridge.
func NewServer(addr string, hub *core.Hub, logger *zerolog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/ws", NewHandler(hub, logger))

	return &stdhttp.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func healthHandler(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
	_, _ = fmt.Fprint(w, "ok")
}

// frameSender writes each protocol line as one WebSocket text frame. Writes
// run under a short timeout; a send that cannot complete in time fails like
// any other dead-peer send.
type frameSender struct {
	conn *websocket.Conn
}

func (s *frameSender) Send(line string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (s *frameSender) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "closing")
}
