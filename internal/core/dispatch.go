package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store"
)

// WelcomeBanner is written by the transport as soon as a connection is accepted.
const WelcomeBanner = "Welcome! Use /register <user> <pass> or /login <user> <pass>"

const commandPrefix = "/"

// ConnState tracks where a connection is in its lifecycle. Login is the only
// transition out of StateUnauthenticated.
type ConnState int

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticated
	StateTerminated
)

// Conn is the per-connection command state machine: the auth gate while
// unauthenticated, the command dispatcher afterwards. The transport feeds it
// complete input lines and calls Close exactly when the connection dies.
type Conn struct {
	hub    *Hub
	sender Sender

	state   ConnState
	session *Session

	closeOnce sync.Once
}

// NewConn wraps a freshly accepted connection.
func NewConn(hub *Hub, sender Sender) *Conn {
	return &Conn{
		hub:    hub,
		sender: sender,
	}
}

// Greet writes the welcome banner.
func (c *Conn) Greet() error {
	return c.sender.Send(WelcomeBanner)
}

// Session returns the authenticated session, or nil.
func (c *Conn) Session() *Session {
	return c.session
}

// HandleLine processes one input line. A nil return means the connection
// stays open; ErrTerminated means the client quit and the farewell has been
// written; any other error is unexpected and should end the worker.
func (c *Conn) HandleLine(ctx context.Context, line string) error {
	switch c.state {
	case StateUnauthenticated:
		return c.handleAuth(ctx, line)
	case StateAuthenticated:
		return c.handleCommand(line)
	default:
		return ErrTerminated
	}
}

// Close runs the disconnection cleanup exactly once. Idempotent; safe to call
// whether or not the connection ever authenticated.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state = StateTerminated
		if c.session != nil {
			c.hub.Disconnect(c.session)
		}
	})
}

// handleAuth accepts repeated register and login attempts; anything else is
// rejected with a generic error and the state does not advance.
func (c *Conn) handleAuth(ctx context.Context, line string) error {
	cmd, username, password, ok := splitAuthLine(line)
	if !ok {
		return c.sender.Send("Invalid command.")
	}

	switch cmd {
	case "/register":
		err := c.hub.Register(ctx, username, password)
		if err == nil {
			return c.sender.Send("Registered successfully! Please /login.")
		}
		if errors.Is(err, store.ErrDuplicateUser) {
			return c.sender.Send("Username exists.")
		}
		return fmt.Errorf("register: %w", err)

	case "/login":
		session, err := c.hub.Login(ctx, username, password, c.sender)
		if err != nil {
			return c.replyError(err)
		}
		c.session = session
		c.state = StateAuthenticated
		return c.sender.Send(fmt.Sprintf("Logged in as %s.", session.Username))

	default:
		return c.sender.Send("Invalid command.")
	}
}

// handleCommand dispatches one post-authentication line: a slash command, or
// plain chat text delivered to the session's current broadcast scope.
func (c *Conn) handleCommand(line string) error {
	if !strings.HasPrefix(line, commandPrefix) {
		c.hub.Chat(c.session, line)
		return nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/create_room":
		c.hub.CreateRoom(c.session)
		return nil

	case "/join_room":
		if len(fields) < 2 {
			return c.replyError(ErrMalformedCommand)
		}
		if err := c.hub.JoinRoom(c.session, fields[1]); err != nil {
			return c.replyError(err)
		}
		return nil

	case "/list_rooms":
		c.hub.ListRooms(c.session)
		return nil

	case "/leave_room":
		if err := c.hub.LeaveRoom(c.session); err != nil {
			return c.replyError(err)
		}
		return nil

	case "/status":
		status := strings.TrimSpace(strings.TrimPrefix(line, "/status"))
		if status == "" {
			return c.replyError(ErrMalformedCommand)
		}
		c.hub.SetStatus(c.session, status)
		return nil

	case "/whois":
		c.hub.WhoIs(c.session)
		return nil

	case "/quit":
		_ = c.sender.Send("Goodbye!")
		c.state = StateTerminated
		return ErrTerminated

	default:
		return c.replyError(ErrMalformedCommand)
	}
}

// replyError reports a domain error to the connection as a plain text line.
// Anything outside the lobby taxonomy is returned to the transport instead.
func (c *Conn) replyError(err error) error {
	var le *LobbyError
	if errors.As(err, &le) {
		return c.sender.Send(le.Reply)
	}
	return err
}

// splitAuthLine parses "/register <user> <pass>" and "/login <user> <pass>".
// The password is the remainder of the line and may contain spaces.
func splitAuthLine(line string) (cmd, username, password string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	cmd, username, password = parts[0], parts[1], parts[2]
	if username == "" || password == "" {
		return "", "", "", false
	}
	return cmd, username, password, true
}
