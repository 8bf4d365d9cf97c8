package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/auth"
)

// Hub owns the session and room registries and the auth gate's entry points.
// One coarse lock serializes every registry read-modify-write, including the
// sends performed while iterating room membership during a broadcast. A slow
// receiver can therefore stall unrelated operations; that tradeoff is kept
// deliberately in exchange for the cross-registry invariant being trivial to
// maintain: a room's member list and the sessions' Room fields never disagree.
type Hub struct {
	mu       sync.Mutex
	auth     *auth.Service
	sessions map[string]*Session
	rooms    map[string]*Room
	log      *zerolog.Logger
}

// NewHub creates a hub with empty registries.
func NewHub(authService *auth.Service, logger *zerolog.Logger) *Hub {
	return &Hub{
		auth:     authService,
		sessions: make(map[string]*Session),
		rooms:    make(map[string]*Room),
		log:      logger,
	}
}

// Register delegates to the credential store.
// Fails with store.ErrDuplicateUser when the username is taken.
func (h *Hub) Register(ctx context.Context, username, password string) error {
	if err := h.auth.Register(ctx, username, password); err != nil {
		return err
	}
	h.log.Info().Str("user", username).Msg("user registered")
	return nil
}

// Login verifies credentials and creates the session. This is the only way a
// session comes to exist. While a session is live, further logins for the
// same username fail with ErrAlreadyLoggedIn; under concurrent attempts
// exactly one wins.
func (h *Hub) Login(ctx context.Context, username, password string, sender Sender) (*Session, error) {
	if !h.auth.Verify(ctx, username, password) {
		return nil, ErrInvalidCredentials
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, live := h.sessions[username]; live {
		return nil, ErrAlreadyLoggedIn
	}

	s := newSession(username, sender)
	h.sessions[username] = s
	h.log.Info().Str("user", username).Msg("logged in")
	return s, nil
}

// CreateRoom opens a room with s as sole member and returns its code.
// If s was in a room, that membership is dissolved first, exactly as if the
// user had switched rooms, so a user is never in two rooms at once.
func (h *Hub) CreateRoom(s *Session) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveCurrentLocked(s, fmt.Sprintf("%s left the room.", s.Username))

	code := h.newRoomCodeLocked()
	h.rooms[code] = newRoom(code, s.Username)
	s.Room = code
	s.Status = StatusInGame

	_ = s.send(fmt.Sprintf("Room created! Code: %s", code))
	h.broadcastRoomLocked(code, fmt.Sprintf("%s created the room.", s.Username))

	h.log.Info().Str("user", s.Username).Str("room", code).Msg("room created")
	return code
}

// JoinRoom moves s into the room identified by code. Joining the current room
// is a no-op reported as ErrAlreadyInRoom; a previous room is left first, with
// the departure announced to its remaining members before any pruning.
func (h *Hub) JoinRoom(s *Session, code string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[code]
	if !ok {
		return ErrUnknownRoom
	}
	if s.Room == code {
		return ErrAlreadyInRoom
	}

	h.leaveCurrentLocked(s, fmt.Sprintf("%s left the room.", s.Username))

	room.add(s.Username)
	s.Room = code
	s.Status = StatusInGame

	_ = s.send(fmt.Sprintf("Joining room %s...", code))
	_ = s.send(fmt.Sprintf("You have joined the room. %d other players present.", len(room.Members)-1))
	h.broadcastRoomLocked(code, fmt.Sprintf("%s joined the room.", s.Username))

	h.log.Info().Str("user", s.Username).Str("room", code).Msg("joined room")
	return nil
}

// LeaveRoom removes s from its room and returns it to the lobby.
func (h *Hub) LeaveRoom(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.Room == "" {
		return ErrNotInRoom
	}

	code := s.Room
	h.leaveCurrentLocked(s, fmt.Sprintf("%s left the room.", s.Username))
	s.Status = StatusOnline
	_ = s.send("You left the room.")

	h.log.Info().Str("user", s.Username).Str("room", code).Msg("left room")
	return nil
}

// ListRooms replies with every open room and its member count.
func (h *Hub) ListRooms(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.rooms) == 0 {
		_ = s.send("No active rooms.")
		return
	}

	codes := make([]string, 0, len(h.rooms))
	for code := range h.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	lines := make([]string, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, fmt.Sprintf("%s: %d players", code, len(h.rooms[code].Members)))
	}
	_ = s.send(strings.Join(lines, "\n"))
}

// WhoIs replies with the sessions sharing s's broadcast scope: the member
// list of its room, or the whole lobby population when s is roomless.
func (h *Hub) WhoIs(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []string
	if room, ok := h.rooms[s.Room]; ok {
		targets = append(targets, room.Members...)
	} else {
		for name, sess := range h.sessions {
			if sess.Room == "" {
				targets = append(targets, name)
			}
		}
		sort.Strings(targets)
	}

	lines := make([]string, 0, len(targets))
	for _, name := range targets {
		lines = append(lines, fmt.Sprintf("%s (%s)", name, h.sessions[name].Status))
	}
	_ = s.send("Current players:\n" + strings.Join(lines, "\n"))
}

// SetStatus updates the session's status text and announces the change to
// the session's current broadcast scope.
func (h *Hub) SetStatus(s *Session, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s.Status = status
	msg := fmt.Sprintf("[STATUS] %s is now %s", s.Username, status)
	if s.Room != "" {
		h.broadcastRoomLocked(s.Room, msg)
	} else {
		h.broadcastLobbyLocked(msg)
	}
	_ = s.send(fmt.Sprintf("Status updated: %s", status))
}

// Chat delivers plain text from s to its current broadcast scope.
func (h *Hub) Chat(s *Session, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := fmt.Sprintf("%s: %s", s.Username, text)
	if s.Room != "" {
		h.broadcastRoomLocked(s.Room, msg)
	} else {
		h.broadcastLobbyLocked(msg)
	}
}

// Disconnect tears down a session: membership is dissolved with a
// "disconnected" announcement to the room, then the session is removed.
// Safe to call for sessions already torn down.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[s.Username] != s {
		return
	}

	h.leaveCurrentLocked(s, fmt.Sprintf("%s disconnected.", s.Username))
	delete(h.sessions, s.Username)
	h.log.Info().Str("user", s.Username).Msg("disconnected")
}

// BroadcastToRoom sends one line to every current member of the room, if it
// still exists. Delivery is best effort: a failed send is swallowed and does
// not abort delivery to the remaining members.
func (h *Hub) BroadcastToRoom(code, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastRoomLocked(code, msg)
}

// BroadcastToLobby sends one line to every session currently in no room.
func (h *Hub) BroadcastToLobby(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLobbyLocked(msg)
}

func (h *Hub) broadcastRoomLocked(code, msg string) {
	room, ok := h.rooms[code]
	if !ok {
		return
	}
	for _, name := range room.Members {
		sess, ok := h.sessions[name]
		if !ok {
			continue
		}
		if err := sess.send(msg); err != nil {
			h.log.Debug().Err(err).Str("user", name).Str("room", code).Msg("broadcast send failed")
		}
	}
}

func (h *Hub) broadcastLobbyLocked(msg string) {
	for name, sess := range h.sessions {
		if sess.Room != "" {
			continue
		}
		if err := sess.send(msg); err != nil {
			h.log.Debug().Err(err).Str("user", name).Msg("broadcast send failed")
		}
	}
}

// leaveCurrentLocked dissolves s's room membership, if any: the member entry
// is removed, announce is broadcast to the remaining members, and the room is
// deleted if that removal emptied it. s.Room is cleared; the caller decides
// what happens to s.Status.
func (h *Hub) leaveCurrentLocked(s *Session, announce string) {
	if s.Room == "" {
		return
	}
	room, ok := h.rooms[s.Room]
	if ok && room.remove(s.Username) {
		h.broadcastRoomLocked(room.Code, announce)
		if room.empty() {
			delete(h.rooms, room.Code)
			h.log.Info().Str("room", room.Code).Msg("room closed")
		}
	}
	s.Room = ""
}
