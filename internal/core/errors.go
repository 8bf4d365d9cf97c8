package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeAlreadyLoggedIn    = "already_logged_in"
	ErrCodeUnknownRoom        = "unknown_room"
	ErrCodeNotInRoom          = "not_in_room"
	ErrCodeAlreadyInRoom      = "already_in_room"
	ErrCodeMalformedCommand   = "malformed_command"
)

// ErrTerminated signals that the client asked to quit; the transport should
// close the connection after the farewell has been written.
var ErrTerminated = errors.New("session terminated")

// LobbyError wraps a machine code and the protocol line reported to the client.
// Every LobbyError is locally recoverable: the session stays usable after the
// reply has been written.
type LobbyError struct {
	Code  string
	Reply string
}

func (e *LobbyError) Error() string {
	return e.Reply
}

var (
	ErrInvalidCredentials = &LobbyError{ErrCodeInvalidCredentials, "Invalid credentials."}
	ErrAlreadyLoggedIn    = &LobbyError{ErrCodeAlreadyLoggedIn, "Already logged in."}
	ErrUnknownRoom        = &LobbyError{ErrCodeUnknownRoom, "Invalid code."}
	ErrNotInRoom          = &LobbyError{ErrCodeNotInRoom, "You are not in a room."}
	// ErrAlreadyInRoom is informational: joining the room you are in is a no-op.
	ErrAlreadyInRoom    = &LobbyError{ErrCodeAlreadyInRoom, "Already in this room."}
	ErrMalformedCommand = &LobbyError{ErrCodeMalformedCommand, "Unknown command."}
)
