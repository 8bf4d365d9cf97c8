package core

// Session statuses set by the room manager. Clients may overwrite them with
// arbitrary text through the status command.
const (
	StatusOnline = "online"
	StatusInGame = "in game"
)

// Sender is the outbound half of a client connection as seen by the core.
// Send writes one protocol line, appending the line terminator. Both methods
// must tolerate concurrent calls.
type Sender interface {
	Send(line string) error
	Close() error
}

// Session is the live state of one authenticated user. At most one session
// exists per username at any time. Room and Status are guarded by the hub
// lock; Username and the sender never change after login.
type Session struct {
	Username string
	sender   Sender

	// Room is the code of the current room, or "" while in the lobby.
	Room   string
	Status string
}

func newSession(username string, sender Sender) *Session {
	return &Session{
		Username: username,
		sender:   sender,
		Status:   StatusOnline,
	}
}

// send writes a line to the session's connection. Failures are the caller's
// business: broadcasts swallow them, direct replies surface them.
func (s *Session) send(line string) error {
	return s.sender.Send(line)
}
