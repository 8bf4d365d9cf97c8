package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/auth"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store/memory"
)

// fakeSender records every line delivered to a connection. Setting fail makes
// every Send error, standing in for a dead peer.
type fakeSender struct {
	mu     sync.Mutex
	lines  []string
	fail   bool
	closed bool
}

func (f *fakeSender) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func (f *fakeSender) Contains(sub string) bool {
	for _, line := range f.Lines() {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func (f *fakeSender) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger := zerolog.Nop()
	return NewHub(auth.NewService(memory.New(), false), &logger)
}

// mustLogin registers (ignoring duplicates) and logs in a user.
func mustLogin(t *testing.T, h *Hub, username string) (*Session, *fakeSender) {
	t.Helper()
	ctx := context.Background()

	_ = h.Register(ctx, username, "pw")
	sender := &fakeSender{}
	s, err := h.Login(ctx, username, "pw", sender)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return s, sender
}

// checkConsistent asserts the cross-registry invariant: for every room code,
// the member set equals exactly the set of sessions whose Room field is that
// code, and no room is empty.
func checkConsistent(t *testing.T, h *Hub) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()

	for code, room := range h.rooms {
		if len(room.Members) == 0 {
			t.Fatalf("room %s persists with zero members", code)
		}
		seen := make(map[string]bool, len(room.Members))
		for _, name := range room.Members {
			if seen[name] {
				t.Fatalf("room %s lists %s twice", code, name)
			}
			seen[name] = true
			sess, ok := h.sessions[name]
			if !ok {
				t.Fatalf("room %s lists %s but no session exists", code, name)
			}
			if sess.Room != code {
				t.Fatalf("room %s lists %s but session room is %q", code, name, sess.Room)
			}
		}
	}
	for name, sess := range h.sessions {
		if sess.Room == "" {
			continue
		}
		room, ok := h.rooms[sess.Room]
		if !ok {
			t.Fatalf("session %s points at missing room %s", name, sess.Room)
		}
		found := false
		for _, member := range room.Members {
			if member == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("session %s points at room %s but is not a member", name, sess.Room)
		}
	}
}

func uniqueName(prefix string, i int) string {
	return fmt.Sprintf("%s%02d", prefix, i)
}
