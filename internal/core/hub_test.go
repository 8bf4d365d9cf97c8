package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestLoginRejectsSecondLiveSession(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	mustLogin(t, h, "alice")

	_, err := h.Login(ctx, "alice", "pw", &fakeSender{})
	if !errors.Is(err, ErrAlreadyLoggedIn) {
		t.Fatalf("expected ErrAlreadyLoggedIn, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	if err := h.Register(ctx, "alice", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := h.Login(ctx, "alice", "wrong", &fakeSender{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := h.Login(ctx, "nobody", "pw", &fakeSender{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestConcurrentLoginExactlyOneWins(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	if err := h.Register(ctx, "alice", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Login(ctx, "alice", "pw", &fakeSender{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrAlreadyLoggedIn) {
			t.Fatalf("unexpected login error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful login, got %d", wins)
	}
}

func TestCreateRoomCodesUniqueUnderConcurrency(t *testing.T) {
	h := newTestHub(t)

	const users = 50
	sessions := make([]*Session, users)
	for i := 0; i < users; i++ {
		sessions[i], _ = mustLogin(t, h, uniqueName("user", i))
	}

	var wg sync.WaitGroup
	codes := make(chan string, users)
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			codes <- h.CreateRoom(s)
		}(s)
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool, users)
	for code := range codes {
		if len(code) != codeLength {
			t.Fatalf("code %q is not %d characters", code, codeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		if seen[code] {
			t.Fatalf("code %q assigned twice", code)
		}
		seen[code] = true
	}
	checkConsistent(t, h)
}

func TestJoinRoomErrors(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")

	if err := h.JoinRoom(alice, "NOPE42"); !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}

	code := h.CreateRoom(alice)
	if err := h.JoinRoom(alice, code); !errors.Is(err, ErrAlreadyInRoom) {
		t.Fatalf("expected ErrAlreadyInRoom, got %v", err)
	}
	checkConsistent(t, h)
}

func TestJoinRoomSwitchesAndAnnounces(t *testing.T) {
	h := newTestHub(t)
	alice, aliceOut := mustLogin(t, h, "alice")
	bob, _ := mustLogin(t, h, "bob")
	carol, carolOut := mustLogin(t, h, "carol")

	first := h.CreateRoom(alice)
	second := h.CreateRoom(bob)

	if err := h.JoinRoom(carol, first); err != nil {
		t.Fatalf("join first: %v", err)
	}
	checkConsistent(t, h)
	if !aliceOut.Contains("carol joined the room.") {
		t.Fatalf("alice did not see carol join: %v", aliceOut.Lines())
	}
	if !carolOut.Contains("You have joined the room. 1 other players present.") {
		t.Fatalf("carol missing join reply: %v", carolOut.Lines())
	}

	// Switching rooms announces the departure to the old room.
	aliceOut.Reset()
	if err := h.JoinRoom(carol, second); err != nil {
		t.Fatalf("join second: %v", err)
	}
	checkConsistent(t, h)
	if !aliceOut.Contains("carol left the room.") {
		t.Fatalf("alice did not see carol leave: %v", aliceOut.Lines())
	}
	if carol.Room != second {
		t.Fatalf("carol room = %q, want %q", carol.Room, second)
	}
}

func TestLeaveRoomPrunesEmptyRoom(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")

	code := h.CreateRoom(alice)
	if err := h.LeaveRoom(alice); err != nil {
		t.Fatalf("leave: %v", err)
	}

	h.mu.Lock()
	_, exists := h.rooms[code]
	h.mu.Unlock()
	if exists {
		t.Fatalf("room %s persisted after its last member left", code)
	}
	if alice.Room != "" || alice.Status != StatusOnline {
		t.Fatalf("session not reset: room=%q status=%q", alice.Room, alice.Status)
	}

	if err := h.LeaveRoom(alice); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}
}

func TestCreateRoomWhileInRoomLeavesOldFirst(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")
	bob, bobOut := mustLogin(t, h, "bob")

	first := h.CreateRoom(alice)
	if err := h.JoinRoom(bob, first); err != nil {
		t.Fatalf("join: %v", err)
	}

	second := h.CreateRoom(bob)
	checkConsistent(t, h)
	if bob.Room != second {
		t.Fatalf("bob room = %q, want %q", bob.Room, second)
	}
	if !bobOut.Contains("bob created the room.") {
		t.Fatalf("bob missing creation announcement: %v", bobOut.Lines())
	}
}

func TestBroadcastDeliverySets(t *testing.T) {
	h := newTestHub(t)
	alice, aliceOut := mustLogin(t, h, "alice")
	bob, bobOut := mustLogin(t, h, "bob")
	_, carolOut := mustLogin(t, h, "carol")

	code := h.CreateRoom(alice)
	if err := h.JoinRoom(bob, code); err != nil {
		t.Fatalf("join: %v", err)
	}
	aliceOut.Reset()
	bobOut.Reset()
	carolOut.Reset()

	h.BroadcastToRoom(code, "room ping")
	if !aliceOut.Contains("room ping") || !bobOut.Contains("room ping") {
		t.Fatalf("room members missed the broadcast")
	}
	if carolOut.Contains("room ping") {
		t.Fatalf("lobby session received a room broadcast")
	}

	h.BroadcastToLobby("lobby ping")
	if !carolOut.Contains("lobby ping") {
		t.Fatalf("lobby session missed the lobby broadcast")
	}
	if aliceOut.Contains("lobby ping") || bobOut.Contains("lobby ping") {
		t.Fatalf("room session received a lobby broadcast")
	}

	// An ex-member removed before the call never receives the message.
	if err := h.LeaveRoom(bob); err != nil {
		t.Fatalf("leave: %v", err)
	}
	bobOut.Reset()
	h.BroadcastToRoom(code, "after departure")
	if bobOut.Contains("after departure") {
		t.Fatalf("ex-member received a room broadcast")
	}
}

func TestBroadcastSurvivesSendFailure(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")
	bob, bobOut := mustLogin(t, h, "bob")
	carol, carolOut := mustLogin(t, h, "carol")

	code := h.CreateRoom(alice)
	if err := h.JoinRoom(bob, code); err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if err := h.JoinRoom(carol, code); err != nil {
		t.Fatalf("join carol: %v", err)
	}

	bobOut.mu.Lock()
	bobOut.fail = true
	bobOut.mu.Unlock()
	carolOut.Reset()

	h.BroadcastToRoom(code, "still delivered")
	if !carolOut.Contains("still delivered") {
		t.Fatalf("delivery aborted after one failed send")
	}
}

func TestDisconnectAnnouncesAndRemoves(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")
	bob, bobOut := mustLogin(t, h, "bob")

	code := h.CreateRoom(alice)
	if err := h.JoinRoom(bob, code); err != nil {
		t.Fatalf("join: %v", err)
	}
	bobOut.Reset()

	h.Disconnect(alice)
	if !bobOut.Contains("alice disconnected.") {
		t.Fatalf("bob did not see the disconnect: %v", bobOut.Lines())
	}
	checkConsistent(t, h)

	h.mu.Lock()
	_, live := h.sessions["alice"]
	h.mu.Unlock()
	if live {
		t.Fatalf("session survived disconnect")
	}

	// Cleanup is idempotent and must not touch a later session for the
	// same username.
	relogged, _ := mustLogin(t, h, "alice")
	h.Disconnect(alice)
	h.mu.Lock()
	current := h.sessions["alice"]
	h.mu.Unlock()
	if current != relogged {
		t.Fatalf("stale disconnect removed the new session")
	}
}

func TestDisconnectLastMemberPrunesRoom(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustLogin(t, h, "alice")
	code := h.CreateRoom(alice)

	h.Disconnect(alice)

	h.mu.Lock()
	_, exists := h.rooms[code]
	h.mu.Unlock()
	if exists {
		t.Fatalf("room %s persisted after its last member disconnected", code)
	}
}
