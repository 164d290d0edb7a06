package socket

import (
	"sort"
	"testing"
	"time"
)

func TestNextBackoffSchedule(t *testing.T) {
	opts := DefaultOptions()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}

	delay := time.Duration(0)
	for i, expected := range want {
		delay = opts.NextBackoff(delay)
		if delay != expected {
			t.Fatalf("attempt %d: got delay %s, want %s", i+1, delay, expected)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.ReconnectAttempts != 10 {
		t.Fatalf("got %d reconnect attempts, want 10", opts.ReconnectAttempts)
	}
	if opts.ConnectTimeout != 20*time.Second {
		t.Fatalf("got connect timeout %s, want 20s", opts.ConnectTimeout)
	}
	if opts.ReconnectBaseDelay != time.Second || opts.ReconnectMaxDelay != 10*time.Second {
		t.Fatalf("got backoff %s..%s, want 1s..10s", opts.ReconnectBaseDelay, opts.ReconnectMaxDelay)
	}
}

func TestNewClientStartsDisconnected(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())
	if got := c.State(); got != StateDisconnected {
		t.Fatalf("got initial state %s, want %s", got, StateDisconnected)
	}
	if c.IsConnected() {
		t.Fatal("new client must not report connected")
	}
}

func TestSetStateNotifiesObserversOnceTransition(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())

	var seen []State
	c.OnStateChange(func(s State) { seen = append(seen, s) })

	c.setState(StateConnecting)
	c.setState(StateConnecting) // no transition, no callback
	c.setState(StateConnected)

	if len(seen) != 2 || seen[0] != StateConnecting || seen[1] != StateConnected {
		t.Fatalf("got observer calls %v, want [connecting connected]", seen)
	}
}

func TestConnectWithoutTokenFails(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())
	if err := c.Connect("u1", ""); err == nil {
		t.Fatal("expected error connecting without a token")
	}
	if got := c.State(); got != StateError {
		t.Fatalf("got state %s after failed connect, want %s", got, StateError)
	}
}

func TestConnectWithNewIdentityInvalidatesPendingReconnect(t *testing.T) {
	opts := Options{
		Path:               "/socket.io",
		ConnectTimeout:     100 * time.Millisecond,
		ReconnectAttempts:  3,
		ReconnectBaseDelay: 50 * time.Millisecond,
		ReconnectMaxDelay:  50 * time.Millisecond,
	}
	c := NewClient("http://localhost:4000", opts)

	c.setState(StateConnected)
	c.handleDrop("transport close")
	if got := c.State(); got != StateReconnecting {
		t.Fatalf("got state %s after drop, want %s", got, StateReconnecting)
	}
	c.mu.Lock()
	seqBefore := c.reconnectSeq
	c.mu.Unlock()

	// Connecting as a different identity replaces the transport; the loop
	// spawned for the old one must go stale instead of tearing the
	// replacement down. The empty token makes the attempt fail before any
	// network dial, which is all this test needs.
	_ = c.Connect("other", "")

	c.mu.Lock()
	seqAfter := c.reconnectSeq
	c.mu.Unlock()
	if seqAfter == seqBefore {
		t.Fatal("reconnect loop for the old identity was not invalidated")
	}

	// Once its delay elapses the stale loop must exit without dragging the
	// state away from the replacement attempt's outcome.
	time.Sleep(6 * opts.ReconnectBaseDelay)
	if got := c.State(); got != StateError {
		t.Fatalf("got state %s, want %s from the failed replacement attempt", got, StateError)
	}
}

func TestRoomTrackingSurvivesOffline(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())

	// Offline emits fail silently; the joined sets must still track intent so
	// the rooms are re-joined once a reconnect succeeds.
	c.JoinRoom("private_abc")
	c.JoinGroup("g1")
	c.JoinGroup("g2")
	c.JoinGroup("g2") // idempotent

	rooms := c.JoinedRooms()
	if len(rooms) != 1 || rooms[0] != "private_abc" {
		t.Fatalf("got rooms %v, want [private_abc]", rooms)
	}
	groups := c.JoinedGroups()
	sort.Strings(groups)
	if len(groups) != 2 || groups[0] != "g1" || groups[1] != "g2" {
		t.Fatalf("got groups %v, want [g1 g2]", groups)
	}

	c.LeaveGroup("g1")
	c.LeaveGroup("g1") // idempotent
	c.LeaveRoom("private_abc")
	if len(c.JoinedRooms()) != 0 {
		t.Fatalf("got rooms %v after leave, want none", c.JoinedRooms())
	}
	if groups := c.JoinedGroups(); len(groups) != 1 || groups[0] != "g2" {
		t.Fatalf("got groups %v after leave, want [g2]", groups)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())
	c.Disconnect()
	c.Disconnect()
	if got := c.State(); got != StateDisconnected {
		t.Fatalf("got state %s, want %s", got, StateDisconnected)
	}
}

func TestEmitWhileOfflineReturnsError(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())
	if err := c.Emit("send_message", map[string]any{}); err == nil {
		t.Fatal("expected error emitting while offline")
	}
	if _, err := c.EmitWithAck("send_message", map[string]any{}, time.Second); err == nil {
		t.Fatal("expected error acking while offline")
	}
}

func TestPresenceTracking(t *testing.T) {
	c := NewClient("http://localhost:4000", DefaultOptions())

	c.handlePresence([]any{"u2"}, true)
	c.handlePresence([]any{map[string]any{"userId": "u3"}}, true)
	if !c.IsOnline("u2") || !c.IsOnline("u3") {
		t.Fatalf("got online set %v, want u2 and u3", c.OnlineUsers())
	}

	c.handlePresence([]any{"u2"}, false)
	if c.IsOnline("u2") {
		t.Fatal("u2 still online after offline signal")
	}
	if !c.IsOnline("u3") {
		t.Fatal("u3 dropped by unrelated offline signal")
	}

	// Malformed payloads are ignored.
	c.handlePresence(nil, true)
	c.handlePresence([]any{42}, true)
	if len(c.OnlineUsers()) != 1 {
		t.Fatalf("got online set %v, want exactly [u3]", c.OnlineUsers())
	}
}
