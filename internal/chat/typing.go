package chat

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultIdleAfter is how long after the last keystroke the local typing
	// flag clears and a stop signal is emitted.
	DefaultIdleAfter = 2 * time.Second
	// DefaultExpireAfter is how long a remote typing entry survives without a
	// renewed start signal. Covers crashed or silent peers that never send an
	// explicit stop.
	DefaultExpireAfter = 3 * time.Second
)

// SignalFunc emits a typing start or stop signal for this conversation.
type SignalFunc func()

// TypingChangeFunc observes the set of remote typists after every change.
type TypingChangeFunc func(names []string)

type remoteTypist struct {
	name   string
	expire *time.Timer
}

// TypingTracker debounces local typing signals and aggregates remote ones for
// a single conversation.
type TypingTracker struct {
	emitStart SignalFunc
	emitStop  SignalFunc
	onChange  TypingChangeFunc

	idleAfter   time.Duration
	expireAfter time.Duration

	mu          sync.Mutex
	localTyping bool
	idleTimer   *time.Timer
	remote      map[string]*remoteTypist
	closed      bool
}

// TypingOption customizes a TypingTracker.
type TypingOption func(*TypingTracker)

// WithTypingWindows overrides the idle and expiry windows (tests use short
// ones).
func WithTypingWindows(idleAfter, expireAfter time.Duration) TypingOption {
	return func(t *TypingTracker) {
		t.idleAfter = idleAfter
		t.expireAfter = expireAfter
	}
}

// WithTypingChange sets the remote-typist observer.
func WithTypingChange(onChange TypingChangeFunc) TypingOption {
	return func(t *TypingTracker) { t.onChange = onChange }
}

// NewTypingTracker creates a tracker wired to the given signal emitters.
func NewTypingTracker(emitStart, emitStop SignalFunc, opts ...TypingOption) *TypingTracker {
	t := &TypingTracker{
		emitStart:   emitStart,
		emitStop:    emitStop,
		idleAfter:   DefaultIdleAfter,
		expireAfter: DefaultExpireAfter,
		remote:      make(map[string]*remoteTypist),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NoteInput must be called with the composer content on every keystroke.
// The first keystroke that leaves non-empty content emits one start signal;
// each subsequent keystroke re-arms the idle timer.
func (t *TypingTracker) NoteInput(content string) {
	if content == "" {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	shouldStart := !t.localTyping
	t.localTyping = true
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.idleTimer = time.AfterFunc(t.idleAfter, t.idleTimeout)
	t.mu.Unlock()

	if shouldStart && t.emitStart != nil {
		t.emitStart()
	}
}

// StopLocal emits a stop signal if the local flag is set. Called on send and
// when the conversation is deselected.
func (t *TypingTracker) StopLocal() {
	t.mu.Lock()
	wasTyping := t.localTyping
	t.localTyping = false
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	t.mu.Unlock()

	if wasTyping && t.emitStop != nil {
		t.emitStop()
	}
}

func (t *TypingTracker) idleTimeout() {
	t.StopLocal()
}

// HandleRemoteStart upserts a remote typist and re-arms their expiry. The
// entry is removed after the expiry window even without an explicit stop.
func (t *TypingTracker) HandleRemoteStart(userID, displayName string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	existing, ok := t.remote[userID]
	if ok {
		existing.name = displayName
		existing.expire.Stop()
		existing.expire = time.AfterFunc(t.expireAfter, func() { t.expireRemote(userID) })
	} else {
		t.remote[userID] = &remoteTypist{
			name:   displayName,
			expire: time.AfterFunc(t.expireAfter, func() { t.expireRemote(userID) }),
		}
	}
	t.mu.Unlock()
	t.emitChangeEvent()
}

// HandleRemoteStop removes a remote typist immediately and cancels their
// pending expiry.
func (t *TypingTracker) HandleRemoteStop(userID string) {
	t.mu.Lock()
	entry, ok := t.remote[userID]
	if ok {
		entry.expire.Stop()
		delete(t.remote, userID)
	}
	t.mu.Unlock()
	if ok {
		t.emitChangeEvent()
	}
}

func (t *TypingTracker) expireRemote(userID string) {
	t.mu.Lock()
	_, ok := t.remote[userID]
	if ok {
		delete(t.remote, userID)
	}
	t.mu.Unlock()
	if ok {
		t.emitChangeEvent()
	}
}

// Typists returns the display names of remote typists, sorted for stable
// rendering.
func (t *TypingTracker) Typists() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.remote))
	for _, entry := range t.remote {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// Describe renders the indicator line: "" for none, "<name> is typing…" for
// one, "<N> people are typing…" for several.
func (t *TypingTracker) Describe() string {
	names := t.Typists()
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing…", names[0])
	default:
		return fmt.Sprintf("%d people are typing…", len(names))
	}
}

// Close stops all timers. The tracker drops further input afterwards.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	t.closed = true
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	for id, entry := range t.remote {
		entry.expire.Stop()
		delete(t.remote, id)
	}
	t.localTyping = false
	t.mu.Unlock()
}

func (t *TypingTracker) emitChangeEvent() {
	if t.onChange == nil {
		return
	}
	t.onChange(t.Typists())
}
