package chat

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testIdleAfter   = 40 * time.Millisecond
	testExpireAfter = 60 * time.Millisecond
)

func newTestTracker(starts, stops *atomic.Int32) *TypingTracker {
	return NewTypingTracker(
		func() { starts.Add(1) },
		func() { stops.Add(1) },
		WithTypingWindows(testIdleAfter, testExpireAfter),
	)
}

func TestTypingTracker_StartEmittedOncePerBurst(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.NoteInput("h")
	tracker.NoteInput("he")
	tracker.NoteInput("hel")
	require.Equal(t, int32(1), starts.Load())
	require.Equal(t, int32(0), stops.Load())
}

func TestTypingTracker_StopEmittedAfterIdleWindow(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.NoteInput("h")
	require.Eventually(t, func() bool { return stops.Load() == 1 }, time.Second, 5*time.Millisecond)

	// A new burst after the idle stop emits a fresh start.
	tracker.NoteInput("hi")
	require.Equal(t, int32(2), starts.Load())
}

func TestTypingTracker_KeystrokesReArmIdleTimer(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	// Keep typing for longer than the idle window with gaps shorter than it:
	// no stop may fire while input keeps coming.
	deadline := time.Now().Add(3 * testIdleAfter)
	for time.Now().Before(deadline) {
		tracker.NoteInput("still typing")
		time.Sleep(testIdleAfter / 4)
	}
	require.Equal(t, int32(0), stops.Load())
	require.Equal(t, int32(1), starts.Load())
}

func TestTypingTracker_StopLocalOnSend(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.NoteInput("h")
	tracker.StopLocal()
	require.Equal(t, int32(1), stops.Load())

	// Idle-only: stop without a preceding start is suppressed.
	tracker.StopLocal()
	require.Equal(t, int32(1), stops.Load())
}

func TestTypingTracker_EmptyInputDoesNotStart(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.NoteInput("")
	require.Equal(t, int32(0), starts.Load())
}

func TestTypingTracker_RemoteEntryExpiresWithoutStop(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.HandleRemoteStart("u2", "Grace")
	require.Equal(t, []string{"Grace"}, tracker.Typists())

	require.Eventually(t, func() bool { return len(tracker.Typists()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestTypingTracker_RenewedStartExtendsExpiry(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.HandleRemoteStart("u2", "Grace")
	deadline := time.Now().Add(3 * testExpireAfter)
	for time.Now().Before(deadline) {
		tracker.HandleRemoteStart("u2", "Grace")
		time.Sleep(testExpireAfter / 4)
	}
	require.Equal(t, []string{"Grace"}, tracker.Typists())
}

func TestTypingTracker_ExplicitStopRemovesImmediately(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	tracker.HandleRemoteStart("u2", "Grace")
	tracker.HandleRemoteStop("u2")
	require.Empty(t, tracker.Typists())

	// Stop for an unknown user is a no-op.
	tracker.HandleRemoteStop("u9")
}

func TestTypingTracker_Describe(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)
	defer tracker.Close()

	require.Equal(t, "", tracker.Describe())

	tracker.HandleRemoteStart("u2", "Grace")
	require.Equal(t, "Grace is typing…", tracker.Describe())

	tracker.HandleRemoteStart("u3", "Alan")
	require.Equal(t, "2 people are typing…", tracker.Describe())
}

func TestTypingTracker_CloseDropsFurtherInput(t *testing.T) {
	t.Parallel()

	var starts, stops atomic.Int32
	tracker := newTestTracker(&starts, &stops)

	tracker.HandleRemoteStart("u2", "Grace")
	tracker.Close()
	require.Empty(t, tracker.Typists())

	tracker.NoteInput("h")
	tracker.HandleRemoteStart("u3", "Alan")
	require.Equal(t, int32(0), starts.Load())
	require.Empty(t, tracker.Typists())
}
