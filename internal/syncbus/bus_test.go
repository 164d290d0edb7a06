package syncbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_DispatchReachesOnlyMatchingKind(t *testing.T) {
	t.Parallel()

	bus := New()
	var messages, reports int
	bus.AddListener(KindMessage, func(Event) { messages++ })
	bus.AddListener(KindReport, func(Event) { reports++ })

	bus.Dispatch(Event{Kind: KindMessage})
	bus.Dispatch(Event{Kind: KindMessage})
	bus.Dispatch(Event{Kind: KindNotice})

	require.Equal(t, 2, messages)
	require.Equal(t, 0, reports)
}

func TestBus_ListenersInvokedInRegistrationOrder(t *testing.T) {
	t.Parallel()

	bus := New()
	var order []string
	bus.AddListener(KindMessage, func(Event) { order = append(order, "first") })
	bus.AddListener(KindMessage, func(Event) { order = append(order, "second") })
	bus.AddListener(KindMessage, func(Event) { order = append(order, "third") })

	bus.Dispatch(Event{Kind: KindMessage})
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_PanickingListenerDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	bus := New()
	var before, after int
	bus.AddListener(KindMessage, func(Event) { before++ })
	bus.AddListener(KindMessage, func(Event) { panic("listener bug") })
	bus.AddListener(KindMessage, func(Event) { after++ })

	bus.Dispatch(Event{Kind: KindMessage})
	bus.Dispatch(Event{Kind: KindMessage})

	require.Equal(t, 2, before)
	require.Equal(t, 2, after)
}

func TestBus_UnsubscribeRemovesExactRegistration(t *testing.T) {
	t.Parallel()

	bus := New()
	var counts [3]int
	// Same behavior registered three times; removing the middle one must not
	// touch its siblings.
	sub0 := bus.AddListener(KindMessage, func(Event) { counts[0]++ })
	sub1 := bus.AddListener(KindMessage, func(Event) { counts[1]++ })
	sub2 := bus.AddListener(KindMessage, func(Event) { counts[2]++ })
	_ = sub0
	_ = sub2

	sub1()
	require.Equal(t, 2, bus.ListenerCount(KindMessage))

	bus.Dispatch(Event{Kind: KindMessage})
	require.Equal(t, 1, counts[0])
	require.Equal(t, 0, counts[1])
	require.Equal(t, 1, counts[2])
}

func TestBus_UnsubscribeTwiceIsNoop(t *testing.T) {
	t.Parallel()

	bus := New()
	unsub := bus.AddListener(KindMessage, func(Event) {})
	bus.AddListener(KindMessage, func(Event) {})

	unsub()
	unsub()
	require.Equal(t, 1, bus.ListenerCount(KindMessage))
}

func TestBus_DisabledDropsWithoutReplay(t *testing.T) {
	t.Parallel()

	bus := New()
	var got []Event
	bus.AddListener(KindMessage, func(e Event) { got = append(got, e) })

	bus.SetEnabled(false)
	require.False(t, bus.Enabled())
	bus.Dispatch(Event{Kind: KindMessage, Payload: map[string]any{"id": "dropped-1"}})
	bus.Dispatch(Event{Kind: KindMessage, Payload: map[string]any{"id": "dropped-2"}})
	require.Empty(t, got)

	// Re-enabling resumes delivery but never replays what was dropped.
	bus.SetEnabled(true)
	bus.Dispatch(Event{Kind: KindMessage, Payload: map[string]any{"id": "live"}})
	require.Len(t, got, 1)
	require.Equal(t, "live", got[0].Payload["id"])
}

func TestBus_ListenerMayUnsubscribeItselfDuringDispatch(t *testing.T) {
	t.Parallel()

	bus := New()
	var calls int
	var unsub Unsubscribe
	unsub = bus.AddListener(KindMessage, func(Event) {
		calls++
		unsub()
	})

	bus.Dispatch(Event{Kind: KindMessage})
	bus.Dispatch(Event{Kind: KindMessage})
	require.Equal(t, 1, calls)
	require.Equal(t, 0, bus.ListenerCount(KindMessage))
}
