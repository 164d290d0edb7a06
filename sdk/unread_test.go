package sdk

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnreadPoller_ObserveReportsChanges(t *testing.T) {
	t.Parallel()

	p := newUnreadPoller(nil, nil)

	require.False(t, p.observe(0)) // matches the initial state
	require.True(t, p.observe(3))
	require.False(t, p.observe(3))
	require.True(t, p.observe(5))
	require.True(t, p.observe(2)) // counts can drop when notifications are read
	require.True(t, p.observe(0))
	require.False(t, p.observe(0))
}

func TestUnreadPoller_PollNotifiesOnlyOnChange(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	count := 4
	var notified []int

	p := newUnreadPoller(
		func(ctx context.Context) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			return count, nil
		},
		func(c int) {
			mu.Lock()
			notified = append(notified, c)
			mu.Unlock()
		},
	)

	p.poll()
	p.poll() // unchanged, no second notification
	mu.Lock()
	count = 6
	mu.Unlock()
	p.poll()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{4, 6}, notified)
}

func TestUnreadPoller_PollErrorKeepsLastSeen(t *testing.T) {
	t.Parallel()

	fail := false
	var notified []int

	p := newUnreadPoller(
		func(ctx context.Context) (int, error) {
			if fail {
				return 0, fmt.Errorf("api down")
			}
			return 2, nil
		},
		func(c int) { notified = append(notified, c) },
	)

	p.poll()
	fail = true
	p.poll() // error: no notification, no reset to zero
	fail = false
	p.poll() // still 2: unchanged

	require.Equal(t, []int{2}, notified)
}

func TestUnreadPoller_StartStopIdempotent(t *testing.T) {
	t.Parallel()

	p := newUnreadPoller(func(ctx context.Context) (int, error) { return 0, nil }, func(int) {})
	p.Start()
	p.Start()
	p.Stop()
	p.Stop()
	p.Start()
	p.Stop()
}
