package sdk

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_SerializesWork(t *testing.T) {
	t.Parallel()

	d := newDispatcher(16)
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		require.NoError(t, d.do(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	// Queue order is submission order on a single consumer goroutine.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 50)
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestDispatcher_CallReturnsResult(t *testing.T) {
	t.Parallel()

	d := newDispatcher(0)
	value, err := d.call(func() (any, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, value)

	_, err = d.call(func() (any, error) { return nil, fmt.Errorf("boom") })
	require.EqualError(t, err, "boom")
}

func TestDispatcher_CallObservesEarlierDo(t *testing.T) {
	t.Parallel()

	d := newDispatcher(16)
	var done bool
	require.NoError(t, d.do(func() {
		time.Sleep(10 * time.Millisecond)
		done = true
	}))

	// call queues behind the pending do, so it sees its effect.
	value, err := d.call(func() (any, error) { return done, nil })
	require.NoError(t, err)
	require.Equal(t, true, value)
}

func TestDispatcher_NilFuncIsNoop(t *testing.T) {
	t.Parallel()

	d := newDispatcher(1)
	require.NoError(t, d.do(nil))
	value, err := d.call(nil)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestDispatcher_NilDispatcherFails(t *testing.T) {
	t.Parallel()

	var d *dispatcher
	require.Error(t, d.do(func() {}))
	_, err := d.call(func() (any, error) { return nil, nil })
	require.Error(t, err)
}
