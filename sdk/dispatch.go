package sdk

import "fmt"

type dispatchResult struct {
	value any
	err   error
}

// dispatcher serializes work onto a single goroutine.
//
// SDK methods can be invoked from any goroutine (UI threads, socket event
// handlers, timers); funneling all state changes through one loop keeps the
// realtime layer race-free without fine-grained locking. A second dispatcher
// carries listener callbacks so user code can never block SDK internals.
type dispatcher struct {
	q chan func()
}

func newDispatcher(queueSize int) *dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &dispatcher{q: make(chan func(), queueSize)}
	go func() {
		for fn := range d.q {
			if fn != nil {
				fn()
			}
		}
	}()
	return d
}

// do enqueues fn without waiting for it to run.
func (d *dispatcher) do(fn func()) error {
	if d == nil {
		return fmt.Errorf("dispatcher not initialized")
	}
	if fn == nil {
		return nil
	}
	d.q <- fn
	return nil
}

// call enqueues fn and waits for its result.
func (d *dispatcher) call(fn func() (any, error)) (any, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher not initialized")
	}
	if fn == nil {
		return nil, nil
	}
	done := make(chan dispatchResult, 1)
	d.q <- func() {
		value, err := fn()
		done <- dispatchResult{value: value, err: err}
	}
	res := <-done
	return res.value, res.err
}
