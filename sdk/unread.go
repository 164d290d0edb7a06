package sdk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hoodly/hoodly-go/pkg/logger"
)

const defaultUnreadInterval = 30 * time.Second

// unreadPoller polls the unread notification count at a fixed interval.
//
// The last observed count lives in an atomic outside any closure, so each
// comparison sees the value stored by the previous poll rather than a stale
// capture.
type unreadPoller struct {
	fetch    func(ctx context.Context) (int, error)
	notify   func(count int)
	interval time.Duration

	lastSeen atomic.Int64

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func newUnreadPoller(fetch func(ctx context.Context) (int, error), notify func(count int)) *unreadPoller {
	return &unreadPoller{
		fetch:    fetch,
		notify:   notify,
		interval: defaultUnreadInterval,
	}
}

// Start begins polling. Starting an already-running poller is a no-op.
func (p *unreadPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	go p.run(p.stop)
}

// Stop halts polling. Safe to call multiple times.
func (p *unreadPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

func (p *unreadPoller) run(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *unreadPoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	count, err := p.fetch(ctx)
	if err != nil {
		logger.Debugf("unread: poll failed: %v", err)
		return
	}
	if p.observe(count) {
		p.notify(count)
	}
}

// observe records a polled count and reports whether it changed since the
// previous poll.
func (p *unreadPoller) observe(count int) bool {
	prev := p.lastSeen.Swap(int64(count))
	return prev != int64(count)
}
