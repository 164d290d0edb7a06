// Package socket owns the single realtime transport connection per
// authenticated session: connection state, bounded reconnection, room
// membership, presence, and raw event plumbing.
package socket

import (
	"fmt"
	"sync"
	"time"

	sioclient "github.com/zishang520/socket.io/clients/socket/v3"
	siotypes "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/hoodly/hoodly-go/internal/wire"
	"github.com/hoodly/hoodly-go/pkg/logger"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateError        State = "error"
)

// Options bounds the automatic reconnection behavior.
type Options struct {
	// Path is the Socket.IO endpoint path.
	Path string
	// ConnectTimeout is the absolute deadline for one connect attempt.
	ConnectTimeout time.Duration
	// ReconnectAttempts caps automatic reconnection before giving up.
	ReconnectAttempts int
	// ReconnectBaseDelay doubles per attempt up to ReconnectMaxDelay.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

// DefaultOptions returns the production reconnection configuration.
func DefaultOptions() Options {
	return Options{
		Path:               "/socket.io",
		ConnectTimeout:     20 * time.Second,
		ReconnectAttempts:  10,
		ReconnectBaseDelay: time.Second,
		ReconnectMaxDelay:  10 * time.Second,
	}
}

// EventHandler receives the first payload object of an inbound event.
type EventHandler func(data map[string]any)

// Client is the realtime connection manager. One Client serves one logged-in
// identity; connecting as a different identity replaces the transport.
type Client struct {
	serverURL string
	opts      Options

	mu       sync.Mutex
	identity string
	token    string
	state    State
	socket   *sioclient.Socket
	closing  bool

	handlers     map[string]EventHandler
	onState      []func(State)
	joinedRooms  map[string]struct{}
	joinedGroups map[string]struct{}
	onlineUsers  map[string]struct{}
	reconnectSeq int
}

// NewClient creates a connection manager for the given server.
func NewClient(serverURL string, opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts = DefaultOptions()
	}
	return &Client{
		serverURL:    serverURL,
		opts:         opts,
		state:        StateDisconnected,
		handlers:     make(map[string]EventHandler),
		joinedRooms:  make(map[string]struct{}),
		joinedGroups: make(map[string]struct{}),
		onlineUsers:  make(map[string]struct{}),
	}
}

// On registers a handler for an inbound event name. Handlers survive
// reconnects; they are re-bound to every new raw socket.
func (c *Client) On(event string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = handler
}

// OnStateChange registers a connection-state observer.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(next State) {
	c.mu.Lock()
	if c.state == next {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = next
	observers := append([]func(State){}, c.onState...)
	c.mu.Unlock()

	logger.Debugf("socket: state %s -> %s", prev, next)
	for _, fn := range observers {
		fn(next)
	}
}

// Connect establishes the transport for the given identity. Connecting again
// with the same identity while connected is a no-op; a different identity
// tears the existing transport down first.
func (c *Client) Connect(identity, token string) error {
	c.mu.Lock()
	if c.state == StateConnected && c.identity == identity {
		c.token = token
		c.mu.Unlock()
		return nil
	}
	// Any reconnect loop still serving the previous transport goes stale here;
	// its next staleness check exits without touching the replacement.
	c.reconnectSeq++
	oldSocket := c.socket
	c.socket = nil
	c.identity = identity
	c.token = token
	c.closing = false
	c.mu.Unlock()

	// Leave the connected state before the old socket's disconnect event can
	// fire, so handleDrop treats it as a deliberate teardown.
	c.setState(StateConnecting)
	if oldSocket != nil {
		c.teardown(oldSocket)
	}
	if err := c.dial(); err != nil {
		c.setState(StateError)
		return err
	}
	if !c.waitForConnect(c.opts.ConnectTimeout) {
		c.teardownCurrent()
		c.setState(StateDisconnected)
		return fmt.Errorf("connect timeout after %s", c.opts.ConnectTimeout)
	}
	c.setState(StateConnected)
	return nil
}

// dial opens a new raw socket and binds all handlers to it.
func (c *Client) dial() error {
	c.mu.Lock()
	token := c.token
	identity := c.identity
	handlers := make(map[string]EventHandler, len(c.handlers))
	for event, handler := range c.handlers {
		handlers[event] = handler
	}
	c.mu.Unlock()

	if token == "" {
		return fmt.Errorf("credential token not set")
	}

	opts := sioclient.DefaultOptions()
	opts.SetPath(c.opts.Path)
	opts.SetTransports(siotypes.NewSet(sioclient.Polling, sioclient.WebSocket))
	// Reconnection is managed here, not by the library, so the five-state
	// machine and the attempt cap stay observable.
	opts.SetReconnection(false)
	opts.SetAuth(map[string]interface{}{
		"token":  token,
		"userId": identity,
	})

	sock, err := sioclient.Connect(c.serverURL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	sock.On(siotypes.EventName("connect"), func(args ...any) {
		logger.Infof("socket: connected (id %s)", sock.Id())
	})
	sock.On(siotypes.EventName("disconnect"), func(args ...any) {
		reason := ""
		if len(args) > 0 {
			if r, ok := args[0].(string); ok {
				reason = r
			}
		}
		c.handleDrop(reason)
	})
	sock.On(siotypes.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("socket: connect error: %v", args[0])
		}
	})

	sock.On(siotypes.EventName(wire.EventUserOnline), func(args ...any) {
		c.handlePresence(args, true)
	})
	sock.On(siotypes.EventName(wire.EventUserOffline), func(args ...any) {
		c.handlePresence(args, false)
	})

	for event, handler := range handlers {
		event, handler := event, handler
		sock.On(siotypes.EventName(event), func(args ...any) {
			logger.Tracef("socket: event %s", event)
			var data map[string]any
			if len(args) > 0 {
				if m, ok := args[0].(map[string]any); ok {
					data = m
				}
			}
			go handler(data)
		})
	}

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()
	return nil
}

// waitForConnect polls until the raw socket reports connected or the timeout
// elapses.
func (c *Client) waitForConnect(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsConnected() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return c.IsConnected()
}

// IsConnected reports whether the raw transport is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	sock := c.socket
	c.mu.Unlock()
	return sock != nil && sock.Connected()
}

// handleDrop reacts to a transport-level disconnect by entering the bounded
// reconnection loop, unless the client is being closed deliberately.
func (c *Client) handleDrop(reason string) {
	c.mu.Lock()
	if c.closing || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.reconnectSeq++
	seq := c.reconnectSeq
	c.mu.Unlock()

	logger.Warnf("socket: connection dropped (%s), reconnecting", reason)
	c.setState(StateReconnecting)
	go c.reconnectLoop(seq)
}

func (c *Client) reconnectLoop(seq int) {
	delay := c.opts.ReconnectBaseDelay
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		time.Sleep(delay)

		c.mu.Lock()
		stale := c.closing || c.reconnectSeq != seq
		c.mu.Unlock()
		if stale {
			return
		}

		logger.Infof("socket: reconnect attempt %d/%d", attempt, c.opts.ReconnectAttempts)
		c.teardownCurrent()
		if err := c.dial(); err == nil && c.waitForConnect(c.opts.ConnectTimeout) {
			c.setState(StateConnected)
			c.rejoinRooms()
			return
		}

		delay *= 2
		if delay > c.opts.ReconnectMaxDelay {
			delay = c.opts.ReconnectMaxDelay
		}
	}

	logger.Errorf("socket: reconnect attempts exhausted")
	c.teardownCurrent()
	c.setState(StateDisconnected)
}

// NextBackoff returns the delay schedule the reconnect loop follows,
// starting at the base delay and doubling up to the cap.
func (o Options) NextBackoff(delay time.Duration) time.Duration {
	if delay <= 0 {
		return o.ReconnectBaseDelay
	}
	delay *= 2
	if delay > o.ReconnectMaxDelay {
		return o.ReconnectMaxDelay
	}
	return delay
}

// Disconnect tears the transport down deterministically. Safe to call
// multiple times.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	c.reconnectSeq++
	sock := c.socket
	c.socket = nil
	c.mu.Unlock()

	if sock != nil {
		sock.Disconnect()
	}
	c.setState(StateDisconnected)
}

func (c *Client) teardownCurrent() {
	c.mu.Lock()
	sock := c.socket
	c.socket = nil
	c.mu.Unlock()
	c.teardown(sock)
}

func (c *Client) teardown(sock *sioclient.Socket) {
	if sock != nil {
		sock.Disconnect()
	}
}

// Emit sends a fire-and-forget event.
func (c *Client) Emit(event string, payload any) error {
	c.mu.Lock()
	sock := c.socket
	c.mu.Unlock()
	if sock == nil {
		return fmt.Errorf("not connected")
	}
	logger.Tracef("socket: emit %s", event)
	sock.Emit(event, payload)
	return nil
}

// EmitWithAck sends an event and waits for the server acknowledgement.
func (c *Client) EmitWithAck(event string, payload any, timeout time.Duration) (map[string]any, error) {
	c.mu.Lock()
	sock := c.socket
	c.mu.Unlock()
	if sock == nil {
		return nil, fmt.Errorf("not connected")
	}

	resultCh := make(chan map[string]any, 1)
	errCh := make(chan error, 1)
	sock.Emit(event, payload, func(args []any, err error) {
		if err != nil {
			errCh <- err
			return
		}
		if len(args) == 0 {
			resultCh <- nil
			return
		}
		if data, ok := args[0].(map[string]any); ok {
			resultCh <- data
			return
		}
		resultCh <- nil
	})

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("ack timeout")
	}
}
