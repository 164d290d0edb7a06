// Package chat implements the per-conversation message lifecycle: optimistic
// send, server reconciliation, failure retry, inbound appends, and typing
// indicators.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoodly/hoodly-go/pkg/logger"
	"github.com/hoodly/hoodly-go/pkg/types"
)

// TempIDPrefix marks client-generated message ids awaiting server
// confirmation.
const TempIDPrefix = "temp-"

// PersistFunc is the authoritative persistence call (REST create). The
// returned message carries the server id, timestamp, and status.
type PersistFunc func(ctx context.Context, content string) (types.Message, error)

// NotifyFunc announces a confirmed message over the realtime channel so other
// room members see it without polling. Notification-only: the sender
// reconciles through the persistence result, never through its own echo.
type NotifyFunc func(msg types.Message)

// ChangeFunc observes every mutation of the conversation's message list.
type ChangeFunc func(messages []types.Message)

// Clock provides a testable time source.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Conversation owns the ordered message list of one open group or private
// chat and drives each outgoing message through its lifecycle:
//
//	sending -> sent -> delivered -> read
//	sending -> failed -> (retry) -> sending
//
// failed -> sending is the only permitted backward transition.
type Conversation struct {
	id       string
	selfID   string
	selfName string
	persist  PersistFunc
	notify   NotifyFunc
	onChange ChangeFunc
	clock    Clock

	mu       sync.Mutex
	messages []types.Message
}

// ConversationOption customizes a Conversation.
type ConversationOption func(*Conversation)

// WithClock injects a time source for tests.
func WithClock(clock Clock) ConversationOption {
	return func(c *Conversation) { c.clock = clock }
}

// WithNotify sets the realtime notification hook.
func WithNotify(notify NotifyFunc) ConversationOption {
	return func(c *Conversation) { c.notify = notify }
}

// WithOnChange sets the mutation observer.
func WithOnChange(onChange ChangeFunc) ConversationOption {
	return func(c *Conversation) { c.onChange = onChange }
}

// NewConversation creates the lifecycle controller for one conversation.
func NewConversation(id, selfID, selfName string, persist PersistFunc, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		id:       id,
		selfID:   selfID,
		selfName: selfName,
		persist:  persist,
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the conversation id.
func (c *Conversation) ID() string { return c.id }

// Hydrate replaces the message list with server history. Used when the
// conversation is opened.
func (c *Conversation) Hydrate(history []types.Message) {
	c.mu.Lock()
	c.messages = append([]types.Message(nil), history...)
	c.mu.Unlock()
	c.emitChange()
}

// Messages returns a snapshot of the current message list.
func (c *Conversation) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Message(nil), c.messages...)
}

// Send validates, optimistically inserts, and asynchronously persists a new
// outgoing message. The optimistic entry is visible before any network round
// trip. Empty-after-trim input is a silent no-op and returns "".
//
// The returned temp id identifies the in-flight entry until reconciliation.
func (c *Conversation) Send(ctx context.Context, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	tempID := TempIDPrefix + uuid.NewString()
	msg := types.Message{
		ID:             tempID,
		ConversationID: c.id,
		SenderID:       c.selfID,
		SenderName:     c.selfName,
		Content:        content,
		Status:         types.StatusSending,
		CreatedAt:      c.clock.Now(),
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.emitChange()

	go c.deliver(ctx, tempID, content)
	return tempID
}

// Retry resubmits a failed message with its original content. Returns false
// when the id does not refer to a failed entry.
func (c *Conversation) Retry(ctx context.Context, id string) bool {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 || c.messages[idx].Status != types.StatusFailed {
		c.mu.Unlock()
		return false
	}
	content := c.messages[idx].Content
	c.messages[idx].Status = types.StatusSending
	c.mu.Unlock()
	c.emitChange()

	go c.deliver(ctx, id, content)
	return true
}

// deliver runs the persistence call for one in-flight entry and settles it.
func (c *Conversation) deliver(ctx context.Context, id, content string) {
	confirmed, err := c.persist(ctx, content)
	if err != nil {
		logger.Warnf("chat: send failed in conversation %s: %v", c.id, err)
		c.settleFailed(id)
		return
	}
	c.settleConfirmed(id, confirmed)
	if c.notify != nil {
		c.notify(confirmed)
	}
}

// settleConfirmed replaces the temp entry in place with the server-confirmed
// message. List length and position are unchanged.
func (c *Conversation) settleConfirmed(tempID string, confirmed types.Message) {
	if confirmed.Status == "" {
		confirmed.Status = types.StatusSent
	}
	if confirmed.ConversationID == "" {
		confirmed.ConversationID = c.id
	}
	c.mu.Lock()
	idx := c.indexLocked(tempID)
	if idx < 0 {
		// The entry was dropped (conversation reset) while the send was in
		// flight; nothing left to reconcile.
		c.mu.Unlock()
		return
	}
	c.messages[idx] = confirmed
	c.mu.Unlock()
	c.emitChange()
}

// settleFailed marks the in-flight entry failed, retaining its content so a
// retry resubmits it verbatim.
func (c *Conversation) settleFailed(id string) {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.messages[idx].Status = types.StatusFailed
	c.mu.Unlock()
	c.emitChange()
}

// AppendInbound adds a message received over the realtime channel. Messages
// whose id is already present are dropped: the sender's own broadcast echo
// must not duplicate the entry reconciled through the persistence path.
func (c *Conversation) AppendInbound(msg types.Message) {
	c.mu.Lock()
	if c.indexLocked(msg.ID) >= 0 {
		c.mu.Unlock()
		return
	}
	if msg.Status == "" {
		msg.Status = types.StatusSent
	}
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.emitChange()
}

// ApplyStatus applies an asynchronous delivered/read transition by message
// id. Unknown ids and non-forward transitions are ignored: the referent may
// belong to a closed view or have been reconciled under a different id.
func (c *Conversation) ApplyStatus(messageID string, status types.MessageStatus) {
	c.mu.Lock()
	idx := c.indexLocked(messageID)
	if idx < 0 || !c.messages[idx].Status.Advances(status) {
		c.mu.Unlock()
		return
	}
	c.messages[idx].Status = status
	c.mu.Unlock()
	c.emitChange()
}

// FailedIDs lists the ids of messages currently awaiting a retry.
func (c *Conversation) FailedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, msg := range c.messages {
		if msg.Status == types.StatusFailed {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

func (c *Conversation) indexLocked(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversation) emitChange() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Messages())
}
