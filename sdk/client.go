// Package sdk composes the realtime and REST layers into the client surface
// consumed by UI shells: connection lifecycle, conversation selection,
// optimistic messaging, typing indicators, rosters, presence, and sync
// fan-out.
package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/hoodly/hoodly-go/internal/api"
	"github.com/hoodly/hoodly-go/internal/chat"
	"github.com/hoodly/hoodly-go/internal/config"
	"github.com/hoodly/hoodly-go/internal/roster"
	"github.com/hoodly/hoodly-go/internal/socket"
	"github.com/hoodly/hoodly-go/internal/storage"
	"github.com/hoodly/hoodly-go/internal/syncbus"
	"github.com/hoodly/hoodly-go/pkg/logger"
	"github.com/hoodly/hoodly-go/pkg/types"
)

const defaultDispatcherQueueSize = 256

// Listener receives SDK events. Methods are invoked from a dedicated
// callbacks goroutine and must not call back into the SDK synchronously.
type Listener interface {
	// OnConnectionState reports every connection-state transition.
	OnConnectionState(state string)
	// OnConversationChanged delivers the full message list of the open
	// conversation after every mutation.
	OnConversationChanged(conversationID string, messages []types.Message)
	// OnTyping delivers the rendered typing-indicator line ("" hides it).
	OnTyping(conversationID string, indicator string)
	// OnUnread reports a changed unread notification count.
	OnUnread(count int)
	// OnError delivers non-fatal errors for display/logging.
	OnError(message string)
}

type conversationKind int

const (
	kindNone conversationKind = iota
	kindGroup
	kindPrivate
)

// Client is the top-level SDK client. One Client serves one logged-in
// identity.
type Client struct {
	cfg     *config.Config
	api     *api.Client
	sock    *socket.Client
	bus     *syncbus.Bus
	rosters *roster.Cache
	unread  *unreadPoller

	dispatch  *dispatcher
	callbacks *dispatcher

	mu       sync.Mutex
	creds    storage.Credentials
	listener Listener

	activeKind conversationKind
	activeID   string
	activeConv *chat.Conversation
	activeTyp  *chat.TypingTracker
}

// NewClient creates an SDK client from configuration.
func NewClient(cfg *config.Config) *Client {
	apiClient := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)

	sockOpts := socket.Options{
		Path:               cfg.SocketPath,
		ConnectTimeout:     cfg.ConnectTimeout,
		ReconnectAttempts:  cfg.ReconnectAttempts,
		ReconnectBaseDelay: cfg.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.ReconnectMaxDelay,
	}

	c := &Client{
		cfg:       cfg,
		api:       apiClient,
		sock:      socket.NewClient(cfg.ServerURL, sockOpts),
		bus:       syncbus.New(),
		dispatch:  newDispatcher(defaultDispatcherQueueSize),
		callbacks: newDispatcher(defaultDispatcherQueueSize),
	}
	c.rosters = roster.New(apiClient.ListGroupMembers)
	c.unread = newUnreadPoller(apiClient.UnreadCount, func(count int) {
		c.emitToListener(func(l Listener) { l.OnUnread(count) })
	})

	c.sock.OnStateChange(func(state socket.State) {
		c.emitToListener(func(l Listener) { l.OnConnectionState(string(state)) })
	})
	c.wireSocketEvents()
	return c
}

// SetListener registers the listener for SDK events.
func (c *Client) SetListener(listener Listener) {
	_, _ = c.dispatch.call(func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listener = listener
		return nil, nil
	})
}

// SetCredentials configures the identity and bearer token. The user id is
// decoded from the token when not given explicitly.
func (c *Client) SetCredentials(userID, token string) error {
	_, err := c.dispatch.call(func() (any, error) {
		return nil, c.setCredentials(userID, token)
	})
	return err
}

func (c *Client) setCredentials(userID, token string) error {
	if userID == "" {
		decoded, err := identityFromToken(token)
		if err != nil {
			return err
		}
		userID = decoded
	}
	c.mu.Lock()
	c.creds = storage.Credentials{UserID: userID, Token: token}
	c.mu.Unlock()
	c.api.SetToken(token)
	return nil
}

// LoadCredentials restores persisted credentials from the hoodly home.
func (c *Client) LoadCredentials() error {
	creds, err := storage.LoadCredentials(c.cfg.TokenFile)
	if err != nil {
		return err
	}
	return c.SetCredentials(creds.UserID, creds.Token)
}

// SaveCredentials persists the current credentials.
func (c *Client) SaveCredentials() error {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()
	return storage.SaveCredentials(c.cfg.TokenFile, creds)
}

// UserID returns the current identity ("" before SetCredentials).
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.UserID
}

// Connect establishes the realtime connection for the configured identity
// and starts the unread poller. Reconnecting with an unchanged identity is a
// no-op; a changed identity replaces the transport.
func (c *Client) Connect() error {
	_, err := c.dispatch.call(func() (any, error) {
		return nil, c.connect()
	})
	return err
}

func (c *Client) connect() error {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	if creds.Token == "" {
		return fmt.Errorf("credentials not set")
	}
	if tokenExpiresWithin(creds.Token, 0) {
		return fmt.Errorf("credential token expired")
	}

	if err := c.sock.Connect(creds.UserID, creds.Token); err != nil {
		c.emitError(fmt.Sprintf("connect failed: %v", err))
		return err
	}
	c.unread.Start()
	return nil
}

// Disconnect tears down the transport and all conversation state. Safe to
// call multiple times.
func (c *Client) Disconnect() {
	_, _ = c.dispatch.call(func() (any, error) {
		c.closeConversationLocked()
		c.unread.Stop()
		c.sock.Disconnect()
		return nil, nil
	})
}

// ConnectionState returns the current connection state string.
func (c *Client) ConnectionState() string {
	return string(c.sock.State())
}

// OnlineUsers returns the ids of users currently reported online.
func (c *Client) OnlineUsers() []string {
	return c.sock.OnlineUsers()
}

// ListGroups proxies the group list REST call.
func (c *Client) ListGroups(ctx context.Context) ([]types.ChatGroup, error) {
	return c.api.ListGroups(ctx)
}

// ListPrivateChats proxies the private chat list REST call.
func (c *Client) ListPrivateChats(ctx context.Context) ([]types.PrivateChat, error) {
	return c.api.ListPrivateChats(ctx)
}

// GroupRoster returns the (possibly cached) roster of a group. A roster
// tagged Unverified is a display-only placeholder.
func (c *Client) GroupRoster(ctx context.Context, groupID string) (types.Roster, error) {
	return c.rosters.Members(ctx, groupID)
}

// RefreshRoster drops the cached roster so the next read re-fetches.
func (c *Client) RefreshRoster(groupID string) {
	c.rosters.Invalidate(groupID)
}

// SetSyncEnabled pauses or resumes sync-event fan-out. Events arriving while
// paused are dropped, not buffered.
func (c *Client) SetSyncEnabled(enabled bool) {
	c.bus.SetEnabled(enabled)
}

// AddSyncListener registers a callback for one sync-event kind. The returned
// function unsubscribes exactly that registration.
func (c *Client) AddSyncListener(kind syncbus.Kind, fn syncbus.Listener) syncbus.Unsubscribe {
	return c.bus.AddListener(kind, fn)
}

// OpenGroup selects a group conversation: leaves the previous room, joins the
// group room, hydrates history, and starts routing its realtime events.
func (c *Client) OpenGroup(ctx context.Context, groupID string) error {
	_, err := c.dispatch.call(func() (any, error) {
		return nil, c.openConversation(ctx, groupID, kindGroup)
	})
	return err
}

// OpenPrivateChat selects a private conversation.
func (c *Client) OpenPrivateChat(ctx context.Context, chatID string) error {
	_, err := c.dispatch.call(func() (any, error) {
		return nil, c.openConversation(ctx, chatID, kindPrivate)
	})
	return err
}

// CloseConversation deselects the open conversation and leaves its room.
func (c *Client) CloseConversation() {
	_, _ = c.dispatch.call(func() (any, error) {
		c.closeConversationLocked()
		return nil, nil
	})
}

func (c *Client) openConversation(ctx context.Context, id string, kind conversationKind) error {
	// The previous room is left first; join does not wait for it (rooms are
	// independent on the transport).
	c.closeConversationLocked()

	var history []types.Message
	var persist chat.PersistFunc
	var notify chat.NotifyFunc
	var err error

	c.mu.Lock()
	selfID := c.creds.UserID
	c.mu.Unlock()

	switch kind {
	case kindGroup:
		c.sock.JoinGroup(id)
		history, err = c.api.ListGroupMessages(ctx, id)
		persist = func(ctx context.Context, content string) (types.Message, error) {
			return c.api.CreateGroupMessage(ctx, id, content, "text")
		}
		notify = func(msg types.Message) {
			if emitErr := c.sock.AnnounceGroupMessage(id, msg.Content, msg.MessageType); emitErr != nil {
				logger.Debugf("sdk: message announce skipped: %v", emitErr)
			}
		}
	case kindPrivate:
		c.sock.JoinRoom(id)
		history, err = c.api.ListPrivateMessages(ctx, id)
		persist = func(ctx context.Context, content string) (types.Message, error) {
			return c.api.CreatePrivateMessage(ctx, id, content)
		}
		notify = func(msg types.Message) {
			if emitErr := c.sock.AnnouncePrivateMessage(id, msg.Content); emitErr != nil {
				logger.Debugf("sdk: message announce skipped: %v", emitErr)
			}
		}
	default:
		return fmt.Errorf("unknown conversation kind")
	}
	if err != nil {
		return fmt.Errorf("load history for %s: %w", id, err)
	}

	conv := chat.NewConversation(id, selfID, "", persist,
		chat.WithNotify(notify),
		chat.WithOnChange(func(messages []types.Message) {
			c.emitToListener(func(l Listener) { l.OnConversationChanged(id, messages) })
		}),
	)
	conv.Hydrate(history)

	typ := c.newTypingTracker(id, kind)

	c.mu.Lock()
	c.activeKind = kind
	c.activeID = id
	c.activeConv = conv
	c.activeTyp = typ
	c.mu.Unlock()
	return nil
}

func (c *Client) newTypingTracker(id string, kind conversationKind) *chat.TypingTracker {
	var start, stop chat.SignalFunc
	if kind == kindGroup {
		start = func() { _ = c.sock.TypingStart(id) }
		stop = func() { _ = c.sock.TypingStop(id) }
	} else {
		start = func() { _ = c.sock.PrivateTypingStart(id) }
		stop = func() { _ = c.sock.PrivateTypingStop(id) }
	}
	return chat.NewTypingTracker(start, stop,
		chat.WithTypingChange(func([]string) {
			c.mu.Lock()
			typ := c.activeTyp
			c.mu.Unlock()
			if typ == nil {
				return
			}
			indicator := typ.Describe()
			c.emitToListener(func(l Listener) { l.OnTyping(id, indicator) })
		}),
	)
}

func (c *Client) closeConversationLocked() {
	c.mu.Lock()
	kind := c.activeKind
	id := c.activeID
	typ := c.activeTyp
	c.activeKind = kindNone
	c.activeID = ""
	c.activeConv = nil
	c.activeTyp = nil
	c.mu.Unlock()

	if typ != nil {
		typ.StopLocal()
		typ.Close()
	}
	switch kind {
	case kindGroup:
		c.sock.LeaveGroup(id)
	case kindPrivate:
		c.sock.LeaveRoom(id)
	}
}

// SendMessage sends a message in the open conversation. The optimistic entry
// is inserted before this call returns; the returned temp id identifies it
// until reconciliation. Empty-after-trim content is a silent no-op.
func (c *Client) SendMessage(ctx context.Context, content string) (string, error) {
	value, err := c.dispatch.call(func() (any, error) {
		c.mu.Lock()
		conv := c.activeConv
		typ := c.activeTyp
		c.mu.Unlock()
		if conv == nil {
			return "", fmt.Errorf("no open conversation")
		}
		if typ != nil {
			typ.StopLocal()
		}
		return conv.Send(ctx, content), nil
	})
	if err != nil {
		return "", err
	}
	tempID, _ := value.(string)
	return tempID, nil
}

// RetryMessage resubmits a failed message with its original content.
func (c *Client) RetryMessage(ctx context.Context, id string) error {
	_, err := c.dispatch.call(func() (any, error) {
		c.mu.Lock()
		conv := c.activeConv
		c.mu.Unlock()
		if conv == nil {
			return nil, fmt.Errorf("no open conversation")
		}
		if !conv.Retry(ctx, id) {
			return nil, fmt.Errorf("message %s is not retryable", id)
		}
		return nil, nil
	})
	return err
}

// FailedMessages lists retryable message ids in the open conversation.
func (c *Client) FailedMessages() []string {
	c.mu.Lock()
	conv := c.activeConv
	c.mu.Unlock()
	if conv == nil {
		return nil
	}
	return conv.FailedIDs()
}

// Messages returns a snapshot of the open conversation's message list.
func (c *Client) Messages() []types.Message {
	c.mu.Lock()
	conv := c.activeConv
	c.mu.Unlock()
	if conv == nil {
		return nil
	}
	return conv.Messages()
}

// ComposerInput must be called with the composer content on every keystroke;
// it drives the debounced typing signals.
func (c *Client) ComposerInput(content string) {
	c.mu.Lock()
	typ := c.activeTyp
	c.mu.Unlock()
	if typ != nil {
		typ.NoteInput(content)
	}
}

// TypingIndicator returns the rendered typing line for the open conversation.
func (c *Client) TypingIndicator() string {
	c.mu.Lock()
	typ := c.activeTyp
	c.mu.Unlock()
	if typ == nil {
		return ""
	}
	return typ.Describe()
}

// MarkRead reports a read transition for a message in the open conversation.
func (c *Client) MarkRead(messageID string) {
	_, _ = c.dispatch.call(func() (any, error) {
		c.mu.Lock()
		conv := c.activeConv
		c.mu.Unlock()
		if conv != nil {
			conv.ApplyStatus(messageID, types.StatusRead)
		}
		if err := c.sock.ReportMessageStatus(messageID, string(types.StatusRead)); err != nil {
			logger.Debugf("sdk: read receipt skipped: %v", err)
		}
		return nil, nil
	})
}

func (c *Client) emitToListener(fn func(Listener)) {
	c.mu.Lock()
	listener := c.listener
	c.mu.Unlock()
	if listener == nil {
		return
	}
	_ = c.callbacks.do(func() { fn(listener) })
}

func (c *Client) emitError(message string) {
	logger.Errorf("sdk: %s", message)
	c.emitToListener(func(l Listener) { l.OnError(message) })
}
