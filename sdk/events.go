package sdk

import (
	"encoding/json"
	"time"

	"github.com/hoodly/hoodly-go/internal/syncbus"
	"github.com/hoodly/hoodly-go/internal/wire"
	"github.com/hoodly/hoodly-go/pkg/types"
)

// wireSocketEvents binds every inbound realtime event to its route. Handlers
// re-queue onto the dispatch loop so all state changes stay serialized.
func (c *Client) wireSocketEvents() {
	// Room-scoped chat events for the open conversation.
	c.sock.On(wire.EventNewMessage, c.queued(func(data map[string]any) {
		c.routeInboundMessage(data, kindGroup)
	}))
	c.sock.On(wire.EventNewPrivateMessage, c.queued(func(data map[string]any) {
		c.routeInboundMessage(data, kindPrivate)
	}))
	c.sock.On(wire.EventMessageStatusUpdated, c.queued(c.routeStatusUpdate))

	c.sock.On(wire.EventUserTyping, c.queued(func(data map[string]any) {
		c.routeTyping(data, kindGroup, true)
	}))
	c.sock.On(wire.EventUserStoppedTyping, c.queued(func(data map[string]any) {
		c.routeTyping(data, kindGroup, false)
	}))
	c.sock.On(wire.EventPrivateUserTyping, c.queued(func(data map[string]any) {
		c.routeTyping(data, kindPrivate, true)
	}))
	c.sock.On(wire.EventPrivateUserStoppedTyping, c.queued(func(data map[string]any) {
		c.routeTyping(data, kindPrivate, false)
	}))

	c.sock.On(wire.EventMemberListUpdated, c.queued(c.routeRosterChange))

	// Cross-entity sync broadcasts fan out through the registry so any number
	// of open views stay consistent without polling. Listener callbacks run
	// on the callbacks goroutine, never on the dispatch loop, so a listener
	// may call back into the client.
	syncRoutes := map[string]syncbus.Kind{
		wire.EventNewMessageSync:            syncbus.KindMessage,
		wire.EventMessageUpdatedSync:        syncbus.KindMessage,
		wire.EventNewPrivateMessageSync:     syncbus.KindPrivateChat,
		wire.EventPrivateMessageUpdatedSync: syncbus.KindPrivateChat,
		wire.EventReportSync:                syncbus.KindReport,
		wire.EventNoticeSync:                syncbus.KindNotice,
		wire.EventChatGroupSync:             syncbus.KindChatGroup,
		wire.EventPrivateChatSync:           syncbus.KindPrivateChat,
	}
	for event, kind := range syncRoutes {
		kind := kind
		c.sock.On(event, func(data map[string]any) {
			c.emitSync(syncbus.Event{Kind: kind, Payload: data})
		})
	}

	// Roster syncs additionally invalidate the cache before fan-out, so a
	// getMembers call issued by a listener re-fetches.
	c.sock.On(wire.EventChatGroupMembersSync, c.queued(func(data map[string]any) {
		c.routeRosterChange(data)
	}))
}

// queued adapts a routing function so it runs on the dispatch loop.
func (c *Client) queued(fn func(map[string]any)) func(map[string]any) {
	return func(data map[string]any) {
		_ = c.dispatch.do(func() { fn(data) })
	}
}

// emitSync delivers a sync event to registered listeners on the callbacks
// goroutine, keeping the dispatch loop free for the calls a listener may make.
func (c *Client) emitSync(event syncbus.Event) {
	_ = c.callbacks.do(func() { c.bus.Dispatch(event) })
}

// inboundMessage tolerates the shapes the server uses for message pushes:
// either the message object itself or an envelope with a nested "message".
type inboundMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	GroupID        string    `json:"groupId"`
	ChatID         string    `json:"chatId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Content        string    `json:"content"`
	MessageType    string    `json:"messageType"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m inboundMessage) conversation() string {
	switch {
	case m.ConversationID != "":
		return m.ConversationID
	case m.GroupID != "":
		return m.GroupID
	default:
		return m.ChatID
	}
}

// decodePayload converts a raw event payload into a typed struct through a
// JSON round trip.
func decodePayload(data map[string]any, out any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// routeInboundMessage appends a message pushed for the currently open
// conversation. Messages for other conversations are ignored here; cross-view
// consistency rides the sync broadcasts instead.
func (c *Client) routeInboundMessage(data map[string]any, kind conversationKind) {
	if data == nil {
		return
	}
	outer := data
	if nested, ok := data["message"].(map[string]any); ok {
		outer = nested
	}
	var msg inboundMessage
	if !decodePayload(outer, &msg) || msg.ID == "" {
		return
	}
	convID := msg.conversation()
	if convID == "" {
		// Envelope shapes keep the room id on the outer object.
		var env inboundMessage
		if decodePayload(data, &env) {
			convID = env.conversation()
		}
	}

	c.mu.Lock()
	conv := c.activeConv
	activeID := c.activeID
	activeKind := c.activeKind
	selfID := c.creds.UserID
	c.mu.Unlock()

	if conv == nil || activeKind != kind || convID != activeID {
		return
	}
	// The sender reconciles through the REST result; its own broadcast echo
	// must not double-insert (the echoed server id may race the REST reply).
	if msg.SenderID == selfID {
		return
	}

	conv.AppendInbound(types.Message{
		ID:             msg.ID,
		ConversationID: convID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		Status:         types.MessageStatus(msg.Status),
		CreatedAt:      msg.CreatedAt,
	})
}

// routeStatusUpdate applies delivered/read transitions by message id. Unknown
// ids are ignored: the message may belong to a conversation that is no longer
// open.
func (c *Client) routeStatusUpdate(data map[string]any) {
	var payload wire.MessageStatusUpdatedPayload
	if !decodePayload(data, &payload) || payload.MessageID == "" {
		return
	}
	c.mu.Lock()
	conv := c.activeConv
	c.mu.Unlock()
	if conv == nil {
		return
	}
	conv.ApplyStatus(payload.MessageID, types.MessageStatus(payload.Status))
}

func (c *Client) routeTyping(data map[string]any, kind conversationKind, start bool) {
	var payload wire.UserTypingPayload
	if !decodePayload(data, &payload) || payload.UserID == "" {
		return
	}
	convID := payload.GroupID
	if convID == "" {
		var private wire.PrivateUserTypingPayload
		if decodePayload(data, &private) {
			convID = private.ChatID
		}
	}

	c.mu.Lock()
	typ := c.activeTyp
	activeID := c.activeID
	activeKind := c.activeKind
	selfID := c.creds.UserID
	c.mu.Unlock()

	if typ == nil || activeKind != kind || convID != activeID || payload.UserID == selfID {
		return
	}
	if start {
		typ.HandleRemoteStart(payload.UserID, payload.UserName)
	} else {
		typ.HandleRemoteStop(payload.UserID)
	}
}

// routeRosterChange invalidates the roster cache for the affected group and
// fans a roster sync event out to listeners.
func (c *Client) routeRosterChange(data map[string]any) {
	var payload wire.MemberListUpdatedPayload
	if decodePayload(data, &payload) && payload.GroupID != "" {
		c.rosters.Invalidate(payload.GroupID)
	}
	c.emitSync(syncbus.Event{Kind: syncbus.KindRoster, Payload: data})
}
