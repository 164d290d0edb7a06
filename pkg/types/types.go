// Package types holds the domain types shared between the SDK, the REST
// client, and the realtime layer.
package types

import "time"

// MessageStatus is the delivery state of a single chat message.
type MessageStatus string

const (
	// StatusSending marks an optimistic entry that has not been persisted yet.
	StatusSending MessageStatus = "sending"
	// StatusSent marks a message acknowledged by the REST create call.
	StatusSent MessageStatus = "sent"
	// StatusDelivered marks a message delivered to at least one recipient.
	StatusDelivered MessageStatus = "delivered"
	// StatusRead marks a message read by a recipient.
	StatusRead MessageStatus = "read"
	// StatusFailed marks a send whose persistence call failed. The entry stays
	// in the list so the user can retry it.
	StatusFailed MessageStatus = "failed"
)

// statusRank orders the forward-only part of the message lifecycle.
// failed and sending sit outside the ranking; transitions involving them are
// handled explicitly by the lifecycle controller.
var statusRank = map[MessageStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Advances reports whether moving from to next is a forward transition.
func (s MessageStatus) Advances(next MessageStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Message is one chat message in a group or private conversation.
//
// ID carries a client-generated temporary id (prefix "temp-") until the server
// confirms the message; the lifecycle controller swaps it for the server id in
// place.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	SenderName     string        `json:"senderName,omitempty"`
	Content        string        `json:"content"`
	MessageType    string        `json:"messageType,omitempty"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// ChatGroup is a group conversation summary as returned by the REST API.
type ChatGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	UnreadCount int    `json:"unreadCount"`
}

// PrivateChat is a two-party conversation summary.
type PrivateChat struct {
	ID          string `json:"id"`
	PeerID      string `json:"peerId"`
	PeerName    string `json:"peerName"`
	UnreadCount int    `json:"unreadCount"`
}

// Member is one entry of a group roster.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
	Online      bool   `json:"online,omitempty"`
}

// Roster is a group membership list. Unverified marks a locally synthesized
// placeholder roster produced when the authoritative fetch failed; it is for
// cosmetic display only and must never drive routing or authorization.
type Roster struct {
	GroupID    string   `json:"groupId"`
	Members    []Member `json:"members"`
	Unverified bool     `json:"unverified,omitempty"`
}
