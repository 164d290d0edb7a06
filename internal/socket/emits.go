package socket

import "github.com/hoodly/hoodly-go/internal/wire"

// Outbound chat signals. All of these are notifications for other room
// members; message persistence goes through the REST path.

// AnnounceGroupMessage broadcasts a newly persisted group message.
func (c *Client) AnnounceGroupMessage(groupID, content, messageType string) error {
	return c.Emit(wire.EventSendMessage, wire.SendMessagePayload{
		GroupID:     groupID,
		Content:     content,
		MessageType: messageType,
	})
}

// AnnouncePrivateMessage broadcasts a newly persisted private message.
func (c *Client) AnnouncePrivateMessage(chatID, content string) error {
	return c.Emit(wire.EventSendPrivateMessage, wire.SendPrivateMessagePayload{
		ChatID:  chatID,
		Content: content,
	})
}

// TypingStart signals that this user started typing in a group.
func (c *Client) TypingStart(groupID string) error {
	return c.Emit(wire.EventTypingStart, wire.TypingPayload{GroupID: groupID})
}

// TypingStop signals that this user stopped typing in a group.
func (c *Client) TypingStop(groupID string) error {
	return c.Emit(wire.EventTypingStop, wire.TypingPayload{GroupID: groupID})
}

// PrivateTypingStart signals typing in a private chat.
func (c *Client) PrivateTypingStart(chatID string) error {
	return c.Emit(wire.EventPrivateTypingStart, wire.PrivateTypingPayload{ChatID: chatID})
}

// PrivateTypingStop signals typing stopped in a private chat.
func (c *Client) PrivateTypingStop(chatID string) error {
	return c.Emit(wire.EventPrivateTypingStop, wire.PrivateTypingPayload{ChatID: chatID})
}

// ReportMessageStatus reports a delivered/read transition observed locally.
func (c *Client) ReportMessageStatus(messageID, status string) error {
	return c.Emit(wire.EventUpdateMessageStatus, wire.UpdateMessageStatusPayload{
		MessageID: messageID,
		Status:    status,
	})
}
