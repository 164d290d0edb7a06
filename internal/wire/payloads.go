package wire

// Outbound payloads.

// SendMessagePayload announces a newly created group message to other room
// members. The REST create call is the authoritative persistence path; this
// emit is notification-only.
type SendMessagePayload struct {
	GroupID     string `json:"groupId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

// SendPrivateMessagePayload announces a new private message to the peer.
type SendPrivateMessagePayload struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

// TypingPayload carries typing start/stop signals for a group room.
type TypingPayload struct {
	GroupID string `json:"groupId"`
}

// PrivateTypingPayload carries typing start/stop signals for a private chat.
type PrivateTypingPayload struct {
	ChatID string `json:"chatId"`
}

// UpdateMessageStatusPayload reports a delivered/read transition observed by
// this client.
type UpdateMessageStatusPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Inbound payloads.

// MessageStatusUpdatedPayload is pushed when another client reports a status
// transition for a message.
type MessageStatusUpdatedPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// UserTypingPayload is pushed when a user starts or stops typing in a group.
type UserTypingPayload struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// PrivateUserTypingPayload is the private-chat variant of UserTypingPayload.
type PrivateUserTypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// MemberListUpdatedPayload is pushed when a group's roster changes.
type MemberListUpdatedPayload struct {
	GroupID     string `json:"groupId"`
	MemberCount int    `json:"memberCount"`
}
