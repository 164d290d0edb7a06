// Package wire defines the realtime event names and payload shapes shared
// with the Hoodly server's Socket.IO channel.
package wire

// Outbound event names (client -> server).
const (
	EventJoinRoom   = "joinRoom"
	EventLeaveRoom  = "leaveRoom"
	EventJoinGroup  = "join_group"
	EventLeaveGroup = "leave_group"

	EventSendMessage        = "send_message"
	EventSendPrivateMessage = "send_private_message"

	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
	EventPrivateTypingStart = "private_typing_start"
	EventPrivateTypingStop  = "private_typing_stop"

	EventUpdateMessageStatus = "update_message_status"
)

// Inbound room-scoped event names (server -> clients in a room).
const (
	EventNewMessage           = "new_message"
	EventMessageStatusUpdated = "message_status_updated"
	EventNewPrivateMessage    = "new_private_message"

	EventUserTyping               = "user_typing"
	EventUserStoppedTyping        = "user_stopped_typing"
	EventPrivateUserTyping        = "private_user_typing"
	EventPrivateUserStoppedTyping = "private_user_stopped_typing"

	EventMemberListUpdated = "member_list_updated"
)

// Inbound cross-entity sync broadcasts (server -> all connected clients).
const (
	EventNewMessageSync            = "new_message_sync"
	EventMessageUpdatedSync        = "message_updated_sync"
	EventNewPrivateMessageSync     = "new_private_message_sync"
	EventPrivateMessageUpdatedSync = "private_message_updated_sync"
	EventReportSync                = "report_sync"
	EventNoticeSync                = "notice_sync"
	EventChatGroupSync             = "chat_group_sync"
	EventChatGroupMembersSync      = "chat_group_members_sync"
	EventPrivateChatSync           = "private_chat_sync"
)

// Presence events.
const (
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
)
