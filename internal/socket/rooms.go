package socket

import (
	"github.com/hoodly/hoodly-go/internal/wire"
	"github.com/hoodly/hoodly-go/pkg/logger"
)

// Room membership. Join/leave signals are fire-and-forget; the server does
// not acknowledge them. Joining an already-joined room or leaving an
// already-left one is harmless, so callers need no coordination. The joined
// sets exist so every room is re-joined after a reconnect.

// JoinRoom joins a generic realtime room (private chats use these).
func (c *Client) JoinRoom(roomID string) {
	c.mu.Lock()
	c.joinedRooms[roomID] = struct{}{}
	c.mu.Unlock()
	if err := c.Emit(wire.EventJoinRoom, map[string]any{"roomId": roomID}); err != nil {
		logger.Debugf("socket: joinRoom while offline, deferred to reconnect: %v", err)
	}
}

// LeaveRoom leaves a generic realtime room.
func (c *Client) LeaveRoom(roomID string) {
	c.mu.Lock()
	delete(c.joinedRooms, roomID)
	c.mu.Unlock()
	_ = c.Emit(wire.EventLeaveRoom, map[string]any{"roomId": roomID})
}

// JoinGroup joins a chat-group room.
func (c *Client) JoinGroup(groupID string) {
	c.mu.Lock()
	c.joinedGroups[groupID] = struct{}{}
	c.mu.Unlock()
	if err := c.Emit(wire.EventJoinGroup, map[string]any{"groupId": groupID}); err != nil {
		logger.Debugf("socket: join_group while offline, deferred to reconnect: %v", err)
	}
}

// LeaveGroup leaves a chat-group room.
func (c *Client) LeaveGroup(groupID string) {
	c.mu.Lock()
	delete(c.joinedGroups, groupID)
	c.mu.Unlock()
	_ = c.Emit(wire.EventLeaveGroup, map[string]any{"groupId": groupID})
}

// JoinedRooms returns the generic rooms the client considers joined.
func (c *Client) JoinedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.joinedRooms))
	for room := range c.joinedRooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// JoinedGroups returns the group rooms the client considers joined.
func (c *Client) JoinedGroups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	groups := make([]string, 0, len(c.joinedGroups))
	for group := range c.joinedGroups {
		groups = append(groups, group)
	}
	return groups
}

// rejoinRooms re-emits join signals for every tracked room after a reconnect.
func (c *Client) rejoinRooms() {
	for _, room := range c.JoinedRooms() {
		_ = c.Emit(wire.EventJoinRoom, map[string]any{"roomId": room})
	}
	for _, group := range c.JoinedGroups() {
		_ = c.Emit(wire.EventJoinGroup, map[string]any{"groupId": group})
	}
}
