package socket

// Presence tracking. The server broadcasts userOnline/userOffline for every
// roster member; the resulting set feeds presence indicators across views.

func (c *Client) handlePresence(args []any, online bool) {
	if len(args) == 0 {
		return
	}

	userID := ""
	switch payload := args[0].(type) {
	case string:
		userID = payload
	case map[string]any:
		if id, ok := payload["userId"].(string); ok {
			userID = id
		}
	}
	if userID == "" {
		return
	}

	c.mu.Lock()
	if online {
		c.onlineUsers[userID] = struct{}{}
	} else {
		delete(c.onlineUsers, userID)
	}
	c.mu.Unlock()
}

// OnlineUsers returns the ids of users currently reported online.
func (c *Client) OnlineUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]string, 0, len(c.onlineUsers))
	for id := range c.onlineUsers {
		users = append(users, id)
	}
	return users
}

// IsOnline reports whether a user is currently online.
func (c *Client) IsOnline(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.onlineUsers[userID]
	return ok
}
