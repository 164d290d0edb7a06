// Package api implements the REST client for the Hoodly chat endpoints.
//
// The REST path is authoritative for message persistence; the realtime channel
// only notifies other clients. Every request is bounded by the configured
// timeout and aborts with its context.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hoodly/hoodly-go/pkg/logger"
	"github.com/hoodly/hoodly-go/pkg/types"
)

const defaultRequestTimeout = 10 * time.Second

// Client is a bearer-token HTTP client for the chat API.
type Client struct {
	mu         sync.Mutex
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a REST client for the given server base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    trimBase(baseURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken configures the bearer token used for all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// SetBaseURL updates the server base URL.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = trimBase(baseURL)
}

func trimBase(baseURL string) string {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return baseURL
}

// ListGroups fetches the chat groups visible to the current user.
func (c *Client) ListGroups(ctx context.Context) ([]types.ChatGroup, error) {
	var out struct {
		Groups []types.ChatGroup `json:"groups"`
	}
	if err := c.getJSON(ctx, "/api/chat/groups", &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// ListGroupMessages fetches the message history of a group.
func (c *Client) ListGroupMessages(ctx context.Context, groupID string) ([]types.Message, error) {
	endpoint := fmt.Sprintf("/api/chat/groups/%s/messages", url.PathEscape(groupID))
	var out struct {
		Messages []types.Message `json:"messages"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// CreateGroupMessage persists a new group message and returns the
// server-confirmed entry (server id, server timestamp, status sent).
func (c *Client) CreateGroupMessage(ctx context.Context, groupID, content, messageType string) (types.Message, error) {
	endpoint := fmt.Sprintf("/api/chat/groups/%s/messages", url.PathEscape(groupID))
	body := map[string]string{
		"content":     content,
		"messageType": messageType,
	}
	var out struct {
		Message types.Message `json:"message"`
	}
	if err := c.postJSON(ctx, endpoint, body, &out); err != nil {
		return types.Message{}, err
	}
	return out.Message, nil
}

// ListGroupMembers fetches the membership roster of a group.
func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]types.Member, error) {
	endpoint := fmt.Sprintf("/api/chat/groups/%s/members", url.PathEscape(groupID))
	var out struct {
		Members []types.Member `json:"members"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// ListPrivateChats fetches the private conversations of the current user.
func (c *Client) ListPrivateChats(ctx context.Context) ([]types.PrivateChat, error) {
	var out struct {
		Chats []types.PrivateChat `json:"chats"`
	}
	if err := c.getJSON(ctx, "/api/private-chat", &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// ListPrivateMessages fetches the message history of a private chat.
func (c *Client) ListPrivateMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	endpoint := fmt.Sprintf("/api/private-chat/%s/messages", url.PathEscape(chatID))
	var out struct {
		Messages []types.Message `json:"messages"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// CreatePrivateMessage persists a new private message.
func (c *Client) CreatePrivateMessage(ctx context.Context, chatID, content string) (types.Message, error) {
	endpoint := fmt.Sprintf("/api/private-chat/%s/messages", url.PathEscape(chatID))
	body := map[string]string{"content": content}
	var out struct {
		Message types.Message `json:"message"`
	}
	if err := c.postJSON(ctx, endpoint, body, &out); err != nil {
		return types.Message{}, err
	}
	return out.Message, nil
}

// UnreadCount fetches the total unread notification count for the current
// user. Consumed by the monotonic unread poller.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, "/api/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(resp, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	c.mu.Lock()
	token := c.token
	baseURL := c.baseURL
	client := c.httpClient
	c.mu.Unlock()

	if baseURL == "" {
		return nil, fmt.Errorf("server URL not set")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Tracef("api: %s %s", method, path)
	httpResp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed (%d): %s", httpResp.StatusCode, string(respBody))
	}
	return respBody, nil
}
