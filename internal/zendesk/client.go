// Package zendesk wraps the two Zendesk HTTP surfaces this service talks
// to: the Sunshine Conversations API (messages, activity signals, control
// handoff) and the Support API (ticket creation fallback).
package zendesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultPageSize = 50

// ClientOption configures the conversations client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBotIdentity sets the display name and avatar the bot sends messages as.
func WithBotIdentity(displayName, avatarURL string) ClientOption {
	return func(c *Client) {
		if displayName != "" {
			c.botName = displayName
		}
		c.botAvatarURL = avatarURL
	}
}

// WithSwitchboardIntegration sets the switchboard integration that receives
// control on handoff.
func WithSwitchboardIntegration(id string) ClientOption {
	return func(c *Client) {
		c.switchboardIntegration = id
	}
}

// Client is an immutable Sunshine Conversations API client. Construct one
// per process and inject it; credentials live here, not in globals.
type Client struct {
	baseURL                string
	authHeader             string
	botName                string
	botAvatarURL           string
	switchboardIntegration string
	httpClient             *http.Client
}

// NewClient creates a conversations client authenticated with the API key
// id/secret pair.
func NewClient(baseURL, keyID, keySecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(keyID+":"+keySecret)),
		botName:    "AI Agent",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) conversationURL(appID, conversationID, suffix string) string {
	return fmt.Sprintf("%s/apps/%s/conversations/%s/%s", c.baseURL, appID, conversationID, suffix)
}
