package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// citationMarkerPattern matches inline citation markers the QA model leaves
// in answer text, e.g. "%[(3)](https://example.com/doc)". These are stripped
// before sending; the reconciled sources block carries the links instead.
var citationMarkerPattern = regexp.MustCompile(`%?\[\(\d+\)\]\([^)]+\)`)

type sendMessageRequest struct {
	Author  Author  `json:"author"`
	Content Content `json:"content"`
}

// SendMessage posts a business-authored text message to a conversation
// using the configured bot identity. Citation markers are stripped from the
// text first.
func (c *Client) SendMessage(ctx context.Context, appID, conversationID, text string) error {
	cleaned := citationMarkerPattern.ReplaceAllString(text, "")

	payload := sendMessageRequest{
		Author: Author{
			Type:        AuthorBusiness,
			DisplayName: c.botName,
			AvatarURL:   c.botAvatarURL,
		},
		Content: Content{Type: "text", Text: cleaned},
	}

	status, body, err := c.do(ctx, http.MethodPost, c.conversationURL(appID, conversationID, "messages"), payload)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("send message failed (status %d): %s", status, string(body))
	}
	return nil
}

// PostActivity posts a conversation activity signal (read receipt or typing
// indicator) authored by the business.
func (c *Client) PostActivity(ctx context.Context, appID, conversationID string, activity ActivityType) error {
	payload := map[string]any{
		"author": map[string]any{"type": string(AuthorBusiness)},
		"type":   string(activity),
	}

	status, body, err := c.do(ctx, http.MethodPost, c.conversationURL(appID, conversationID, "activity"), payload)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", activity, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("post %s failed (status %d): %s", activity, status, string(body))
	}
	return nil
}

type listMessagesResponse struct {
	Messages []Message `json:"messages"`
	Meta     struct {
		HasMore bool `json:"hasMore"`
	} `json:"meta"`
}

// ListMessages fetches one page of a conversation transcript.
func (c *Client) ListMessages(ctx context.Context, appID, conversationID, pageAfter string, pageSize int) ([]Message, bool, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	u, err := url.Parse(c.conversationURL(appID, conversationID, "messages"))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build messages URL: %w", err)
	}
	q := u.Query()
	if pageAfter != "" {
		q.Set("page[after]", pageAfter)
	}
	q.Set("page[size]", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()

	status, body, err := c.do(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list messages: %w", err)
	}
	if status != http.StatusOK {
		return nil, false, fmt.Errorf("list messages failed (status %d): %s", status, string(body))
	}

	var parsed listMessagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to parse messages response: %w", err)
	}
	return parsed.Messages, parsed.Meta.HasMore, nil
}

// AllMessages pages through the full transcript of a conversation in
// delivery order. The result is the authoritative history for this run.
func (c *Client) AllMessages(ctx context.Context, appID, conversationID string) ([]Message, error) {
	var all []Message
	pageAfter := ""
	for {
		page, hasMore, err := c.ListMessages(ctx, appID, conversationID, pageAfter, defaultPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if !hasMore || len(page) == 0 {
			return all, nil
		}
		pageAfter = page[len(page)-1].ID
	}
}
