package zendesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SupportClient creates tickets through the Zendesk Support API. It is a
// separate client because the Support API uses its own host and credential
// pair (email/token), not the conversations API key.
type SupportClient struct {
	ticketsURL string
	authHeader string
	httpClient *http.Client
}

// SupportClientOption configures the support client.
type SupportClientOption func(*SupportClient)

// WithSupportHTTPClient sets a custom HTTP client.
func WithSupportHTTPClient(httpClient *http.Client) SupportClientOption {
	return func(c *SupportClient) {
		c.httpClient = httpClient
	}
}

// WithTicketsURL overrides the tickets endpoint URL. Intended for tests.
func WithTicketsURL(url string) SupportClientOption {
	return func(c *SupportClient) {
		c.ticketsURL = url
	}
}

// NewSupportClient creates a Support API client for the given subdomain,
// authenticated with an email/API-token pair.
func NewSupportClient(subdomain, email, apiToken string, opts ...SupportClientOption) *SupportClient {
	c := &SupportClient{
		ticketsURL: fmt.Sprintf("https://%s.zendesk.com/api/v2/tickets.json", subdomain),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(email+"/token:"+apiToken)),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ticketRequest struct {
	Ticket ticket `json:"ticket"`
}

type ticket struct {
	Subject  string        `json:"subject"`
	Comment  ticketComment `json:"comment"`
	Priority string        `json:"priority"`
}

type ticketComment struct {
	Body string `json:"body"`
}

// CreateTicket files a normal-priority support ticket carrying the
// customer's message and the conversation id, so a human can pick the
// thread up when no agent was available for live handoff.
func (c *SupportClient) CreateTicket(ctx context.Context, userMessage, conversationID string) error {
	payload := ticketRequest{
		Ticket: ticket{
			Subject:  fmt.Sprintf("Live Chat Support Needed (Conversation ID: %s)", conversationID),
			Comment:  ticketComment{Body: fmt.Sprintf("Customer message:\n\n%s\n\nConversation ID: %s", userMessage, conversationID)},
			Priority: "normal",
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ticketsURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("create ticket failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
