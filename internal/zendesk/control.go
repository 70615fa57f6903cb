package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type passControlResponse struct {
	Success bool `json:"success"`
}

// PassControl asks the switchboard to hand the conversation to the
// configured human-agent integration. A non-2xx status or a response that
// does not report success is an error; callers treat it as recoverable and
// fall back to ticket creation.
func (c *Client) PassControl(ctx context.Context, appID, conversationID string) error {
	payload := map[string]any{
		"switchboardIntegration": c.switchboardIntegration,
	}

	status, body, err := c.do(ctx, http.MethodPost, c.conversationURL(appID, conversationID, "passControl"), payload)
	if err != nil {
		return fmt.Errorf("failed to pass control: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("pass control failed (status %d): %s", status, string(body))
	}

	var parsed passControlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse pass control response: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("no agent accepted the chat")
	}
	return nil
}
