package webhook

import (
	"time"

	"github.com/relaydesk/relaydesk/internal/zendesk"
)

// Payload is one webhook delivery from the conversations platform. A
// delivery carries one or more events; only events[0] is consulted.
type Payload struct {
	App     App     `json:"app"`
	Webhook Info    `json:"webhook"`
	Events  []Event `json:"events"`
}

// App identifies the conversations app the delivery belongs to.
type App struct {
	ID string `json:"id"`
}

// Info describes the webhook subscription that produced the delivery.
type Info struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Event is one conversation state change.
type Event struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Type      string       `json:"type"`
	Payload   EventPayload `json:"payload"`
}

// EventPayload carries the conversation and, for message events, the
// message itself.
type EventPayload struct {
	Conversation Conversation     `json:"conversation"`
	Message      *zendesk.Message `json:"message,omitempty"`
}

// Conversation identifies the conversation an event belongs to.
type Conversation struct {
	ID      string `json:"id"`
	Type    string `json:"type,omitempty"`
	BrandID string `json:"brandId,omitempty"`
}
