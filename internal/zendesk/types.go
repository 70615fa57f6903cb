package zendesk

import "time"

// AuthorType distinguishes end users from business-side senders (the bot,
// human agents, integrations).
type AuthorType string

const (
	AuthorUser     AuthorType = "user"
	AuthorBusiness AuthorType = "business"
)

// Author identifies who sent a conversation message.
type Author struct {
	UserID      string     `json:"userId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Type        AuthorType `json:"type"`
}

// Content is the body of a conversation message. Only text content is
// consumed here.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Source describes the integration a message arrived through.
type Source struct {
	IntegrationID string `json:"integrationId,omitempty"`
	Type          string `json:"type,omitempty"`
}

// Message is one entry of a conversation transcript, owned by the
// conversation store and read-only to this service.
type Message struct {
	ID       string    `json:"id"`
	Received time.Time `json:"received"`
	Author   Author    `json:"author"`
	Content  Content   `json:"content"`
	Source   Source    `json:"source"`
}

// ActivityType is a conversation activity signal.
type ActivityType string

const (
	ActivityConversationRead ActivityType = "conversation:read"
	ActivityTypingStart      ActivityType = "typing:start"
	ActivityTypingStop       ActivityType = "typing:stop"
)
