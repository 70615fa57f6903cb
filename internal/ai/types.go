package ai

import "encoding/json"

// Confidence is the categorical certainty level the QA model reports
// alongside its answer.
type Confidence string

const (
	VeryConfident     Confidence = "very_confident"
	SomewhatConfident Confidence = "somewhat_confident"
	NotConfident      Confidence = "not_confident"
)

// Link is a citation the model attaches to its answer. Title may be empty.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Record describes a knowledge-base record the model considered while
// answering.
type Record struct {
	Type  string `json:"type,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// QAResponse is the parsed result of one QA generation call.
type QAResponse struct {
	Text              string
	Confidence        Confidence
	Links             []Link
	RecordsConsidered []Record
}

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation history sent to the model.
type Turn struct {
	Role    Role
	Content string
}

// Wire types for the OpenAI-compatible chat completions endpoint.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatCompletionRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []tool        `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role      string     `json:"role"`
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Tool-call argument payloads.

type annotationsArgs struct {
	AIAnnotations struct {
		AnswerConfidence Confidence `json:"answerConfidence"`
	} `json:"aiAnnotations"`
}

type linksArgs struct {
	Links []Link `json:"links"`
}

type recordsArgs struct {
	RecordsConsidered []Record `json:"recordsConsidered"`
}
