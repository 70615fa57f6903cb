package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://api.inkeep.com/v1"
	defaultModel   = "inkeep-qa-expert"

	toolAnnotations = "provideAIAnnotations"
	toolLinks       = "provideLinks"
	toolRecords     = "provideRecordsConsidered"
)

// Tool parameter schemas advertised to the model. The model fills these in
// via tool calls; we never execute anything locally.
var (
	annotationsSchema = json.RawMessage(`{"type":"object","properties":{"aiAnnotations":{"type":"object","properties":{"answerConfidence":{"type":"string","enum":["very_confident","somewhat_confident","not_confident","no_sources","other"]}},"required":["answerConfidence"]}},"required":["aiAnnotations"]}`)
	linksSchema       = json.RawMessage(`{"type":"object","properties":{"links":{"type":"array","items":{"type":"object","properties":{"url":{"type":"string"},"title":{"type":"string"}},"required":["url"]}}},"required":["links"]}`)
	recordsSchema     = json.RawMessage(`{"type":"object","properties":{"recordsConsidered":{"type":"array","items":{"type":"object","properties":{"type":{"type":"string"},"url":{"type":"string"},"title":{"type":"string"}}}}},"required":["recordsConsidered"]}`)
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModel sets the QA model to request.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) ClientOption {
	return func(c *Client) {
		if prompt != "" {
			c.systemPrompt = prompt
		}
	}
}

// Client calls an OpenAI-compatible chat completions endpoint in QA mode:
// the model answers from a knowledge base and reports confidence, citation
// links, and the records it considered through tool calls.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// NewClient creates a new QA client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateQA sends the conversation history to the QA model and parses the
// answer text plus the tool-call metadata out of the first choice.
func (c *Client) GenerateQA(ctx context.Context, history []Turn) (*QAResponse, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: string(RoleSystem), Content: c.systemPrompt})
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}

	req := &chatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools: []tool{
			{Type: "function", Function: toolFunction{Name: toolAnnotations, Parameters: annotationsSchema}},
			{Type: "function", Function: toolFunction{Name: toolLinks, Parameters: linksSchema}},
			{Type: "function", Function: toolFunction{Name: toolRecords, Parameters: recordsSchema}},
		},
		ToolChoice: "auto",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	choice := result.Choices[0]
	qa := &QAResponse{Text: choice.Message.Content}

	for _, call := range choice.Message.ToolCalls {
		args := []byte(call.Function.Arguments)
		switch call.Function.Name {
		case toolAnnotations:
			var parsed annotationsArgs
			if err := json.Unmarshal(args, &parsed); err != nil {
				return nil, fmt.Errorf("failed to parse %s arguments: %w", toolAnnotations, err)
			}
			qa.Confidence = parsed.AIAnnotations.AnswerConfidence
		case toolLinks:
			var parsed linksArgs
			if err := json.Unmarshal(args, &parsed); err != nil {
				return nil, fmt.Errorf("failed to parse %s arguments: %w", toolLinks, err)
			}
			qa.Links = parsed.Links
		case toolRecords:
			var parsed recordsArgs
			if err := json.Unmarshal(args, &parsed); err != nil {
				return nil, fmt.Errorf("failed to parse %s arguments: %w", toolRecords, err)
			}
			qa.RecordsConsidered = parsed.RecordsConsidered
		}
	}

	return qa, nil
}
