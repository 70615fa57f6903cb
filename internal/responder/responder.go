// Package responder coordinates the response lifecycle for one inbound
// conversation message: escalation short-circuit, history fetch, concurrent
// QA generation overlapped with typing choreography, confidence gating, and
// human handoff with ticket fallback.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relaydesk/relaydesk/internal/ai"
	"github.com/relaydesk/relaydesk/internal/links"
	"github.com/relaydesk/relaydesk/internal/zendesk"
)

// Conversations is the outbound surface of the chat platform the responder
// needs: sending messages, activity signals, control transfer, and reading
// the transcript.
type Conversations interface {
	SendMessage(ctx context.Context, appID, conversationID, text string) error
	PostActivity(ctx context.Context, appID, conversationID string, activity zendesk.ActivityType) error
	PassControl(ctx context.Context, appID, conversationID string) error
	AllMessages(ctx context.Context, appID, conversationID string) ([]zendesk.Message, error)
}

// Ticketer files the fallback support ticket when no agent takes a handoff.
type Ticketer interface {
	CreateTicket(ctx context.Context, userMessage, conversationID string) error
}

// Generator produces the QA answer for a conversation history.
type Generator interface {
	GenerateQA(ctx context.Context, history []ai.Turn) (*ai.QAResponse, error)
}

// Timings are the fixed waits that pace outbound typing signals against
// human expectations. They are wall-clock waits, not best-effort skips;
// tests zero them.
type Timings struct {
	// GreetingTyping is how long the typing indicator runs before the
	// new-conversation greeting.
	GreetingTyping time.Duration
	// Settle separates the greeting sequence from the next typing signal so
	// the two indicators do not overlap.
	Settle time.Duration
}

// DefaultTimings match the observed production pacing.
func DefaultTimings() Timings {
	return Timings{
		GreetingTyping: 1000 * time.Millisecond,
		Settle:         300 * time.Millisecond,
	}
}

// User-facing copy. Tests pin these strings.
const (
	msgEscalationAck     = "Connecting you to a support agent. Please hold on."
	msgGreeting          = "Hi there, let me check my knowledge base to see if I can help with that."
	msgLowConfidence     = "I'm not too sure about this question, let me connect you to our support team."
	msgGenerationFailure = "I'm sorry, I encountered an error. Let me connect you to our support team."
	msgAgentConnecting   = "Let me connect you to a live agent. Please hold..."
	msgAgentsUnavailable = "Our support agents are currently unavailable. A support ticket has been created for you."
)

// OutcomeGenerationError is returned when generation (or delivery of its
// result) failed and the conversation was handed off instead.
const OutcomeGenerationError = "Error generating QA response"

// acceptableConfidence gates whether a generated answer is shown directly.
// Anything else, including an absent or unrecognized value, goes to handoff.
var acceptableConfidence = map[ai.Confidence]bool{
	ai.VeryConfident:     true,
	ai.SomewhatConfident: true,
}

// InboundMessage is the normalized user message that triggers a run.
type InboundMessage struct {
	EventID        string
	AppID          string
	ConversationID string
	BrandID        string
	Text           string
}

// Option configures a Responder.
type Option func(*Responder)

// WithTimings overrides the fixed delays.
func WithTimings(t Timings) Option {
	return func(r *Responder) {
		r.timings = t
	}
}

// Responder runs the per-event state machine. It is stateless across runs;
// runs for distinct event ids may execute concurrently.
type Responder struct {
	conversations Conversations
	tickets       Ticketer
	generator     Generator
	timings       Timings
	logger        *slog.Logger
}

// New creates a Responder.
func New(conversations Conversations, tickets Ticketer, generator Generator, logger *slog.Logger, opts ...Option) *Responder {
	r := &Responder{
		conversations: conversations,
		tickets:       tickets,
		generator:     generator,
		timings:       DefaultTimings(),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type generationResult struct {
	resp *ai.QAResponse
	err  error
}

// Respond processes one claimed inbound message to completion and returns a
// human-readable outcome for the webhook response. An error return means an
// unexpected internal failure; recoverable failures (low confidence,
// generation errors, refused handoff) are handled inside.
func (r *Responder) Respond(ctx context.Context, msg InboundMessage) (string, error) {
	if IsEscalationRequest(msg.Text) {
		if err := r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgEscalationAck); err != nil {
			return "", err
		}
		if err := r.handOff(ctx, msg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Escalation phrase detected: %s", msg.Text), nil
	}

	// Read receipt is best-effort; a failure here must not abort the run.
	if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityConversationRead); err != nil {
		r.logger.Warn("failed to post conversation:read",
			slog.String("conversation_id", msg.ConversationID),
			slog.String("error", err.Error()))
	}

	history, err := r.conversations.AllMessages(ctx, msg.AppID, msg.ConversationID)
	if err != nil {
		return "", fmt.Errorf("fetch conversation history: %w", err)
	}

	isNewConversation := len(history) == 1 && history[0].Author.Type == zendesk.AuthorUser

	// Generation starts now and is awaited only after the typing
	// choreography, so model latency overlaps the fixed delays.
	resultCh := make(chan generationResult, 1)
	go func() {
		resp, err := r.generator.GenerateQA(ctx, historyToTurns(history))
		resultCh <- generationResult{resp: resp, err: err}
	}()

	if isNewConversation {
		if err := r.greet(ctx, msg); err != nil {
			return "", err
		}
	}

	if err := wait(ctx, r.timings.Settle); err != nil {
		return "", err
	}
	if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityTypingStart); err != nil {
		return "", err
	}

	if err := r.deliver(ctx, msg, resultCh); err != nil {
		r.logger.Error("error generating QA response",
			slog.String("conversation_id", msg.ConversationID),
			slog.String("error", err.Error()))
		if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityTypingStop); err != nil {
			return "", err
		}
		if err := r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgGenerationFailure); err != nil {
			return "", err
		}
		if err := r.handOff(ctx, msg); err != nil {
			return "", err
		}
		return OutcomeGenerationError, nil
	}

	return fmt.Sprintf("Processed event %s", msg.EventID), nil
}

// greet runs the new-conversation typing pulse and greeting.
func (r *Responder) greet(ctx context.Context, msg InboundMessage) error {
	if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityTypingStart); err != nil {
		return err
	}
	if err := wait(ctx, r.timings.GreetingTyping); err != nil {
		return err
	}
	if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityTypingStop); err != nil {
		return err
	}
	return r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgGreeting)
}

// deliver joins the generation result and sends either the answer with its
// sources block or the low-confidence handoff. Any failure here routes the
// caller to the apology-and-handoff path.
func (r *Responder) deliver(ctx context.Context, msg InboundMessage, resultCh <-chan generationResult) error {
	var result generationResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return fmt.Errorf("generation timed out: %w", ctx.Err())
	}
	if result.err != nil {
		return result.err
	}

	if err := r.conversations.PostActivity(ctx, msg.AppID, msg.ConversationID, zendesk.ActivityTypingStop); err != nil {
		return err
	}

	resp := result.resp
	if !acceptableConfidence[resp.Confidence] {
		r.logger.Info("confidence below threshold, handing off",
			slog.String("conversation_id", msg.ConversationID),
			slog.String("confidence", string(resp.Confidence)))
		if err := r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, msgLowConfidence); err != nil {
			return err
		}
		return r.handOff(ctx, msg)
	}

	r.logger.Info("sending generated answer",
		slog.String("conversation_id", msg.ConversationID),
		slog.String("confidence", string(resp.Confidence)),
		slog.Int("links", len(resp.Links)),
		slog.Int("records_considered", len(resp.RecordsConsidered)))

	if err := r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, strings.TrimSpace(resp.Text)); err != nil {
		return err
	}
	return r.conversations.SendMessage(ctx, msg.AppID, msg.ConversationID, links.Serialize(resp.Links))
}

func historyToTurns(history []zendesk.Message) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history))
	for _, m := range history {
		role := ai.RoleAssistant
		if m.Author.Type == zendesk.AuthorUser {
			role = ai.RoleUser
		}
		turns = append(turns, ai.Turn{Role: role, Content: m.Content.Text})
	}
	return turns
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
