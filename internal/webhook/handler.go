// Package webhook is the HTTP process boundary: it parses inbound
// deliveries, admits them through the dedup guard, filters non-actionable
// events, and hands real user messages to the responder. Every recognized
// case, including no-ops, answers 200 with a human-readable outcome; only
// unexpected internal failures answer 500.
package webhook

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/relaydesk/relaydesk/internal/dedup"
	"github.com/relaydesk/relaydesk/internal/responder"
	"github.com/relaydesk/relaydesk/internal/server"
	"github.com/relaydesk/relaydesk/internal/zendesk"
)

const eventTypeConversationMessage = "conversation:message"

// Handler serves the webhook route.
type Handler struct {
	guard     dedup.Guard
	responder *responder.Responder
	logger    *slog.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(guard dedup.Guard, resp *responder.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		guard:     guard,
		responder: resp,
		logger:    logger,
	}
}

type webhookResponse struct {
	Result webhookResult `json:"result"`
}

type webhookResult struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// HandlePost processes one webhook delivery.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.internalError(w, r, fmt.Errorf("decode payload: %w", err))
		return
	}

	outcome, err := h.processDelivery(r, &payload)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.logger.Info("webhook processed", slog.String("outcome", outcome))
	server.AddLogField(r.Context(), "outcome", outcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(webhookResponse{
		Result: webhookResult{
			Message: outcome,
			Data:    map[string]any{"success": true},
		},
	})
}

// HandleHead answers the platform's liveness probe.
func (h *Handler) HandleHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) processDelivery(r *http.Request, payload *Payload) (string, error) {
	if len(payload.Events) == 0 {
		return "", fmt.Errorf("webhook payload contained no events")
	}

	event := payload.Events[0]
	ctx := r.Context()

	claimed, err := h.guard.Claim(ctx, event.ID)
	if err != nil {
		return "", fmt.Errorf("claim event: %w", err)
	}
	if !claimed {
		return fmt.Sprintf("Event %s has already been processed. Skipping.", event.ID), nil
	}

	if len(payload.Events) != 1 {
		h.logger.Warn("received a webhook with an unexpected number of events",
			slog.Int("count", len(payload.Events)))
	}

	if event.Type != eventTypeConversationMessage {
		return fmt.Sprintf("Ignoring eventType: %s", event.Type), nil
	}

	var authorType zendesk.AuthorType
	var text string
	if event.Payload.Message != nil {
		authorType = event.Payload.Message.Author.Type
		text = event.Payload.Message.Content.Text
	}

	if authorType != zendesk.AuthorUser {
		return fmt.Sprintf("Ignoring non-user message: %s", authorType), nil
	}
	if text == "" {
		return "Unexpected message without content", nil
	}

	return h.responder.Respond(ctx, responder.InboundMessage{
		EventID:        event.ID,
		AppID:          payload.App.ID,
		ConversationID: event.Payload.Conversation.ID,
		BrandID:        event.Payload.Conversation.BrandID,
		Text:           text,
	})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("error processing webhook request",
		slog.String("method", r.Method),
		slog.String("error", err.Error()))
	server.AddError(r.Context(), err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
}
