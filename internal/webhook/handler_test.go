package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relaydesk/relaydesk/internal/ai"
	"github.com/relaydesk/relaydesk/internal/dedup"
	"github.com/relaydesk/relaydesk/internal/responder"
	"github.com/relaydesk/relaydesk/internal/zendesk"
)

type fakeConversations struct {
	mu         sync.Mutex
	sent       []string
	activities []zendesk.ActivityType
	passCalls  int
	passErr    error
	history    []zendesk.Message
}

func (f *fakeConversations) SendMessage(_ context.Context, _, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeConversations) PostActivity(_ context.Context, _, _ string, activity zendesk.ActivityType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeConversations) PassControl(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passCalls++
	return f.passErr
}

func (f *fakeConversations) AllMessages(context.Context, string, string) ([]zendesk.Message, error) {
	return f.history, nil
}

type fakeTicketer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTicketer) CreateTicket(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type fakeGenerator struct {
	resp *ai.QAResponse
	err  error
}

func (f *fakeGenerator) GenerateQA(context.Context, []ai.Turn) (*ai.QAResponse, error) {
	return f.resp, f.err
}

func newTestHandler(conv *fakeConversations, tickets *fakeTicketer, gen *fakeGenerator) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resp := responder.New(conv, tickets, gen, logger,
		responder.WithTimings(responder.Timings{}))
	return NewHandler(dedup.NewMemoryStore(time.Minute), resp, logger)
}

func deliveryJSON(eventID, eventType, authorType, text string) string {
	payload := map[string]any{
		"app":     map[string]any{"id": "app-1"},
		"webhook": map[string]any{"id": "wh-1", "version": "v2"},
		"events": []map[string]any{{
			"id":   eventID,
			"type": eventType,
			"payload": map[string]any{
				"conversation": map[string]any{"id": "conv-1", "brandId": "brand-1"},
				"message": map[string]any{
					"id":      "msg-1",
					"author":  map[string]any{"type": authorType, "displayName": "Customer"},
					"content": map[string]any{"type": "text", "text": text},
				},
			},
		}},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func postWebhook(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandlePost(rec, req)

	if rec.Code != http.StatusOK {
		return rec, ""
	}
	var parsed struct {
		Result struct {
			Message string `json:"message"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	return rec, parsed.Result.Message
}

func TestHandlePost_Idempotency(t *testing.T) {
	conv := &fakeConversations{history: []zendesk.Message{{
		Author:  zendesk.Author{Type: zendesk.AuthorUser},
		Content: zendesk.Content{Type: "text", Text: "hello"},
	}}}
	gen := &fakeGenerator{resp: &ai.QAResponse{Text: "answer", Confidence: ai.VeryConfident}}
	h := newTestHandler(conv, &fakeTicketer{}, gen)

	body := deliveryJSON("ev-1", "conversation:message", "user", "hello")

	rec, _ := postWebhook(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}
	firstSent := len(conv.sent)
	if firstSent == 0 {
		t.Fatalf("first delivery produced no outbound messages")
	}

	rec, outcome := postWebhook(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", rec.Code)
	}
	if want := "Event ev-1 has already been processed. Skipping."; outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}
	if len(conv.sent) != firstSent {
		t.Errorf("second delivery produced side effects: %v", conv.sent[firstSent:])
	}
}

func TestHandlePost_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOutcome string
	}{
		{
			name:        "wrong event type",
			body:        deliveryJSON("ev-t", "conversation:read", "user", "hello"),
			wantOutcome: "Ignoring eventType: conversation:read",
		},
		{
			name:        "non-user author",
			body:        deliveryJSON("ev-a", "conversation:message", "business", "hello"),
			wantOutcome: "Ignoring non-user message: business",
		},
		{
			name:        "empty text",
			body:        deliveryJSON("ev-e", "conversation:message", "user", ""),
			wantOutcome: "Unexpected message without content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConversations{}
			h := newTestHandler(conv, &fakeTicketer{}, &fakeGenerator{})

			rec, outcome := postWebhook(t, h, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", outcome, tt.wantOutcome)
			}
			if len(conv.sent) != 0 || len(conv.activities) != 0 {
				t.Errorf("no-op event produced side effects: %v %v", conv.sent, conv.activities)
			}
		})
	}
}

func TestHandlePost_MessageWithoutPayload(t *testing.T) {
	body := `{"app":{"id":"app-1"},"events":[{"id":"ev-n","type":"conversation:message","payload":{"conversation":{"id":"conv-1"}}}]}`
	h := newTestHandler(&fakeConversations{}, &fakeTicketer{}, &fakeGenerator{})

	rec, outcome := postWebhook(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if want := "Ignoring non-user message: "; outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}
}

func TestHandlePost_EscalationEndToEnd(t *testing.T) {
	conv := &fakeConversations{}
	h := newTestHandler(conv, &fakeTicketer{}, &fakeGenerator{})

	rec, outcome := postWebhook(t, h, deliveryJSON("ev-esc", "conversation:message", "user", "talk to support"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(outcome, "Escalation phrase detected") {
		t.Errorf("outcome = %q, want escalation outcome", outcome)
	}
	if conv.passCalls != 1 {
		t.Errorf("passCalls = %d, want 1", conv.passCalls)
	}
	if len(conv.sent) == 0 {
		t.Fatalf("no acknowledgement sent")
	}
}

func TestHandlePost_GenerationFailureEndToEnd(t *testing.T) {
	conv := &fakeConversations{history: []zendesk.Message{{
		Author:  zendesk.Author{Type: zendesk.AuthorUser},
		Content: zendesk.Content{Type: "text", Text: "hard question"},
	}}}
	gen := &fakeGenerator{err: fmt.Errorf("model unavailable")}
	h := newTestHandler(conv, &fakeTicketer{}, gen)

	rec, outcome := postWebhook(t, h, deliveryJSON("ev-f", "conversation:message", "user", "hard question"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if outcome != responder.OutcomeGenerationError {
		t.Errorf("outcome = %q, want %q", outcome, responder.OutcomeGenerationError)
	}
	if conv.passCalls != 1 {
		t.Errorf("passCalls = %d, want handoff invoked", conv.passCalls)
	}
}

func TestHandlePost_MalformedJSON(t *testing.T) {
	h := newTestHandler(&fakeConversations{}, &fakeTicketer{}, &fakeGenerator{})

	rec, _ := postWebhook(t, h, `{not json`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Errorf("body = %q, want internal server error", rec.Body.String())
	}
}

func TestHandlePost_EmptyEvents(t *testing.T) {
	h := newTestHandler(&fakeConversations{}, &fakeTicketer{}, &fakeGenerator{})

	rec, _ := postWebhook(t, h, `{"app":{"id":"app-1"},"events":[]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleHead(t *testing.T) {
	h := newTestHandler(&fakeConversations{}, &fakeTicketer{}, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodHead, "/api/webhook", nil)
	rec := httptest.NewRecorder()
	h.HandleHead(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
