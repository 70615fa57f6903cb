package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateTicket(t *testing.T) {
	var gotAuth string
	var gotBody ticketRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ticket":{"id":42}}`)
	}))
	defer ts.Close()

	client := NewSupportClient("acme", "support@acme.example", "token-123",
		WithTicketsURL(ts.URL+"/api/v2/tickets.json"))

	err := client.CreateTicket(context.Background(), "my webhook is broken", "conv-9")
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("Authorization = %q, want basic auth", gotAuth)
	}
	if want := "Live Chat Support Needed (Conversation ID: conv-9)"; gotBody.Ticket.Subject != want {
		t.Errorf("subject = %q, want %q", gotBody.Ticket.Subject, want)
	}
	if gotBody.Ticket.Priority != "normal" {
		t.Errorf("priority = %q, want normal", gotBody.Ticket.Priority)
	}
	if !strings.Contains(gotBody.Ticket.Comment.Body, "my webhook is broken") {
		t.Errorf("body = %q, want customer message included", gotBody.Ticket.Comment.Body)
	}
	if !strings.Contains(gotBody.Ticket.Comment.Body, "conv-9") {
		t.Errorf("body = %q, want conversation id included", gotBody.Ticket.Comment.Body)
	}
}

func TestCreateTicket_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewSupportClient("acme", "support@acme.example", "bad-token",
		WithTicketsURL(ts.URL))

	if err := client.CreateTicket(context.Background(), "msg", "conv-1"); err == nil {
		t.Fatalf("CreateTicket() error = nil, want failure")
	}
}
