package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/present"
)

func TestDrainMessages(t *testing.T) {
	outbox := present.NewOutbox()
	outbox.TryDeliver("s1", "Looking up order #9001 for cancellation…", present.RoleAssistant)
	outbox.TryDeliver("s1", "Order #9001 has been cancelled successfully.", present.RoleAssistant)

	mux := http.NewServeMux()
	RegisterMessageRoutes(mux, outbox, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/messages?session_id=s1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Messages []present.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if body.Messages[0].Role != present.RoleAssistant {
		t.Fatalf("role lost: %+v", body.Messages[0])
	}

	// second poll comes back empty, not 404
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages?session_id=s1", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Messages) != 0 {
		t.Fatalf("drained queue should be empty: err=%v n=%d", err, len(body.Messages))
	}
}

func TestDrainRequiresSessionID(t *testing.T) {
	mux := http.NewServeMux()
	RegisterMessageRoutes(mux, present.NewOutbox(), nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserMessageIntake(t *testing.T) {
	mux := http.NewServeMux()
	RegisterMessageRoutes(mux, present.NewOutbox(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"session_id":"s1","text":"cancel my order"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"text":"hi"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing session_id should 400, got %d", rec.Code)
	}
}

func TestTranscriptUnavailableWithoutDB(t *testing.T) {
	mux := http.NewServeMux()
	RegisterMessageRoutes(mux, present.NewOutbox(), nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcript?session_id=s1", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
