package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/session"
)

func TestCreateSession(t *testing.T) {
	mux := http.NewServeMux()
	RegisterSessionRoutes(mux, session.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"email":"jane@example.com","customer_id":"cust-1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Session session.Session `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Session.ID == "" || body.Session.Email != "jane@example.com" {
		t.Fatalf("unexpected session: %+v", body.Session)
	}
}

func TestCreateSessionRejectsGet(t *testing.T) {
	mux := http.NewServeMux()
	RegisterSessionRoutes(mux, session.NewMemoryStore(), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
