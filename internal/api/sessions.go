package api

import (
	"encoding/json"
	"log"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/session"
)

// RegisterSessionRoutes wires session creation/update. The chat widget calls
// this once at attach time and again whenever it learns the customer email.
func RegisterSessionRoutes(mux *http.ServeMux, sessions session.Store, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	mux.Handle("/api/sessions", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ID         string `json:"id"`
			CustomerID string `json:"customer_id"`
			Email      string `json:"email"`
			ThreadID   string `json:"thread_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		s, err := sessions.Put(r.Context(), session.Session{
			ID:         req.ID,
			CustomerID: req.CustomerID,
			Email:      req.Email,
			ThreadID:   req.ThreadID,
		})
		if err != nil {
			logger.Printf("[api] session put failed: %v", err)
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": s})
	}), "sessions"))
}
