package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/present"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/storage/postgres"
)

// RegisterMessageRoutes wires the message-center endpoints: the text surface
// drain the chat widget polls, and the user-message intake. The repo is
// optional; without it transcript lines are simply not persisted.
func RegisterMessageRoutes(mux *http.ServeMux, outbox *present.Outbox, repo *postgres.Repository, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	mux.Handle("/api/messages", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleDrainMessages(outbox, repo, logger, w, r)
		case http.MethodPost:
			handleUserMessage(repo, logger, w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}), "messages"))

	// GET /api/transcript?session_id=&limit= → persisted history, oldest first
	mux.Handle("/api/transcript", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, "session_id required", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		lines, err := repo.RecentTranscript(r.Context(), sessionID, limit)
		if err != nil {
			http.Error(w, "transcript unavailable", http.StatusServiceUnavailable)
			return
		}
		if lines == nil {
			lines = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"transcript": lines})
	}), "transcript"))
}

func handleDrainMessages(outbox *present.Outbox, repo *postgres.Repository, logger *log.Logger, w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	msgs := outbox.Drain(sessionID)
	if repo != nil && repo.DB != nil {
		for _, m := range msgs {
			if err := repo.AppendTranscript(r.Context(), m.SessionID, m.Role, m.Text); err != nil {
				logger.Printf("[api] transcript append failed session=%s: %v", sessionID, err)
			}
		}
	}
	if msgs == nil {
		msgs = []present.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func handleUserMessage(repo *postgres.Repository, logger *log.Logger, w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Text == "" {
		http.Error(w, "session_id and text are required", http.StatusBadRequest)
		return
	}
	if repo != nil && repo.DB != nil {
		if err := repo.AppendTranscript(r.Context(), req.SessionID, present.RoleUser, req.Text); err != nil {
			logger.Printf("[api] transcript append failed session=%s: %v", req.SessionID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
