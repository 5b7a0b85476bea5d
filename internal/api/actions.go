package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/authz"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/fulfillment"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/session"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/transport"
)

// actionRequest is the classified-intent ingress payload: the upstream NLU
// layer has already named the action and extracted the field map.
type actionRequest struct {
	Action    string         `json:"action"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context"`
}

// RegisterActionRoutes wires the fulfillment ingress endpoints into the mux.
func RegisterActionRoutes(mux *http.ServeMux, orch *fulfillment.Orchestrator, sessions session.Store, authzClient authz.Client, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	mux.Handle("/api/actions", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleAction(orch, sessions, authzClient, logger, w, r)
	}), "actions"))

	// Dedicated verify route for callers composing verification ahead of a
	// mutating action. Same payload as /api/actions minus the action name.
	mux.Handle("/api/actions/verify", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		raw := fulfillment.RawContext(req.Context)
		if raw == nil {
			raw = fulfillment.RawContext{}
		}
		raw = mergeSessionFields(r.Context(), sessions, req.SessionID, raw, logger)
		handleVerify(orch, w, r, raw)
	}), "verify"))
}

func handleAction(orch *fulfillment.Orchestrator, sessions session.Store, authzClient authz.Client, logger *log.Logger, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	kind, err := fulfillment.ParseKind(req.Action)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	raw := fulfillment.RawContext(req.Context)
	if raw == nil {
		raw = fulfillment.RawContext{}
	}
	raw = mergeSessionFields(r.Context(), sessions, req.SessionID, raw, logger)

	// The core recomputes this itself; we pre-normalize only to learn the
	// order id for the authorization check.
	orderID := fulfillment.ParseContext(fulfillment.Normalize(raw)).OrderID
	if kind.Mutating() && orderID != "" {
		allowed, err := authz.Can(r.Context(), authzClient, r, "order:"+orderID, "can_"+string(kind))
		if err != nil {
			http.Error(w, "authorization error", http.StatusForbidden)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	if kind == fulfillment.KindVerify {
		handleVerify(orch, w, r, raw)
		return
	}

	turn := orch.Fulfill(r.Context(), req.SessionID, kind, raw)
	resp := map[string]any{
		"handled": !turn.NeedMoreInfo,
		"success": turn.Result.OK,
	}
	if turn.NeedMoreInfo {
		resp["question"] = turn.Question
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVerify surfaces verify's failure to the HTTP caller instead of the
// chat surfaces, so composing workflows can branch on it.
func handleVerify(orch *fulfillment.Orchestrator, w http.ResponseWriter, r *http.Request, raw fulfillment.RawContext) {
	data, err := orch.Verify(r.Context(), raw)
	if err != nil {
		var incomplete *fulfillment.IncompleteError
		switch {
		case errors.As(err, &incomplete):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    incomplete.Error(),
				"question": incomplete.Question,
			})
		case errors.Is(err, fulfillment.ErrVerificationFailed):
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		case errors.Is(err, transport.ErrUnreachable) || errors.Is(err, transport.ErrBadResponse):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// mergeSessionFields fills a turn's context from what the session already
// knows. Only the email is merged today; the turn's own fields always win.
func mergeSessionFields(ctx context.Context, sessions session.Store, sessionID string, raw fulfillment.RawContext, logger *log.Logger) fulfillment.RawContext {
	if sessions == nil || sessionID == "" {
		return raw
	}
	s, ok, err := sessions.Get(ctx, sessionID)
	if err != nil {
		logger.Printf("[api] session lookup %s failed: %v", sessionID, err)
		return raw
	}
	if !ok || s.Email == "" {
		return raw
	}
	if existing, present := raw["email"]; present && strings.TrimSpace(fmt.Sprint(existing)) != "" {
		return raw
	}
	out := make(fulfillment.RawContext, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	out["email"] = s.Email
	return out
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
