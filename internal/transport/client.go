package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/fulfillment"
)

// Transport-level faults. A success=false reply from the backend is NOT one
// of these; that resolves as a normal Outcome.
var (
	ErrUnreachable = errors.New("backend unreachable")
	ErrBadResponse = errors.New("backend response malformed")
)

// Client submits form-encoded requests to the one configured backend
// endpoint and parses the JSON envelope it answers with. It is independent
// of action kind; the action tag and fields carry all the meaning.
type Client struct {
	endpoint string
	nonce    string
	http     *http.Client
	logger   *log.Logger
}

func NewClient(endpoint, nonce string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		endpoint: endpoint,
		nonce:    nonce,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// envelope is the backend's reply shape for every action. On failure, data
// degenerates to {"message": "..."}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Submit performs one submit-and-parse cycle. The fields are copied before
// the action tag and auth nonce are stamped on, so callers can reuse them.
func (c *Client) Submit(ctx context.Context, action string, fields url.Values) (fulfillment.Outcome, error) {
	form := url.Values{}
	for k, vs := range fields {
		form[k] = vs
	}
	form.Set("action", action)
	form.Set("nonce", c.nonce)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fulfillment.Outcome{}, fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fulfillment.Outcome{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fulfillment.Outcome{}, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// A well-formed failure still parses; anything else is a fault,
		// whatever the status code was.
		return fulfillment.Outcome{}, fmt.Errorf("%w: status %d: %v", ErrBadResponse, resp.StatusCode, err)
	}

	out := fulfillment.Outcome{Success: env.Success}
	if len(env.Data) > 0 {
		var data map[string]any
		if err := json.Unmarshal(env.Data, &data); err == nil {
			out.Data = data
			if msg, ok := data["message"].(string); ok {
				out.Message = msg
			}
		}
	}
	if out.Success && out.Data == nil {
		out.Data = map[string]any{}
	}
	if !out.Success {
		c.logger.Printf("[transport] %s rejected: %s", action, out.Message)
	}
	return out, nil
}
