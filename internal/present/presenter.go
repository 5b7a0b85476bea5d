package present

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/fulfillment"
)

// failurePrefix marks every failure message so chat UIs can style it.
const failurePrefix = "⚠️ "

// Presenter renders ActionResults into fixed-format user-facing text and
// delivers it through the hub. Delivery is best-effort and not deduplicated:
// presenting the same result twice yields two messages, so callers present
// each result exactly once.
type Presenter struct {
	hub    *Hub
	logger *log.Logger
	notice io.Writer // last-resort sink when no surface accepts delivery
}

func NewPresenter(hub *Hub, logger *log.Logger) *Presenter {
	if logger == nil {
		logger = log.Default()
	}
	return &Presenter{hub: hub, logger: logger, notice: os.Stderr}
}

// Say delivers a plain assistant message (interim status, clarifying
// questions) without any result formatting.
func (p *Presenter) Say(sessionID, text string) {
	p.deliver(sessionID, text)
}

// Present renders one result for the request that produced it and delivers
// the rendering.
func (p *Presenter) Present(sessionID string, req fulfillment.Request, res fulfillment.Result) {
	p.deliver(sessionID, Render(req, res))
}

func (p *Presenter) deliver(sessionID, text string) {
	for _, s := range p.hub.active() {
		if s.TryDeliver(sessionID, text, RoleAssistant) {
			return
		}
		p.logger.Printf("[present] surface %s refused delivery session=%s", s.Name(), sessionID)
	}
	// No surface took it. A synchronous notice is the only option left; this
	// should be rare outside of startup and teardown windows.
	p.logger.Printf("[present] no surface available session=%s", sessionID)
	fmt.Fprintf(p.notice, "*** NOTICE (session %s): %s\n", sessionID, text)
}

// Render produces the fixed-format message for a result. Exported so tests
// and the verify-composing callers can reuse the exact wording.
func Render(req fulfillment.Request, res fulfillment.Result) string {
	if !res.OK {
		msg := res.Message
		if msg == "" {
			msg = "something went wrong while handling your request."
		}
		return failurePrefix + msg
	}

	switch req.Kind {
	case fulfillment.KindCancel:
		text := fmt.Sprintf("Order #%s has been cancelled successfully.", req.OrderID)
		if req.Refund {
			text += " Your refund is being processed."
		}
		if req.Restock {
			text += " The items will be restocked."
		}
		return text
	case fulfillment.KindReturn:
		return fmt.Sprintf("Your return for order #%s has been initiated (reference %s, status: %s).",
			req.OrderID, referenceFrom(res.Data), statusFrom(res.Data))
	case fulfillment.KindRefund:
		return fmt.Sprintf("Your refund request for order #%s has been submitted (reference %s, status: %s).",
			req.OrderID, referenceFrom(res.Data), statusFrom(res.Data))
	case fulfillment.KindExchange:
		return fmt.Sprintf("Your exchange for order #%s has been set up (reference %s, status: %s).",
			req.OrderID, referenceFrom(res.Data), statusFrom(res.Data))
	}
	return fmt.Sprintf("Done. Order #%s has been updated.", req.OrderID)
}

// referenceFrom digs the server-issued identifier out of the payload,
// falling back across the field names the backend has used over time.
func referenceFrom(data map[string]any) string {
	for _, key := range []string{"return_id", "rma_id", "reference", "id"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return "pending"
}

func statusFrom(data map[string]any) string {
	if s, ok := data["status"].(string); ok && s != "" {
		return s
	}
	return "received"
}
