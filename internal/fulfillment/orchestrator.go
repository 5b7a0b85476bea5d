package fulfillment

import (
	"context"
	"fmt"
	"log"
	"net/url"
)

// Transport performs the submit-and-parse cycle against the backend. It is
// independent of action kind: the tag and fields carry all the meaning.
// An error return is reserved for transport-level faults (network failure,
// malformed response); a well-formed success=false reply is an Outcome.
type Transport interface {
	Submit(ctx context.Context, action string, fields url.Values) (Outcome, error)
}

// Presenter delivers text to whichever chat surface the session has active.
// Say carries interim status and clarifying questions; Present renders a
// final Result for the originating request.
type Presenter interface {
	Say(sessionID, text string)
	Present(sessionID string, req Request, res Result)
}

// Recorder receives outcome events and transport-failure diagnostics.
// Implementations must tolerate being called on the request path; publishing
// is best-effort.
type Recorder interface {
	Outcome(ctx context.Context, kind Kind, orderID string, res Result)
	TransportFailure(ctx context.Context, kind Kind, orderID string, err error)
}

// genericApology is what the user sees when the backend could not be
// reached or answered with something unparsable.
const genericApology = "I ran into a problem talking to the order system. Please try again in a moment."

// Orchestrator drives one turn end to end: normalize, gate, dispatch,
// submit, present. All collaborators are injected; it owns no state beyond
// them, so concurrent turns are independent.
type Orchestrator struct {
	transport Transport
	presenter Presenter
	recorder  Recorder
	logger    *log.Logger
}

func NewOrchestrator(t Transport, p Presenter, r Recorder, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{transport: t, presenter: p, recorder: r, logger: logger}
}

// Fulfill runs one presentable turn for the return/refund/exchange/cancel
// kinds. It never returns an error: every path ends in either a clarifying
// question or exactly one presented Result. Verify goes through Verify.
func (o *Orchestrator) Fulfill(ctx context.Context, sessionID string, kind Kind, raw RawContext) Turn {
	if !kind.Mutating() {
		// Misrouted verify; it has no presentation path.
		o.logger.Printf("[fulfillment] refusing to present kind=%s session=%s", kind, sessionID)
		return Turn{Result: Failed(genericApology)}
	}

	actx := ParseContext(Normalize(raw))

	decision := Check(actx, kind)
	if !decision.Proceed {
		o.logger.Printf("[fulfillment] session=%s kind=%s waiting on fields order_id=%t email=%t",
			sessionID, kind, decision.Missing.OrderID, decision.Missing.Email)
		o.presenter.Say(sessionID, decision.Question)
		return Turn{NeedMoreInfo: true, Question: decision.Question}
	}

	req, err := NewRequest(kind, actx)
	if err != nil {
		// Unreachable for the closed kind set; keep the turn well-formed anyway.
		o.logger.Printf("[fulfillment] session=%s build request failed: %v", sessionID, err)
		res := Failed(genericApology)
		o.presenter.Present(sessionID, Request{Kind: kind, OrderID: actx.OrderID}, res)
		return Turn{Result: res}
	}

	o.presenter.Say(sessionID, interimStatus(kind, req.OrderID))

	res := o.submit(ctx, req)
	if o.recorder != nil {
		o.recorder.Outcome(ctx, kind, req.OrderID, res)
	}
	o.presenter.Present(sessionID, req, res)
	return Turn{Result: res}
}

// Verify confirms order/email ownership without mutating anything. Unlike
// the presentable kinds its failure surfaces as an error, so a calling
// workflow can branch on it before deciding what to do next.
func (o *Orchestrator) Verify(ctx context.Context, raw RawContext) (map[string]any, error) {
	actx := ParseContext(Normalize(raw))

	decision := Check(actx, KindVerify)
	if !decision.Proceed {
		return nil, &IncompleteError{Missing: decision.Missing, Question: decision.Question}
	}

	req, err := NewRequest(KindVerify, actx)
	if err != nil {
		return nil, err
	}

	out, err := o.transport.Submit(ctx, req.Action, req.Values())
	if err != nil {
		o.logger.Printf("[fulfillment] verify order=%s transport error: %v", req.OrderID, err)
		return nil, fmt.Errorf("verify order %s: %w", req.OrderID, err)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "order and email did not match"
		}
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, msg)
	}
	return out.Data, nil
}

// submit performs the backend call and collapses every outcome into a
// Result. Transport faults are reported to diagnostics exactly once.
func (o *Orchestrator) submit(ctx context.Context, req Request) Result {
	out, err := o.transport.Submit(ctx, req.Action, req.Values())
	if err != nil {
		o.logger.Printf("[fulfillment] kind=%s order=%s transport error: %v", req.Kind, req.OrderID, err)
		if o.recorder != nil {
			o.recorder.TransportFailure(ctx, req.Kind, req.OrderID, err)
		}
		return Failed(genericApology)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "the order system declined the request"
		}
		return Failed(msg)
	}
	return Succeeded(out.Data)
}

// interimStatus gives the user immediate feedback while the backend call is
// in flight.
func interimStatus(kind Kind, orderID string) string {
	switch kind {
	case KindReturn:
		return fmt.Sprintf("Looking up order #%s to start your return…", orderID)
	case KindRefund:
		return fmt.Sprintf("Looking up order #%s to process your refund…", orderID)
	case KindExchange:
		return fmt.Sprintf("Looking up order #%s to set up your exchange…", orderID)
	case KindCancel:
		return fmt.Sprintf("Looking up order #%s for cancellation…", orderID)
	}
	return fmt.Sprintf("Looking up order #%s…", orderID)
}
