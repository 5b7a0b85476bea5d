package fulfillment

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
)

type fakeTransport struct {
	out     Outcome
	err     error
	calls   int
	lastAct string
	lastVal url.Values
}

func (f *fakeTransport) Submit(ctx context.Context, action string, fields url.Values) (Outcome, error) {
	f.calls++
	f.lastAct = action
	f.lastVal = fields
	return f.out, f.err
}

type fakePresenter struct {
	said      []string
	presented []Result
	lastReq   Request
}

func (f *fakePresenter) Say(sessionID, text string) { f.said = append(f.said, text) }
func (f *fakePresenter) Present(sessionID string, req Request, res Result) {
	f.presented = append(f.presented, res)
	f.lastReq = req
}

type fakeRecorder struct {
	outcomes int
	faults   int
	lastErr  error
}

func (f *fakeRecorder) Outcome(ctx context.Context, kind Kind, orderID string, res Result) {
	f.outcomes++
}
func (f *fakeRecorder) TransportFailure(ctx context.Context, kind Kind, orderID string, err error) {
	f.faults++
	f.lastErr = err
}

func newTestOrchestrator(tr *fakeTransport) (*Orchestrator, *fakePresenter, *fakeRecorder) {
	p := &fakePresenter{}
	r := &fakeRecorder{}
	return NewOrchestrator(tr, p, r, nil), p, r
}

func TestFulfillGateHoldsTransportNeverCalled(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: true}}
	o, p, _ := newTestOrchestrator(tr)

	turn := o.Fulfill(context.Background(), "s1", KindReturn, RawContext{"email": "a@b.com"})

	if tr.calls != 0 {
		t.Fatalf("transport must not be called when order_id is missing")
	}
	if !turn.NeedMoreInfo || turn.Question == "" {
		t.Fatalf("expected a clarifying question, got %+v", turn)
	}
	if len(p.said) != 1 || p.said[0] != turn.Question {
		t.Fatalf("question should be presented exactly once, said=%v", p.said)
	}
}

func TestFulfillEmailQuestionNamesOrder(t *testing.T) {
	tr := &fakeTransport{}
	o, _, _ := newTestOrchestrator(tr)

	turn := o.Fulfill(context.Background(), "s1", KindCancel, RawContext{"order_id": "1234"})

	if !strings.Contains(turn.Question, "1234") {
		t.Fatalf("question should name the order: %q", turn.Question)
	}
	if tr.calls != 0 {
		t.Fatalf("gate held, transport called anyway")
	}
}

func TestFulfillCancelSuccess(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: true, Data: map[string]any{}}}
	o, p, r := newTestOrchestrator(tr)

	raw := RawContext{"order_number": "9001", "email": "jane@example.com"}
	turn := o.Fulfill(context.Background(), "s1", KindCancel, raw)

	if !turn.Result.OK {
		t.Fatalf("expected success, got %+v", turn)
	}
	if tr.lastAct != ActionCancelOrder {
		t.Fatalf("expected %s, got %s", ActionCancelOrder, tr.lastAct)
	}
	if got := tr.lastVal.Get("order_id"); got != "9001" {
		t.Fatalf("order_number alias lost: order_id=%q", got)
	}
	if tr.lastVal.Get("restock") != "true" {
		t.Fatalf("cancel default restock=true missing from payload")
	}
	if len(p.presented) != 1 {
		t.Fatalf("expected exactly one presented result, got %d", len(p.presented))
	}
	if p.lastReq.OrderID != "9001" || p.lastReq.Kind != KindCancel {
		t.Fatalf("presenter given wrong request: %+v", p.lastReq)
	}
	if r.outcomes != 1 || r.faults != 0 {
		t.Fatalf("recorder outcomes=%d faults=%d", r.outcomes, r.faults)
	}
	// interim status precedes the result
	if len(p.said) != 1 || !strings.Contains(p.said[0], "9001") {
		t.Fatalf("expected interim status naming the order, said=%v", p.said)
	}
}

func TestFulfillEmptyContextAsksForEverything(t *testing.T) {
	tr := &fakeTransport{}
	o, p, _ := newTestOrchestrator(tr)

	turn := o.Fulfill(context.Background(), "s1", KindReturn, RawContext{})

	if !turn.NeedMoreInfo {
		t.Fatalf("expected need-more-info, got %+v", turn)
	}
	for _, want := range []string{"order number", "email address", "reason"} {
		if !strings.Contains(turn.Question, want) {
			t.Fatalf("question %q missing %q", turn.Question, want)
		}
	}
	if tr.calls != 0 {
		t.Fatalf("transport called on empty context")
	}
	if len(p.presented) != 0 {
		t.Fatalf("nothing should be presented as a result this turn")
	}
}

func TestFulfillTransportFaultGenericApology(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	o, p, r := newTestOrchestrator(tr)

	raw := RawContext{"order_id": "1234", "email": "jane@example.com"}
	turn := o.Fulfill(context.Background(), "s1", KindExchange, raw)

	if turn.Result.OK {
		t.Fatalf("expected failure")
	}
	if turn.Result.Message != genericApology {
		t.Fatalf("raw transport error must not leak: %q", turn.Result.Message)
	}
	if len(p.presented) != 1 {
		t.Fatalf("expected exactly one presented result, got %d", len(p.presented))
	}
	if r.faults != 1 {
		t.Fatalf("expected exactly one diagnostics entry, got %d", r.faults)
	}
	if tr.calls != 1 {
		t.Fatalf("no retry allowed, calls=%d", tr.calls)
	}
}

func TestFulfillServerDeclined(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: false, Message: "order already shipped"}}
	o, p, r := newTestOrchestrator(tr)

	raw := RawContext{"order_id": "1234", "email": "jane@example.com"}
	turn := o.Fulfill(context.Background(), "s1", KindCancel, raw)

	if turn.Result.OK || turn.Result.Message != "order already shipped" {
		t.Fatalf("server message should pass through, got %+v", turn.Result)
	}
	if r.faults != 0 {
		t.Fatalf("a well-formed rejection is not a transport fault")
	}
	if len(p.presented) != 1 {
		t.Fatalf("expected exactly one presented result")
	}
}

func TestFulfillRefusesVerify(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: true}}
	o, _, _ := newTestOrchestrator(tr)

	turn := o.Fulfill(context.Background(), "s1", KindVerify, RawContext{"order_id": "1", "email": "a@b.com"})

	if turn.Result.OK || tr.calls != 0 {
		t.Fatalf("verify must not run through the presentable path")
	}
}

func TestVerifySuccess(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: true, Data: map[string]any{"status": "shipped"}}}
	o, _, _ := newTestOrchestrator(tr)

	data, err := o.Verify(context.Background(), RawContext{"order_id": "1234", "email": "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if data["status"] != "shipped" {
		t.Fatalf("expected server data passed through, got %v", data)
	}
	if tr.lastAct != ActionVerifyOrder {
		t.Fatalf("expected %s, got %s", ActionVerifyOrder, tr.lastAct)
	}
}

func TestVerifyIncomplete(t *testing.T) {
	o, _, _ := newTestOrchestrator(&fakeTransport{})

	_, err := o.Verify(context.Background(), RawContext{"order_id": "1234"})
	var inc *IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if !inc.Missing.Email || inc.Missing.OrderID {
		t.Fatalf("wrong missing set: %+v", inc.Missing)
	}
}

func TestVerifyMismatch(t *testing.T) {
	tr := &fakeTransport{out: Outcome{Success: false, Message: "no such order"}}
	o, _, _ := newTestOrchestrator(tr)

	_, err := o.Verify(context.Background(), RawContext{"order_id": "1234", "email": "a@b.com"})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyTransportError(t *testing.T) {
	cause := errors.New("timeout")
	tr := &fakeTransport{err: cause}
	o, _, _ := newTestOrchestrator(tr)

	_, err := o.Verify(context.Background(), RawContext{"order_id": "1234", "email": "a@b.com"})
	if !errors.Is(err, cause) {
		t.Fatalf("transport cause should be wrapped, got %v", err)
	}
}
