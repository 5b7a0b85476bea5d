package fulfillment

import "fmt"

// Kind identifies a fulfillment action. The set is closed: every dispatch
// site switches exhaustively over these values, so adding a kind means
// touching each switch rather than registering a string key somewhere.
type Kind string

const (
	KindReturn   Kind = "return"
	KindRefund   Kind = "refund"
	KindExchange Kind = "exchange"
	KindCancel   Kind = "cancel"
	KindVerify   Kind = "verify"
)

// ParseKind maps an upstream action name onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(name); k {
	case KindReturn, KindRefund, KindExchange, KindCancel, KindVerify:
		return k, nil
	default:
		return "", fmt.Errorf("unknown action kind %q", name)
	}
}

// Mutating reports whether the kind changes order state on the backend.
// Verify is the one read-only kind; it also bypasses presentation.
func (k Kind) Mutating() bool {
	return k != KindVerify
}

// defaultReason is used when the caller supplied no reason of their own.
func (k Kind) defaultReason() string {
	if k == KindCancel {
		return "customer requested cancellation"
	}
	return "customer requested return"
}
