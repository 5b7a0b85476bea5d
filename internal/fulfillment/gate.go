package fulfillment

import "fmt"

// Decision is the completeness gate's verdict for one turn. When Proceed is
// false the Question is the clarifying prompt to put back to the user, and
// no backend call may be made this turn.
type Decision struct {
	Proceed  bool
	Question string
	Missing  MissingFields
}

// Check decides whether a context carries enough information to act.
// Both order_id and email are jointly required; an email that fails the
// format check counts as missing, since it cannot be used either way.
func Check(actx ActionContext, kind Kind) Decision {
	missing := MissingFields{
		OrderID: actx.OrderID == "",
		Email:   actx.Email == "" || !validEmail(actx.Email),
	}
	if !missing.Any() {
		return Decision{Proceed: true}
	}
	return Decision{Question: clarifyingQuestion(missing, kind, actx.OrderID), Missing: missing}
}

// clarifyingQuestion branches on exactly three missing-field combinations.
func clarifyingQuestion(missing MissingFields, kind Kind, orderID string) string {
	switch {
	case missing.OrderID && missing.Email:
		detail := missingDetail(kind)
		if detail == "" {
			return "I can help with that. Could you share your order number and the email address on the order?"
		}
		return fmt.Sprintf("I can help with that. Could you share your order number, the email address on the order, and %s?", detail)
	case missing.OrderID:
		return "Could you share your order number so I can look it up?"
	default:
		return fmt.Sprintf("What is the email address associated with order #%s?", orderID)
	}
}

func missingDetail(kind Kind) string {
	switch kind {
	case KindReturn, KindRefund:
		return "the reason for the return"
	case KindExchange:
		return "which items you would like to exchange and the reason"
	case KindCancel:
		return "optionally the reason for the cancellation"
	case KindVerify:
		return ""
	}
	return ""
}
