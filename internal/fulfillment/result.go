package fulfillment

import (
	"errors"
	"fmt"
)

// Result is the tagged outcome handed to the presenter. A backend call
// always collapses into exactly one of the two shapes; nothing past the
// orchestrator boundary deals in errors for the presentable kinds.
type Result struct {
	OK      bool
	Data    map[string]any
	Message string
}

// Succeeded wraps a server-supplied payload.
func Succeeded(data map[string]any) Result {
	return Result{OK: true, Data: data}
}

// Failed wraps a user-presentable failure message.
func Failed(message string) Result {
	return Result{Message: message}
}

// Outcome is the backend's non-exceptional reply as the transport hands it
// up: a well-formed failure response still arrives here, not as an error.
type Outcome struct {
	Success bool
	Data    map[string]any
	Message string
}

// ErrVerificationFailed tags a verify call the backend answered with
// success=false, so callers can branch on it before mutating anything.
var ErrVerificationFailed = errors.New("order verification failed")

// IncompleteError reports a verify call that never reached the backend
// because required fields were missing.
type IncompleteError struct {
	Missing  MissingFields
	Question string
}

func (e *IncompleteError) Error() string {
	switch {
	case e.Missing.OrderID && e.Missing.Email:
		return "cannot verify order: order_id and email are required"
	case e.Missing.OrderID:
		return "cannot verify order: order_id is required"
	default:
		return "cannot verify order: email is required"
	}
}

// Turn reports how one fulfillment turn concluded: either a clarifying
// question went back to the user, or a Result was presented.
type Turn struct {
	NeedMoreInfo bool
	Question     string
	Result       Result
}

func (t Turn) String() string {
	if t.NeedMoreInfo {
		return fmt.Sprintf("need-more-info(%s)", t.Question)
	}
	if t.Result.OK {
		return "success"
	}
	return fmt.Sprintf("failure(%s)", t.Result.Message)
}
