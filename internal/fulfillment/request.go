package fulfillment

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Backend action tags. One endpoint serves them all; the tag discriminates.
const (
	ActionInitiateReturn = "initiate_return"
	ActionCancelOrder    = "cancel_order"
	ActionVerifyOrder    = "verify_order"
)

// Request is the canonical transport-ready payload for one backend call.
// It is built once per turn and not modified afterwards.
type Request struct {
	Kind       Kind
	Action     string
	OrderID    string
	Email      string
	Reason     string
	ReturnType string
	Items      []Item
	Restock    bool
	Refund     bool

	// cancel_order is the only shape that carries the restock/refund flags
	hasFlags bool
}

// NewRequest shapes a gated context into the request for the given kind.
func NewRequest(kind Kind, actx ActionContext) (Request, error) {
	switch kind {
	case KindReturn:
		return newReturnRequest(kind, actx), nil
	case KindRefund:
		actx.ReturnType = "refund"
		return newReturnRequest(kind, actx), nil
	case KindExchange:
		actx.ReturnType = "exchange"
		return newReturnRequest(kind, actx), nil
	case KindCancel:
		reason := actx.Reason
		if reason == "" {
			reason = kind.defaultReason()
		}
		restock := true
		if actx.Restock != nil {
			restock = *actx.Restock
		}
		return Request{
			Kind:     kind,
			Action:   ActionCancelOrder,
			OrderID:  actx.OrderID,
			Email:    actx.Email,
			Reason:   reason,
			Restock:  restock,
			Refund:   actx.Refund,
			hasFlags: true,
		}, nil
	case KindVerify:
		return Request{
			Kind:    kind,
			Action:  ActionVerifyOrder,
			OrderID: actx.OrderID,
			Email:   actx.Email,
		}, nil
	}
	return Request{}, fmt.Errorf("unknown action kind %q", kind)
}

// newReturnRequest covers return, refund and exchange: the three kinds share
// the initiate_return shape and differ only in the forced return_type.
func newReturnRequest(kind Kind, actx ActionContext) Request {
	reason := actx.Reason
	if reason == "" {
		reason = kind.defaultReason()
	}
	returnType := actx.ReturnType
	if returnType == "" {
		returnType = "refund"
	}
	// Per-item reasons inherit the resolved top-level reason, which may be
	// the kind default when the caller supplied none at all.
	items := make([]Item, len(actx.Items))
	copy(items, actx.Items)
	for i := range items {
		if items[i].Reason == "" {
			items[i].Reason = reason
		}
	}
	if len(items) == 0 {
		items = nil
	}
	return Request{
		Kind:       kind,
		Action:     ActionInitiateReturn,
		OrderID:    actx.OrderID,
		Email:      actx.Email,
		Reason:     reason,
		ReturnType: returnType,
		Items:      items,
	}
}

// Values encodes the request as the flat form fields the backend expects.
// The action tag rides along; the auth nonce is the transport's to add.
func (r Request) Values() url.Values {
	v := url.Values{}
	v.Set("action", r.Action)
	v.Set("order_id", r.OrderID)
	v.Set("email", r.Email)
	if r.Reason != "" {
		v.Set("reason", r.Reason)
	}
	if r.ReturnType != "" {
		v.Set("return_type", r.ReturnType)
	}
	if len(r.Items) > 0 {
		b, _ := json.Marshal(r.Items)
		v.Set("items", string(b))
	}
	if r.hasFlags {
		v.Set("restock", strconv.FormatBool(r.Restock))
		v.Set("refund", strconv.FormatBool(r.Refund))
	}
	return v
}
