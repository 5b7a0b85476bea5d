package fulfillment

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RawContext is the loose field map an intent classifier hands us. Any field
// may be absent, aliased, or carry the wrong dynamic type; Normalize and
// ParseContext are the only code that deals with that looseness.
type RawContext map[string]any

// Item is one line of an order affected by a return or exchange.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

// ActionContext is the strict record the gate and dispatcher operate on.
// Fields the caller never supplied are zero; kind-specific defaults are
// applied later, when a Request is built.
type ActionContext struct {
	OrderID    string
	Email      string
	Reason     string
	Items      []Item
	ReturnType string
	Restock    *bool
	Refund     bool
}

// MissingFields records which jointly-required fields a context lacks.
type MissingFields struct {
	OrderID bool
	Email   bool
}

// Any reports whether at least one required field is missing.
func (m MissingFields) Any() bool {
	return m.OrderID || m.Email
}

var validate = validator.New()

// Normalize canonicalizes field aliases: when order_id is absent and
// order_number is present, order_number stands in for order_id. Everything
// else passes through unchanged. The input is never mutated and the result
// is never nil.
func Normalize(raw RawContext) RawContext {
	out := make(RawContext, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	if _, ok := out["order_id"]; !ok {
		if v, ok := out["order_number"]; ok {
			out["order_id"] = v
		}
	}
	return out
}

// ParseContext converts a normalized RawContext into the strict
// ActionContext record, coercing loose dynamic values as it goes. It cannot
// fail: unusable values simply come out as zero fields, which the gate then
// reports as missing.
func ParseContext(raw RawContext) ActionContext {
	actx := ActionContext{
		OrderID:    strings.TrimSpace(toString(raw["order_id"])),
		Email:      strings.TrimSpace(toString(raw["email"])),
		Reason:     strings.TrimSpace(toString(raw["reason"])),
		ReturnType: strings.TrimSpace(toString(raw["return_type"])),
		Refund:     toBool(raw["refund"]),
	}
	if v, ok := raw["restock"]; ok {
		b := toBool(v)
		actx.Restock = &b
	}
	actx.Items = parseItems(raw["items"], actx.Reason)
	return actx
}

// validEmail runs the format check an address must pass before it is sent
// to the backend.
func validEmail(addr string) bool {
	return validate.Var(addr, "required,email") == nil
}

// parseItems accepts the two shapes the upstream extractor produces: an
// ordered sequence of item records, or a mapping of product id to detail.
// Mappings are flattened in sorted-key order so the result is stable.
func parseItems(v any, topReason string) []Item {
	switch t := v.(type) {
	case []any:
		var items []Item
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, itemFromDetail(toString(m["product_id"]), m, topReason))
		}
		return items
	case []Item:
		// Already typed; fill per-item defaults only.
		items := make([]Item, 0, len(t))
		for _, it := range t {
			if it.Quantity <= 0 {
				it.Quantity = 1
			}
			if it.Reason == "" {
				it.Reason = topReason
			}
			items = append(items, it)
		}
		return items
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			detail, _ := t[k].(map[string]any)
			items = append(items, itemFromDetail(k, detail, topReason))
		}
		return items
	default:
		return nil
	}
}

func itemFromDetail(productID string, detail map[string]any, topReason string) Item {
	it := Item{ProductID: productID, Quantity: 1, Reason: topReason}
	if q := toInt(detail["quantity"]); q > 0 {
		it.Quantity = q
	}
	if r := toString(detail["reason"]); r != "" {
		it.Reason = r
	}
	return it
}

// Loose-value coercion helpers. Upstream payloads arrive as decoded JSON, so
// numbers show up as float64 and booleans sometimes as strings.
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case float64:
		return t != 0
	default:
		return false
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
