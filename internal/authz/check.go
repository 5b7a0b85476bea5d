package authz

import (
	"context"
	"log"
	"net/http"
)

// PrincipalFromRequest extracts the effective principal for a chat turn.
// Order of precedence:
// - X-Principal header (set by the auth proxy)
// - X-Customer header (widget-supplied customer id)
// - customer_id cookie
// - anonymous
func PrincipalFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-Principal"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Customer"); v != "" {
		return "customer:" + v
	}
	if c, err := r.Cookie("customer_id"); err == nil && c.Value != "" {
		return "customer:" + c.Value
	}
	return "customer:anonymous"
}

// Can checks whether the request's principal may perform relation on object
// (e.g. can_cancel on order:9001). Denied on error; never allow by default.
func Can(ctx context.Context, c Client, r *http.Request, object, relation string) (bool, error) {
	principal := PrincipalFromRequest(r)
	allowed, err := c.Check(ctx, principal, object, relation)
	if err != nil {
		log.Printf("authz check error user=%s object=%s relation=%s: %v", principal, object, relation, err)
		return false, err
	}
	return allowed, nil
}
