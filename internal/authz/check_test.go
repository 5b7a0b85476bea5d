package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeClient struct{ allow bool }

func (f *fakeClient) Check(ctx context.Context, user, object, relation string) (bool, error) {
	return f.allow, nil
}

func TestCanAllowed(t *testing.T) {
	c := &fakeClient{allow: true}
	r := httptest.NewRequest(http.MethodPost, "/api/actions", nil)
	r.Header.Set("X-Principal", "customer:alice")
	allowed, err := Can(context.Background(), c, r, "order:9001", "can_cancel")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed=true")
	}
}

func TestCanDenied(t *testing.T) {
	c := &fakeClient{allow: false}
	r := httptest.NewRequest(http.MethodPost, "/api/actions", nil)
	r.Header.Set("X-Customer", "charlie")
	allowed, err := Can(context.Background(), c, r, "order:9001", "can_refund")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if allowed {
		t.Fatalf("expected allowed=false")
	}
}

func TestPrincipalPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := PrincipalFromRequest(r); got != "customer:anonymous" {
		t.Fatalf("expected anonymous, got %s", got)
	}
	r.AddCookie(&http.Cookie{Name: "customer_id", Value: "c77"})
	if got := PrincipalFromRequest(r); got != "customer:c77" {
		t.Fatalf("expected cookie principal, got %s", got)
	}
	r.Header.Set("X-Customer", "c88")
	if got := PrincipalFromRequest(r); got != "customer:c88" {
		t.Fatalf("expected header principal, got %s", got)
	}
	r.Header.Set("X-Principal", "agent:support-1")
	if got := PrincipalFromRequest(r); got != "agent:support-1" {
		t.Fatalf("expected X-Principal to win, got %s", got)
	}
}
