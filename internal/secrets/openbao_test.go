package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func baoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") == "" {
			t.Errorf("token header missing")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestBootstrapExportsNonce(t *testing.T) {
	srv := baoServer(t, http.StatusOK, `{"data":{"data":{"backend_nonce":"n-123"}}}`)
	defer srv.Close()

	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "assistant/backend")
	t.Setenv("BACKEND_NONCE", "")
	os.Unsetenv("BACKEND_NONCE")

	if err := BootstrapFromOpenBao(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := os.Getenv("BACKEND_NONCE"); got != "n-123" {
		t.Fatalf("expected exported nonce, got %q", got)
	}
}

func TestBootstrapKeepsExistingNonce(t *testing.T) {
	srv := baoServer(t, http.StatusOK, `{"data":{"data":{"backend_nonce":"from-bao"}}}`)
	defer srv.Close()

	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "assistant/backend")
	t.Setenv("BACKEND_NONCE", "from-env")

	if err := BootstrapFromOpenBao(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := os.Getenv("BACKEND_NONCE"); got != "from-env" {
		t.Fatalf("existing nonce must not be overwritten, got %q", got)
	}
}

func TestBootstrapDisabledIsNoop(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	t.Setenv("OPENBAO_TOKEN", "")
	t.Setenv("OPENBAO_SECRET_PATH", "")

	if err := BootstrapFromOpenBao(context.Background()); err != nil {
		t.Fatalf("unconfigured bootstrap should be a no-op, got %v", err)
	}
}

func TestBootstrapMissingSecret(t *testing.T) {
	srv := baoServer(t, http.StatusNotFound, `{}`)
	defer srv.Close()

	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "assistant/backend")
	os.Unsetenv("BACKEND_NONCE")

	if err := BootstrapFromOpenBao(context.Background()); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestBootstrapNonceKeyAbsent(t *testing.T) {
	srv := baoServer(t, http.StatusOK, `{"data":{"data":{"smtp_password":"x"}}}`)
	defer srv.Close()

	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "tok")
	t.Setenv("OPENBAO_SECRET_PATH", "assistant/backend")
	os.Unsetenv("BACKEND_NONCE")

	if err := BootstrapFromOpenBao(context.Background()); !errors.Is(err, ErrNonceMissing) {
		t.Fatalf("expected ErrNonceMissing, got %v", err)
	}
}
