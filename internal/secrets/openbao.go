package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// The one secret this service pulls from OpenBao is the backend auth nonce.
// It is looked up under these keys at the configured KV path and exported as
// BACKEND_NONCE before config.Load runs, so operators can keep the nonce out
// of plain env files.
var nonceKeys = []string{"backend_nonce", "BACKEND_NONCE", "nonce"}

var (
	ErrSecretNotFound = errors.New("openbao secret path not found")
	ErrNonceMissing   = errors.New("openbao secret has no backend nonce key")
)

// BootstrapFromOpenBao fetches the backend nonce and exports it into the
// environment. Without OPENBAO_ADDR/TOKEN/SECRET_PATH configured this is a
// no-op; an already-set BACKEND_NONCE is never overwritten.
func BootstrapFromOpenBao(ctx context.Context) error {
	c := clientFromEnv()
	if c == nil {
		return nil
	}
	if os.Getenv("BACKEND_NONCE") != "" {
		return nil
	}
	nonce, err := c.fetchNonce(ctx)
	if err != nil {
		return err
	}
	return os.Setenv("BACKEND_NONCE", nonce)
}

type client struct {
	url       string // full KV v2 data URL for the secret path
	token     string
	namespace string
	http      *http.Client
}

func clientFromEnv() *client {
	addr := strings.TrimRight(strings.TrimSpace(os.Getenv("OPENBAO_ADDR")), "/")
	token := os.Getenv("OPENBAO_TOKEN")
	path := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_SECRET_PATH")), "/")
	if addr == "" || token == "" || path == "" {
		return nil
	}
	mount := strings.Trim(os.Getenv("OPENBAO_MOUNT"), "/")
	if mount == "" {
		mount = "secret"
	}
	return &client{
		url:       fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path),
		token:     token,
		namespace: strings.TrimSpace(os.Getenv("OPENBAO_NAMESPACE")),
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) fetchNonce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build OpenBao request: %w", err)
	}
	req.Header.Set("X-Vault-Token", c.token)
	if c.namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.namespace)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call OpenBao: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrSecretNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openbao request failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode OpenBao response: %w", err)
	}

	for _, key := range nonceKeys {
		if s, ok := payload.Data.Data[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", ErrNonceMissing
}
