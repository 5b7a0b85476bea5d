package present

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// VoiceWebhook forwards rendered text to a speech gateway that synthesizes
// it for the voice surface. Delivery is accepted only on a 2xx reply, so the
// presenter can fall through when the gateway is down.
type VoiceWebhook struct {
	url    string
	client *http.Client
	logger *log.Logger
}

func NewVoiceWebhook(url string, logger *log.Logger) *VoiceWebhook {
	if logger == nil {
		logger = log.Default()
	}
	return &VoiceWebhook{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

func (v *VoiceWebhook) Name() string { return "voice" }

func (v *VoiceWebhook) TryDeliver(sessionID, text, role string) bool {
	payload := map[string]string{
		"session_id": sessionID,
		"text":       text,
		"role":       role,
	}
	b, _ := json.Marshal(payload)
	resp, err := v.client.Post(v.url, "application/json", bytes.NewReader(b))
	if err != nil {
		v.logger.Printf("[present] voice webhook error session=%s: %v", sessionID, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.logger.Printf("[present] voice webhook status %d session=%s", resp.StatusCode, sessionID)
		return false
	}
	return true
}
