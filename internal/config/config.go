package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	postgres "github.com/ConvoCart/Conversational-Order-Assistant/internal/storage/postgres"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	Backend     BackendConfig
	Kafka       KafkaConfig
	Database    postgres.DatabaseConfig
	Voice       VoiceConfig
	Alerts      AlertConfig
}

type HTTPConfig struct {
	Addr string
}

// BackendConfig points at the single commerce endpoint every action is
// submitted to. The nonce is the shared auth token stamped onto each
// submission; it may be exported into env by the OpenBao bootstrap.
type BackendConfig struct {
	Endpoint       string
	Nonce          string
	TimeoutSeconds int
}

type KafkaConfig struct {
	Brokers          []string
	FulfillmentTopic string
	DiagnosticsTopic string
	DiagnosticsGroup string
}

type VoiceConfig struct {
	WebhookURL string
}

type AlertConfig struct {
	Recipient string
}

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "conversational-order-assistant"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":3000"),
		},
		Backend: BackendConfig{
			Endpoint: getEnv("BACKEND_ENDPOINT", "http://localhost:8080/fulfillment"),
			Nonce:    getEnv("BACKEND_NONCE", ""),
		},
		Kafka: KafkaConfig{
			Brokers:          splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			FulfillmentTopic: getEnv("KAFKA_FULFILLMENT_TOPIC", "fulfillment.v1"),
			DiagnosticsTopic: getEnv("KAFKA_DIAGNOSTICS_TOPIC", "diagnostics.v1"),
			DiagnosticsGroup: getEnv("KAFKA_DIAGNOSTICS_GROUP_ID", "diag-workers"),
		},
		Voice: VoiceConfig{
			WebhookURL: getEnv("VOICE_WEBHOOK_URL", ""),
		},
		Alerts: AlertConfig{
			Recipient: getEnv("ALERTS_TO_EMAIL", "ops@example.local"),
		},
	}

	timeoutStr := getEnv("BACKEND_TIMEOUT_SECONDS", "15")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_TIMEOUT_SECONDS: %w", err)
	}
	cfg.Backend.TimeoutSeconds = timeout

	portStr := getEnv("SESSION_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_DB_PORT: %w", err)
	}
	cfg.Database = postgres.DatabaseConfig{
		Host:     getEnv("SESSION_DB_HOST", ""),
		Port:     port,
		Database: getEnv("SESSION_DB_NAME", "orderassistant"),
		User:     getEnv("SESSION_DB_USER", "orderassistant"),
		Password: getEnv("SESSION_DB_PASSWORD", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
