package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/email"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/events"
)

func main() {
	_ = godotenv.Load()
	log.Println("Diagnostics worker starting...")
	startConsumer()
}

func startConsumer() {
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     strings.Split(brokers, ","),
		GroupTopics: []string{getenv("KAFKA_DIAGNOSTICS_TOPIC", "diagnostics.v1"), getenv("KAFKA_FULFILLMENT_TOPIC", "fulfillment.v1")},
		GroupID:     getenv("KAFKA_DIAGNOSTICS_GROUP_ID", "diag-workers"),
		MinBytes:    1e3, MaxBytes: 10e6,
	})
	defer reader.Close()

	sender := pickSender()
	log.Printf("[diag-worker] consuming (group=%s)", getenv("KAFKA_DIAGNOSTICS_GROUP_ID", "diag-workers"))
	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("[diag-worker] read error: %v", err)
			return
		}

		var evt events.Envelope
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.Printf("[diag-worker] bad json: %v; payload=%s", err, string(msg.Value))
			continue
		}

		switch evt.EventType {
		case events.EventTransportFailure:
			handleTransportFailure(sender, evt)
		case events.EventActionFailed:
			handleActionFailed(sender, evt)
		default:
			// successes need no alert
		}
	}
}

func handleTransportFailure(sender email.Sender, evt events.Envelope) {
	data := toMap(evt.Data)
	kind := toString(data["kind"])
	orderID := toString(data["orderId"])
	errText := toString(data["error"])
	to := getenv("ALERTS_TO_EMAIL", "ops@example.local")

	body := email.RenderTransportFailureAlert(kind, orderID, errText)
	if err := sender.Send(to, "Fulfillment backend unreachable", body); err != nil {
		log.Printf("[diag-worker] send failed: %v", err)
		return
	}

	log.Printf("[diag-worker] sent TransportFailure alert to=%s kind=%s order=%s", to, kind, orderID)
}

func handleActionFailed(sender email.Sender, evt events.Envelope) {
	data := toMap(evt.Data)
	kind := toString(data["kind"])
	orderID := toString(data["orderId"])
	message := toString(data["message"])
	to := getenv("ALERTS_TO_EMAIL", "ops@example.local")

	body := email.RenderActionFailedAlert(kind, orderID, message)
	if err := sender.Send(to, "Fulfillment action rejected", body); err != nil {
		log.Printf("[diag-worker] send failed: %v", err)
		return
	}

	log.Printf("[diag-worker] sent ActionFailed alert to=%s kind=%s order=%s", to, kind, orderID)
}

func pickSender() email.Sender {
	// Use SMTP if configured; else fallback to log
	if os.Getenv("SMTP_HOST") != "" || os.Getenv("SMTP_PORT") != "" {
		return email.NewSMTPSender()
	}
	return email.LogSender{}
}

// helpers
func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func toMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
