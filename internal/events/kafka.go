package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Envelope is the standard event schema this service publishes.
// Keep it small and stable.
type Envelope struct {
	EventID      string    `json:"eventId"`
	EventType    string    `json:"eventType"`
	EventVersion string    `json:"eventVersion"`
	OccurredAt   time.Time `json:"occurredAt"`
	AggregateID  string    `json:"aggregateId"` // the order id
	Data         any       `json:"data"`
}

// Producer writes envelopes to Kafka. A Producer built without brokers is a
// no-op, so the service runs fine with eventing disabled.
type Producer struct{ w *kafka.Writer }

func NewProducerWithBrokers(brokers []string) *Producer {
	if len(brokers) == 0 {
		return &Producer{}
	}
	return &Producer{
		w: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Balancer: &kafka.Hash{}, // partition by Kafka message key
		}),
	}
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

// Publish writes a single message. 'key' is the partition key; use the
// order id so per-order events stay ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, evt Envelope) error {
	if p == nil || p.w == nil {
		return nil
	}
	if evt.EventID == "" {
		evt.EventID = uuid.New().String()
	}
	evt.OccurredAt = time.Now().UTC()
	if evt.EventVersion == "" {
		evt.EventVersion = "1"
	}
	val, _ := json.Marshal(evt)
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
	})
}
