package events

import (
	"context"
	"log"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/fulfillment"
)

// Event types published by the recorder.
const (
	EventActionSucceeded  = "ActionSucceeded"
	EventActionFailed     = "ActionFailed"
	EventTransportFailure = "TransportFailure"
)

// Recorder implements fulfillment.Recorder: action outcomes go to the
// fulfillment topic, transport faults to the diagnostics topic. Both are
// best-effort; a publish failure only logs.
type Recorder struct {
	prod             *Producer
	fulfillmentTopic string
	diagnosticsTopic string
	logger           *log.Logger
}

func NewRecorder(prod *Producer, fulfillmentTopic, diagnosticsTopic string, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		prod:             prod,
		fulfillmentTopic: fulfillmentTopic,
		diagnosticsTopic: diagnosticsTopic,
		logger:           logger,
	}
}

func (r *Recorder) Outcome(ctx context.Context, kind fulfillment.Kind, orderID string, res fulfillment.Result) {
	eventType := EventActionSucceeded
	data := map[string]any{"kind": string(kind), "orderId": orderID}
	if !res.OK {
		eventType = EventActionFailed
		data["message"] = res.Message
	}
	evt := Envelope{EventType: eventType, AggregateID: orderID, Data: data}
	if err := r.prod.Publish(ctx, r.fulfillmentTopic, orderID, evt); err != nil {
		r.logger.Printf("[events] publish %s failed: %v", eventType, err)
	}
}

// TransportFailure is the diagnostic entry the error taxonomy calls for:
// one log line plus one event per fault.
func (r *Recorder) TransportFailure(ctx context.Context, kind fulfillment.Kind, orderID string, cause error) {
	r.logger.Printf("[diagnostics] transport failure kind=%s order=%s: %v", kind, orderID, cause)
	evt := Envelope{
		EventType:   EventTransportFailure,
		AggregateID: orderID,
		Data: map[string]any{
			"kind":    string(kind),
			"orderId": orderID,
			"error":   cause.Error(),
		},
	}
	if err := r.prod.Publish(ctx, r.diagnosticsTopic, orderID, evt); err != nil {
		r.logger.Printf("[events] publish %s failed: %v", EventTransportFailure, err)
	}
}
