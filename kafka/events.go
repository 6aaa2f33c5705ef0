package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
)

// TopicFulfillmentEvents carries every post-commit fulfillment event.
const TopicFulfillmentEvents = "fulfillment-events"

// Message headers.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// Envelope is the wire form of a domain event. Payload stays raw so that
// consumers decode only the types they handle.
type Envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Encode marshals an event into its envelope.
func Encode(e domain.Event) ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	return json.Marshal(Envelope{
		EventID:     e.ID,
		EventType:   e.Type,
		AggregateID: e.AggregateID,
		OccurredAt:  e.OccurredAt,
		Payload:     payload,
	})
}

// Decode parses an envelope.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return env, nil
}

// DecodePayload unmarshals the payload into v.
func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.EventType, err)
	}
	return nil
}
