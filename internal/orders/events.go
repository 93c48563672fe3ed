package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const EventValidateOrder = "ValidateOrder"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ValidateOrderPayload carries only the order id; the worker reloads everything else under lock.
type ValidateOrderPayload struct {
	OrderID string `json:"order_id"`
}

func NewValidateOrderEnvelope(producer, orderID string) (Envelope, error) {
	payload, err := json.Marshal(ValidateOrderPayload{OrderID: orderID})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventValidateOrder,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       payload,
	}, nil
}

// DecodeValidateOrder extracts the order id from a raw envelope.
func DecodeValidateOrder(b []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != EventValidateOrder {
		return "", fmt.Errorf("unexpected event type %q", env.EventType)
	}
	var p ValidateOrderPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if p.OrderID == "" {
		return "", fmt.Errorf("payload without order_id")
	}
	return p.OrderID, nil
}
