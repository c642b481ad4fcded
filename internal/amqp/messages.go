package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// TransactionEventMessage announces that a transaction changed. It carries
// only identifiers; the worker loads the current row from the database.
type TransactionEventMessage struct {
	EventID       string           `json:"eventId"`
	Action        core.EventAction `json:"action"`
	TransactionID string           `json:"transactionId"`
	UserID        string           `json:"userId"`
	OccurredAt    time.Time        `json:"occurredAt"`
	Timestamp     time.Time        `json:"timestamp"`
}

// NewTransactionEventMessage builds the wire message for a recorded event.
func NewTransactionEventMessage(e core.TransactionEvent) *TransactionEventMessage {
	return &TransactionEventMessage{
		EventID:       e.ID,
		Action:        e.Action,
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		OccurredAt:    e.OccurredAt,
		Timestamp:     time.Now(),
	}
}

// Event converts the message back to the domain event.
func (m *TransactionEventMessage) Event() core.TransactionEvent {
	return core.TransactionEvent{
		ID:            m.EventID,
		Action:        m.Action,
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		OccurredAt:    m.OccurredAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes a message body.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
