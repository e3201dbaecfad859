package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/eventline/internal/shared/domain"
	"github.com/google/uuid"
)

// Message is a domain event waiting in the outbox table to be published.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes event into an outbox message. The routing key doubles
// as the event type.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

func (m *Message) IsDead() bool {
	return m.DeadLetteredAt != nil
}

// CanRetry reports whether another publish attempt is allowed.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// due reports whether the message should be picked up at now.
func (m *Message) due(now time.Time) bool {
	if m.IsPublished() || m.IsDead() {
		return false
	}
	return m.NextRetryAt == nil || !m.NextRetryAt.After(now)
}
