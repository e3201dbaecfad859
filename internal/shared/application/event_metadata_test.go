package application

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMetadata(t *testing.T) {
	t.Run("keeps the given correlation ID", func(t *testing.T) {
		correlationID := uuid.New()

		metadata := NewEventMetadata(correlationID, "admin")

		assert.Equal(t, correlationID, metadata.CorrelationID)
		assert.Equal(t, "admin", metadata.Actor)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates a correlation ID when nil", func(t *testing.T) {
		metadata1 := NewEventMetadata(uuid.Nil, "worker")
		metadata2 := NewEventMetadata(uuid.Nil, "worker")

		assert.NotEqual(t, uuid.Nil, metadata1.CorrelationID)
		assert.NotEqual(t, metadata1.CorrelationID, metadata2.CorrelationID)
		assert.NotEqual(t, metadata1.CausationID, metadata2.CausationID)
	})
}

type testEvent struct {
	domain.BaseEvent
}

// nonSetterEvent is a domain event that doesn't implement SetMetadata.
type nonSetterEvent struct {
	eventID uuid.UUID
}

func (e nonSetterEvent) EventID() uuid.UUID              { return e.eventID }
func (e nonSetterEvent) AggregateID() uuid.UUID          { return uuid.Nil }
func (e nonSetterEvent) AggregateType() string           { return "test" }
func (e nonSetterEvent) RoutingKey() string              { return "test.event" }
func (e nonSetterEvent) OccurredAt() time.Time           { return time.Time{} }
func (e nonSetterEvent) Metadata() domain.EventMetadata { return domain.EventMetadata{} }

func TestApplyEventMetadata(t *testing.T) {
	t.Run("applies metadata to events with setter", func(t *testing.T) {
		event := &testEvent{
			BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.created"),
		}
		metadata := NewEventMetadata(uuid.New(), "admin")

		ApplyEventMetadata([]domain.DomainEvent{event}, metadata)

		assert.Equal(t, metadata.CorrelationID, event.Metadata().CorrelationID)
		assert.Equal(t, metadata.CausationID, event.Metadata().CausationID)
		assert.Equal(t, "admin", event.Metadata().Actor)
	})

	t.Run("skips events without setter", func(t *testing.T) {
		event := nonSetterEvent{eventID: uuid.New()}

		require.NotPanics(t, func() {
			ApplyEventMetadata([]domain.DomainEvent{event}, NewEventMetadata(uuid.Nil, "admin"))
		})
		assert.Equal(t, domain.EventMetadata{}, event.Metadata())
	})

	t.Run("handles nil event list", func(t *testing.T) {
		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, NewEventMetadata(uuid.Nil, "admin"))
		})
	})
}
