package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(aggregateID, "Timeline", "planning.timeline.recalculated")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Timeline", event.AggregateType())
	assert.Equal(t, "planning.timeline.recalculated", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	correlationID := uuid.New()
	causationID := uuid.New()

	event := domain.NewBaseEvent(uuid.New(), "Timeline", "planning.timeline.recalculated")
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
		Actor:         "worker",
	})

	metadata := event.Metadata()
	assert.Equal(t, correlationID, metadata.CorrelationID)
	assert.Equal(t, causationID, metadata.CausationID)
	assert.Equal(t, "worker", metadata.Actor)
}

func TestBaseEvent_UniqueIDs(t *testing.T) {
	aggregateID := uuid.New()

	first := domain.NewBaseEvent(aggregateID, "Timeline", "planning.timeline.recalculated")
	second := domain.NewBaseEvent(aggregateID, "Timeline", "planning.timeline.recalculated")

	assert.NotEqual(t, first.EventID(), second.EventID())
}
