package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/eventline/pkg/observability"
)

type recordingPublisher struct {
	mu          sync.Mutex
	routingKeys []string
	failForKeys map[string]bool
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{failForKeys: make(map[string]bool)}
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("broker unavailable")
	}
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.routingKeys)
}

func newTestMessage(routingKey string) *outbox.Message {
	payload, _ := json.Marshal(map[string]string{"timeline_id": uuid.NewString()})
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "Timeline",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       payload,
		Metadata:      []byte(`{"correlation_id":"00000000-0000-0000-0000-000000000001","actor":"cli"}`),
		CreatedAt:     time.Now(),
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewInMemoryRepository()
	pub := newRecordingPublisher()
	metrics := observability.NewInMemoryMetrics()
	p := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), nil, metrics)

	require.NoError(t, repo.Save(ctx, newTestMessage("planning.timeline.recalculated")))
	require.NoError(t, repo.Save(ctx, newTestMessage("planning.timeline.recalculated")))

	require.NoError(t, p.ProcessOnce(ctx))

	assert.Equal(t, 2, pub.count())
	for _, msg := range repo.Messages() {
		assert.True(t, msg.IsPublished())
	}
	assert.Equal(t, uint64(2), p.GetStats().PublishedCount)
	assert.NotNil(t, p.GetStats().LastProcessedAt)
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricOutboxPublished,
		observability.T("routing_key", "planning.timeline.recalculated")))

	// published messages are not picked up again
	require.NoError(t, p.ProcessOnce(ctx))
	assert.Equal(t, 2, pub.count())
}

func TestProcessor_RetriesWithBackoff(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewInMemoryRepository()
	pub := newRecordingPublisher()
	pub.failForKeys["fails"] = true
	p := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), nil, nil)

	ok := newTestMessage("ok")
	bad := newTestMessage("fails")
	require.NoError(t, repo.Save(ctx, ok))
	require.NoError(t, repo.Save(ctx, bad))

	require.NoError(t, p.ProcessOnce(ctx))

	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 1, bad.RetryCount)
	require.NotNil(t, bad.LastError)
	assert.Equal(t, "broker unavailable", *bad.LastError)
	require.NotNil(t, bad.NextRetryAt)
	assert.True(t, bad.NextRetryAt.After(time.Now()))
	assert.False(t, bad.IsDead())

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.NotNil(t, stats.LastErrorAt)

	// not due yet
	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewInMemoryRepository()
	pub := newRecordingPublisher()
	pub.failForKeys["fails"] = true
	cfg := outbox.DefaultProcessorConfig()
	cfg.MaxRetries = 1
	p := outbox.NewProcessor(repo, pub, cfg, nil, nil)

	msg := newTestMessage("fails")
	require.NoError(t, repo.Save(ctx, msg))

	require.NoError(t, p.ProcessOnce(ctx))

	assert.True(t, msg.IsDead())
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, uint64(1), p.GetStats().DeadCount)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	pub := newRecordingPublisher()
	p := outbox.NewProcessor(repo, pub, outbox.ProcessorConfig{
		PollInterval: 5 * time.Millisecond,
		BatchSize:    10,
		MaxRetries:   3,
	}, nil, nil)

	p.Start(context.Background())
	p.Start(context.Background())
	assert.True(t, p.IsRunning())

	require.NoError(t, repo.Save(context.Background(), newTestMessage("planning.timeline.recalculated")))
	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())
	assert.False(t, p.GetStats().IsRunning)
}

func TestProcessor_Cleanup(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewInMemoryRepository()
	msg := newTestMessage("k")
	require.NoError(t, repo.Save(ctx, msg))
	old := time.Now().Add(-30 * 24 * time.Hour)
	msg.PublishedAt = &old

	p := outbox.NewProcessor(repo, newRecordingPublisher(), outbox.DefaultProcessorConfig(), nil, nil)
	deleted, err := p.Cleanup(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, repo.Messages())
}
