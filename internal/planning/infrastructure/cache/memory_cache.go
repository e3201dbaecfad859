package cache

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// MemorySummaryCache is used when no Redis URL is configured.
type MemorySummaryCache struct {
	mu        sync.RWMutex
	summaries map[uuid.UUID]domain.Summary
}

func NewMemorySummaryCache() *MemorySummaryCache {
	return &MemorySummaryCache{summaries: make(map[uuid.UUID]domain.Summary)}
}

func (c *MemorySummaryCache) Get(ctx context.Context, timelineID uuid.UUID) (*domain.Summary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.summaries[timelineID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *MemorySummaryCache) Put(ctx context.Context, summary domain.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[summary.TimelineID] = summary
	return nil
}
