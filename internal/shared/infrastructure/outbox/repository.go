package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. Save must join the transaction in ctx
// so the message commits together with the state change that produced it.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// GetUnpublished returns due messages, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}
