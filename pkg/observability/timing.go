package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one run of a named operation. On stop it records
// "<name>.duration", "<name>.total" and, on error, "<name>.failed".
type Timer struct {
	name    string
	start   time.Time
	logger  *slog.Logger
	metrics Metrics
	tags    []Tag
}

// StartTimer starts timing name.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records a successful run.
func (t *Timer) Stop(ctx context.Context) time.Duration {
	return t.StopWithError(ctx, nil)
}

// StopWithError records the run, counting it as failed when err is non-nil.
func (t *Timer) StopWithError(ctx context.Context, err error) time.Duration {
	duration := time.Since(t.start)

	if t.logger != nil {
		if err != nil {
			t.logger.ErrorContext(ctx, "operation failed",
				"operation", t.name,
				DurationKey, duration.Milliseconds(),
				"error", err,
			)
		} else {
			t.logger.InfoContext(ctx, "operation completed",
				"operation", t.name,
				DurationKey, duration.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		t.metrics.Timing(t.name+".duration", duration, t.tags...)
		t.metrics.Counter(t.name+".total", 1, t.tags...)
		if err != nil {
			t.metrics.Counter(t.name+".failed", 1, t.tags...)
		}
	}

	return duration
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// TimeOperationResult times fn under name.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, name string, fn func() (T, error)) (T, error) {
	timer := StartTimer(name).WithLogger(logger).WithMetrics(metrics)
	result, err := fn()
	timer.StopWithError(ctx, err)
	return result, err
}
