// Package persistence stores timelines, blocks, tasks and audit entries.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLStore implements the planning repositories over either driver.
type SQLStore struct {
	conn database.Connection
}

// NewSQLStore creates a store over conn.
func NewSQLStore(conn database.Connection) *SQLStore {
	return &SQLStore{conn: conn}
}

func (s *SQLStore) FindTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	var (
		tl                  domain.Timeline
		timelineID, eventID string
		eventDate           string
		lastRecalculated    sql.NullString
	)
	exec := database.ExecutorFromContext(ctx, s.conn)
	err := exec.QueryRow(ctx, `
		SELECT t.id, t.event_id, t.title, t.scale_factor, t.last_recalculated_at, e.name, e.event_date
		FROM timelines t
		JOIN events e ON e.id = t.event_id
		WHERE t.id = ?`, id.String(),
	).Scan(&timelineID, &eventID, &tl.Title, &tl.ScaleFactor, &lastRecalculated, &tl.Event.Name, &eventDate)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if tl.ID, err = uuid.Parse(timelineID); err != nil {
		return nil, fmt.Errorf("timeline id: %w", err)
	}
	if tl.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("timeline %s: event id: %w", tl.ID, err)
	}
	tl.Event.ID = tl.EventID
	if tl.Event.Date, err = domain.ParseDate(eventDate); err != nil {
		return nil, fmt.Errorf("event %s: %w", tl.EventID, err)
	}
	if tl.LastRecalculatedAt, err = database.ParseNullTimestamp(lastRecalculated); err != nil {
		return nil, err
	}
	return &tl, nil
}

func (s *SQLStore) FindBlocks(ctx context.Context, timelineID uuid.UUID) ([]domain.Block, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, block_key, title, position, start_date, end_date
		FROM blocks
		WHERE timeline_id = ?
		ORDER BY position, id`, timelineID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var blocks []domain.Block
	for rows.Next() {
		var (
			b          domain.Block
			id         string
			start, end sql.NullString
		)
		if err := rows.Scan(&id, &b.Key, &b.Title, &b.Order, &start, &end); err != nil {
			return nil, err
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("block id: %w", err)
		}
		b.TimelineID = timelineID
		if b.StartDate, err = parseNullDate(start); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		if b.EndDate, err = parseNullDate(end); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// FindTasks reads the tasks in block order, then their dependencies. The
// first result set is drained before the second query so the single sqlite
// connection is free again.
func (s *SQLStore) FindTasks(ctx context.Context, timelineID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.findTasks(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	deps, err := s.findDependencies(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].DependsOn = deps[tasks[i].ID]
	}
	return tasks, nil
}

func (s *SQLStore) findTasks(ctx context.Context, timelineID uuid.UUID) ([]domain.Task, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, `
		SELECT t.id, t.block_id, t.title, t.weight, t.is_skeleton, t.locked, t.done, t.done_at, t.due_date, t.position
		FROM tasks t
		JOIN blocks b ON b.id = t.block_id
		WHERE t.timeline_id = ?
		ORDER BY b.position, t.position, t.id`, timelineID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t           domain.Task
			id, blockID string
			doneAt, due sql.NullString
		)
		err := rows.Scan(&id, &blockID, &t.Title, &t.Weight, &t.IsSkeleton, &t.Locked, &t.Done, &doneAt, &due, &t.Order)
		if err != nil {
			return nil, err
		}
		if t.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("task id: %w", err)
		}
		if t.BlockID, err = uuid.Parse(blockID); err != nil {
			return nil, fmt.Errorf("task %s: block id: %w", t.ID, err)
		}
		t.TimelineID = timelineID
		if t.DoneAt, err = database.ParseNullTimestamp(doneAt); err != nil {
			return nil, err
		}
		if t.DueDate, err = parseNullDate(due); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLStore) findDependencies(ctx context.Context, timelineID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, `
		SELECT d.task_id, d.depends_on_task_id
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.timeline_id = ?
		ORDER BY d.task_id, d.depends_on_task_id`, timelineID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	deps := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var taskID, dependsOn string
		if err := rows.Scan(&taskID, &dependsOn); err != nil {
			return nil, err
		}
		from, err := uuid.Parse(taskID)
		if err != nil {
			return nil, fmt.Errorf("dependency task id: %w", err)
		}
		to, err := uuid.Parse(dependsOn)
		if err != nil {
			return nil, fmt.Errorf("dependency of %s: %w", from, err)
		}
		deps[from] = append(deps[from], to)
	}
	return deps, rows.Err()
}

func (s *SQLStore) ListUpcoming(ctx context.Context, from time.Time) ([]uuid.UUID, error) {
	exec := database.ExecutorFromContext(ctx, s.conn)
	rows, err := exec.Query(ctx, `
		SELECT t.id
		FROM timelines t
		JOIN events e ON e.id = t.event_id
		WHERE e.event_date >= ?
		ORDER BY e.event_date, t.id`, domain.FormatDate(from))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("timeline id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) UpdateBlockDates(ctx context.Context, blockID uuid.UUID, start, end time.Time) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	return recordGone(database.RequireAffected(exec.Exec(ctx,
		`UPDATE blocks SET start_date = ?, end_date = ? WHERE id = ?`,
		domain.FormatDate(start), domain.FormatDate(end), blockID.String())))
}

func (s *SQLStore) UpdateTaskDueDate(ctx context.Context, taskID uuid.UUID, due time.Time) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	return recordGone(database.RequireAffected(exec.Exec(ctx,
		`UPDATE tasks SET due_date = ? WHERE id = ?`,
		domain.FormatDate(due), taskID.String())))
}

func (s *SQLStore) UpdateCalibration(ctx context.Context, timelineID uuid.UUID, scaleFactor float64, at time.Time) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	return recordGone(database.RequireAffected(exec.Exec(ctx,
		`UPDATE timelines SET scale_factor = ?, last_recalculated_at = ? WHERE id = ?`,
		scaleFactor, database.FormatTimestamp(at), timelineID.String())))
}

func (s *SQLStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details := string(entry.Details)
	if details == "" {
		details = "{}"
	}

	exec := database.ExecutorFromContext(ctx, s.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO audit_entries (id, timeline_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.TimelineID.String(), entry.Action, details, database.FormatTimestamp(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Latest(ctx context.Context, timelineID uuid.UUID, action string) (*domain.AuditEntry, error) {
	var (
		entry                domain.AuditEntry
		id, details, created string
	)
	exec := database.ExecutorFromContext(ctx, s.conn)
	err := exec.QueryRow(ctx, `
		SELECT id, action, details, created_at
		FROM audit_entries
		WHERE timeline_id = ? AND action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, timelineID.String(), action,
	).Scan(&id, &entry.Action, &details, &created)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("audit entry id: %w", err)
	}
	entry.TimelineID = timelineID
	entry.Details = []byte(details)
	if entry.CreatedAt, err = database.ParseTimestamp(created); err != nil {
		return nil, err
	}
	return &entry, nil
}

func recordGone(err error) error {
	if errors.Is(err, database.ErrNoRowsAffected) {
		return domain.ErrRecordGone
	}
	return err
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: domain.FormatDate(*t), Valid: true}
}

// Import inserts the snapshot's event, timeline, blocks, tasks and
// dependencies. Run it inside a unit of work to make it atomic.
func (s *SQLStore) Import(ctx context.Context, snap *Snapshot) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	tl := snap.Timeline

	if _, err := exec.Exec(ctx,
		`INSERT INTO events (id, name, event_date) VALUES (?, ?, ?)`,
		tl.Event.ID.String(), tl.Event.Name, domain.FormatDate(tl.Event.Date)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if _, err := exec.Exec(ctx,
		`INSERT INTO timelines (id, event_id, title, scale_factor, last_recalculated_at) VALUES (?, ?, ?, ?, ?)`,
		tl.ID.String(), tl.Event.ID.String(), tl.Title, tl.ScaleFactor, database.NullTimestamp(tl.LastRecalculatedAt)); err != nil {
		return fmt.Errorf("insert timeline: %w", err)
	}

	for _, b := range snap.Blocks {
		if _, err := exec.Exec(ctx,
			`INSERT INTO blocks (id, timeline_id, block_key, title, position, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID.String(), tl.ID.String(), b.Key, b.Title, b.Order, nullDate(b.StartDate), nullDate(b.EndDate)); err != nil {
			return fmt.Errorf("insert block %s: %w", b.Key, err)
		}
	}

	for _, t := range snap.Tasks {
		if _, err := exec.Exec(ctx, `
			INSERT INTO tasks (id, timeline_id, block_id, title, weight, is_skeleton, locked, done, done_at, due_date, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), tl.ID.String(), t.BlockID.String(), t.Title, t.Weight, t.IsSkeleton, t.Locked, t.Done,
			database.NullTimestamp(t.DoneAt), nullDate(t.DueDate), t.Order); err != nil {
			return fmt.Errorf("insert task %q: %w", t.Title, err)
		}
	}
	for _, t := range snap.Tasks {
		for _, dep := range t.DependsOn {
			if _, err := exec.Exec(ctx,
				`INSERT INTO task_dependencies (task_id, depends_on_task_id) VALUES (?, ?)`,
				t.ID.String(), dep.String()); err != nil {
				return fmt.Errorf("insert dependency of %q: %w", t.Title, err)
			}
		}
	}
	return nil
}
