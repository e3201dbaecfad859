package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. It backs tests and fixture runs
// that need no database, and it does not take part in units of work.
type MemoryStore struct {
	mu        sync.RWMutex
	timelines map[uuid.UUID]domain.Timeline
	blocks    map[uuid.UUID]domain.Block
	tasks     map[uuid.UUID]domain.Task
	audit     []domain.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		timelines: make(map[uuid.UUID]domain.Timeline),
		blocks:    make(map[uuid.UUID]domain.Block),
		tasks:     make(map[uuid.UUID]domain.Task),
	}
}

func (s *MemoryStore) Import(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[snap.Timeline.ID] = snap.Timeline
	for _, b := range snap.Blocks {
		s.blocks[b.ID] = b
	}
	for _, t := range snap.Tasks {
		t.DependsOn = append([]uuid.UUID(nil), t.DependsOn...)
		s.tasks[t.ID] = t
	}
	return nil
}

// DeleteTask removes a task, as an external edit between load and write would.
func (s *MemoryStore) DeleteTask(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// Block returns a copy of the stored block.
func (s *MemoryStore) Block(id uuid.UUID) (domain.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	return b, ok
}

// Task returns a copy of the stored task.
func (s *MemoryStore) Task(id uuid.UUID) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// AuditEntries returns all entries in insertion order.
func (s *MemoryStore) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

func (s *MemoryStore) FindTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.timelines[id]
	if !ok {
		return nil, nil
	}
	return &tl, nil
}

func (s *MemoryStore) FindBlocks(ctx context.Context, timelineID uuid.UUID) ([]domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Block
	for _, b := range s.blocks {
		if b.TimelineID == timelineID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) FindTasks(ctx context.Context, timelineID uuid.UUID) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.TimelineID == timelineID {
			t.DependsOn = append([]uuid.UUID(nil), t.DependsOn...)
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := s.blocks[out[i].BlockID].Order, s.blocks[out[j].BlockID].Order
		if bi != bj {
			return bi < bj
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ListUpcoming(ctx context.Context, from time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from = domain.Day(from)
	var upcoming []domain.Timeline
	for _, tl := range s.timelines {
		if !domain.Day(tl.Event.Date).Before(from) {
			upcoming = append(upcoming, tl)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].Event.Date.Equal(upcoming[j].Event.Date) {
			return upcoming[i].Event.Date.Before(upcoming[j].Event.Date)
		}
		return upcoming[i].ID.String() < upcoming[j].ID.String()
	})
	ids := make([]uuid.UUID, len(upcoming))
	for i, tl := range upcoming {
		ids[i] = tl.ID
	}
	return ids, nil
}

func (s *MemoryStore) UpdateBlockDates(ctx context.Context, blockID uuid.UUID, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[blockID]
	if !ok {
		return domain.ErrRecordGone
	}
	start, end = domain.Day(start), domain.Day(end)
	b.StartDate, b.EndDate = &start, &end
	s.blocks[blockID] = b
	return nil
}

func (s *MemoryStore) UpdateTaskDueDate(ctx context.Context, taskID uuid.UUID, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrRecordGone
	}
	due = domain.Day(due)
	t.DueDate = &due
	s.tasks[taskID] = t
	return nil
}

func (s *MemoryStore) UpdateCalibration(ctx context.Context, timelineID uuid.UUID, scaleFactor float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl, ok := s.timelines[timelineID]
	if !ok {
		return domain.ErrRecordGone
	}
	tl.ScaleFactor = scaleFactor
	tl.LastRecalculatedAt = &at
	s.timelines[timelineID] = tl
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, entry)
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context, timelineID uuid.UUID, action string) (*domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.audit) - 1; i >= 0; i-- {
		if e := s.audit[i]; e.TimelineID == timelineID && e.Action == action {
			return &e, nil
		}
	}
	return nil, nil
}
