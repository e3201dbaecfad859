package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// Floors applied to windows that would start or end before today.
const (
	startFloorDays = 2
	endFloorDays   = 3
)

// BlockWindow is the recalculated date range of one block.
type BlockWindow struct {
	BlockID uuid.UUID
	Key     string
	Offsets Offsets
	Start   time.Time
	End     time.Time
}

// Days is the window length in calendar days.
func (w BlockWindow) Days() int {
	return domain.DaysBetween(w.Start, w.End)
}

// BlockSchedule is the scheduler output in block order. Blocks whose key
// could not be resolved are absent from Windows and listed in Skipped.
type BlockSchedule struct {
	Windows     []BlockWindow
	Skipped     []uuid.UUID
	Diagnostics []domain.Diagnostic
}

// BlockScheduler turns canonical offsets into concrete block windows.
type BlockScheduler struct {
	resolver  *BlockResolver
	weekStart time.Weekday
}

// NewBlockScheduler creates a scheduler that snaps dates to weekStart.
func NewBlockScheduler(resolver *BlockResolver, weekStart time.Weekday) *BlockScheduler {
	if resolver == nil {
		resolver = NewBlockResolver()
	}
	return &BlockScheduler{resolver: resolver, weekStart: weekStart}
}

// Schedule computes windows for blocks in their Order. Each window is scaled
// from its canonical offsets, snapped to the week start, kept between today
// and the day before the event, given at least one day, and pushed so it
// never starts before the previous window ends.
func (s *BlockScheduler) Schedule(eventDate time.Time, blocks []domain.Block, scale float64, today time.Time) BlockSchedule {
	eventDate = domain.Day(eventDate)
	today = domain.Day(today)

	ordered := make([]domain.Block, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var (
		out     BlockSchedule
		prevEnd time.Time
	)
	for _, b := range ordered {
		offsets, ok := s.resolver.Resolve(b.Key)
		if !ok {
			out.Skipped = append(out.Skipped, b.ID)
			out.Diagnostics = append(out.Diagnostics, domain.NewDiagnostic(
				domain.DiagnosticBlockSkipped, b.ID,
				fmt.Sprintf("block key %q matches no canonical range", b.Key),
			))
			continue
		}

		start := domain.StartOfWeek(domain.SubtractMonths(eventDate, offsets.StartMonths*scale), s.weekStart)
		end := domain.StartOfWeek(domain.SubtractMonths(eventDate, offsets.EndMonths*scale), s.weekStart)

		if start.Before(today) {
			start = domain.AddDays(today, startFloorDays)
		}
		if end.Before(today) {
			end = domain.AddDays(today, endFloorDays)
		}
		if end.After(eventDate) {
			end = domain.AddDays(eventDate, -1)
		}
		if !start.Before(end) {
			end = domain.AddDays(start, 1)
		}
		if len(out.Windows) > 0 && start.Before(prevEnd) {
			start = prevEnd
			if !start.Before(end) {
				end = domain.AddDays(start, 1)
			}
		}

		out.Windows = append(out.Windows, BlockWindow{
			BlockID: b.ID,
			Key:     b.Key,
			Offsets: offsets,
			Start:   start,
			End:     end,
		})
		prevEnd = end
	}
	return out
}
