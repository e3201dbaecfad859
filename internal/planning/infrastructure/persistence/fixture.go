package persistence

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Snapshot is a complete timeline as written by Import.
type Snapshot struct {
	Timeline domain.Timeline
	Blocks   []domain.Block
	Tasks    []domain.Task
}

type fixtureFile struct {
	Event struct {
		Name string `yaml:"name"`
		Date string `yaml:"date"`
	} `yaml:"event"`
	Timeline struct {
		Title string `yaml:"title"`
	} `yaml:"timeline"`
	Blocks []struct {
		Key   string        `yaml:"key"`
		Title string        `yaml:"title"`
		Tasks []fixtureTask `yaml:"tasks"`
	} `yaml:"blocks"`
}

type fixtureTask struct {
	Ref       string   `yaml:"ref"`
	Title     string   `yaml:"title"`
	Weight    *int     `yaml:"weight"`
	Skeleton  bool     `yaml:"skeleton"`
	Locked    bool     `yaml:"locked"`
	Done      bool     `yaml:"done"`
	Due       string   `yaml:"due"`
	DependsOn []string `yaml:"depends_on"`
}

// LoadFixture reads a YAML timeline description:
//
//	event: {name: Wedding, date: 2027-06-12}
//	timeline: {title: Wedding plan}
//	blocks:
//	  - key: 12m
//	    tasks:
//	      - {ref: budget, title: Set budget, skeleton: true, weight: 5}
//	      - {title: Book venue, depends_on: [budget]}
//
// Fresh IDs are generated; refs are only used to resolve depends_on.
func LoadFixture(r io.Reader) (*Snapshot, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	date, err := domain.ParseDate(f.Event.Date)
	if err != nil {
		return nil, fmt.Errorf("event date: %w", err)
	}

	snap := &Snapshot{Timeline: domain.Timeline{
		ID:          uuid.New(),
		Title:       f.Timeline.Title,
		ScaleFactor: 1,
		Event:       domain.Event{ID: uuid.New(), Name: f.Event.Name, Date: date},
	}}
	snap.Timeline.EventID = snap.Timeline.Event.ID

	refs := make(map[string]uuid.UUID)
	pending := make(map[int][]string)
	for i, fb := range f.Blocks {
		if strings.TrimSpace(fb.Key) == "" {
			return nil, fmt.Errorf("block %d: key is required", i+1)
		}
		block := domain.Block{
			ID:         uuid.New(),
			TimelineID: snap.Timeline.ID,
			Key:        fb.Key,
			Title:      fb.Title,
			Order:      i + 1,
		}
		snap.Blocks = append(snap.Blocks, block)

		for j, ft := range fb.Tasks {
			task := domain.Task{
				ID:         uuid.New(),
				TimelineID: snap.Timeline.ID,
				BlockID:    block.ID,
				Title:      ft.Title,
				Weight:     1,
				IsSkeleton: ft.Skeleton,
				Locked:     ft.Locked,
				Done:       ft.Done,
				Order:      j + 1,
			}
			if ft.Weight != nil {
				task.Weight = *ft.Weight
			}
			if ft.Due != "" {
				due, err := domain.ParseDate(ft.Due)
				if err != nil {
					return nil, fmt.Errorf("task %q: %w", ft.Title, err)
				}
				task.DueDate = &due
			}
			if ft.Ref != "" {
				if _, dup := refs[ft.Ref]; dup {
					return nil, fmt.Errorf("duplicate task ref %q", ft.Ref)
				}
				refs[ft.Ref] = task.ID
			}
			if len(ft.DependsOn) > 0 {
				pending[len(snap.Tasks)] = ft.DependsOn
			}
			snap.Tasks = append(snap.Tasks, task)
		}
	}

	for idx, names := range pending {
		for _, name := range names {
			id, ok := refs[name]
			if !ok {
				return nil, fmt.Errorf("task %q depends on unknown ref %q", snap.Tasks[idx].Title, name)
			}
			snap.Tasks[idx].DependsOn = append(snap.Tasks[idx].DependsOn, id)
		}
	}
	return snap, nil
}
