package timeline

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the timeline command group
var Cmd = &cobra.Command{
	Use:     "timeline",
	Short:   "Recalculate and inspect planning timelines",
	Aliases: []string{"tl"},
}

var (
	today        string
	distribution string
	respectLocks bool
	outputJSON   bool
)

func init() {
	Cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	Cmd.AddCommand(recalcCmd)
	Cmd.AddCommand(previewCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(importCmd)
	Cmd.AddCommand(sweepCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&today, "today", "", "plan as of this date (YYYY-MM-DD), defaults to the current date")
	cmd.Flags().StringVar(&distribution, "distribution", "frontload", "task spreading strategy: frontload, balanced or even")
	cmd.Flags().BoolVar(&respectLocks, "respect-locks", true, "keep locked tasks on their stored due date")
}

func runOptions() (domain.Options, time.Time, error) {
	opts := domain.Options{
		RespectLocks: respectLocks,
		Distribution: domain.Distribution(distribution),
	}
	day, err := parseToday()
	return opts, day, err
}

func parseToday() (time.Time, error) {
	if today == "" {
		return time.Time{}, nil
	}
	day, err := domain.ParseDate(today)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today format, use YYYY-MM-DD: %w", err)
	}
	return day, nil
}

func parseTimelineID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid timeline id %q", arg)
	}
	return id, nil
}
