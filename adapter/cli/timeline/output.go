package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
)

func printResult(w io.Writer, res *domain.Result) error {
	if outputJSON {
		return json.NewEncoder(w).Encode(res)
	}

	state := "preview, not saved"
	if res.Persisted {
		state = "saved"
	}
	locks := "locks respected"
	if !res.RespectLocks {
		locks = "locks ignored"
	}

	fmt.Fprintf(w, "Timeline %s (%s)\n", res.TimelineID, state)
	fmt.Fprintf(w, "Lead time: %d months, scale %.2f, %s, %s\n",
		res.LeadTimeMonths, res.ScaleFactor, res.Distribution, locks)
	if !res.Converged {
		fmt.Fprintf(w, "Dependencies did not settle after %d passes\n", res.Passes)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))

	fmt.Fprintf(w, "Blocks (%d):\n", len(res.Blocks))
	for _, b := range res.Blocks {
		fmt.Fprintf(w, "  %s  %s .. %s\n", b.ID, b.StartDate, b.EndDate)
	}
	fmt.Fprintf(w, "Tasks (%d):\n", len(res.Tasks))
	for _, t := range res.Tasks {
		fmt.Fprintf(w, "  %s  due %s\n", t.ID, t.DueDate)
	}

	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "Diagnostics (%d):\n", len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  [%s] %s\n", d.Kind, d.Message)
		}
	}
	return nil
}

func printSummary(w io.Writer, s *domain.Summary) error {
	if outputJSON {
		return json.NewEncoder(w).Encode(s)
	}

	fmt.Fprintf(w, "Timeline %s\n", s.TimelineID)
	fmt.Fprintf(w, "  Recalculated: %s (as of %s)\n", s.RecalculatedAt.Format("2006-01-02 15:04"), s.Today)
	fmt.Fprintf(w, "  Distribution: %s, respect locks: %t\n", s.Distribution, s.RespectLocks)
	fmt.Fprintf(w, "  Lead time:    %d months, scale %.2f\n", s.LeadTimeMonths, s.ScaleFactor)
	fmt.Fprintf(w, "  Updated:      %d blocks, %d tasks (%d blocks skipped)\n", s.Blocks, s.Tasks, s.SkippedBlocks)
	fmt.Fprintf(w, "  Diagnostics:  %d, converged: %t, saved: %t\n", s.Diagnostics, s.Converged, s.Persisted)
	return nil
}
