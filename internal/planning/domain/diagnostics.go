package domain

import "github.com/google/uuid"

// DiagnosticKind classifies a non-fatal degradation of a run.
type DiagnosticKind string

const (
	DiagnosticBlockSkipped          DiagnosticKind = "block_skipped"
	DiagnosticDependencyUnconverged DiagnosticKind = "dependency_unconverged"
	DiagnosticPinnedViolation       DiagnosticKind = "dependency_pinned_violation"
	DiagnosticPersistenceFailed     DiagnosticKind = "persistence_failed"
	DiagnosticTaskNotUpdated        DiagnosticKind = "task_not_updated"
	DiagnosticBlockNotUpdated       DiagnosticKind = "block_not_updated"
)

// Diagnostic reports something the run degraded on instead of failing.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	SubjectID *uuid.UUID     `json:"subject_id,omitempty"`
	Message   string         `json:"message"`
}

// NewDiagnostic creates a diagnostic about subject. Pass uuid.Nil for a
// run-wide diagnostic.
func NewDiagnostic(kind DiagnosticKind, subject uuid.UUID, message string) Diagnostic {
	d := Diagnostic{Kind: kind, Message: message}
	if subject != uuid.Nil {
		id := subject
		d.SubjectID = &id
	}
	return d
}

// CountDiagnostics counts diagnostics of the given kind.
func CountDiagnostics(diags []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
