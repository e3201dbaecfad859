package domain

// Phase is a step of a recalculation run.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseLoading      Phase = "loading"
	PhaseScheduling   Phase = "scheduling"
	PhaseDistributing Phase = "distributing"
	PhaseEnforcing    Phase = "enforcing"
	PhasePersisting   Phase = "persisting"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

func (p Phase) String() string {
	return string(p)
}
