package bootstrap

import "fmt"

// Phase identifies a bootstrap stage. Phases always run in declaration
// order; a checkpoint's CurrentPhase is the last one that completed.
type Phase string

const (
	PhaseValidation         Phase = "validation"
	PhaseToolsCreation      Phase = "tools_creation"
	PhaseAssistantsCreation Phase = "assistants_creation"
	PhaseSquadCreation      Phase = "squad_creation"
	PhaseDeployment         Phase = "deployment"
	PhaseCompleted          Phase = "completed"
)

// Checkpoint tracks bootstrap progress for reporting and rollback. The
// created and deployed lists only ever contain work that finished, so
// rollback can trust them completely.
type Checkpoint struct {
	CurrentPhase       Phase
	CompletedSteps     []string
	CreatedTools       []string
	CreatedAssistants  []string
	CreatedSquad       string
	DeployedAssistants []string
	DeployedSquad      string

	// Preview is set on dry runs instead of executing phases 2-5.
	Preview string
}

func newCheckpoint() *Checkpoint {
	return &Checkpoint{CurrentPhase: PhaseValidation}
}

func (c *Checkpoint) markStep(step string) {
	c.CompletedSteps = append(c.CompletedSteps, step)
}

func (c *Checkpoint) markPhase(p Phase) {
	c.CurrentPhase = p
}

// ExecutionError wraps a failure in phases after validation, keeping the
// phase it happened in. Rollback failures, if any, ride along.
type ExecutionError struct {
	Phase    Phase
	Err      error
	Rollback error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("bootstrap failed during %s: %v", e.Phase, e.Err)
	if e.Rollback != nil {
		msg += fmt.Sprintf(" (rollback incomplete: %v)", e.Rollback)
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }
