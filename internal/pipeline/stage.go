package pipeline

import "context"

// Stage is one step of the ingestion run. Stages execute in a fixed
// order; each reads its inputs from the blackboard and writes its
// outputs back.
type Stage interface {
	// Name returns the stage's registry name.
	Name() string

	// ValidateConfig checks the stage's configuration. The engine
	// validates every enabled stage before executing any of them.
	ValidateConfig() error

	// Execute runs the stage. Returning an error aborts the run; a
	// stage with nothing to do returns nil and records a warning.
	Execute(ctx context.Context, board *Blackboard) error
}
