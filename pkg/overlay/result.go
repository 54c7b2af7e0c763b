package overlay

import (
	"time"

	"github.com/arthur-debert/gilt/pkg/config"
	"github.com/arthur-debert/gilt/pkg/types"
)

// State is a step of an overlay run
type State string

const (
	StateInit             State = "INIT"
	StateEnvironmentReady State = "ENVIRONMENT_READY"
	StateLockAcquired     State = "LOCK_ACQUIRED"
	StateCheckout         State = "CHECKOUT"
	StateTransform        State = "TRANSFORM"
	StateMaterialize      State = "MATERIALIZE"
	StateLockReleased     State = "LOCK_RELEASED"
	StateCleanedUp        State = "CLEANED_UP"

	// Terminal states
	StateCompleted State = "COMPLETED"
	StateAborted   State = "ABORTED"
)

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// OverlayResult is what one overlay produced
type OverlayResult struct {
	Overlay    config.Overlay    `json:"overlay"`
	Checkout   *types.Checkout   `json:"checkout,omitempty"`
	Operations []types.Operation `json:"operations"`

	// Applied counts the operations written to the output directory
	Applied int `json:"applied"`
}

// Result summarizes an overlay run. It is returned even when the run fails.
type Result struct {
	// State is the terminal state, COMPLETED or ABORTED
	State State `json:"state"`

	// History lists every state the run went through, in order
	History []State `json:"history"`

	OutputDir string          `json:"output_dir"`
	BaseDir   string          `json:"base_dir"`
	RunID     string          `json:"run_id,omitempty"`
	DryRun    bool            `json:"dry_run"`
	CleanedUp bool            `json:"cleaned_up"`
	Overlays  []OverlayResult `json:"overlays"`
	Error     string          `json:"error,omitempty"`
	Duration  time.Duration   `json:"duration"`

	// FailedOverlay names the overlay an aborted run stopped at
	FailedOverlay string `json:"failed_overlay,omitempty"`
}

// Operations returns the operations of every overlay, in run order
func (r *Result) Operations() []types.Operation {
	var ops []types.Operation
	for _, o := range r.Overlays {
		ops = append(ops, o.Operations...)
	}
	return ops
}

func (r *Result) enter(s State) {
	r.History = append(r.History, s)
	r.State = s
}
