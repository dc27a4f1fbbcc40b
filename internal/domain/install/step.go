// Package install defines installation steps and the ordered registry
// that the runner consumes.
package install

import (
	"context"
	"time"
)

// Phase groups steps by the layer of the stack they provision.
// Phases must be registered in ascending order.
type Phase int

const (
	// PhaseBase installs prerequisite system packages.
	PhaseBase Phase = iota
	// PhaseDriver installs the GPU driver.
	PhaseDriver
	// PhaseRuntime installs the container runtime and its GPU integration.
	PhaseRuntime
	// PhaseEngine starts the LLM-serving engine.
	PhaseEngine
	// PhaseModels downloads models into the engine.
	PhaseModels
	// PhaseServices starts the web front-ends.
	PhaseServices
	// PhaseTools installs operator conveniences such as shell aliases.
	PhaseTools
)

var phaseNames = map[Phase]string{
	PhaseBase:     "base",
	PhaseDriver:   "driver",
	PhaseRuntime:  "runtime",
	PhaseEngine:   "engine",
	PhaseModels:   "models",
	PhaseServices: "services",
	PhaseTools:    "tools",
}

// String returns the phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// Action is the side-effecting operation behind a step.
type Action interface {
	Apply(ctx context.Context) error
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func(ctx context.Context) error

// Apply calls f(ctx).
func (f ActionFunc) Apply(ctx context.Context) error {
	return f(ctx)
}

// Prober is implemented by actions that can detect that their desired
// state is already present on the host.
type Prober interface {
	Satisfied(ctx context.Context) (bool, error)
}

// Undoer is implemented by actions that can reverse their own Apply.
// Undo must be a no-op when nothing was applied.
type Undoer interface {
	Undo(ctx context.Context) error
}

// Step is a named, ordered unit of installation work.
type Step struct {
	// Name uniquely identifies the step, e.g. "docker:engine".
	Name string
	// Description is a one-line human summary.
	Description string
	// Phase places the step in the stack ordering.
	Phase Phase
	// Action performs the work.
	Action Action
	// Idempotent steps are safe to execute again when already applied.
	Idempotent bool
	// Required steps halt the run when they fail.
	Required bool
	// Timeout bounds a single attempt. Zero uses the runner default.
	Timeout time.Duration
	// Retries is the number of additional attempts after a failure.
	Retries int
	// FollowUp is an instruction shown to the operator after success.
	FollowUp string
}

// AsProber returns the step's action as a Prober, or nil.
func (s Step) AsProber() Prober {
	if p, ok := s.Action.(Prober); ok {
		return p
	}
	return nil
}

// AsUndoer returns the step's action as an Undoer, or nil.
func (s Step) AsUndoer() Undoer {
	if u, ok := s.Action.(Undoer); ok {
		return u
	}
	return nil
}
