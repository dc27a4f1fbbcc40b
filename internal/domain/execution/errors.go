package execution

import (
	"errors"
	"fmt"
)

// ErrInterrupted marks a non-idempotent step found in the running state,
// meaning a previous run stopped part way through it.
var ErrInterrupted = errors.New("step was interrupted by a previous run and is not safe to repeat")

// StepExecutionError wraps the failure of a single step.
type StepExecutionError struct {
	Step     string
	Attempts int
	Cause    error
}

// Error returns the formatted error message.
func (e *StepExecutionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("step %s failed after %d attempts: %v", e.Step, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StepExecutionError) Unwrap() error {
	return e.Cause
}
