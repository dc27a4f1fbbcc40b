package install

import (
	"fmt"
	"strings"
)

// Error codes for registry configuration problems.
const (
	ErrCodeStepDuplicate = "STEP_DUPLICATE"
	ErrCodeStepInvalid   = "STEP_INVALID"
	ErrCodeActionMissing = "ACTION_MISSING"
	ErrCodePhaseOrder    = "PHASE_ORDER"
)

// ConfigurationError reports a malformed step registry.
type ConfigurationError struct {
	Code       string
	Message    string
	Step       string
	Suggestion string
}

// Error returns the formatted error message.
func (e *ConfigurationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %q: %s", e.Step, e.Message)
	}
	return e.Message
}

// Is matches any ConfigurationError with the same code.
func (e *ConfigurationError) Is(target error) bool {
	t, ok := target.(*ConfigurationError)
	return ok && t.Code == e.Code
}

// Format returns a fully formatted error with all details.
func (e *ConfigurationError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Step != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.Step)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

func newDuplicateError(name string) *ConfigurationError {
	return &ConfigurationError{
		Code:       ErrCodeStepDuplicate,
		Message:    "step with this name is already registered",
		Step:       name,
		Suggestion: "Each step must have a unique name. Check for models or services listed twice in the configuration.",
	}
}

func newInvalidNameError(name string) *ConfigurationError {
	return &ConfigurationError{
		Code:       ErrCodeStepInvalid,
		Message:    "step name must be alphanumeric segments separated by colons",
		Step:       name,
		Suggestion: "Use names like \"models:llama3.1\" or \"docker:engine\".",
	}
}

func newActionMissingError(name string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeActionMissing,
		Message: "step has no action",
		Step:    name,
	}
}

func newPhaseOrderError(name string, phase, last Phase) *ConfigurationError {
	return &ConfigurationError{
		Code:       ErrCodePhaseOrder,
		Message:    fmt.Sprintf("phase %s registered after phase %s", phase, last),
		Step:       name,
		Suggestion: "Register steps in stack order: base, driver, runtime, engine, models, services, tools.",
	}
}
