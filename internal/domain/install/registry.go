package install

import (
	"regexp"
	"strings"
)

// stepNamePattern allows alphanumeric segments (plus . _ / -) separated by colons.
var stepNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*(?::[a-zA-Z0-9][a-zA-Z0-9._/-]*)*$`)

// Registry is the ordered list of installation steps.
// Order of registration is execution order.
type Registry struct {
	steps []Step
	index map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register appends a step, preserving declared order.
// It returns a *ConfigurationError for duplicate or invalid names,
// a missing action, or a phase that precedes the last registered phase.
func (r *Registry) Register(step Step) error {
	name := strings.TrimSpace(step.Name)
	if name == "" || !stepNamePattern.MatchString(name) {
		return newInvalidNameError(step.Name)
	}
	if _, exists := r.index[name]; exists {
		return newDuplicateError(name)
	}
	if step.Action == nil {
		return newActionMissingError(name)
	}
	if !step.Phase.Valid() {
		return &ConfigurationError{Code: ErrCodeStepInvalid, Message: "unknown phase", Step: name}
	}
	if n := len(r.steps); n > 0 && step.Phase < r.steps[n-1].Phase {
		return newPhaseOrderError(name, step.Phase, r.steps[n-1].Phase)
	}
	if step.Retries < 0 {
		step.Retries = 0
	}

	step.Name = name
	r.index[name] = len(r.steps)
	r.steps = append(r.steps, step)
	return nil
}

// Steps returns the registered steps in order.
func (r *Registry) Steps() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// Get retrieves a step by name.
func (r *Registry) Get(name string) (Step, bool) {
	i, ok := r.index[name]
	if !ok {
		return Step{}, false
	}
	return r.steps[i], true
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// Names returns the step names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}
