package ollama

import (
	"bufio"
	"context"
	"strings"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/validation"
)

// NormalizeModel appends the implicit ":latest" tag.
func NormalizeModel(name string) string {
	if strings.Contains(name[strings.LastIndex(name, "/")+1:], ":") {
		return name
	}
	return name + ":latest"
}

// ParseList returns the model names from "ollama list" output.
func ParseList(out string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] == "NAME" {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

// ModelAction pulls one model into the engine container.
type ModelAction struct {
	runner    ports.CommandRunner
	container string
	model     string
}

// NewModelAction creates a ModelAction.
func NewModelAction(runner ports.CommandRunner, container, model string) *ModelAction {
	return &ModelAction{runner: runner, container: container, model: model}
}

// Model returns the model reference.
func (a *ModelAction) Model() string {
	return a.model
}

// Satisfied reports whether the engine already lists the model.
func (a *ModelAction) Satisfied(ctx context.Context) (bool, error) {
	result, err := ports.RunChecked(ctx, a.runner, "docker", "exec", a.container, "ollama", "list")
	if err != nil {
		return false, err
	}
	want := NormalizeModel(a.model)
	for _, name := range ParseList(result.Stdout) {
		if NormalizeModel(name) == want {
			return true, nil
		}
	}
	return false, nil
}

// Apply pulls the model. Pulls resume where an interrupted one stopped.
func (a *ModelAction) Apply(ctx context.Context) error {
	if err := validation.ValidateModelTag(a.model); err != nil {
		return err
	}
	_, err := ports.RunChecked(ctx, a.runner, "docker", "exec", a.container, "ollama", "pull", a.model)
	return err
}
