package ports

import "context"

// Confirmer asks the operator a yes/no question.
// Implementations return false with a nil error when the operator declines.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// StaticConfirmer always returns the same answer without prompting.
type StaticConfirmer struct {
	Answer bool
}

// Confirm returns the configured answer.
func (c StaticConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	return c.Answer, nil
}

// Ensure StaticConfirmer implements Confirmer.
var _ Confirmer = StaticConfirmer{}
