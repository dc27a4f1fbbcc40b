package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// Confirmer is a scripted ports.Confirmer that records prompts.
// Answers are consumed in order; when exhausted the last answer repeats.
type Confirmer struct {
	mu      sync.Mutex
	answers []bool
	err     error
	prompts []string
}

// NewConfirmer creates a Confirmer that replies with the given answers.
func NewConfirmer(answers ...bool) *Confirmer {
	return &Confirmer{answers: answers}
}

// SetError makes every Confirm call fail with err.
func (c *Confirmer) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Confirm records the prompt and returns the next scripted answer.
func (c *Confirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return false, c.err
	}
	if len(c.answers) == 0 {
		return false, nil
	}
	answer := c.answers[0]
	if len(c.answers) > 1 {
		c.answers = c.answers[1:]
	}
	return answer, nil
}

// Prompts returns the prompts shown so far.
func (c *Confirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Ensure Confirmer implements ports.Confirmer.
var _ ports.Confirmer = (*Confirmer)(nil)
