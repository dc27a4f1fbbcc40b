package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusSucceeded, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, true},
		{StatusFailed, StatusRunning, true},
		{StatusSucceeded, StatusRunning, true},
		{StatusSucceeded, StatusPending, true},

		{StatusPending, StatusSucceeded, false},
		{StatusPending, StatusFailed, false},
		{StatusFailed, StatusSucceeded, false},
		{StatusSucceeded, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusPending, StatusPending, false},
		{StatusRunning, StatusRunning, false},
		{StatusSucceeded, StatusSucceeded, false},
		{Status("bogus"), StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()

			err := Transition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
		})
	}
}

func TestAdvance_EmptyStatusIsPending(t *testing.T) {
	t.Parallel()

	e, err := Advance(Entry{Step: "docker:engine"}, StatusRunning)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, e.Status)
}

func TestAdvance_RejectsAndKeepsEntry(t *testing.T) {
	t.Parallel()

	in := Entry{Step: "docker:engine", Status: StatusSucceeded}
	out, err := Advance(in, StatusFailed)

	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "docker:engine")
	assert.Equal(t, in, out)
}

func TestEntryMachine_BuiltOnceFreshInterpreters(t *testing.T) {
	t.Parallel()

	newInterp, err := entryMachine()
	require.NoError(t, err)
	again, err := entryMachine()
	require.NoError(t, err)

	a, b := newInterp(), again()
	assert.NotSame(t, a, b, "every call gets its own interpreter")

	a.Start()
	defer a.Stop()
	b.Start()
	defer b.Stop()
	assert.Equal(t, statePending, string(a.State().Value))
	assert.Equal(t, statePending, string(b.State().Value))
}

func TestTransition_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Transition(StatusRunning, StatusSucceeded)
			errs <- Transition(StatusSucceeded, StatusPending)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
