package ledger

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// Events driving the entry lifecycle.
const (
	EventStart   = "START"
	EventSucceed = "SUCCEED"
	EventFail    = "FAIL"
	EventReset   = "RESET"
)

// Machine state names; they match the Status values.
const (
	statePending   = "pending"
	stateRunning   = "running"
	stateSucceeded = "succeeded"
	stateFailed    = "failed"
)

// eventFor maps a target status to the event that reaches it.
var eventFor = map[Status]string{
	StatusRunning:   EventStart,
	StatusSucceeded: EventSucceed,
	StatusFailed:    EventFail,
	StatusPending:   EventReset,
}

// pathTo lists the events that move a fresh entry from pending to a status.
var pathTo = map[Status][]string{
	StatusPending:   nil,
	StatusRunning:   {EventStart},
	StatusSucceeded: {EventStart, EventSucceed},
	StatusFailed:    {EventStart, EventFail},
}

// Transition validates moving an entry from one status to another.
//
//	pending   -> running
//	running   -> succeeded | failed | pending
//	failed    -> running
//	succeeded -> running | pending
func Transition(from, to Status) error {
	// Unhandled events leave the machine where it is, so a self-transition
	// would otherwise look valid.
	if !from.Valid() || !to.Valid() || from == to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	newInterp, err := entryMachine()
	if err != nil {
		return fmt.Errorf("failed to build ledger state machine: %w", err)
	}
	interp := newInterp()
	interp.Start()
	defer interp.Stop()

	for _, event := range pathTo[from] {
		interp.Send(statekit.Event{Type: statekit.EventType(event)})
	}
	interp.Send(statekit.Event{Type: statekit.EventType(eventFor[to])})

	if got := Status(interp.State().Value); got != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Advance returns a copy of e moved to status to, or an error when the
// transition is not allowed. An entry with no status is treated as pending.
func Advance(e Entry, to Status) (Entry, error) {
	from := e.Status
	if from == "" {
		from = StatusPending
	}
	if err := Transition(from, to); err != nil {
		return e, fmt.Errorf("step %q: %w", e.Step, err)
	}
	e.Status = to
	return e, nil
}

// entryMachine builds the entry state machine once and returns a factory
// for interpreters starting at pending.
var entryMachine = sync.OnceValues(func() (func() *statekit.Interpreter[Entry], error) {
	machine, err := statekit.NewMachine[Entry]("ledger-entry").
		WithInitial(statePending).
		WithContext(Entry{Status: StatusPending}).
		State(statePending).
		On(EventStart).Target(stateRunning).Done().
		State(stateRunning).
		On(EventSucceed).Target(stateSucceeded).
		On(EventFail).Target(stateFailed).
		On(EventReset).Target(statePending).Done().
		State(stateFailed).
		On(EventStart).Target(stateRunning).Done().
		State(stateSucceeded).
		On(EventStart).Target(stateRunning).
		On(EventReset).Target(statePending).Done().
		Build()
	if err != nil {
		return nil, err
	}

	return func() *statekit.Interpreter[Entry] {
		return statekit.NewInterpreter(machine)
	}, nil
})
