// Package ledger records which installation steps have completed so that
// later runs can resume after a failure and skip finished work.
package ledger

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Errors returned by ledger stores and the lifecycle.
var (
	ErrLedgerCorrupt     = errors.New("ledger file is corrupt")
	ErrInvalidTransition = errors.New("invalid ledger status transition")
)

// Status is the persisted state of a step.
type Status string

const (
	// StatusPending means the step has not run (or was rolled back).
	StatusPending Status = "pending"
	// StatusRunning means the step started and has not finished.
	// Seeing it at load time means the previous run was interrupted.
	StatusRunning Status = "running"
	// StatusSucceeded means the step completed.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the last attempt failed.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// Entry is the ledger record for one step.
type Entry struct {
	Step      string    `yaml:"step"`
	Status    Status    `yaml:"status"`
	Timestamp time.Time `yaml:"timestamp"`
	Attempts  int       `yaml:"attempts,omitempty"`
	Error     string    `yaml:"error,omitempty"`
	RunID     string    `yaml:"run_id,omitempty"`
}

// Store persists ledger entries.
type Store interface {
	// Load returns all entries keyed by step name; empty when no prior run exists.
	Load(ctx context.Context) (map[string]Entry, error)
	// Record persists one entry atomically, replacing any previous entry for the step.
	Record(ctx context.Context, entry Entry) error
	// Reset removes every entry.
	Reset(ctx context.Context) error
}

// Snapshot is a point-in-time copy of the ledger.
type Snapshot map[string]Entry

// StatusOf returns the status for a step, StatusPending when absent.
func (s Snapshot) StatusOf(step string) Status {
	if e, ok := s[step]; ok {
		return e.Status
	}
	return StatusPending
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Entries returns the entries sorted by timestamp, then step name.
func (s Snapshot) Entries() []Entry {
	entries := make([]Entry, 0, len(s))
	for _, e := range s {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Step < entries[j].Step
	})
	return entries
}
