package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
)

// LedgerStore is an in-memory ledger.Store that keeps every write.
type LedgerStore struct {
	mu       sync.Mutex
	entries  map[string]ledger.Entry
	history  []ledger.Entry
	loadErr  error
	writeErr error
	resets   int
}

// NewLedgerStore creates a LedgerStore seeded with entries.
func NewLedgerStore(seed ...ledger.Entry) *LedgerStore {
	s := &LedgerStore{entries: make(map[string]ledger.Entry)}
	for _, e := range seed {
		s.entries[e.Step] = e
	}
	return s
}

// SetLoadError makes Load fail with err.
func (s *LedgerStore) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// SetRecordError makes Record fail with err.
func (s *LedgerStore) SetRecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Load returns a copy of the stored entries.
func (s *LedgerStore) Load(_ context.Context) (map[string]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]ledger.Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

// Record stores the entry and appends it to the history.
func (s *LedgerStore) Record(_ context.Context, entry ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.entries[entry.Step] = entry
	s.history = append(s.history, entry)
	return nil
}

// Reset removes all entries.
func (s *LedgerStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]ledger.Entry)
	s.resets++
	return nil
}

// Snapshot returns the current entries.
func (s *LedgerStore) Snapshot() ledger.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(ledger.Snapshot, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// History returns every recorded entry in write order.
func (s *LedgerStore) History() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Entry(nil), s.history...)
}

// Writes returns the number of successful Record calls.
func (s *LedgerStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Resets returns the number of Reset calls.
func (s *LedgerStore) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Ensure LedgerStore implements ledger.Store.
var _ ledger.Store = (*LedgerStore)(nil)
