// Package ledgerfile persists the installed-state ledger as a YAML file.
package ledgerfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"gopkg.in/yaml.v3"
)

// formatVersion is the on-disk schema version.
const formatVersion = 1

// fileDTO is the on-disk representation of the ledger.
type fileDTO struct {
	Version   int            `yaml:"version"`
	UpdatedAt time.Time      `yaml:"updated_at"`
	Entries   []ledger.Entry `yaml:"entries"`
}

// YAMLStore implements ledger.Store on a single YAML file.
// Every Record rewrites the whole file through a temp file and rename,
// so readers see either the previous or the new ledger, never a partial one.
type YAMLStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewYAMLStore creates a store backed by the file at path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path, now: time.Now}
}

// Path returns the ledger file path.
func (s *YAMLStore) Path() string {
	return s.path
}

// Load reads the ledger. A missing file yields an empty map. Load never
// modifies the directory, so it is safe while another process holds the
// install lock and is mid-write.
func (s *YAMLStore) Load(_ context.Context) (map[string]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Record replaces the entry for entry.Step and persists the ledger atomically.
func (s *YAMLStore) Record(ctx context.Context, entry ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Step == "" {
		return errors.New("ledger entry has no step name")
	}
	if !entry.Status.Valid() {
		return fmt.Errorf("ledger entry %q has invalid status %q", entry.Step, entry.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Callers hold the install lock, so a temp file here is a crash
	// artifact from an interrupted save.
	if err := os.Remove(s.path + ".tmp"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale ledger temp file: %w", err)
	}

	entries, err := s.load()
	if err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	entries[entry.Step] = entry

	return s.save(entries)
}

// Reset removes the ledger file.
func (s *YAMLStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = os.Remove(s.path + ".tmp")
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ledger: %w", err)
	}
	return nil
}

func (s *YAMLStore) load() (map[string]ledger.Entry, error) {
	entries := make(map[string]ledger.Entry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}

	var dto fileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrLedgerCorrupt, err)
	}
	if dto.Version > formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ledger.ErrLedgerCorrupt, dto.Version)
	}

	for _, e := range dto.Entries {
		if e.Step == "" || !e.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid entry %+v", ledger.ErrLedgerCorrupt, e)
		}
		entries[e.Step] = e
	}
	return entries, nil
}

func (s *YAMLStore) save(entries map[string]ledger.Entry) error {
	dto := fileDTO{
		Version:   formatVersion,
		UpdatedAt: s.now().UTC(),
		Entries:   make([]ledger.Entry, 0, len(entries)),
	}
	for _, e := range entries {
		dto.Entries = append(dto.Entries, e)
	}
	sort.Slice(dto.Entries, func(i, j int) bool {
		if !dto.Entries[i].Timestamp.Equal(dto.Entries[j].Timestamp) {
			return dto.Entries[i].Timestamp.Before(dto.Entries[j].Timestamp)
		}
		return dto.Entries[i].Step < dto.Entries[j].Step
	})

	data, err := yaml.Marshal(&dto)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	return writeAtomic(s.path, data, 0o644)
}

// writeAtomic writes data to path+".tmp", fsyncs it, renames it over path
// and fsyncs the parent directory.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return d.Sync()
}

// Ensure YAMLStore implements ledger.Store.
var _ ledger.Store = (*YAMLStore)(nil)
