package ledgerfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"github.com/felixgeelhaar/aistack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *YAMLStore {
	t.Helper()
	store := NewYAMLStore(filepath.Join(t.TempDir(), "local-ai", "ledger.yaml"))
	store.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return store
}

func TestYAMLStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	entries, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
	_, statErr := os.Stat(filepath.Dir(store.Path()))
	assert.True(t, os.IsNotExist(statErr), "loading must not create the install directory")
}

func TestYAMLStore_RecordAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "docker:engine", Status: ledger.StatusRunning, RunID: "r1"}))
	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "docker:engine", Status: ledger.StatusSucceeded, Attempts: 1, RunID: "r1"}))
	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "ollama:server", Status: ledger.StatusFailed, Error: "exit status 125"}))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, ledger.StatusSucceeded, entries["docker:engine"].Status)
	assert.Equal(t, 1, entries["docker:engine"].Attempts)
	assert.Equal(t, "r1", entries["docker:engine"].RunID)
	assert.False(t, entries["docker:engine"].Timestamp.IsZero())
	assert.Equal(t, "exit status 125", entries["ollama:server"].Error)

	testutil.AssertFileNotExists(t, store.Path()+".tmp", "temp file must not survive a save")
}

func TestYAMLStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.yaml")

	require.NoError(t, NewYAMLStore(path).Record(ctx, ledger.Entry{Step: "nvidia:driver", Status: ledger.StatusSucceeded}))

	entries, err := NewYAMLStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusSucceeded, entries["nvidia:driver"].Status)
}

func TestYAMLStore_LoadLeavesTempFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, NewYAMLStore(path).Record(ctx, ledger.Entry{Step: "docker:engine", Status: ledger.StatusSucceeded}))

	// Another process is between writing the temp file and renaming it.
	next := "version: 1\nentries:\n  - step: docker:engine\n    status: succeeded\n  - step: ollama:server\n    status: running\n"
	require.NoError(t, os.WriteFile(path+".tmp", []byte(next), 0o644))

	entries, err := NewYAMLStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "readers see the previous ledger")

	testutil.AssertFileExists(t, path+".tmp")
	require.NoError(t, os.Rename(path+".tmp", path))

	entries, err = NewYAMLStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusRunning, entries["ollama:server"].Status)
}

func TestYAMLStore_RecordRemovesStaleTempFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "docker:engine", Status: ledger.StatusSucceeded}))
	require.NoError(t, os.WriteFile(store.Path()+".tmp", []byte("half-writ"), 0o644))

	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "ollama:server", Status: ledger.StatusRunning}))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	testutil.AssertFileNotExists(t, store.Path()+".tmp")
}

func TestYAMLStore_Corrupt(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not yaml":       "entries: [",
		"invalid status": "version: 1\nentries:\n  - step: docker:engine\n    status: exploded\n",
		"missing step":   "version: 1\nentries:\n  - status: succeeded\n",
		"future version": "version: 9\nentries: []\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
			require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o644))

			_, err := store.Load(context.Background())
			require.ErrorIs(t, err, ledger.ErrLedgerCorrupt)
		})
	}
}

func TestYAMLStore_RecordRejectsInvalidEntry(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	require.Error(t, store.Record(ctx, ledger.Entry{Status: ledger.StatusSucceeded}))
	require.Error(t, store.Record(ctx, ledger.Entry{Step: "a", Status: "done"}))
}

func TestYAMLStore_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Record(ctx, ledger.Entry{Step: "docker:engine", Status: ledger.StatusSucceeded}))

	require.NoError(t, store.Reset(ctx))
	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Reset(ctx), "reset of a missing ledger is a no-op")
}
