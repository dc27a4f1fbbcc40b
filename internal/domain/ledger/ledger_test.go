package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_StatusOf(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"docker:engine": {Step: "docker:engine", Status: StatusSucceeded}}

	assert.Equal(t, StatusSucceeded, snap.StatusOf("docker:engine"))
	assert.Equal(t, StatusPending, snap.StatusOf("ollama:server"))
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"a": {Step: "a", Status: StatusFailed}}
	clone := snap.Clone()
	clone["a"] = Entry{Step: "a", Status: StatusSucceeded}

	assert.Equal(t, StatusFailed, snap["a"].Status)
}

func TestSnapshot_EntriesSorted(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		"c": {Step: "c", Timestamp: base.Add(time.Minute)},
		"b": {Step: "b", Timestamp: base},
		"a": {Step: "a", Timestamp: base},
	}

	entries := snap.Entries()
	assert.Equal(t, "a", entries[0].Step)
	assert.Equal(t, "b", entries[1].Step)
	assert.Equal(t, "c", entries[2].Step)
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("skipped").Valid())
}
