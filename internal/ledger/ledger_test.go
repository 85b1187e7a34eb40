package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndTotal(t *testing.T) {
	l := New(t.TempDir())

	_, err := l.Record("node-1", "build", 3.5, "")
	require.NoError(t, err)
	_, err = l.Record("node-2", "quality", 1.5, "retry")
	require.NoError(t, err)

	total, err := l.Total()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, total, 1e-9)

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "node-1", entries[0].NodeID)
	assert.Equal(t, "retry", entries[1].Note)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[0].RecordedAt)
}

func TestTotalMissingFile(t *testing.T) {
	l := New(t.TempDir())

	total, err := l.Total()
	require.NoError(t, err)
	assert.Zero(t, total)

	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTotalSeesOutOfBandWrites(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	_, err := l.Record("node-1", "build", 2.0, "")
	require.NoError(t, err)

	// Simulate another process appending to the ledger.
	external := []byte(`schema_version: 1
file_type: cost_ledger
entries:
  - id: cost-external
    node_id: node-1
    step: build
    cost: 2.0
    recorded_at: "2026-08-31T00:00:00Z"
  - id: cost-external-2
    node_id: node-9
    step: approval
    cost: 7.0
    recorded_at: "2026-08-31T00:00:01Z"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), external, 0644))

	total, err := l.Total()
	require.NoError(t, err)
	assert.InDelta(t, 9.0, total, 1e-9)
}

func TestCorruptLedgerQuarantined(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	require.NoError(t, os.WriteFile(l.Path(), []byte(":\n  broken: [\n"), 0644))

	total, err := l.Total()
	require.NoError(t, err)
	assert.Zero(t, total)

	entries, err := os.ReadDir(filepath.Join(dir, "quarantine"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Ledger stays usable after recovery.
	_, err = l.Record("node-1", "build", 1.0, "")
	require.NoError(t, err)
	total, err = l.Total()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestWrongFileTypeQuarantined(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	require.NoError(t, os.WriteFile(l.Path(), []byte("schema_version: 1\nfile_type: goal\n"), 0644))

	total, err := l.Total()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWatcherFlagsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	_, err := l.Record("node-1", "build", 1.0, "")
	require.NoError(t, err)

	w, err := l.Watch()
	require.NoError(t, err)
	defer w.Close()

	// Our own writes keep the stored hash in sync, no note expected.
	_, err = l.Record("node-2", "quality", 1.0, "")
	require.NoError(t, err)

	select {
	case note := <-w.Notes():
		t.Fatalf("unexpected note for own write: %s", note)
	case <-time.After(300 * time.Millisecond):
	}

	external := []byte("schema_version: 1\nfile_type: cost_ledger\nentries: []\n")
	require.NoError(t, os.WriteFile(l.Path(), external, 0644))

	select {
	case note, ok := <-w.Notes():
		require.True(t, ok)
		assert.Contains(t, note, "outside this process")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a note for the external write")
	}
}
