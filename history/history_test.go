package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStore_RecordAndLookup(t *testing.T) {
	store := openStore(t)

	_, found, err := store.Lookup("x = 1")
	require.NoError(t, err)
	assert.False(t, found)

	submittedAt := time.Unix(1700000000, 0)
	require.NoError(t, store.Record("x = 1\n", contracts.HistoryEntry{
		RunID:       "run-1",
		URL:         "https://example/pr/1",
		SubmittedAt: submittedAt,
	}))

	entry, found, err := store.Lookup("  x = 1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://example/pr/1", entry.URL)
	assert.Equal(t, "run-1", entry.RunID)
	assert.True(t, submittedAt.Equal(entry.SubmittedAt))
	assert.Equal(t, CodeKey("x = 1"), entry.Key)
}

func TestBoltStore_ListNewestFirst(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Record("a", contracts.HistoryEntry{URL: "old", SubmittedAt: time.Unix(100, 0)}))
	require.NoError(t, store.Record("b", contracts.HistoryEntry{URL: "new", SubmittedAt: time.Unix(200, 0)}))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].URL)
	assert.Equal(t, "old", entries[1].URL)
}

func TestBoltStore_RecordDefaultsTimestamp(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Record("c", contracts.HistoryEntry{URL: "u"}))

	entry, found, err := store.Lookup("c")
	require.NoError(t, err)
	require.True(t, found)
	assert.WithinDuration(t, time.Now(), entry.SubmittedAt, 5*time.Second)
}

func TestCodeKey(t *testing.T) {
	assert.Equal(t, CodeKey("x"), CodeKey("\nx\n"))
	assert.NotEqual(t, CodeKey("x"), CodeKey("y"))
}
