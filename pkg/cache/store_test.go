package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/notebooklm/pkg/logging"
)

func TestStore_GetPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewStore(path, logging.Discard())

	_, ok := store.Get("https://example/video")
	assert.False(t, ok)

	store.Put("https://example/video", Entry{NotebookID: "nb-1"})

	entry, ok := store.Get("https://example/video")
	require.True(t, ok)
	assert.Equal(t, "nb-1", entry.NotebookID)
	assert.Empty(t, entry.SourceID)
	assert.False(t, entry.Complete())

	store.Put("https://example/video", Entry{NotebookID: "nb-1", SourceID: "src-1"})

	entry, ok = store.Get("https://example/video")
	require.True(t, ok)
	assert.True(t, entry.Complete())
}

func TestStore_PersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store := NewStore(path, logging.Discard())
	store.Put("key", Entry{NotebookID: "nb-9", SourceID: "src-9"})

	// A fresh store over the same file sees the entry.
	reopened := NewStore(path, logging.Discard())
	entry, ok := reopened.Get("key")
	require.True(t, ok)
	assert.Equal(t, Entry{NotebookID: "nb-9", SourceID: "src-9"}, entry)
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist.json"), logging.Discard())
	assert.Equal(t, 0, store.Len())
}

func TestStore_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewStore(path, logging.Discard())
	assert.Equal(t, 0, store.Len())

	// Writes still work after starting from a corrupt file.
	store.Put("key", Entry{NotebookID: "nb-1"})
	_, ok := store.Get("key")
	assert.True(t, ok)
}

func TestStore_NullFileIsEmpty(t *testing.T) {
	// "null" is valid JSON and decodes into a nil map without error.
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0600))

	store := NewStore(path, logging.Discard())
	assert.Equal(t, 0, store.Len())

	store.Put("https://example/video", Entry{NotebookID: "nb-1"})

	entry, ok := store.Get("https://example/video")
	require.True(t, ok)
	assert.Equal(t, "nb-1", entry.NotebookID)
}

func TestStore_PersistFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	// A path whose parent is a file cannot be created.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store := NewStore(filepath.Join(blocker, "nested", "cache.json"), logging.Discard())
	store.Put("key", Entry{NotebookID: "nb-1"})

	// The in-memory entry survives the failed persist.
	entry, ok := store.Get("key")
	require.True(t, ok)
	assert.Equal(t, "nb-1", entry.NotebookID)
}

func TestStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewStore(path, logging.Discard())
	store.Put("https://example/video", Entry{NotebookID: "nb-1", SourceID: "src-1"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, "nb-1", onDisk["https://example/video"]["notebook_id"])
	assert.Equal(t, "src-1", onDisk["https://example/video"]["source_id"])
}

func TestLastRun_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.json")
	lastRun := NewLastRun(path)

	assert.Empty(t, lastRun.Get())

	require.NoError(t, lastRun.Set("nb-42"))
	assert.Equal(t, "nb-42", lastRun.Get())

	require.NoError(t, lastRun.Set("nb-43"))
	assert.Equal(t, "nb-43", lastRun.Get())
}

func TestLastRun_CorruptRecordIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.json")
	require.NoError(t, os.WriteFile(path, []byte("corrupt"), 0600))

	assert.Empty(t, NewLastRun(path).Get())
}
