// Package cache persists the mapping from an external input locator (a
// video URL) to the remote identifiers created for it. Once both the
// notebook and source ids are recorded for a key, the creation RPCs are
// never re-issued for it. Losing this file only costs redundant remote
// work, so reads tolerate corruption and writes are best-effort.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/notebooklm/pkg/logging"
)

// Entry holds the remote identifiers created for one external key.
// SourceID may be empty while creation is only partially complete.
type Entry struct {
	NotebookID string `json:"notebook_id"`
	SourceID   string `json:"source_id"`
}

// Complete reports whether both identifiers are present, i.e. the
// create/add-source sequence never needs to run again for this key.
func (e Entry) Complete() bool {
	return e.NotebookID != "" && e.SourceID != ""
}

// Store is a durable key -> Entry mapping backed by a flat JSON file.
// There is no eviction and entries are never deleted. The file is read
// then written without locking; concurrent workflows against the same key
// can race, which is an accepted limitation.
type Store struct {
	path    string
	logger  *logging.Logger
	mu      sync.Mutex
	entries map[string]Entry
}

// NewStore opens the cache at path, treating a missing or corrupt file as
// empty. Opening never fails on bad contents.
func NewStore(path string, logger *logging.Logger) *Store {
	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("failed to read cache file %s: %v", s.path, err)
		}
		return
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warnf("cache file %s is corrupt, starting empty: %v", s.path, err)
		return
	}
	// A JSON null body decodes without error into a nil map; keep the
	// empty one so later Puts have somewhere to write.
	if entries != nil {
		s.entries = entries
	}
}

// Get returns the entry for key, if any.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return entry, ok
}

// Put records an entry for key and persists immediately. Persist failures
// are logged and swallowed; the in-memory entry is kept either way.
func (s *Store) Put(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry
	if err := s.persist(); err != nil {
		s.logger.Warnf("failed to persist cache: %v", err)
	}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persist writes the mapping atomically: temp file in the same directory,
// then rename. Caller holds the mutex.
func (s *Store) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
