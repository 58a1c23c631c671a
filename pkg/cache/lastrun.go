package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LastRun records the most recently created notebook id in its own file,
// so work can resume without the caller re-specifying the identifier.
type LastRun struct {
	path string
}

type lastRunRecord struct {
	LastNotebookID string `json:"last_notebook_id"`
	Timestamp      int64  `json:"timestamp"`
}

// NewLastRun creates a last-run record backed by path.
func NewLastRun(path string) *LastRun {
	return &LastRun{path: path}
}

// Set overwrites the record with the given notebook id.
func (l *LastRun) Set(notebookID string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.Marshal(lastRunRecord{
		LastNotebookID: notebookID,
		Timestamp:      time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode last-run record: %w", err)
	}

	if err := os.WriteFile(l.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write last-run record: %w", err)
	}
	return nil
}

// Get returns the recorded notebook id, or "" if no usable record exists.
func (l *LastRun) Get() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return ""
	}

	var record lastRunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ""
	}
	return record.LastNotebookID
}
