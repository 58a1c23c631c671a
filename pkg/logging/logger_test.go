package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temporary log directory and resets
// global state, returning a cleanup that restores it.
func setupTestDir(t *testing.T) (cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "notebooklm-logging-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID

	// sync.Once values must not be copied, so record whether each had
	// fired and restore an equivalent fresh Once in cleanup.
	onceFired := func(o *sync.Once) bool {
		ran := false
		o.Do(func() { ran = true })
		return !ran
	}
	origInitOnceFired := onceFired(&initOnce)
	origRunIDOnceFired := onceFired(&runIDOnce)

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	runID = ""
	runIDOnce = sync.Once{}

	// Mark the directory as already initialized so tests stay inside tempDir
	initOnce.Do(func() {})

	return func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		if origInitOnceFired {
			initOnce.Do(func() {})
		}
		runID = origRunID
		runIDOnce = sync.Once{}
		if origRunIDOnceFired {
			runIDOnce.Do(func() {})
		}

		os.RemoveAll(tempDir)
	}
}

func TestNewLogger(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("session")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "session" {
		t.Errorf("Expected component 'session', got %q", logger.component)
	}

	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}

	if _, err := os.Stat(logger.LogPath()); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.LogPath())
	}
}

func TestLoggerFormatting(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("rpc")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debugf("Debug message")
	logger.Infof("Info message %d", 123)
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)

	expectedPatterns := []string{
		"[rpc] [DEBUG] Debug message",
		"[rpc] [INFO] Info message 123",
		"[rpc] [WARN] Warning message",
		"[rpc] [ERROR] Error message",
	}

	for _, pattern := range expectedPatterns {
		if !strings.Contains(logContent, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, logContent)
		}
	}
}

func TestMultipleComponentsShareOneFile(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger1, err := NewLogger("session")
	if err != nil {
		t.Fatalf("Failed to create logger1: %v", err)
	}
	defer logger1.Close()

	logger2, err := NewLogger("notebook")
	if err != nil {
		t.Fatalf("Failed to create logger2: %v", err)
	}
	defer logger2.Close()

	if logger1.RunID() != logger2.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", logger1.RunID(), logger2.RunID())
	}

	if logger1.LogPath() != logger2.LogPath() {
		t.Errorf("Expected same log path, got %q and %q", logger1.LogPath(), logger2.LogPath())
	}

	logger1.Infof("Message from session")
	logger2.Infof("Message from notebook")

	content, err := os.ReadFile(logger1.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)
	if !strings.Contains(logContent, "[session]") {
		t.Error("Log missing session entries")
	}
	if !strings.Contains(logContent, "[notebook]") {
		t.Error("Log missing notebook entries")
	}
}

func TestLogPathFormat(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("session")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	// Log file name is <run-id>.log with a UUID run id
	fileName := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(fileName, ".log") {
		t.Errorf("Expected log file to end with '.log', got %q", fileName)
	}

	runPart := strings.TrimSuffix(fileName, ".log")
	if !strings.Contains(runPart, "-") {
		t.Errorf("Expected run ID part to contain dashes (UUID format), got %q", runPart)
	}
}

func TestLoggerClose(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("session")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()

	// Must be safe to use without any filesystem setup
	logger.Infof("dropped")
	logger.Errorf("also dropped")

	if logger.LogPath() != "" {
		t.Errorf("Discard logger should have no log path, got %q", logger.LogPath())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
