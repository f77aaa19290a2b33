package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupCreatesAppendOnlyLogFile(t *testing.T) {
	dataDir := t.TempDir()

	f, err := Setup(dataDir, false, true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer f.Close()

	log.Info("hello from setup test")

	data, err := os.ReadFile(filepath.Join(dataDir, "log", "mussels.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from setup test") {
		t.Fatalf("expected log file to contain the logged line, got %q", data)
	}
}

func TestSetupVerboseEnablesDebugLevel(t *testing.T) {
	dataDir := t.TempDir()

	f, err := Setup(dataDir, true, false)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer f.Close()

	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level when verbose is set, got %v", log.GetLevel())
	}
}

func TestNewFileLoggerWritesToItsOwnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe", "build.log")

	l, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer f.Close()

	l.Info("building widget-1.0.0")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading build log: %v", err)
	}
	if !strings.Contains(string(data), "building widget-1.0.0") {
		t.Fatalf("expected build log to contain the logged line, got %q", data)
	}
}
