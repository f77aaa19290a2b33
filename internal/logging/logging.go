// Package logging sets up the ambient logrus configuration: a
// stderr sink plus an append-only file handler under
// <data_dir>/log/mussels.log (verbose -> debug level, --no-color ->
// disabled formatter colors).
package logging

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// lineFlushWriter wraps an *os.File and fsyncs after every Write, so log
// lines are flushed per-line and don't interleave or truncate under
// concurrent batch execution.
type lineFlushWriter struct {
	f *os.File
}

func (w *lineFlushWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.f.Sync()
}

// Setup configures the package-level logrus logger and returns the
// opened log file (the caller is responsible for closing it at exit).
func Setup(dataDir string, verbose, noColor bool) (*os.File, error) {
	logDir := filepath.Join(dataDir, "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(logDir, "mussels.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lineFlushWriter{f: f}))
	log.SetFormatter(&log.TextFormatter{
		DisableColors:          noColor,
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	return f, nil
}

// NewFileLogger returns a standalone logger writing only to path, used
// by the build driver to capture a recipe's own stdout/stderr into its
// per-recipe build log, distinct from the shared mussels.log the rest
// of the system logs to.
func NewFileLogger(path string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := log.New()
	l.SetOutput(&lineFlushWriter{f: f})
	l.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	return l, f, nil
}
