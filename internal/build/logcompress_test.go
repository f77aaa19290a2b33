package build

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCompressLogReplacesPlainTextWithZstd(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "curl-8.0.0.log")
	content := "configure: checking for gcc... yes\nbuild complete\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("seeding log file: %v", err)
	}

	if err := compressLog(logPath); err != nil {
		t.Fatalf("compressLog: %v", err)
	}

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("expected plain-text log to be removed, stat err: %v", err)
	}

	f, err := os.Open(logPath + ".zst")
	if err != nil {
		t.Fatalf("expected compressed log to exist: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("opening zstd reader: %v", err)
	}
	defer dec.Close()

	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("reading decompressed log: %v", err)
	}
	if string(got) != content {
		t.Fatalf("round-tripped log mismatch: got %q want %q", got, content)
	}
}

func TestCompressLogMissingSourceErrors(t *testing.T) {
	if err := compressLog(filepath.Join(t.TempDir(), "does-not-exist.log")); err == nil {
		t.Fatalf("expected error compressing a nonexistent log file")
	}
}
