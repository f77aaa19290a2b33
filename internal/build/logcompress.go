package build

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// compressLog zstd-compresses src in place, replacing it with
// src+".zst" and removing the plain-text copy. Called after a recipe's
// build completes (success or failure) so the on-disk log tree doesn't
// accumulate uncompressed build output for every recipe ever built;
// the install tree and download cache are left to `clean install` /
// `clean cache`, but the log tree shrinks automatically.
func compressLog(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".zst")
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		return err
	}

	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
