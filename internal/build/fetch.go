package build

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// downloadAndExtract fetches sourceURL and extracts its regular files
// into destDir, stripping the archive's single top-level directory.
// Reports progress via schollz/progressbar since recipe source archives
// (full toolchains, language runtimes) run far larger than a typical
// cookbook tarball.
func downloadAndExtract(ctx context.Context, sourceURL, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: HTTP %d", sourceURL, resp.StatusCode)
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetDescription(filepath.Base(sourceURL)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	reader := io.TeeReader(resp.Body, bar)

	gz, err := gzip.NewReader(reader)
	if err != nil {
		return fmt.Errorf("opening gzip stream for %s: %w", sourceURL, err)
	}
	defer gz.Close()

	return extractTar(gz, destDir)
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}

		if header.Typeflag != tar.TypeReg && header.Typeflag != tar.TypeDir {
			continue
		}

		relPath := stripTopLevel(header.Name)
		if relPath == "" {
			continue
		}
		targetPath := filepath.Join(destDir, relPath)

		if header.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", targetPath, err)
		}

		out, err := os.Create(targetPath)
		if err != nil {
			return fmt.Errorf("creating file %s: %w", targetPath, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("writing file %s: %w", targetPath, err)
		}
		out.Close()
		_ = os.Chmod(targetPath, os.FileMode(header.Mode))
	}
}

// stripTopLevel drops an archive's single leading path component
// ("zlib-1.3.1/src/foo.c" -> "src/foo.c"), the same convention the
// teacher's vendor tarball extraction applies for Supermarket cookbook
// archives.
func stripTopLevel(name string) string {
	parts := strings.Split(filepath.ToSlash(name), "/")
	if len(parts) <= 1 {
		return ""
	}
	return filepath.Join(parts[1:]...)
}

// applyRenameHint renames a single extracted top-level entry, used when
// an upstream archive's internal directory name does not match what the
// build script expects.
func applyRenameHint(destDir, hint string) error {
	if hint == "" {
		return nil
	}
	parts := strings.SplitN(hint, "->", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed rename hint %q, expected \"from->to\"", hint)
	}
	from := filepath.Join(destDir, strings.TrimSpace(parts[0]))
	to := filepath.Join(destDir, strings.TrimSpace(parts[1]))
	if _, err := os.Stat(from); os.IsNotExist(err) {
		return nil
	}
	return os.Rename(from, to)
}
