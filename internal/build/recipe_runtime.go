package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bdwyertech/mussels/internal/logging"
	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/internal/toolchain"
	"github.com/bdwyertech/mussels/pkg/buildtmpl"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// DependencyPaths accumulates the include/lib/bin paths a recipe's
// direct, already-built dependencies expose through their
// InstallPaths, for a build script's {includes}/{libs}/{bins}
// placeholders. Transitive dependencies are not included.
type DependencyPaths struct {
	Includes []string
	Libs     []string
	Bins     []string
}

// runRecipe executes the build protocol for one recipe: download the
// source archive, extract it (applying
// any rename hint), render the build-script template against the
// toolchain and dependency install paths, run the rendered script in
// one host shell (sh -c), and install artifacts into the data
// directory's install tree.
func runRecipe(ctx context.Context, dataDir string, t resolve.Triple, tc toolchain.Toolchain, deps DependencyPaths, target string, clean bool, logPath string) error {
	r := t.Item.Recipe

	installRoot := filepath.Join(dataDir, "install", r.Name)
	cacheRoot := filepath.Join(dataDir, "cache", fmt.Sprintf("%s-%s", r.Name, r.Version))

	if clean {
		if err := os.RemoveAll(installRoot); err != nil {
			return fmt.Errorf("clean: removing prior install of %s: %w", r.Name, err)
		}
	}

	if r.IsCollection {
		// A collection has no build step of its own; its dependencies
		// already ran. Nothing further to do.
		return nil
	}

	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		return fmt.Errorf("creating cache workspace for %s: %w", r.Name, err)
	}
	if err := os.MkdirAll(installRoot, 0o755); err != nil {
		return fmt.Errorf("creating install root for %s: %w", r.Name, err)
	}

	if r.SourceURL != "" {
		if err := downloadAndExtract(ctx, r.SourceURL, cacheRoot); err != nil {
			return errs.Network("downloading source for "+r.Name, err)
		}
		if err := applyRenameHint(cacheRoot, r.RenameHint); err != nil {
			return fmt.Errorf("applying rename hint for %s: %w", r.Name, err)
		}
	}

	_, script := r.ForTarget(target)
	if script == "" {
		return fmt.Errorf("recipe %s has no build_script for target %q", r.Name, target)
	}

	rendered, err := buildtmpl.Render(script, renderContext(r, target, installRoot, tc, deps))
	if err != nil {
		return err
	}

	buildLogger, logFile, err := logging.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("opening build log for %s: %w", r.Name, err)
	}
	defer func() {
		logFile.Close()
		_ = compressLog(logPath)
	}()
	logWriter := buildLogger.Writer()
	defer logWriter.Close()

	cmd := exec.CommandContext(ctx, "sh", "-c", rendered)
	cmd.Dir = cacheRoot
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter
	if err := cmd.Run(); err != nil {
		return errs.BuildStepFailed(r.Name, string(r.Version), err)
	}

	return installArtifacts(r, target, cacheRoot, installRoot)
}

func renderContext(r *mussels.Recipe, target, installRoot string, tc toolchain.Toolchain, deps DependencyPaths) buildtmpl.Context {
	toolchainMap := make(map[string]buildtmpl.ToolInstance, len(tc))
	for name, inst := range tc {
		toolchainMap[name] = buildtmpl.ToolInstance{Path: inst.Path, Version: string(inst.Version)}
	}
	return buildtmpl.Context{
		Recipe:      r.Name,
		Version:     string(r.Version),
		Target:      target,
		InstallRoot: installRoot,
		Toolchain:   toolchainMap,
		Includes:    deps.Includes,
		Libs:        deps.Libs,
		Bins:        deps.Bins,
		BuildID:     uuid.Must(uuid.NewV7()).String(),
	}
}

// installArtifacts copies each install_paths role's files from the
// cache workspace into the recipe's install root, per install_paths[target].
func installArtifacts(r *mussels.Recipe, target, cacheRoot, installRoot string) error {
	paths, _ := r.ForTarget(target)
	for role, entries := range paths {
		for _, rel := range entries {
			src := filepath.Join(cacheRoot, rel)
			dst := filepath.Join(installRoot, role, filepath.Base(rel))
			if err := copyPath(src, dst); err != nil {
				return fmt.Errorf("installing %s artifact %s for %s: %w", role, rel, r.Name, err)
			}
		}
	}
	return nil
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst, info.Mode())
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyDir(s, d); err != nil {
				return err
			}
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		if err := copyFile(s, d, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}

// collectDependencyPaths walks a recipe's direct dependencies (already
// built, per batch ordering) and gathers their exposed install_paths
// into the flat include/lib/bin lists a build-script template consumes.
func collectDependencyPaths(r *mussels.Recipe, target, dataDir string, triples map[string]resolve.Triple) DependencyPaths {
	var deps DependencyPaths
	for _, depRef := range r.Dependencies {
		parsed, err := mussels.ParseReference(depRef)
		if err != nil {
			continue
		}
		dep, ok := triples[parsed.Name]
		if !ok || dep.Item.Kind != mussels.KindRecipe {
			continue
		}
		paths, _ := dep.Item.Recipe.ForTarget(target)
		installRoot := filepath.Join(dataDir, "install", dep.Name)
		for _, rel := range paths["include"] {
			deps.Includes = append(deps.Includes, filepath.Join(installRoot, "include", filepath.Base(rel)))
		}
		for _, rel := range paths["lib"] {
			deps.Libs = append(deps.Libs, filepath.Join(installRoot, "lib", filepath.Base(rel)))
		}
		for _, rel := range paths["bin"] {
			deps.Bins = append(deps.Bins, filepath.Join(installRoot, "bin", filepath.Base(rel)))
		}
	}
	return deps
}
