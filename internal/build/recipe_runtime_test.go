package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/internal/toolchain"
	"github.com/bdwyertech/mussels/pkg/mussels"
)

func TestRunRecipeBuildsAndInstallsArtifact(t *testing.T) {
	dataDir := t.TempDir()

	r := &mussels.Recipe{
		Cookbook: "acme",
		Name:     "widget",
		Version:  mussels.Version("1.0.0"),
		BuildScript: map[string]string{
			"": "echo built > widget.txt",
		},
		InstallPaths: map[string]mussels.InstallPaths{
			"": {"bin": {"widget.txt"}},
		},
	}
	tr := resolve.Triple{Name: "widget", Version: r.Version, Cookbook: "acme", Item: mussels.NewRecipeItem(r)}

	logPath := filepath.Join(dataDir, "log", "widget-1.0.0.log")
	err := runRecipe(context.Background(), dataDir, tr, toolchain.Toolchain{}, DependencyPaths{}, "", false, logPath)
	if err != nil {
		t.Fatalf("runRecipe: %v", err)
	}

	installed := filepath.Join(dataDir, "install", "widget", "bin", "widget.txt")
	if _, err := os.Stat(installed); err != nil {
		t.Fatalf("expected installed artifact: %v", err)
	}

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("expected plain-text log to have been compressed away")
	}
	if _, err := os.Stat(logPath + ".zst"); err != nil {
		t.Fatalf("expected compressed build log: %v", err)
	}
}

func TestRunRecipeFailingBuildScriptReturnsBuildStepFailed(t *testing.T) {
	dataDir := t.TempDir()

	r := &mussels.Recipe{
		Cookbook:    "acme",
		Name:        "broken",
		Version:     mussels.Version("1.0.0"),
		BuildScript: map[string]string{"": "exit 7"},
	}
	tr := resolve.Triple{Name: "broken", Version: r.Version, Cookbook: "acme", Item: mussels.NewRecipeItem(r)}

	logPath := filepath.Join(dataDir, "log", "broken-1.0.0.log")
	err := runRecipe(context.Background(), dataDir, tr, toolchain.Toolchain{}, DependencyPaths{}, "", false, logPath)
	if err == nil {
		t.Fatalf("expected build failure error")
	}
}

func TestRunRecipeCollectionIsNoop(t *testing.T) {
	dataDir := t.TempDir()

	r := &mussels.Recipe{
		Cookbook:     "acme",
		Name:         "meta",
		Version:      mussels.Version("1.0.0"),
		IsCollection: true,
	}
	tr := resolve.Triple{Name: "meta", Version: r.Version, Cookbook: "acme", Item: mussels.NewRecipeItem(r)}

	err := runRecipe(context.Background(), dataDir, tr, toolchain.Toolchain{}, DependencyPaths{}, "", false, filepath.Join(dataDir, "log", "meta.log"))
	if err != nil {
		t.Fatalf("expected collection build to be a no-op, got %v", err)
	}
}

func TestCollectDependencyPathsGathersDirectDependenciesOnly(t *testing.T) {
	dataDir := t.TempDir()

	zlib := &mussels.Recipe{
		Cookbook: "acme",
		Name:     "zlib",
		Version:  mussels.Version("1.3.1"),
		InstallPaths: map[string]mussels.InstallPaths{
			"": {"include": {"zlib.h"}, "lib": {"libz.a"}},
		},
	}
	curl := &mussels.Recipe{
		Cookbook:     "acme",
		Name:         "curl",
		Version:      mussels.Version("8.0.0"),
		Dependencies: []string{"zlib"},
	}

	triples := map[string]resolve.Triple{
		"zlib": {Name: "zlib", Version: zlib.Version, Cookbook: "acme", Item: mussels.NewRecipeItem(zlib)},
		"curl": {Name: "curl", Version: curl.Version, Cookbook: "acme", Item: mussels.NewRecipeItem(curl)},
	}

	deps := collectDependencyPaths(curl, "", dataDir, triples)

	if len(deps.Includes) != 1 || filepath.Base(deps.Includes[0]) != "zlib.h" {
		t.Fatalf("expected one include path for zlib.h, got %v", deps.Includes)
	}
	if len(deps.Libs) != 1 || filepath.Base(deps.Libs[0]) != "libz.a" {
		t.Fatalf("expected one lib path for libz.a, got %v", deps.Libs)
	}
}
