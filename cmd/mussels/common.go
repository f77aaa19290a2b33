package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/internal/plan"
	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/internal/store"
	"github.com/bdwyertech/mussels/internal/toolchain"
	"github.com/bdwyertech/mussels/pkg/mussels"
)

// resolvedDataDir applies the --data-dir flag over the persisted
// config.json default over the built-in ~/.mussels fallback, in that
// order of precedence.
func resolvedDataDir() string {
	if d := viper.GetString("data-dir"); d != "" {
		return d
	}
	s := store.New(defaultHomeDataDir())
	opts, err := s.LoadOptions()
	if err != nil {
		return defaultHomeDataDir()
	}
	return opts.GetDataDir()
}

func defaultHomeDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mussels"
	}
	return home + "/.mussels"
}

func hostTarget() string {
	if t := viper.GetString("target"); t != "" {
		return t
	}
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

// loadCatalog reads the on-disk bookshelf into a fresh Catalog, pulling
// known cookbook metadata from the config store first so cookbooks
// recorded but not yet synced still appear.
func loadCatalog() (*catalog.Catalog, error) {
	dataDir := resolvedDataDir()
	s := store.New(dataDir)
	known, err := s.LoadCookbooks()
	if err != nil {
		log.Warnf("loading cookbook metadata: %v", err)
		known = map[string]mussels.Cookbook{}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cat, err := catalog.Load(dataDir, cwd, known)
	if err != nil {
		return nil, err
	}
	if err := s.SaveCookbooks(cat.Cookbooks); err != nil {
		log.Warnf("persisting cookbook metadata: %v", err)
	}
	if cat.Errors.HasErrors() {
		for kind, count := range cat.Errors.Summary() {
			log.Warnf("catalog: %d %s error(s) encountered while loading", count, kind)
		}
	}
	return cat, nil
}

// resolvePlan runs C3 (resolve) and C4 (plan) for rootRef against cat,
// restricted to the given target platform. The returned Index carries
// every stickiness pinning made during resolution; callers must reuse it
// (not rebuild a fresh one) for any subsequent select, e.g. the toolchain
// probe's fallback re-pinning.
func resolvePlan(cat *catalog.Catalog, rootRef mussels.Reference, target string) ([]plan.Batch, []resolve.Triple, *catalog.Index, error) {
	idx := catalog.BuildIndex(cat)
	r := resolve.New(cat, idx, mussels.Platform(target))

	triples, toolTriples, err := r.Resolve(rootRef)
	if err != nil {
		return nil, nil, nil, err
	}

	batches, err := plan.Build(triples)
	if err != nil {
		return nil, nil, nil, err
	}
	return batches, toolTriples, idx, nil
}

// probeToolchain runs C5 over a resolution's pinned tool triples against
// the same Index the resolution used, returning MissingToolError if any
// tool fails to detect.
func probeToolchain(ctx context.Context, cat *catalog.Catalog, idx *catalog.Index, toolTriples []resolve.Triple) (toolchain.Toolchain, error) {
	prober := toolchain.New(cat, idx, nil)
	result := prober.Probe(ctx, toolTriples)
	if len(result.Missing) > 0 {
		return nil, toolchain.MissingToolError(result.Missing)
	}
	return result.Toolchain, nil
}
