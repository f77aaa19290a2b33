// Package build implements C6, the build driver, and the execution half
// of C9, the recipe runtime: batch-by-batch execution of a resolved
// plan against a validated toolchain, honoring trust, dry-run, and
// clean flags.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/internal/plan"
	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/internal/toolchain"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// Outcome is the per-recipe record C6 accumulates: name, version,
// success, elapsed, extended with Skipped to distinguish "never
// attempted because an earlier batch failed" from an
// attempted-and-failed build.
type Outcome struct {
	BatchIndex int
	Name       string
	Version    string
	Success    bool
	Skipped    bool
	Elapsed    time.Duration
	Err        error
}

// Options configures one Drive call.
type Options struct {
	DataDir     string
	Target      string
	DryRun      bool
	Clean       bool
	WorkerCount int
}

// Summary is the full result of driving a plan: every outcome plus the
// overall boolean success, true iff every recipe succeeded and none
// were skipped due to upstream failure.
type Summary struct {
	Outcomes []Outcome
	Success  bool
}

// Drive executes batches in strict sequential order; within a batch,
// recipes run concurrently capped at opts.WorkerCount via the same
// pool.New().WithMaxGoroutines(...) idiom used for concurrent cookbook
// downloads. Batch k+1 never starts until every recipe in batch k has
// terminated.
func Drive(ctx context.Context, batches []plan.Batch, cat *catalog.Catalog, tc toolchain.Toolchain, opts Options) Summary {
	workerCount := opts.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	byName := map[string]resolve.Triple{}
	for _, b := range batches {
		for _, t := range b {
			byName[t.Name] = t
		}
	}

	var summary Summary
	upstreamFailed := false
	position := 0

	for batchIdx, batch := range batches {
		if opts.DryRun {
			for i, t := range batch {
				position++
				fmt.Printf("%2d [%d: %d]: %s-%s\n", position, batchIdx, i, t.Name, t.Version)
				for _, tool := range requiredToolNames(t) {
					fmt.Printf("      tool: %s\n", tool)
				}
			}
			continue
		}

		if upstreamFailed {
			for _, t := range batch {
				if cb, ok := cat.Cookbooks[t.Cookbook]; !ok || !cb.Trusted {
					err := errs.UntrustedCookbook(t.Name, string(t.Version), t.Cookbook, cb.URL)
					log.Error(err.Error())
					summary.Outcomes = append(summary.Outcomes, Outcome{
						BatchIndex: batchIdx, Name: t.Name, Version: string(t.Version), Err: err,
					})
					continue
				}
				summary.Outcomes = append(summary.Outcomes, Outcome{
					BatchIndex: batchIdx, Name: t.Name, Version: string(t.Version), Skipped: true,
				})
			}
			continue
		}

		outcomes := runBatch(ctx, batchIdx, batch, cat, tc, byName, opts, workerCount)
		summary.Outcomes = append(summary.Outcomes, outcomes...)

		for _, o := range outcomes {
			if !o.Success {
				upstreamFailed = true
			}
		}
	}

	sort.Slice(summary.Outcomes, func(i, j int) bool {
		if summary.Outcomes[i].BatchIndex != summary.Outcomes[j].BatchIndex {
			return summary.Outcomes[i].BatchIndex < summary.Outcomes[j].BatchIndex
		}
		return summary.Outcomes[i].Name < summary.Outcomes[j].Name
	})

	summary.Success = true
	for _, o := range summary.Outcomes {
		if !o.Success || o.Skipped {
			summary.Success = false
			break
		}
	}

	return summary
}

func runBatch(ctx context.Context, batchIdx int, batch plan.Batch, cat *catalog.Catalog, tc toolchain.Toolchain, byName map[string]resolve.Triple, opts Options, workerCount int) []Outcome {
	outcomes := make([]Outcome, len(batch))
	var mu sync.Mutex

	p := pool.New().WithContext(ctx).WithMaxGoroutines(workerCount)
	for i, t := range batch {
		i, t := i, t
		p.Go(func(ctx context.Context) error {
			o := buildOne(ctx, batchIdx, t, cat, tc, byName, opts)
			mu.Lock()
			outcomes[i] = o
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	return outcomes
}

func buildOne(ctx context.Context, batchIdx int, t resolve.Triple, cat *catalog.Catalog, tc toolchain.Toolchain, byName map[string]resolve.Triple, opts Options) Outcome {
	start := time.Now()

	cb, ok := cat.Cookbooks[t.Cookbook]
	if !ok || !cb.Trusted {
		err := errs.UntrustedCookbook(t.Name, string(t.Version), t.Cookbook, cb.URL)
		log.Error(err.Error())
		return Outcome{BatchIndex: batchIdx, Name: t.Name, Version: string(t.Version), Success: false, Elapsed: time.Since(start), Err: err}
	}

	deps := collectDependencyPaths(t.Item.Recipe, opts.Target, opts.DataDir, byName)
	logPath := filepath.Join(opts.DataDir, "log", fmt.Sprintf("%s-%s.log", t.Name, t.Version))

	err := runRecipe(ctx, opts.DataDir, t, tc, deps, opts.Target, opts.Clean, logPath)
	success := err == nil
	if err != nil {
		log.Errorf("build failed for %s-%s: %v", t.Name, t.Version, err)
	}

	return Outcome{BatchIndex: batchIdx, Name: t.Name, Version: string(t.Version), Success: success, Elapsed: time.Since(start), Err: err}
}

func requiredToolNames(t resolve.Triple) []string {
	if t.Item.Kind != mussels.KindRecipe || t.Item.Recipe == nil {
		return nil
	}
	return t.Item.Recipe.RequiredTools
}
