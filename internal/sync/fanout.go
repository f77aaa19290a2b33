package sync

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Target names one cookbook's sync job.
type Target struct {
	Name       string
	URL        string
	TargetPath string
}

// Result records the outcome of syncing one Target.
type Result struct {
	Target Target
	Err    error
}

// UpdateAll syncs every target concurrently, capped at workerCount
// in-flight jobs, via the pool.New().WithContext(ctx).WithMaxGoroutines(...)
// idiom. A single cookbook's failure is recorded in its Result and
// never aborts the others.
func UpdateAll(ctx context.Context, syncer *Syncer, targets []Target, workerCount int) []Result {
	if workerCount < 1 {
		workerCount = 1
	}

	results := make([]Result, len(targets))
	var mu sync.Mutex

	p := pool.New().WithContext(ctx).WithMaxGoroutines(workerCount)
	for i, t := range targets {
		i, t := i, t
		p.Go(func(ctx context.Context) error {
			err := syncer.Sync(ctx, t.Name, t.URL, t.TargetPath)
			if err != nil {
				log.WithField("cookbook", t.Name).Warnf("sync failed: %v", err)
			}
			mu.Lock()
			results[i] = Result{Target: t, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	return results
}
