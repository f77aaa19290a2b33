// Package plan implements C4, the batch planner: it partitions a
// resolver's pinned triples into layered batches such that every batch
// depends only on earlier batches.
package plan

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// Batch is one layer of the plan: an unordered set of names safe to
// build concurrently.
type Batch []resolve.Triple

// Build runs Kahn's algorithm over triples (required_tools excluded -
// each triple's direct dependency names, tools excluded), repeatedly
// extracting the set of names with no remaining unsatisfied dependency
// and emitting it as the next batch.
func Build(triples []resolve.Triple) ([]Batch, error) {
	byName := make(map[string]resolve.Triple, len(triples))
	remaining := make(map[string]map[string]bool, len(triples))

	for _, t := range triples {
		byName[t.Name] = t
		deps := map[string]bool{}
		for _, depRef := range t.Item.Dependencies() {
			parsed, err := mussels.ParseReference(depRef)
			if err != nil {
				continue
			}
			if parsed.Name == t.Name {
				continue
			}
			deps[parsed.Name] = true
		}
		remaining[t.Name] = deps
	}

	var batches []Batch
	for len(remaining) > 0 {
		var ready []string
		for name, deps := range remaining {
			if allSatisfied(deps, remaining) {
				ready = append(ready, name)
			}
		}

		if len(ready) == 0 {
			return nil, cycleError(triples, remaining)
		}

		batch := make(Batch, 0, len(ready))
		for _, name := range ready {
			batch = append(batch, byName[name])
			delete(remaining, name)
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

// allSatisfied reports whether every dependency in deps either isn't
// itself part of the remaining set (already emitted in an earlier
// batch, or not a plan member - e.g. a tool reference that slipped into
// Dependencies()) or has itself already been emitted.
func allSatisfied(deps map[string]bool, remaining map[string]map[string]bool) bool {
	for dep := range deps {
		if _, stillPending := remaining[dep]; stillPending {
			return false
		}
	}
	return true
}

// cycleError is raised when Kahn's pass stalls with nodes left but none
// ready - a second line of defense against cycles that slipped past the
// resolver. It also double-checks via gonum's topo.Sort to recover the
// actual cyclic chain for the error message.
func cycleError(triples []resolve.Triple, remaining map[string]map[string]bool) error {
	chain := findCycleChain(triples, remaining)
	if chain != nil {
		return errs.CircularDependency(chain)
	}

	names := make([]string, 0, len(remaining))
	for name := range remaining {
		names = append(names, name)
	}
	return errs.CircularDependency(names)
}

// findCycleChain rebuilds a gonum directed graph over exactly the
// triples still stuck in remaining and asks topo.Sort to confirm and
// localize the cycle.
func findCycleChain(triples []resolve.Triple, remaining map[string]map[string]bool) []string {
	g := simple.NewDirectedGraph()
	ids := map[string]int64{}
	names := map[int64]string{}
	var nextID int64 = 1

	nodeID := func(name string) int64 {
		if id, ok := ids[name]; ok {
			return id
		}
		id := nextID
		nextID++
		ids[name] = id
		names[id] = name
		g.AddNode(simpleNode(id))
		return id
	}

	for _, t := range triples {
		if _, stuck := remaining[t.Name]; !stuck {
			continue
		}
		from := nodeID(t.Name)
		for dep := range remaining[t.Name] {
			to := nodeID(dep)
			g.SetEdge(g.NewEdge(simpleNode(from), simpleNode(to)))
		}
	}

	if _, err := topo.Sort(g); err == nil {
		return nil
	}

	cycles := topo.DirectedCyclesIn(g)
	if len(cycles) == 0 {
		return nil
	}
	chain := make([]string, 0, len(cycles[0])+1)
	for _, n := range cycles[0] {
		chain = append(chain, names[n.ID()])
	}
	if len(chain) > 0 {
		chain = append(chain, chain[0])
	}
	return chain
}

type simpleNode int64

func (n simpleNode) ID() int64 { return int64(n) }
