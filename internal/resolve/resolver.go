// Package resolve implements C3, the resolver: for a root reference,
// walk declared dependencies and required tools, pin a single
// (name, version, cookbook) triple per name via C2's global-sticky
// select, and detect cycles - the single-threaded, recursive core of
// the system.
package resolve

import (
	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// Triple is one pinned (name, version, cookbook) result, carrying enough
// of the underlying Item for the planner and driver to act on it without
// a second catalog lookup.
type Triple struct {
	Name     string
	Version  mussels.Version
	Cookbook string
	Item     mussels.Item
}

// Resolver walks a catalog's dependency graph starting from a root
// reference, pinning every transitively-required recipe and tool.
// Resolution is single-threaded by contract: the pinning mutation in
// the underlying Index must be serialized relative to every Select call
// in the same resolution, which a recursive, non-concurrent walk gives
// for free.
type Resolver struct {
	cat  *catalog.Catalog
	idx  *catalog.Index
	host mussels.Platform

	// triples accumulates the result in dependency-first order: a
	// node's dependencies are appended before the node itself, which is
	// exactly the order the batch planner's Kahn pass needs as input.
	triples []Triple
	seen    map[string]bool
	// toolTriples accumulates every required_tools selection,
	// deduplicated and in selection order - tools are selected but
	// never recursed into.
	toolTriples []Triple
	toolsSeen   map[string]bool
}

// New returns a Resolver over idx, restricted to recipes/tools whose
// platform targets host (empty host means no platform filtering).
func New(cat *catalog.Catalog, idx *catalog.Index, host mussels.Platform) *Resolver {
	return &Resolver{
		cat:       cat,
		idx:       idx,
		host:      host,
		seen:      map[string]bool{},
		toolsSeen: map[string]bool{},
	}
}

// Resolve walks rootRef and everything it transitively requires,
// returning the pinned triples in dependency-first order plus the
// distinct set of required-tool triples. Failure modes: errs.Kind
// KindUnsatisfiableRef, KindCircularDependency, KindMissingPlatform.
func (r *Resolver) Resolve(rootRef mussels.Reference) ([]Triple, []Triple, error) {
	if rootRef.Cookbook == "" {
		rootRef = rootRef.WithDefaultCookbook("local")
	}
	if err := r.walk(rootRef, nil); err != nil {
		return nil, nil, err
	}
	return r.triples, r.toolTriples, nil
}

// walk resolves ref, recurses into its dependencies and required tools,
// then appends its own triple. chain is the stack of names currently
// being expanded, used to detect a cycle back to the chain's own base:
// if the newly selected name equals any name already on the stack, that
// is a circular dependency.
func (r *Resolver) walk(ref mussels.Reference, chain []string) error {
	name, version, cookbook, err := r.selectWithPlatform(ref)
	if err != nil {
		return err
	}

	for _, base := range chain {
		if base == name {
			return errs.CircularDependency(append(append([]string{}, chain...), name))
		}
	}

	if r.seen[name] {
		return nil
	}

	item, ok := r.cat.Lookup(name, version, cookbook)
	if !ok {
		return errs.UnsatisfiableReference(ref.String(), nil)
	}

	nextChain := append(append([]string{}, chain...), name)

	for _, depRef := range item.Dependencies() {
		parsed, err := mussels.ParseReference(depRef)
		if err != nil {
			return err
		}
		parsed = parsed.WithDefaultCookbook(cookbook)
		if err := r.walk(parsed, nextChain); err != nil {
			return err
		}
	}

	if item.Kind == mussels.KindRecipe {
		for _, toolRef := range item.Recipe.RequiredTools {
			parsed, err := mussels.ParseReference(toolRef)
			if err != nil {
				return err
			}
			parsed = parsed.WithDefaultCookbook(cookbook)
			if err := r.selectTool(parsed); err != nil {
				return err
			}
		}
	}

	r.seen[name] = true
	r.triples = append(r.triples, Triple{Name: name, Version: version, Cookbook: cookbook, Item: item})
	return nil
}

// selectTool pins a required-tool reference against the same index
// (tools and recipes share the name/version/cookbook namespace) but
// never recurses into the tool's own dependencies - tools are leaves
// by contract.
func (r *Resolver) selectTool(ref mussels.Reference) error {
	name, version, cookbook, err := r.selectWithPlatform(ref)
	if err != nil {
		return err
	}
	if r.toolsSeen[name] {
		return nil
	}
	item, ok := r.cat.Lookup(name, version, cookbook)
	if !ok {
		return errs.UnsatisfiableReference(ref.String(), nil)
	}
	r.toolsSeen[name] = true
	r.toolTriples = append(r.toolTriples, Triple{Name: name, Version: version, Cookbook: cookbook, Item: item})
	return nil
}

func (r *Resolver) selectWithPlatform(ref mussels.Reference) (name string, version mussels.Version, cookbook string, err error) {
	if r.host == "" {
		return r.idx.Select(ref)
	}
	return r.idx.SelectPlatform(r.cat, ref, r.host)
}
