package catalog

import (
	"sort"

	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// Entry is one version's record in an index: the version and the
// cookbooks that define it. BuildIndex lists the cookbooks in name
// order; the only reordering is Select moving the chosen cookbook to
// the front. No other user preference is recorded.
type Entry struct {
	Version   mussels.Version
	Cookbooks []string
}

// Index is the per-name descending version list the resolver selects
// from. Select mutates the index in place so later unconstrained
// lookups of the same name return the same triple within one
// resolution - this is the type that carries that mutable state.
type Index struct {
	// byName[name] is the descending-by-version entry list, merged
	// across all cookbooks.
	byName map[string][]Entry
}

// BuildIndex merges a Catalog's items into a fresh Index. Each call
// returns an independent Index so that stickiness mutations from one
// resolution never leak into another.
func BuildIndex(cat *Catalog) *Index {
	idx := &Index{byName: map[string][]Entry{}}

	for name, byVersion := range cat.Items {
		entries := make([]Entry, 0, len(byVersion))
		for version, byCookbook := range byVersion {
			cookbooks := make([]string, 0, len(byCookbook))
			for cb := range byCookbook {
				cookbooks = append(cookbooks, cb)
			}
			sort.Strings(cookbooks)
			entries = append(entries, Entry{Version: version, Cookbooks: cookbooks})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Version.GreaterThan(entries[j].Version)
		})
		idx.byName[name] = entries
	}

	return idx
}

// EntriesFor returns the current descending version-entry list for name,
// reflecting any stickiness mutation already applied this resolution.
func (idx *Index) EntriesFor(name string) []Entry {
	return idx.byName[name]
}

// Select implements the C2 "select" operation: parse is the caller's
// responsibility (the resolver passes an already-parsed Reference);
// Select filters by name/version/cookbook constraints,
// returns the highest surviving entry's first-listed cookbook, and
// mutates the index so that entry becomes the head with the chosen
// cookbook first - the "stickiness" that pins repeated lookups within
// one resolution to the same triple.
func (idx *Index) Select(ref mussels.Reference) (name string, version mussels.Version, cookbook string, err error) {
	entries := idx.byName[ref.Name]
	if len(entries) == 0 {
		return "", "", "", errs.UnsatisfiableReference(ref.String(), nil)
	}

	matchIdx := -1
	cbIdx := -1
	for i, e := range entries {
		if ref.Version != "" && !e.Version.Equal(ref.Version) {
			continue
		}
		if ref.Cookbook != "" {
			j := indexOf(e.Cookbooks, ref.Cookbook)
			if j < 0 {
				continue
			}
			matchIdx, cbIdx = i, j
			break
		}
		matchIdx, cbIdx = i, 0
		break
	}

	if matchIdx < 0 {
		return "", "", "", errs.UnsatisfiableReference(ref.String(), nil)
	}

	selected := entries[matchIdx]
	chosenCookbook := selected.Cookbooks[cbIdx]

	idx.pin(ref.Name, matchIdx, cbIdx)

	return ref.Name, selected.Version, chosenCookbook, nil
}

// SelectPlatform is Select restricted to entries whose Item (looked up
// in cat) targets host, signaling MissingPlatformVariant when every
// surviving version is excluded by platform.
func (idx *Index) SelectPlatform(cat *Catalog, ref mussels.Reference, host mussels.Platform) (name string, version mussels.Version, cookbook string, err error) {
	entries := idx.byName[ref.Name]
	if len(entries) == 0 {
		return "", "", "", errs.UnsatisfiableReference(ref.String(), nil)
	}

	anySurvived := false
	for i, e := range entries {
		if ref.Version != "" && !e.Version.Equal(ref.Version) {
			continue
		}
		for j, cb := range e.Cookbooks {
			if ref.Cookbook != "" && cb != ref.Cookbook {
				continue
			}
			item, ok := cat.Lookup(ref.Name, e.Version, cb)
			if !ok {
				continue
			}
			anySurvived = true
			if !item.MatchesPlatform(host) {
				continue
			}
			idx.pin(ref.Name, i, j)
			return ref.Name, e.Version, cb, nil
		}
	}

	if anySurvived {
		return "", "", "", errs.MissingPlatformVariant(ref.Name, string(host))
	}
	return "", "", "", errs.UnsatisfiableReference(ref.String(), nil)
}

// pin performs the stickiness mutation: move entries[matchIdx] to the
// front of the slice, and within it move Cookbooks[cbIdx] to the front.
func (idx *Index) pin(name string, matchIdx, cbIdx int) {
	entries := idx.byName[name]
	selected := entries[matchIdx]

	if cbIdx != 0 {
		cbs := selected.Cookbooks
		chosen := cbs[cbIdx]
		rest := append(append([]string{}, cbs[:cbIdx]...), cbs[cbIdx+1:]...)
		selected.Cookbooks = append([]string{chosen}, rest...)
	}

	if matchIdx != 0 {
		rest := append([]Entry{}, entries[:matchIdx]...)
		rest = append(rest, entries[matchIdx+1:]...)
		entries = append([]Entry{selected}, rest...)
	} else {
		entries[0] = selected
	}

	idx.byName[name] = entries
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
