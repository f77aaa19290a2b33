package catalog

import (
	"testing"

	"github.com/bdwyertech/mussels/pkg/mussels"
)

func seedCatalog() *Catalog {
	cat := newCatalog()
	cat.add(mussels.NewRecipeItem(&mussels.Recipe{Cookbook: "upstream", Name: "zlib", Version: "1.3.1", BuildScript: map[string]string{"": "make"}}))
	cat.add(mussels.NewRecipeItem(&mussels.Recipe{Cookbook: "upstream", Name: "zlib", Version: "1.2.13", BuildScript: map[string]string{"": "make"}}))
	cat.add(mussels.NewRecipeItem(&mussels.Recipe{Cookbook: "mirror", Name: "zlib", Version: "1.3.1", BuildScript: map[string]string{"": "make"}}))
	return cat
}

func TestSelectPicksHighestVersion(t *testing.T) {
	idx := BuildIndex(seedCatalog())
	name, version, cookbook, err := idx.Select(mussels.MustParseReference("zlib"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "zlib" || version != "1.3.1" {
		t.Errorf("expected zlib 1.3.1, got %s %s", name, version)
	}
	if cookbook != "mirror" && cookbook != "upstream" {
		t.Errorf("unexpected cookbook %s", cookbook)
	}
}

func TestSelectStickiness(t *testing.T) {
	idx := BuildIndex(seedCatalog())

	_, _, firstCookbook, err := idx.Select(mussels.MustParseReference("mirror:zlib"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if firstCookbook != "mirror" {
		t.Fatalf("expected mirror pinned first, got %s", firstCookbook)
	}

	// A later unconstrained lookup of the same name must return the
	// pinned triple, the stickiness guarantee.
	_, version, cookbook, err := idx.Select(mussels.MustParseReference("zlib"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if cookbook != "mirror" || version != "1.3.1" {
		t.Errorf("expected sticky pin to mirror:zlib==1.3.1, got %s:%s", cookbook, version)
	}
}

func TestSelectExactVersionConstraint(t *testing.T) {
	idx := BuildIndex(seedCatalog())
	_, version, _, err := idx.Select(mussels.MustParseReference("zlib==1.2.13"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if version != "1.2.13" {
		t.Errorf("expected pinned exact version 1.2.13, got %s", version)
	}
}

func TestSelectUnsatisfiable(t *testing.T) {
	idx := BuildIndex(seedCatalog())
	_, _, _, err := idx.Select(mussels.MustParseReference("zlib==9.9.9"))
	if err == nil {
		t.Fatalf("expected UnsatisfiableReference for a version not in the catalog")
	}
}

func TestSelectUnknownName(t *testing.T) {
	idx := BuildIndex(seedCatalog())
	_, _, _, err := idx.Select(mussels.MustParseReference("does-not-exist"))
	if err == nil {
		t.Fatalf("expected UnsatisfiableReference for an unknown item name")
	}
}
