package toolchain

import (
	"context"
	"testing"

	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/pkg/mussels"
)

// stubRunner answers pre-recorded output for a detect command, keyed by
// the tool name embedded in the rendered command for simplicity.
type stubRunner struct {
	ok map[string]string
}

func (s stubRunner) Run(ctx context.Context, command string) (string, error) {
	for name, output := range s.ok {
		if contains(command, name) {
			return output, nil
		}
	}
	return "", errNotFound
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (e *notFoundErr) Error() string { return "tool not found" }

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func newCatalogWithTool(name, version, command string) (*catalog.Catalog, *catalog.Index) {
	cat, _ := catalog.Load("", "", nil)
	item := mussels.NewToolItem(&mussels.Tool{
		Cookbook: "local",
		Name:     name,
		Version:  mussels.Version(version),
		Detect:   mussels.Detect{Command: command},
	})
	cat.Items[name] = map[mussels.Version]map[string]mussels.Item{
		mussels.Version(version): {"local": item},
	}
	return cat, catalog.BuildIndex(cat)
}

func TestProbeDetectsPreferredVersion(t *testing.T) {
	cat, idx := newCatalogWithTool("gcc", "13.2.0", "gcc --version")
	p := New(cat, idx, stubRunner{ok: map[string]string{"gcc": "gcc (GCC) 13.2.0"}})

	triple := resolve.Triple{Name: "gcc", Version: "13.2.0", Cookbook: "local", Item: mustLookup(cat, "gcc", "13.2.0")}
	res := p.Probe(context.Background(), []resolve.Triple{triple})

	if len(res.Missing) != 0 {
		t.Fatalf("expected gcc detected, missing: %+v", res.Missing)
	}
	if _, ok := res.Toolchain["gcc"]; !ok {
		t.Fatalf("expected gcc in toolchain map")
	}
}

func TestProbeReportsMissingTool(t *testing.T) {
	cat, idx := newCatalogWithTool("rustc", "1.80.0", "rustc --version")
	p := New(cat, idx, stubRunner{ok: map[string]string{}})

	triple := resolve.Triple{Name: "rustc", Version: "1.80.0", Cookbook: "local", Item: mustLookup(cat, "rustc", "1.80.0")}
	res := p.Probe(context.Background(), []resolve.Triple{triple})

	if len(res.Missing) != 1 || res.Missing[0].Name != "rustc" {
		t.Fatalf("expected rustc reported missing, got %+v", res.Missing)
	}
	if err := MissingToolError(res.Missing); err == nil {
		t.Fatalf("expected MissingToolError to produce a non-nil error")
	}
}

func mustLookup(cat *catalog.Catalog, name, version string) mussels.Item {
	item, ok := cat.Lookup(name, mussels.Version(version), "local")
	if !ok {
		panic("item not found")
	}
	return item
}
