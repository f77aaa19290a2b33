// Package catalog implements C1, the catalog loader, and C2, the
// version index: reading cookbook directories into the in-memory
// catalog and building the per-name descending version orderings the
// resolver selects from.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
	"github.com/bdwyertech/mussels/pkg/recipedef"
)

const localCookbookName = "local"

var subtrees = []string{"recipes", "collections", "tools"}

// Catalog is the in-memory result of loading every cookbook: nested
// lookups from item name -> version -> cookbook -> Item, plus a
// per-cookbook view used by "cookbook show" and friends.
type Catalog struct {
	Cookbooks map[string]mussels.Cookbook
	// Items[name][version][cookbook] = Item
	Items map[string]map[mussels.Version]map[string]mussels.Item
	// ByCookbook[cookbook] = every item that cookbook defines
	ByCookbook map[string][]mussels.Item

	Errors errs.Collector
}

func newCatalog() *Catalog {
	return &Catalog{
		Cookbooks:  map[string]mussels.Cookbook{},
		Items:      map[string]map[mussels.Version]map[string]mussels.Item{},
		ByCookbook: map[string][]mussels.Item{},
	}
}

func (c *Catalog) add(item mussels.Item) {
	name := item.Name()
	if c.Items[name] == nil {
		c.Items[name] = map[mussels.Version]map[string]mussels.Item{}
	}
	v := item.Version()
	if c.Items[name][v] == nil {
		c.Items[name][v] = map[string]mussels.Item{}
	}
	c.Items[name][v][item.CookbookName()] = item
	c.ByCookbook[item.CookbookName()] = append(c.ByCookbook[item.CookbookName()], item)
}

// Load builds a Catalog from dataDir/cookbooks/<book>/{recipes,collections,tools}
// plus the synthetic "local" cookbook at cwd/mussels. Malformed
// definitions are collected as warnings and skipped; the walk never
// aborts on a single bad file or an empty cookbook.
func Load(dataDir, cwd string, known map[string]mussels.Cookbook) (*Catalog, error) {
	cat := newCatalog()

	cookbooksRoot := filepath.Join(dataDir, "cookbooks")
	entries, err := os.ReadDir(cookbooksRoot)
	if err != nil && !os.IsNotExist(err) {
		return nil, errs.ConfigIO("listing cookbooks directory", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		cb := known[name]
		cb.Name = name
		if cb.Path == "" {
			cb.Path = filepath.Join(cookbooksRoot, name)
		}
		cat.loadCookbook(cb)
	}

	// Cookbooks recorded in config but absent on disk (not yet synced)
	// still appear in the catalog, with zero recipes and zero tools.
	for name, cb := range known {
		if _, ok := cat.Cookbooks[name]; !ok {
			cat.Cookbooks[name] = cb
		}
	}

	local := mussels.Cookbook{
		Name:    localCookbookName,
		Path:    filepath.Join(cwd, "mussels"),
		Trusted: true,
	}
	cat.loadCookbook(local)

	return cat, nil
}

func (c *Catalog) loadCookbook(cb mussels.Cookbook) {
	c.Cookbooks[cb.Name] = cb

	if _, err := os.Stat(cb.Path); os.IsNotExist(err) {
		log.WithField("cookbook", cb.Name).Warn("cookbook directory does not exist on disk, registered with an empty catalog")
		return
	}

	loadedAny := false
	for _, subtree := range subtrees {
		dir := filepath.Join(cb.Path, subtree)
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".toml") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				c.Errors.Add(errs.CatalogParse(path, err))
				continue
			}
			item, err := recipedef.ParseBytes(data, cb.Name)
			if err != nil {
				c.Errors.Add(errs.CatalogParse(path, err))
				continue
			}
			c.add(item)
			loadedAny = true
		}
	}

	if !loadedAny {
		log.WithField("cookbook", cb.Name).Warn("cookbook has no recipes or tools")
	}
}

// Lookup returns the Item for an exact (name, version, cookbook) triple.
func (c *Catalog) Lookup(name string, version mussels.Version, cookbook string) (mussels.Item, bool) {
	byVersion, ok := c.Items[name]
	if !ok {
		return mussels.Item{}, false
	}
	byCookbook, ok := byVersion[version]
	if !ok {
		return mussels.Item{}, false
	}
	item, ok := byCookbook[cookbook]
	return item, ok
}
