// Package store implements C7, the config store: persistence of general
// options and cookbook metadata under <data_dir>/config/ as two JSON
// documents.
package store

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

const (
	configFileName    = "config.json"
	cookbooksFileName = "cookbooks.json"
)

// Options holds the general, additive options persisted in config.json.
// Pointer fields distinguish "not set" from "set to the zero value", so
// a round-trip through Save/Load never clobbers a field this binary
// doesn't know about yet - additive fields are preserved by round-trip.
type Options struct {
	Concurrency *int    `json:"concurrency,omitempty"`
	DataDir     *string `json:"data_dir,omitempty"`
	NoColor     *bool   `json:"no_color,omitempty"`

	// extra holds any keys this version of Options does not model,
	// preserved verbatim across Load/Save so an older or newer binary's
	// additions survive a round-trip.
	extra map[string]json.RawMessage `json:"-"`
}

func (o *Options) GetConcurrency() int {
	if o != nil && o.Concurrency != nil {
		return *o.Concurrency
	}
	return 4
}

func (o *Options) GetDataDir() string {
	if o != nil && o.DataDir != nil {
		return *o.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mussels")
}

func (o *Options) GetNoColor() bool {
	return o != nil && o.NoColor != nil && *o.NoColor
}

// Store reads and writes the two JSON documents under dataDir/config.
// Read failures on first run are silent (no config file written yet is
// not an error); write failures are logged but never abort the caller.
type Store struct {
	dataDir string
}

func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) configPath() string {
	return filepath.Join(s.dataDir, "config", configFileName)
}

func (s *Store) cookbooksPath() string {
	return filepath.Join(s.dataDir, "config", cookbooksFileName)
}

// LoadOptions reads config.json, returning a zero-value Options (all
// fields nil, so every getter falls back to its default) if the file is
// absent.
func (s *Store) LoadOptions() (*Options, error) {
	raw, rest, err := readPreservingUnknown(s.configPath())
	if os.IsNotExist(err) {
		return &Options{}, nil
	}
	if err != nil {
		return nil, errs.ConfigIO("reading config.json", err)
	}
	opts := &Options{}
	if err := json.Unmarshal(raw, opts); err != nil {
		return nil, errs.ConfigIO("parsing config.json", err)
	}
	opts.extra = rest
	return opts, nil
}

// SaveOptions merges updates into the options currently on disk (so a
// concurrently-added field from another binary version is preserved)
// and writes the result. A write failure is returned to the caller as a
// warning-grade ConfigIOError; callers are expected to log it and
// continue rather than abort.
func (s *Store) SaveOptions(updates *Options) error {
	current, err := s.LoadOptions()
	if err != nil {
		current = &Options{}
	}

	merged := &Options{}
	if err := mergo.Merge(merged, current); err != nil {
		*merged = *current
	}
	if err := mergo.Merge(merged, updates, mergo.WithOverride); err != nil {
		if updates.Concurrency != nil {
			merged.Concurrency = updates.Concurrency
		}
		if updates.DataDir != nil {
			merged.DataDir = updates.DataDir
		}
		if updates.NoColor != nil {
			merged.NoColor = updates.NoColor
		}
	}
	merged.extra = current.extra

	return s.writeJSONPreservingUnknown(s.configPath(), merged)
}

// cookbooksDocument is the on-disk shape of cookbooks.json: a flat map
// from cookbook name to its persisted metadata.
type cookbooksDocument = map[string]mussels.Cookbook

// LoadCookbooks reads cookbooks.json, returning an empty map if the file
// is absent.
func (s *Store) LoadCookbooks() (cookbooksDocument, error) {
	raw, err := os.ReadFile(s.cookbooksPath())
	if os.IsNotExist(err) {
		return cookbooksDocument{}, nil
	}
	if err != nil {
		return nil, errs.ConfigIO("reading cookbooks.json", err)
	}
	doc := cookbooksDocument{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.ConfigIO("parsing cookbooks.json", err)
	}
	return doc, nil
}

// SaveCookbooks persists the full cookbook map, overwriting the file.
// Called by C1 after every catalog load and by the trust/add/remove
// operations.
func (s *Store) SaveCookbooks(doc cookbooksDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.ConfigIO("encoding cookbooks.json", err)
	}
	if err := s.writeFile(s.cookbooksPath(), raw); err != nil {
		log.Warnf("persisting cookbooks.json: %v", err)
		return errs.ConfigIO("writing cookbooks.json", err)
	}
	return nil
}

// Trust marks name as trusted in the persisted cookbook map and saves
// it; a later reload must observe the trust as persisted.
func (s *Store) Trust(name string) error {
	doc, err := s.LoadCookbooks()
	if err != nil {
		return err
	}
	cb, ok := doc[name]
	if !ok {
		return errs.ConfigIO("cookbook not found: "+name, nil)
	}
	cb.Trusted = true
	doc[name] = cb
	return s.SaveCookbooks(doc)
}

// AddCookbook inserts or replaces a cookbook's metadata and persists it.
func (s *Store) AddCookbook(cb mussels.Cookbook) error {
	doc, err := s.LoadCookbooks()
	if err != nil {
		return err
	}
	doc[cb.Name] = cb
	return s.SaveCookbooks(doc)
}

// RemoveCookbook deletes a cookbook's metadata and persists the result;
// a later reload must no longer observe the cookbook.
func (s *Store) RemoveCookbook(name string) error {
	doc, err := s.LoadCookbooks()
	if err != nil {
		return err
	}
	delete(doc, name)
	return s.SaveCookbooks(doc)
}

func (s *Store) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writeJSONPreservingUnknown merges opts' known fields back over any
// unknown keys already on disk before writing, so a field this binary
// doesn't model survives the round-trip untouched.
func (s *Store) writeJSONPreservingUnknown(path string, opts *Options) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return errs.ConfigIO("encoding config.json", err)
	}
	if len(opts.extra) > 0 {
		merged := map[string]json.RawMessage{}
		for k, v := range opts.extra {
			merged[k] = v
		}
		known := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &known); err == nil {
			for k, v := range known {
				merged[k] = v
			}
		}
		if out, err := json.MarshalIndent(merged, "", "  "); err == nil {
			raw = out
		}
	}
	if err := s.writeFile(path, raw); err != nil {
		log.Warnf("persisting config.json: %v", err)
		return errs.ConfigIO("writing config.json", err)
	}
	return nil
}

// readPreservingUnknown reads path and, separately, decodes it into a
// generic key/value map so unrecognized keys can be threaded back
// through a later save.
func readPreservingUnknown(path string) ([]byte, map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	rest := map[string]json.RawMessage{}
	_ = json.Unmarshal(raw, &rest)
	return raw, rest, nil
}
