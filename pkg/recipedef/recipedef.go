// Package recipedef parses the on-disk TOML definition files C1 reads
// from a cookbook's recipes/, collections/, and tools/ subtrees. One
// file produces one Recipe or Tool, discriminated by the presence of a
// [detect] table.
package recipedef

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/bdwyertech/mussels/pkg/mussels"
)

// File is the raw TOML shape of a definition file, carrying both Recipe
// and Tool fields; toItem discriminates on whether [detect] is present.
type File struct {
	Name          string                         `toml:"name"`
	Version       string                         `toml:"version"`
	Platform      []string                       `toml:"platform,omitempty"`
	IsCollection  bool                           `toml:"is_collection,omitempty"`
	Dependencies  []string                       `toml:"dependencies,omitempty"`
	RequiredTools []string                       `toml:"required_tools,omitempty"`
	SourceURL     string                         `toml:"source_url,omitempty"`
	RenameHint    string                         `toml:"rename_hint,omitempty"`
	InstallPaths  map[string]map[string][]string `toml:"install_paths,omitempty"`
	BuildScript   map[string]string              `toml:"build_script,omitempty"`
	Detect        *DetectSection                 `toml:"detect,omitempty"`
}

// DetectSection is the [detect] table present only in tool definitions.
type DetectSection struct {
	Command       string `toml:"command"`
	VersionRegex  string `toml:"version_regex,omitempty"`
	MinVersion    string `toml:"min_version,omitempty"`
	FallbackBuild string `toml:"fallback_build,omitempty"`
}

// ParseBytes parses one definition file's TOML content. cookbook names
// the owning cookbook, attached to the resulting Item since the raw file
// carries no cookbook identity of its own.
func ParseBytes(data []byte, cookbook string) (mussels.Item, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return mussels.Item{}, fmt.Errorf("decoding TOML: %w", err)
	}
	return f.toItem(cookbook)
}

// toPlatforms converts a TOML platform list into the domain type.
func toPlatforms(raw []string) []mussels.Platform {
	if len(raw) == 0 {
		return nil
	}
	out := make([]mussels.Platform, len(raw))
	for i, p := range raw {
		out[i] = mussels.Platform(p)
	}
	return out
}

// fromPlatforms is the inverse of toPlatforms, used by Encode.
func fromPlatforms(platforms []mussels.Platform) []string {
	if len(platforms) == 0 {
		return nil
	}
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

func (f *File) toItem(cookbook string) (mussels.Item, error) {
	if f.Name == "" {
		return mussels.Item{}, fmt.Errorf("definition missing required field: name")
	}
	if f.Version == "" {
		return mussels.Item{}, fmt.Errorf("definition %q missing required field: version", f.Name)
	}

	if f.Detect != nil {
		t := &mussels.Tool{
			Cookbook:     cookbook,
			Name:         f.Name,
			Version:      mussels.Version(f.Version),
			Platform:     toPlatforms(f.Platform),
			Dependencies: f.Dependencies,
			Detect: mussels.Detect{
				Command:       f.Detect.Command,
				VersionRegex:  f.Detect.VersionRegex,
				MinVersion:    f.Detect.MinVersion,
				FallbackBuild: f.Detect.FallbackBuild,
			},
		}
		if t.Detect.Command == "" {
			return mussels.Item{}, fmt.Errorf("tool %q missing required field: detect.command", f.Name)
		}
		return mussels.NewToolItem(t), nil
	}

	if !f.IsCollection && len(f.BuildScript) == 0 {
		return mussels.Item{}, fmt.Errorf("recipe %q has no build_script and is not marked is_collection", f.Name)
	}

	r := &mussels.Recipe{
		Cookbook:      cookbook,
		Name:          f.Name,
		Version:       mussels.Version(f.Version),
		Platform:      toPlatforms(f.Platform),
		IsCollection:  f.IsCollection,
		Dependencies:  f.Dependencies,
		RequiredTools: f.RequiredTools,
		SourceURL:     f.SourceURL,
		RenameHint:    f.RenameHint,
		BuildScript:   f.BuildScript,
	}
	if len(f.InstallPaths) > 0 {
		r.InstallPaths = make(map[string]mussels.InstallPaths, len(f.InstallPaths))
		for target, roles := range f.InstallPaths {
			r.InstallPaths[target] = mussels.InstallPaths(roles)
		}
	}
	return mussels.NewRecipeItem(r), nil
}

// Encode renders item back to its on-disk TOML form, the inverse of
// ParseBytes, used by `recipe clone` to materialize a catalog entry into
// the local overlay - an untrusted cookbook's remediation path.
func Encode(item mussels.Item) ([]byte, error) {
	var f File
	switch item.Kind {
	case mussels.KindTool:
		t := item.Tool
		f = File{
			Name:         t.Name,
			Version:      string(t.Version),
			Platform:     fromPlatforms(t.Platform),
			Dependencies: t.Dependencies,
			Detect: &DetectSection{
				Command:       t.Detect.Command,
				VersionRegex:  t.Detect.VersionRegex,
				MinVersion:    t.Detect.MinVersion,
				FallbackBuild: t.Detect.FallbackBuild,
			},
		}
	default:
		r := item.Recipe
		f = File{
			Name:          r.Name,
			Version:       string(r.Version),
			Platform:      fromPlatforms(r.Platform),
			IsCollection:  r.IsCollection,
			Dependencies:  r.Dependencies,
			RequiredTools: r.RequiredTools,
			SourceURL:     r.SourceURL,
			RenameHint:    r.RenameHint,
			BuildScript:   r.BuildScript,
		}
		if len(r.InstallPaths) > 0 {
			f.InstallPaths = make(map[string]map[string][]string, len(r.InstallPaths))
			for target, roles := range r.InstallPaths {
				f.InstallPaths[target] = map[string][]string(roles)
			}
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encoding TOML for %s: %w", item.Name(), err)
	}
	return buf.Bytes(), nil
}
