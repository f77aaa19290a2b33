package mussels

// Cookbook is a named, trusted-or-not collection of recipes and tools,
// synced from a git URL or present purely as a local path.
type Cookbook struct {
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Path    string `json:"path" yaml:"path"`
	Trusted bool   `json:"trusted" yaml:"trusted"`
	// Ref is a git branch/tag/commit recorded for the cookbook and shown
	// by "cookbook show". "cookbook update" does not read it; syncing
	// always follows the remote's default branch.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// Platform identifies a target operating-system/architecture pair a
// recipe or tool variant applies to, e.g. "linux/amd64" or "darwin". A
// variant's platform list, when non-empty, is the set of hosts it
// targets; an empty list means it applies to every host.
type Platform string

// InstallPaths maps a logical role - "include", "lib", "bin" - to the
// artifact paths a successful build populates under that role, relative
// to the recipe's install root. Used both to report what a recipe
// produces and, by dependents, to compute {includes}/{libs} build-script
// placeholders.
type InstallPaths map[string][]string

// Recipe is a declarative, buildable unit: a named, versioned source
// artifact with a dependency list, a set of tools required to build it,
// and the script that builds it. A Recipe with no entries in BuildScript
// and IsCollection set is a pure grouping record (a "collection") whose
// Dependencies are built as a unit with no build step of its own.
//
// InstallPaths and BuildScript are keyed by target architecture (e.g.
// "linux/amd64"); an empty-string key is the fallback used when no
// architecture-specific entry matches the current target.
type Recipe struct {
	Cookbook      string                  `toml:"-" json:"cookbook"`
	Name          string                  `toml:"name" json:"name"`
	Version       Version                 `toml:"version" json:"version"`
	Platform      []Platform              `toml:"platform,omitempty" json:"platform,omitempty"`
	IsCollection  bool                    `toml:"is_collection,omitempty" json:"is_collection,omitempty"`
	Dependencies  []string                `toml:"dependencies,omitempty" json:"dependencies,omitempty"`
	RequiredTools []string                `toml:"required_tools,omitempty" json:"required_tools,omitempty"`
	SourceURL     string                  `toml:"source_url,omitempty" json:"source_url,omitempty"`
	RenameHint    string                  `toml:"rename_hint,omitempty" json:"rename_hint,omitempty"`
	InstallPaths  map[string]InstallPaths `toml:"install_paths,omitempty" json:"install_paths,omitempty"`
	BuildScript   map[string]string       `toml:"build_script,omitempty" json:"build_script,omitempty"`
}

// ForTarget returns the InstallPaths and build script applicable to
// target, falling back to the "" (universal) entry when no
// target-specific one is present.
func (r *Recipe) ForTarget(target string) (InstallPaths, string) {
	paths, ok := r.InstallPaths[target]
	if !ok {
		paths = r.InstallPaths[""]
	}
	script, ok := r.BuildScript[target]
	if !ok {
		script = r.BuildScript[""]
	}
	return paths, script
}

// Tool is shaped like Recipe but describes a prerequisite whose presence
// on the host is verified by a Detect contract instead of built from
// source - e.g. a compiler or system package the build driver expects to
// already exist.
type Tool struct {
	Cookbook     string     `toml:"-" json:"cookbook"`
	Name         string     `toml:"name" json:"name"`
	Version      Version    `toml:"version" json:"version"`
	Platform     []Platform `toml:"platform,omitempty" json:"platform,omitempty"`
	Dependencies []string   `toml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Detect       Detect     `toml:"detect" json:"detect"`
}

// Detect is the probe contract used by the toolchain prober: a command
// to run, and how to read a satisfying version out of its output.
type Detect struct {
	Command       string `toml:"command" json:"command"`
	VersionRegex  string `toml:"version_regex,omitempty" json:"version_regex,omitempty"`
	MinVersion    string `toml:"min_version,omitempty" json:"min_version,omitempty"`
	FallbackBuild string `toml:"fallback_build,omitempty" json:"fallback_build,omitempty"`
}

// Kind discriminates the two concrete shapes an Item can wrap.
type Kind string

const (
	KindRecipe Kind = "recipe"
	KindTool   Kind = "tool"
)

// Item is a tagged union over Recipe and Tool giving the resolver,
// planner, and catalog a single type to carry through generic lookups
// without caring which concrete shape backs a given name.
type Item struct {
	Kind   Kind
	Recipe *Recipe
	Tool   *Tool
}

// NewRecipeItem wraps r as an Item.
func NewRecipeItem(r *Recipe) Item { return Item{Kind: KindRecipe, Recipe: r} }

// NewToolItem wraps t as an Item.
func NewToolItem(t *Tool) Item { return Item{Kind: KindTool, Tool: t} }

// Name returns the wrapped item's name regardless of kind.
func (it Item) Name() string {
	if it.Kind == KindTool {
		return it.Tool.Name
	}
	return it.Recipe.Name
}

// CookbookName returns the wrapped item's owning cookbook.
func (it Item) CookbookName() string {
	if it.Kind == KindTool {
		return it.Tool.Cookbook
	}
	return it.Recipe.Cookbook
}

// Version returns the wrapped item's version regardless of kind.
func (it Item) Version() Version {
	if it.Kind == KindTool {
		return it.Tool.Version
	}
	return it.Recipe.Version
}

// Platform returns the wrapped item's platform restriction set, empty
// meaning "applies to every host".
func (it Item) Platform() []Platform {
	if it.Kind == KindTool {
		return it.Tool.Platform
	}
	return it.Recipe.Platform
}

// Dependencies returns the wrapped item's raw dependency reference
// strings, shared shape across recipes and tools.
func (it Item) Dependencies() []string {
	if it.Kind == KindTool {
		return it.Tool.Dependencies
	}
	return it.Recipe.Dependencies
}

// IsBuildable reports whether the item has a build step of its own - a
// bare recipe does, a collection or a tool does not.
func (it Item) IsBuildable() bool {
	return it.Kind == KindRecipe && !it.Recipe.IsCollection
}

// MatchesPlatform reports whether the item applies to host, treating an
// empty platform list as "applies everywhere" and otherwise requiring
// host to be a member of the declared set.
func (it Item) MatchesPlatform(host Platform) bool {
	set := it.Platform()
	if len(set) == 0 {
		return true
	}
	for _, p := range set {
		if p == host {
			return true
		}
	}
	return false
}
