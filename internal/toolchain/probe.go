// Package toolchain implements C5, the toolchain probe: for each
// required tool, detect an installed instance on the host (preferred
// version, else a compatible older one), building the toolchain map C6
// and the build-script template consume.
package toolchain

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/internal/resolve"
	"github.com/bdwyertech/mussels/pkg/buildtmpl"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/mussels/errs"
)

// Instance is a detected tool on the host: the version the detector
// found and, as Path, the first word of the rendered detect.command.
type Instance struct {
	Name    string
	Version mussels.Version
	Path    string
}

// Toolchain is the map C6 and the build-script renderer consume,
// keyed by tool name.
type Toolchain map[string]Instance

// Runner executes a detect command and returns its combined output.
// Exists as an interface so probe tests can stub host process
// invocation instead of actually exec'ing anything.
type Runner interface {
	Run(ctx context.Context, command string) (output string, err error)
}

// ExecRunner runs command through the host shell, the same os/exec
// invocation shape the build driver uses for build scripts.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Prober runs the C5 pass over a resolver's pinned tool triples.
type Prober struct {
	cat    *catalog.Catalog
	idx    *catalog.Index
	runner Runner
}

func New(cat *catalog.Catalog, idx *catalog.Index, runner Runner) *Prober {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Prober{cat: cat, idx: idx, runner: runner}
}

// Result is the outcome of one full probe pass: the built toolchain map
// plus any tools no version of which could be detected.
type Result struct {
	Toolchain Toolchain
	Missing   []MissingTool
}

// MissingTool names a tool no installed instance of any version
// satisfied, reported in the build's abort message.
type MissingTool struct {
	Name             string
	PreferredVersion mussels.Version
}

// Probe runs the detection pass over preferred, the set of tool triples
// the resolver already pinned. For each, it tries the
// preferred version's detector first; on failure it walks the tool's
// remaining versions (descending, across any cookbook) until one
// detects, re-pinning the index to that version via Select.
func (p *Prober) Probe(ctx context.Context, preferred []resolve.Triple) Result {
	res := Result{Toolchain: Toolchain{}}

	for _, t := range preferred {
		inst, ok := p.detect(ctx, t.Item.Tool)
		if ok {
			res.Toolchain[t.Name] = inst
			continue
		}

		found := false
		for _, entry := range p.idx.EntriesFor(t.Name) {
			if entry.Version.Equal(t.Version) {
				continue
			}
			for _, cb := range entry.Cookbooks {
				item, ok := p.cat.Lookup(t.Name, entry.Version, cb)
				if !ok || item.Kind != mussels.KindTool {
					continue
				}
				inst, ok := p.detect(ctx, item.Tool)
				if !ok {
					continue
				}
				if _, _, _, err := p.idx.Select(mussels.Reference{Cookbook: cb, Name: t.Name, Version: entry.Version}); err != nil {
					log.Warnf("re-pinning fallback tool version %s-%s: %v", t.Name, entry.Version, err)
				}
				res.Toolchain[t.Name] = inst
				found = true
				break
			}
			if found {
				break
			}
		}

		if !found {
			res.Missing = append(res.Missing, MissingTool{Name: t.Name, PreferredVersion: t.Version})
		}
	}

	return res
}

func (p *Prober) detect(ctx context.Context, tool *mussels.Tool) (Instance, bool) {
	rendered, err := buildtmpl.RenderDetectCommand(tool.Detect.Command, buildtmpl.Context{Recipe: tool.Name, Version: string(tool.Version)})
	if err != nil {
		log.Debugf("rendering detect command for %s: %v", tool.Name, err)
		rendered = tool.Detect.Command
	}

	output, err := p.runner.Run(ctx, rendered)
	if err != nil {
		log.Debugf("detect failed for %s-%s: %v", tool.Name, tool.Version, err)
		return Instance{}, false
	}

	version := tool.Version
	if tool.Detect.VersionRegex != "" {
		if re, err := regexp.Compile(tool.Detect.VersionRegex); err == nil {
			if m := re.FindStringSubmatch(output); len(m) > 1 {
				version = mussels.Version(m[1])
			}
		}
	}

	if tool.Detect.MinVersion != "" && version.LessThan(mussels.Version(tool.Detect.MinVersion)) {
		return Instance{}, false
	}

	return Instance{Name: tool.Name, Version: version, Path: strings.Fields(rendered)[0]}, true
}

// MissingToolError converts a non-empty Result.Missing into the
// errs.KindMissingTool abort that blocks the build.
func MissingToolError(missing []MissingTool) error {
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	versions := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, m.Name)
		versions = append(versions, string(m.PreferredVersion))
	}
	e := errs.MissingTool(strings.Join(names, ", "), strings.Join(versions, ", "))
	for _, m := range missing {
		e.WithSuggestion("install " + m.Name + " >= " + string(m.PreferredVersion) + " or add a compatible version to a trusted cookbook")
	}
	return e
}
