// Package buildtmpl renders a recipe's build_script fragment and a
// tool's detect.command against the toolchain map and install tree,
// using a go-sprout-backed text/template engine extended with a
// bare-brace pre-pass so recipe authors can write the domain's native
// {includes}/{libs}/{bins} placeholders instead of Go template syntax.
package buildtmpl

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/group/all"
	"github.com/go-sprout/sprout/registry/crypto"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// New returns the shared template engine: every sprout helper group plus
// the crypto registry, and four ad hoc functions layered on top
// (sha512sum, toYaml, uuidv7, fromFile) for build scripts that need a
// checksum, a rendered toolchain dump, a per-build correlation id, or to
// inline a patch file's contents.
func New() *template.Template {
	handler := sprout.New()
	handler.AddGroups(all.RegistryGroup())
	handler.AddRegistry(crypto.NewRegistry())
	tfs := handler.Build()

	tfs["sha512sum"] = func(input string) string {
		hash := sha512.Sum512([]byte(input))
		return hex.EncodeToString(hash[:])
	}
	tfs["toYaml"] = func(i any) string {
		buf := new(bytes.Buffer)
		enc := yaml.NewEncoder(buf)
		if err := enc.Encode(i); err != nil {
			log.Errorf("toYaml: %v", err)
			return ""
		}
		return buf.String()
	}
	tfs["uuidv7"] = func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
	tfs["fromFile"] = func(f string) string {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Errorf("fromFile(%s): %v", f, err)
			return ""
		}
		return string(data)
	}

	tpl := template.New("build")
	tpl.Funcs(tfs)
	return tpl
}

// Context is the data made available to a build-script template: the
// toolchain map (tool name -> detected path/version) and the install
// roots of this recipe's already-built dependencies, keyed by role.
type Context struct {
	Recipe       string
	Version      string
	Target       string
	InstallRoot  string
	Toolchain    map[string]ToolInstance
	Includes     []string
	Libs         []string
	Bins         []string
	BuildID      string
}

// ToolInstance is one entry of the rendered toolchain map: the detected
// binary path and version string the probe recorded for this tool.
type ToolInstance struct {
	Path    string
	Version string
}

var bareBraceRe = regexp.MustCompile(`\{(includes|libs|bins|install_root|build_id)\}`)

// rewriteBareBraces turns the domain's native, non-Go-template
// placeholders ("{includes}", "{libs}", "{bins}", "{install_root}",
// "{build_id}") into their Go template equivalents before parsing, so
// recipe authors never have to write "{{.Includes}}" by hand.
func rewriteBareBraces(script string) string {
	return bareBraceRe.ReplaceAllStringFunc(script, func(m string) string {
		switch bareBraceRe.FindStringSubmatch(m)[1] {
		case "includes":
			return `{{range .Includes}}-I{{.}} {{end}}`
		case "libs":
			return `{{range .Libs}}-L{{.}} {{end}}`
		case "bins":
			return `{{range .Bins}}{{.}}{{end}}`
		case "install_root":
			return `{{.InstallRoot}}`
		case "build_id":
			return `{{.BuildID}}`
		default:
			return m
		}
	})
}

// Render parses script (after the bare-brace rewrite) and executes it
// against ctx, returning the fully-substituted shell fragment the build
// driver spawns a shell for.
func Render(script string, ctx Context) (string, error) {
	rewritten := rewriteBareBraces(script)
	tmpl, err := New().Parse(rewritten)
	if err != nil {
		return "", fmt.Errorf("parsing build script for %s-%s: %w", ctx.Recipe, ctx.Version, err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("rendering build script for %s-%s: %w", ctx.Recipe, ctx.Version, err)
	}
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// RenderDetectCommand renders a tool's detect.command the same way,
// against a context with no install tree (tools are not built).
func RenderDetectCommand(command string, ctx Context) (string, error) {
	return Render(command, ctx)
}
