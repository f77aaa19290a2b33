package mussels

import (
	"fmt"
	"strings"
)

// Reference is a parsed item reference, one of four forms: "name",
// "name==version", "cookbook:name", or "cookbook:name==version". An
// empty Cookbook means "inherit from context" - the referring recipe's
// cookbook for a dependency reference, or "local" for a bare
// user-supplied argument.
type Reference struct {
	Cookbook string
	Name     string
	Version  Version // "" means unconstrained (use the index default)
}

// ParseReference parses one of the four reference forms. It does not
// apply the cookbook-inheritance default - callers (the resolver for
// dependency references, the CLI for user arguments) apply their own
// default.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, fmt.Errorf("empty reference")
	}

	ref := Reference{}
	rest := s
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		ref.Cookbook = rest[:i]
		rest = rest[i+1:]
	}

	if i := strings.Index(rest, "=="); i >= 0 {
		ref.Name = rest[:i]
		ref.Version = Version(rest[i+2:])
	} else {
		ref.Name = rest
	}

	if ref.Name == "" {
		return Reference{}, fmt.Errorf("reference %q has no item name", s)
	}

	return ref, nil
}

// MustParseReference parses a reference and panics on error. Intended for
// literal references embedded in code (tests, default cookbook plumbing),
// never for user or recipe-authored input.
func MustParseReference(s string) Reference {
	ref, err := ParseReference(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String renders the reference back to its canonical "cookbook:name==version" form.
func (r Reference) String() string {
	var b strings.Builder
	if r.Cookbook != "" {
		b.WriteString(r.Cookbook)
		b.WriteByte(':')
	}
	b.WriteString(r.Name)
	if r.Version != "" {
		b.WriteString("==")
		b.WriteString(string(r.Version))
	}
	return b.String()
}

// WithDefaultCookbook returns a copy of r with Cookbook set to def if r's
// Cookbook is currently empty - the "inherit from referring context" rule.
func (r Reference) WithDefaultCookbook(def string) Reference {
	if r.Cookbook != "" {
		return r
	}
	r.Cookbook = def
	return r
}

// ResolveReferenceString implements the flag/reference precedence:
// explicit version flag > embedded "==version" in the argument > index
// default (left unset here; the index applies its own default when
// Version is "").
func ResolveReferenceString(arg, flagVersion string) (Reference, error) {
	ref, err := ParseReference(arg)
	if err != nil {
		return Reference{}, err
	}
	if flagVersion != "" {
		ref.Version = Version(flagVersion)
	}
	return ref, nil
}
