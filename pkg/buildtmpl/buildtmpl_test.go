package buildtmpl

import "testing"

func TestRenderBareBraceIncludesAndLibs(t *testing.T) {
	out, err := Render(`./configure {includes} {libs} --prefix={install_root}`, Context{
		Recipe:      "curl",
		Version:     "8.9.0",
		InstallRoot: "/data/install/curl",
		Includes:    []string{"/data/install/zlib/include"},
		Libs:        []string{"/data/install/zlib/lib"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "./configure -I/data/install/zlib/include -L/data/install/zlib/lib  --prefix=/data/install/curl"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenderGoTemplateHelpers(t *testing.T) {
	out, err := Render(`{{ "abc" | upper }}`, Context{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "ABC" {
		t.Errorf("expected sprout upper helper to run, got %q", out)
	}
}

func TestRenderSha512sum(t *testing.T) {
	out, err := Render(`{{ sha512sum "hello" }}`, Context{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) != 128 {
		t.Errorf("expected a 128-char hex sha512 digest, got %d chars", len(out))
	}
}
