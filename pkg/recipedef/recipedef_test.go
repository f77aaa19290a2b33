package recipedef

import (
	"testing"

	"github.com/bdwyertech/mussels/pkg/mussels"
)

func TestParseBytesRecipe(t *testing.T) {
	data := []byte(`
name = "zlib"
version = "1.3.1"
source_url = "https://example.com/zlib-1.3.1.tar.gz"
dependencies = ["libtool"]
required_tools = ["gcc"]

[install_paths.""]
include = ["include"]
lib = ["lib"]

[build_script]
"" = "./configure --prefix={install} && make && make install"
`)

	item, err := ParseBytes(data, "upstream")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if item.Kind != mussels.KindRecipe {
		t.Fatalf("expected KindRecipe, got %v", item.Kind)
	}
	if item.Name() != "zlib" || item.Version() != "1.3.1" {
		t.Errorf("unexpected name/version: %s %s", item.Name(), item.Version())
	}
	if len(item.Recipe.RequiredTools) != 1 || item.Recipe.RequiredTools[0] != "gcc" {
		t.Errorf("required_tools not parsed: %+v", item.Recipe.RequiredTools)
	}
	paths, script := item.Recipe.ForTarget("linux/amd64")
	if len(paths["include"]) != 1 {
		t.Errorf("expected fallback install_paths to apply, got %+v", paths)
	}
	if script == "" {
		t.Errorf("expected fallback build_script to apply")
	}
}

func TestParseBytesTool(t *testing.T) {
	data := []byte(`
name = "gcc"
version = "13.2.0"

[detect]
command = "gcc --version"
version_regex = "gcc \\(.*\\) (\\d+\\.\\d+\\.\\d+)"
min_version = "9.0.0"
`)

	item, err := ParseBytes(data, "upstream")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if item.Kind != mussels.KindTool {
		t.Fatalf("expected KindTool, got %v", item.Kind)
	}
	if item.Tool.Detect.Command != "gcc --version" {
		t.Errorf("detect.command not parsed: %q", item.Tool.Detect.Command)
	}
}

func TestParseBytesCollectionNeedsNoBuildScript(t *testing.T) {
	data := []byte(`
name = "dev-tools"
version = "1.0.0"
is_collection = true
dependencies = ["gcc", "make"]
`)

	item, err := ParseBytes(data, "upstream")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if item.IsBuildable() {
		t.Errorf("a collection must not be buildable")
	}
}

func TestParseBytesRejectsMissingName(t *testing.T) {
	if _, err := ParseBytes([]byte(`version = "1.0.0"`), "upstream"); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestParseBytesRejectsBareRecipeWithNoBuildScript(t *testing.T) {
	data := []byte(`
name = "zlib"
version = "1.3.1"
`)
	if _, err := ParseBytes(data, "upstream"); err == nil {
		t.Fatalf("expected error: recipe with no build_script and not a collection")
	}
}

func TestEncodeRecipeRoundTrips(t *testing.T) {
	original := []byte(`
name = "zlib"
version = "1.3.1"
source_url = "https://example.com/zlib-1.3.1.tar.gz"
dependencies = ["libtool"]
required_tools = ["gcc"]

[install_paths.""]
include = ["include"]
lib = ["lib"]

[build_script]
"" = "./configure --prefix={install_root} && make && make install"
`)
	item, err := ParseBytes(original, "upstream")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	encoded, err := Encode(item)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	roundTripped, err := ParseBytes(encoded, "local")
	if err != nil {
		t.Fatalf("ParseBytes(Encode(item)): %v", err)
	}

	if roundTripped.Name() != item.Name() || roundTripped.Version() != item.Version() {
		t.Errorf("round trip changed identity: got %s-%s, want %s-%s",
			roundTripped.Name(), roundTripped.Version(), item.Name(), item.Version())
	}
	if roundTripped.Recipe.SourceURL != item.Recipe.SourceURL {
		t.Errorf("round trip lost source_url: got %q", roundTripped.Recipe.SourceURL)
	}
}

func TestParseBytesMultiPlatform(t *testing.T) {
	data := []byte(`
name = "openssl"
version = "1.1.1b"
platform = ["darwin", "linux"]

[build_script]
"" = "./config --prefix={install_root} && make && make install"
`)

	item, err := ParseBytes(data, "upstream")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if len(item.Platform()) != 2 {
		t.Fatalf("expected 2 platforms, got %+v", item.Platform())
	}
	if !item.MatchesPlatform("darwin") || !item.MatchesPlatform("linux") {
		t.Errorf("expected darwin and linux to match, got %+v", item.Platform())
	}
	if item.MatchesPlatform("windows") {
		t.Errorf("windows must not match a darwin/linux-only recipe")
	}
}

func TestEncodeToolRoundTrips(t *testing.T) {
	item := mussels.NewToolItem(&mussels.Tool{
		Name:    "gcc",
		Version: mussels.Version("13.2.0"),
		Detect: mussels.Detect{
			Command:    "gcc --version",
			MinVersion: "9.0.0",
		},
	})

	encoded, err := Encode(item)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	roundTripped, err := ParseBytes(encoded, "local")
	if err != nil {
		t.Fatalf("ParseBytes(Encode(item)): %v", err)
	}
	if roundTripped.Kind != mussels.KindTool || roundTripped.Tool.Detect.Command != "gcc --version" {
		t.Errorf("round trip lost detect.command: %+v", roundTripped.Tool)
	}
}
