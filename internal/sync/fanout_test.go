package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUpdateAllContinuesPastIndividualFailures(t *testing.T) {
	good := seedSourceRepo(t)
	bad := filepath.Join(t.TempDir(), "does-not-exist")

	targets := []Target{
		{Name: "good", URL: good, TargetPath: filepath.Join(t.TempDir(), "good")},
		{Name: "bad", URL: bad, TargetPath: filepath.Join(t.TempDir(), "bad")},
	}

	results := UpdateAll(context.Background(), NewSyncer(), targets, 2)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var goodResult, badResult Result
	for _, r := range results {
		switch r.Target.Name {
		case "good":
			goodResult = r
		case "bad":
			badResult = r
		}
	}

	if goodResult.Err != nil {
		t.Fatalf("expected good cookbook to sync, got %v", goodResult.Err)
	}
	if badResult.Err == nil {
		t.Fatalf("expected bad cookbook sync to fail")
	}
	if _, err := os.Stat(filepath.Join(goodResult.Target.TargetPath, "recipes", "zlib.toml")); err != nil {
		t.Fatalf("expected good cookbook files on disk: %v", err)
	}
}
