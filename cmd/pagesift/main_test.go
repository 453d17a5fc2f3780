// cmd/pagesift/main_test.go

package main

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/scraper"
)

// The init subcommand's sample document must load and compile cleanly, or
// the first thing a new user does fails.
func TestSampleFieldFileCompiles(t *testing.T) {
	data, err := yaml.Marshal(config.SampleFieldFile())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := config.LoadFieldFile(path)
	if err != nil {
		t.Fatalf("sample document failed to load: %v", err)
	}

	fields, err := scraper.CompileFields(loaded.Fields)
	if err != nil {
		t.Fatalf("sample document failed to compile: %v", err)
	}
	if len(fields) == 0 {
		t.Fatal("sample document compiled to zero fields")
	}
}
