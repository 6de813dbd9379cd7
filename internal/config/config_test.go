package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, `
[source]
root = "src"
include_legacy = true

[convert]
package = "legacy"
export_names = true

[package]
name = "solver"
module = "example.com/solver"

[verify]
jobs = 2
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.Root != filepath.Join(dir, "src") || !cfg.Source.IncludeLegacy {
		t.Errorf("source %+v", cfg.Source)
	}
	if cfg.Convert.Package != "legacy" || !cfg.Convert.ExportNames || cfg.Convert.CollectAll {
		t.Errorf("convert %+v", cfg.Convert)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Convert.Out != filepath.Join(dir, "build", "go_out") {
		t.Errorf("convert out %q", cfg.Convert.Out)
	}
	if cfg.Package.Version != "0.1.0" || cfg.Package.Module != "example.com/solver" {
		t.Errorf("package %+v", cfg.Package)
	}
	if cfg.Verify.Jobs != 2 {
		t.Errorf("jobs %d", cfg.Verify.Jobs)
	}
}

func TestLoadErrors(t *testing.T) {
	var tests = []struct {
		content string
		want    string
	}{
		{"[convert]\npackage = \"\"\n", "[convert].package must not be empty"},
		{"[verify]\njobs = 0\n", "[verify].jobs must be positive"},
		{"[convert]\npackages = \"x\"\n", `unknown key "convert.packages"`},
		{"[convert\n", "parsing TOML"},
	}
	for _, tt := range tests {
		p := writeConfig(t, t.TempDir(), tt.content)
		_, err := Load(p)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: got %v, want %q", tt.content, err, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: %v %v", ok, err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
