package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile("../../testdata/valid_vecmath.f90")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "vecmath.f90"), src, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "fort2go.toml")
	err = os.WriteFile(cfg, []byte(`
[source]
root = "src"

[convert]
out = "gen"
package = "vec"

[package]
name = "vec"
out = "pkg"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scan", "--config", cfg, "--color", "off")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, "src", "vecmath.f90") {
		t.Errorf("scan printed %q", out)
	}

	out, err = execute(t, "convert", "--config", cfg, "--color", "off", "--smoke-tests", "--emit-ir")
	if err != nil {
		t.Fatal(err)
	}
	gen := filepath.Join(dir, "gen")
	for _, name := range []string{"vecmath_f90.go", "MIGRATION_NOTES.txt", "vecmath_f90_test.go", IRFile} {
		if !strings.Contains(out, filepath.Join(gen, name)) {
			t.Errorf("convert did not report %s:\n%s", name, out)
		}
		if _, err := os.Stat(filepath.Join(gen, name)); err != nil {
			t.Error(err)
		}
	}

	out, err = execute(t, "ir", filepath.Join(gen, IRFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "add_one") {
		t.Errorf("ir output lacks procedures:\n%s", out)
	}

	out, err = execute(t, "build-package", "--config", cfg, "--runtime-replace", "../../fort2go")
	if err != nil {
		t.Fatal(err)
	}
	gomod, err := os.ReadFile(filepath.Join(dir, "pkg", "vec", "go.mod"))
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(string(gomod), "github.com/soypat/fort2go") {
		t.Errorf("go.mod:\n%s", gomod)
	}
}

func TestConvertFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.f90")
	if err := os.WriteFile(bad, []byte("module m\n  integer :: counter\nend module m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "fort2go.toml")
	if err := os.WriteFile(cfg, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	gen := filepath.Join(dir, "gen")
	_, err := execute(t, "convert", "--config", cfg, bad, "-o", gen)
	if err == nil || !strings.Contains(err.Error(), "module-level state unsupported") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := os.Stat(gen); !os.IsNotExist(err) {
		t.Error("output directory created for failed conversion")
	}
}
