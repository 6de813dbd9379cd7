// Package pkgbuild turns a directory of generated Go files into a standalone module.
package pkgbuild

import (
	"bytes"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	semver "github.com/Masterminds/semver/v3"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

const (
	// ManifestFile records how the package was built.
	ManifestFile = "fort2go.toml"
	// RuntimeModule is the module providing the intrinsic runtime.
	RuntimeModule = "github.com/soypat/fort2go"
	goVersion     = "1.25"
)

// Options configures a package build.
type Options struct {
	// Name is the package name and the directory created under the output directory.
	Name string
	// Module is the module path. Defaults to Name.
	Module string
	// Version is a semantic version recorded in the manifest. Defaults to 0.1.0.
	Version string
	// RuntimeVersion is required of RuntimeModule. Defaults to v0.0.0 when
	// RuntimeReplace is set.
	RuntimeVersion string
	// RuntimeReplace is a local directory replacing RuntimeModule.
	RuntimeReplace string
	// ToolVersion is recorded in the manifest.
	ToolVersion string
}

// Manifest is written to ManifestFile in the package directory.
type Manifest struct {
	Package struct {
		Name    string `toml:"name"`
		Module  string `toml:"module"`
		Version string `toml:"version"`
	} `toml:"package"`
	Generator struct {
		Tool    string   `toml:"tool"`
		Version string   `toml:"version,omitempty"`
		Files   []string `toml:"files"`
	} `toml:"generator"`
}

func (o *Options) validate() error {
	if !token.IsIdentifier(o.Name) || token.IsKeyword(o.Name) {
		return fmt.Errorf("package name %q is not a Go identifier", o.Name)
	}
	if o.Module == "" {
		o.Module = o.Name
	}
	if err := module.CheckImportPath(o.Module); err != nil {
		return fmt.Errorf("module path: %w", err)
	}
	if o.Version == "" {
		o.Version = "0.1.0"
	}
	v, err := semver.StrictNewVersion(strings.TrimPrefix(o.Version, "v"))
	if err != nil {
		return fmt.Errorf("package version %q: %w", o.Version, err)
	}
	o.Version = v.String()
	if o.RuntimeVersion == "" {
		if o.RuntimeReplace == "" {
			return errors.New("a runtime version or a runtime replace directory is required")
		}
		o.RuntimeVersion = "v0.0.0"
	}
	if err := module.Check(RuntimeModule, o.RuntimeVersion); err != nil {
		return fmt.Errorf("runtime version: %w", err)
	}
	return nil
}

// Build creates outDir/<name> holding the Go files of inDir with their
// package clause set to the package name, a go.mod and a manifest.
// An existing package directory is replaced. It returns the package directory.
func Build(inDir, outDir string, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return "", fmt.Errorf("reading generated sources: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".go") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no Go files in %s", inDir)
	}
	slices.Sort(names)

	pkgDir := filepath.Join(outDir, opts.Name)
	if err := os.RemoveAll(pkgDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", err
	}
	for _, name := range names {
		src, err := os.ReadFile(filepath.Join(inDir, name))
		if err != nil {
			return "", err
		}
		src, err = setPackage(name, src, opts.Name)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(pkgDir, name), src, 0o644); err != nil {
			return "", err
		}
	}
	if notes, err := os.ReadFile(filepath.Join(inDir, "MIGRATION_NOTES.txt")); err == nil {
		if err := os.WriteFile(filepath.Join(pkgDir, "MIGRATION_NOTES.txt"), notes, 0o644); err != nil {
			return "", err
		}
	}

	gomod, err := GoMod(opts)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "go.mod"), gomod, 0o644); err != nil {
		return "", err
	}

	var m Manifest
	m.Package.Name = opts.Name
	m.Package.Module = opts.Module
	m.Package.Version = opts.Version
	m.Generator.Tool = "fort2go"
	m.Generator.Version = opts.ToolVersion
	m.Generator.Files = names
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, ManifestFile), buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return pkgDir, nil
}

// GoMod returns the go.mod contents for a package built with opts.
func GoMod(opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	f := new(modfile.File)
	if err := f.AddModuleStmt(opts.Module); err != nil {
		return nil, err
	}
	if err := f.AddGoStmt(goVersion); err != nil {
		return nil, err
	}
	if err := f.AddRequire(RuntimeModule, opts.RuntimeVersion); err != nil {
		return nil, err
	}
	if opts.RuntimeReplace != "" {
		dir := filepath.ToSlash(opts.RuntimeReplace)
		if !filepath.IsAbs(opts.RuntimeReplace) && !strings.HasPrefix(dir, "./") && !strings.HasPrefix(dir, "../") {
			dir = "./" + dir
		}
		if err := f.AddReplace(RuntimeModule, "", dir, ""); err != nil {
			return nil, err
		}
	}
	f.Cleanup()
	return modfile.Format(f.Syntax), nil
}

// setPackage rewrites the package clause of a Go source file.
func setPackage(filename string, src []byte, name string) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("reading package clause: %w", err)
	}
	start := fset.Position(f.Name.Pos()).Offset
	end := fset.Position(f.Name.End()).Offset
	out := make([]byte, 0, len(src)+len(name))
	out = append(out, src[:start]...)
	out = append(out, name...)
	return append(out, src[end:]...), nil
}
