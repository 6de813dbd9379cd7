// Package config loads fort2go.toml project files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up from the working directory upwards.
const FileName = "fort2go.toml"

// Config is the project configuration. Zero fields of a loaded file keep
// their defaults unless the key is present in the file.
type Config struct {
	Source  SourceConfig  `toml:"source"`
	Convert ConvertConfig `toml:"convert"`
	Package PackageConfig `toml:"package"`
	Verify  VerifyConfig  `toml:"verify"`
}

type SourceConfig struct {
	// Root directory scanned for Fortran files, relative to the project file.
	Root          string `toml:"root"`
	IncludeLegacy bool   `toml:"include_legacy"`
}

type ConvertConfig struct {
	Out           string `toml:"out"`
	Package       string `toml:"package"`
	RuntimeImport string `toml:"runtime_import"`
	ExportNames   bool   `toml:"export_names"`
	CollectAll    bool   `toml:"collect_all"`
	SmokeTests    bool   `toml:"smoke_tests"`
}

type PackageConfig struct {
	Name    string `toml:"name"`
	Module  string `toml:"module"`
	Version string `toml:"version"`
	Out     string `toml:"out"`
	// RuntimeReplace is a local directory replacing the runtime module in go.mod.
	RuntimeReplace string `toml:"runtime_replace"`
}

type VerifyConfig struct {
	Config string `toml:"config"`
	Jobs   int    `toml:"jobs"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Source:  SourceConfig{Root: "."},
		Convert: ConvertConfig{Out: "build/go_out", Package: "fortran"},
		Package: PackageConfig{Version: "0.1.0", Out: "build/pkg_out"},
		Verify:  VerifyConfig{Jobs: 4},
	}
}

// Find looks for FileName in startDir and its parents.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads the project file at path over the defaults. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	var loaded Config
	meta, err := toml.DecodeFile(path, &loaded)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing TOML: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undec[0].String())
	}
	cfg := Default()
	cfg.merge(&loaded, meta)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// merge copies the keys defined in the file.
func (c *Config) merge(loaded *Config, meta toml.MetaData) {
	set := func(dst *string, src string, key ...string) {
		if meta.IsDefined(key...) {
			*dst = src
		}
	}
	setBool := func(dst *bool, src bool, key ...string) {
		if meta.IsDefined(key...) {
			*dst = src
		}
	}
	set(&c.Source.Root, loaded.Source.Root, "source", "root")
	setBool(&c.Source.IncludeLegacy, loaded.Source.IncludeLegacy, "source", "include_legacy")

	set(&c.Convert.Out, loaded.Convert.Out, "convert", "out")
	set(&c.Convert.Package, loaded.Convert.Package, "convert", "package")
	set(&c.Convert.RuntimeImport, loaded.Convert.RuntimeImport, "convert", "runtime_import")
	setBool(&c.Convert.ExportNames, loaded.Convert.ExportNames, "convert", "export_names")
	setBool(&c.Convert.CollectAll, loaded.Convert.CollectAll, "convert", "collect_all")
	setBool(&c.Convert.SmokeTests, loaded.Convert.SmokeTests, "convert", "smoke_tests")

	set(&c.Package.Name, loaded.Package.Name, "package", "name")
	set(&c.Package.Module, loaded.Package.Module, "package", "module")
	set(&c.Package.Version, loaded.Package.Version, "package", "version")
	set(&c.Package.Out, loaded.Package.Out, "package", "out")
	set(&c.Package.RuntimeReplace, loaded.Package.RuntimeReplace, "package", "runtime_replace")

	set(&c.Verify.Config, loaded.Verify.Config, "verify", "config")
	if meta.IsDefined("verify", "jobs") {
		c.Verify.Jobs = loaded.Verify.Jobs
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Convert.Package) == "" {
		return errors.New("[convert].package must not be empty")
	}
	if c.Verify.Jobs < 1 {
		return fmt.Errorf("[verify].jobs must be positive, got %d", c.Verify.Jobs)
	}
	return nil
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Source.Root, &c.Convert.Out, &c.Package.Out, &c.Package.RuntimeReplace, &c.Verify.Config} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, filepath.FromSlash(*p))
		}
	}
}
