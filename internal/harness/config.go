// Package harness checks that a translated Go program reproduces the output
// of the Fortran program it was translated from.
package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds every build and every program run.
const DefaultTimeout = 2 * time.Minute

// Config is the YAML verification configuration.
//
//	fortran:
//	  compiler: gfortran
//	  sources: [src/main.f90, src/solver.f90]
//	go:
//	  dir: cmd/solver
//	timeout: 30s
//	decode: latin1
//	cases:
//	  - name: small
//	    args: ["10"]
type Config struct {
	Fortran FortranConfig `yaml:"fortran"`
	Go      GoConfig      `yaml:"go"`
	Timeout time.Duration `yaml:"timeout"`
	// Decode names the encoding of the Fortran program output. Empty
	// compares raw bytes; "latin1" decodes ISO-8859-1 before comparing
	// against the UTF-8 output of the Go program.
	Decode string `yaml:"decode"`
	Cases  []Case `yaml:"cases"`
}

// FortranConfig locates the reference program: either prebuilt, or compiled
// from Sources.
type FortranConfig struct {
	Exe      string   `yaml:"exe"`
	Compiler string   `yaml:"compiler"`
	Flags    []string `yaml:"flags"`
	Sources  []string `yaml:"sources"`
}

// GoConfig locates the translated program: either prebuilt, or built with
// "go build" in Dir.
type GoConfig struct {
	Exe string `yaml:"exe"`
	Dir string `yaml:"dir"`
}

// Case is one program run. Both programs get the same arguments and input.
type Case struct {
	Name   string   `yaml:"name"`
	Args   []string `yaml:"args"`
	Stdin  string   `yaml:"stdin"`
	Cwd    string   `yaml:"cwd"`
	Decode string   `yaml:"decode"` // Overrides Config.Decode.
}

var defaultFlags = []string{"-O2", "-fimplicit-none"}

// LoadConfig reads a verification configuration. Relative paths are
// resolved against the configuration file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading verification config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// ParseConfig decodes YAML data and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Fortran.Compiler == "" {
		cfg.Fortran.Compiler = "gfortran"
	}
	if cfg.Fortran.Flags == nil {
		cfg.Fortran.Flags = defaultFlags
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Fortran.Exe == "" && len(cfg.Fortran.Sources) == 0 {
		return errors.New("fortran: one of exe or sources is required")
	}
	if cfg.Go.Exe == "" && cfg.Go.Dir == "" {
		return errors.New("go: one of exe or dir is required")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", cfg.Timeout)
	}
	if len(cfg.Cases) == 0 {
		return errors.New("no cases")
	}
	seen := make(map[string]bool)
	for i, c := range cfg.Cases {
		if c.Name == "" {
			return fmt.Errorf("case %d has no name", i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate case %q", c.Name)
		}
		seen[c.Name] = true
		if _, err := decoder(cfg.decodeFor(c)); err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	return nil
}

func (cfg *Config) decodeFor(c Case) string {
	if c.Decode != "" {
		return c.Decode
	}
	return cfg.Decode
}

func (cfg *Config) resolve(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	abs(&cfg.Fortran.Exe)
	abs(&cfg.Go.Exe)
	abs(&cfg.Go.Dir)
	for i := range cfg.Fortran.Sources {
		abs(&cfg.Fortran.Sources[i])
	}
	for i := range cfg.Cases {
		abs(&cfg.Cases[i].Cwd)
	}
}
