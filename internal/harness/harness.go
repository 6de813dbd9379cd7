package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

// ErrToolchain is returned when a compiler needed to build a program is not installed.
var ErrToolchain = errors.New("toolchain not found")

// CaseResult is the outcome of one case. Err is set when a program could not
// be built or run; Diff describes mismatched output.
type CaseResult struct {
	Name string
	OK   bool
	Err  error
	Diff string
}

// Options configures a verification run.
type Options struct {
	// Jobs is the number of cases run concurrently. Zero uses GOMAXPROCS.
	Jobs   int
	Logger *slog.Logger
}

// determinismEnv pins thread counts of numeric libraries linked by either program.
var determinismEnv = []string{
	"OMP_NUM_THREADS=1",
	"OPENBLAS_NUM_THREADS=1",
	"MKL_NUM_THREADS=1",
	"GOMAXPROCS=1",
}

// Verify builds both programs if needed and runs every case against them.
// A build failure fails every case. The returned error is only set when ctx
// is done before all cases ran.
func Verify(ctx context.Context, cfg *Config, opts Options) ([]CaseResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	work, err := os.MkdirTemp("", "fort2go-verify-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	results := make([]CaseResult, len(cfg.Cases))
	fortExe, goExe, buildErr := build(ctx, cfg, work, log)
	if buildErr != nil {
		log.Error("build failed", "err", buildErr)
		for i, c := range cfg.Cases {
			results[i] = CaseResult{Name: c.Name, Err: buildErr}
		}
		return results, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(cfg.Cases)))
	for i, c := range cfg.Cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = CaseResult{Name: c.Name, Err: err}
				return err
			}
			results[i] = runCase(gctx, cfg, c, fortExe, goExe)
			log.Debug("case done", "case", c.Name, "ok", results[i].OK)
			return nil
		})
	}
	return results, g.Wait()
}

// OK reports whether every case passed.
func OK(results []CaseResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return len(results) > 0
}

func build(ctx context.Context, cfg *Config, work string, log *slog.Logger) (fortExe, goExe string, err error) {
	fortExe, goExe = cfg.Fortran.Exe, cfg.Go.Exe
	if fortExe == "" {
		fortExe = filepath.Join(work, "fortran"+exeSuffix())
		args := append(append([]string{}, cfg.Fortran.Flags...), "-o", fortExe)
		args = append(args, cfg.Fortran.Sources...)
		log.Debug("compiling fortran", "compiler", cfg.Fortran.Compiler, "sources", len(cfg.Fortran.Sources))
		if err := compile(ctx, cfg.Timeout, "", cfg.Fortran.Compiler, args...); err != nil {
			return "", "", fmt.Errorf("building fortran program: %w", err)
		}
	} else if err := checkExe(fortExe); err != nil {
		return "", "", fmt.Errorf("fortran executable: %w", err)
	}
	if goExe == "" {
		goExe = filepath.Join(work, "translated"+exeSuffix())
		log.Debug("building go program", "dir", cfg.Go.Dir)
		if err := compile(ctx, cfg.Timeout, cfg.Go.Dir, "go", "build", "-o", goExe, "."); err != nil {
			return "", "", fmt.Errorf("building go program: %w", err)
		}
	} else if err := checkExe(goExe); err != nil {
		return "", "", fmt.Errorf("go executable: %w", err)
	}
	return fortExe, goExe, nil
}

func compile(ctx context.Context, timeout time.Duration, dir, tool string, args ...string) error {
	path, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrToolchain, tool)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %v", tool, timeout)
		}
		return fmt.Errorf("%s: %w\n%s", tool, err, bytes.TrimSpace(out))
	}
	return nil
}

func checkExe(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

func runCase(ctx context.Context, cfg *Config, c Case, fortExe, goExe string) CaseResult {
	res := CaseResult{Name: c.Name}
	decode, err := decoder(cfg.decodeFor(c))
	if err != nil {
		res.Err = err
		return res
	}
	fortOut, err := run(ctx, cfg.Timeout, fortExe, c)
	if err != nil {
		res.Err = fmt.Errorf("fortran program: %w", err)
		return res
	}
	goOut, err := run(ctx, cfg.Timeout, goExe, c)
	if err != nil {
		res.Err = fmt.Errorf("go program: %w", err)
		return res
	}
	want, err := decode(fortOut)
	if err != nil {
		res.Err = fmt.Errorf("decoding fortran output: %w", err)
		return res
	}
	res.OK = want == string(goOut)
	if !res.OK {
		res.Diff = lineDiff(want, string(goOut))
	}
	return res
}

// run executes exe for case c and returns its standard output. A non-zero
// exit status is an error carrying the program's standard error.
func run(ctx context.Context, timeout time.Duration, exe string, c Case) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, exe, c.Args...)
	cmd.Dir = c.Cwd
	cmd.Env = append(os.Environ(), determinismEnv...)
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("timed out after %v", timeout)
	}
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func decoder(name string) (func([]byte) (string, error), error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return func(b []byte) (string, error) { return string(b), nil }, nil
	case "latin1", "latin-1", "iso-8859-1":
		return func(b []byte) (string, error) {
			return charmap.ISO8859_1.NewDecoder().String(string(b))
		}, nil
	}
	return nil, fmt.Errorf("unknown output encoding %q", name)
}

// lineDiff describes the first line at which want and got differ.
func lineDiff(want, got string) string {
	wl := strings.SplitAfter(want, "\n")
	gl := strings.SplitAfter(got, "\n")
	for i := 0; i < max(len(wl), len(gl)); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return fmt.Sprintf("line %d:\n-fortran: %q\n+go:      %q", i+1, w, g)
		}
	}
	return ""
}
