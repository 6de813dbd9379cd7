package fortran

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/soypat/fort2go/ir"
	"github.com/soypat/fort2go/symbol"
)

// Options configures a conversion run.
type Options struct {
	Package       string
	RuntimeImport string
	ExportNames   bool
	// CollectAll reports every parse or semantic error instead of the first.
	CollectAll bool
	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// Result describes a successful conversion run.
type Result struct {
	RunID   string
	Written []string // Paths of the files written, notes file last.
	Files   []File
	Notes   symbol.Notes
	Project *ir.Project
}

// Analyze runs semantic analysis on proj, annotating it in place.
func Analyze(proj *ir.Project, collectAll bool) (symbol.Notes, error) {
	return symbol.Analyze(proj, symbol.Options{CollectAll: collectAll})
}

// Convert translates the Fortran files into Go files in outDir. Files are
// parsed in sorted path order, then analyzed and generated as a whole. No file
// is written unless every module translates. A failed write removes the
// files the run created and restores the ones it replaced.
func Convert(files []string, outDir string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	res := &Result{RunID: uuid.NewString()}
	log = log.With("run_id", res.RunID)

	log.Debug("parsing", "files", len(files))
	proj, err := ParseSources(files, ParseOptions{CollectAll: opts.CollectAll})
	if err != nil {
		return nil, err
	}
	res.Project = proj
	for _, c := range proj.Collisions {
		log.Warn("unit name collision, later definition wins", "unit", c.Unit, "name", c.Name, "previous", c.Previous.String(), "current", c.Current.String())
	}

	log.Debug("analyzing", "modules", len(proj.Modules), "programs", len(proj.Programs))
	res.Notes, err = Analyze(proj, opts.CollectAll)
	if err != nil {
		return nil, err
	}

	log.Debug("generating")
	res.Files, err = Generate(proj, GenOptions{
		Package:       opts.Package,
		RuntimeImport: opts.RuntimeImport,
		ExportNames:   opts.ExportNames,
	})
	if err != nil {
		return nil, err
	}
	notes, err := RenderNotes(res.RunID, res.Notes)
	if err != nil {
		return nil, fmt.Errorf("rendering notes: %w", err)
	}

	out := append(res.Files[:len(res.Files):len(res.Files)], File{Name: NotesFile, Source: notes})
	res.Written, err = writeAll(outDir, out)
	if err != nil {
		return nil, err
	}
	log.Info("conversion done", "modules", len(res.Files), "notes", len(res.Notes), "out", outDir)
	return res, nil
}

// writeAll writes files into dir. On failure the files written so far are
// removed, and those that replaced an earlier output get their previous
// contents back.
func writeAll(dir string, files []File) (written []string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	previous := make(map[string][]byte)
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			if data, ok := previous[p]; ok {
				err = errors.Join(err, WriteFileAtomic(p, data))
			} else {
				err = errors.Join(err, os.Remove(p))
			}
		}
		written = nil
	}()
	for _, f := range files {
		p := filepath.Join(dir, f.Name)
		data, rerr := os.ReadFile(p)
		switch {
		case rerr == nil:
			previous[p] = data
		case !errors.Is(rerr, fs.ErrNotExist):
			return written, rerr
		}
		if err = WriteFileAtomic(p, f.Source); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it over path.
func WriteFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".fort2go-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err == nil {
		err = f.Chmod(0o644)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
