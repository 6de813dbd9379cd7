package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	fortran "github.com/soypat/fort2go"
	"github.com/soypat/fort2go/internal/config"
	"github.com/soypat/fort2go/internal/diagfmt"
	"github.com/soypat/fort2go/internal/testgen"
	"github.com/soypat/fort2go/internal/watch"
	"github.com/soypat/fort2go/ir"
)

// IRFile is the snapshot written by convert --emit-ir.
const IRFile = "project.irpack"

var convertCmd = &cobra.Command{
	Use:   "convert [flags] [file.f90|dir]...",
	Short: "Translate Fortran sources into Go",
	Long: `Convert parses, analyzes and translates the given Fortran files, or every
Fortran file under the given directories, into one Go file per module plus
MIGRATION_NOTES.txt. Nothing is written unless every module translates.`,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringP("out", "o", "", "output directory")
	f.String("package", "", "Go package name of the generated files")
	f.String("runtime-import", "", "import path of the intrinsic runtime")
	f.Bool("export", false, "export generated procedure names")
	f.Bool("collect-all", false, "report every error instead of stopping at the first")
	f.Bool("include-legacy", false, "include fixed-form .f and .for files when scanning directories")
	f.Bool("smoke-tests", false, "also write smoke tests calling every procedure")
	f.Bool("emit-ir", false, "also write an IR snapshot ("+IRFile+")")
	f.Bool("watch", false, "convert again whenever a source file changes")
}

func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	applySourceFlags(cmd, cfg)
	if f.Changed("out") {
		cfg.Convert.Out, _ = f.GetString("out")
	}
	if f.Changed("package") {
		cfg.Convert.Package, _ = f.GetString("package")
	}
	if f.Changed("runtime-import") {
		cfg.Convert.RuntimeImport, _ = f.GetString("runtime-import")
	}
	if f.Changed("export") {
		cfg.Convert.ExportNames, _ = f.GetBool("export")
	}
	if f.Changed("collect-all") {
		cfg.Convert.CollectAll, _ = f.GetBool("collect-all")
	}
	if f.Changed("smoke-tests") {
		cfg.Convert.SmokeTests, _ = f.GetBool("smoke-tests")
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	applyConvertFlags(cmd, cfg)
	emitIR, _ := cmd.Flags().GetBool("emit-ir")
	watching, _ := cmd.Flags().GetBool("watch")
	log := newLogger(cmd)

	convert := func() error {
		files, err := sourceFiles(cfg, args)
		if err != nil {
			return err
		}
		return convertOnce(cmd, cfg, files, emitIR, log)
	}
	err = convert()
	if !watching {
		return err
	}
	if err != nil {
		diagfmt.NewPrinter(os.Stderr, useColor(cmd)).Print(err)
	}

	root := cfg.Source.Root
	if len(args) == 1 {
		root = args[0]
	}
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Info("watching for changes", "dir", root)
	return watch.Run(ctx, root, watch.Options{Legacy: cfg.Source.IncludeLegacy, Logger: log}, func(changed []string) {
		log.Info("sources changed", "files", changed)
		if err := convert(); err != nil {
			diagfmt.NewPrinter(os.Stderr, useColor(cmd)).Print(err)
		}
	})
}

func convertOnce(cmd *cobra.Command, cfg *config.Config, files []string, emitIR bool, log *slog.Logger) error {
	opts := fortran.Options{
		Package:       cfg.Convert.Package,
		RuntimeImport: cfg.Convert.RuntimeImport,
		ExportNames:   cfg.Convert.ExportNames,
		CollectAll:    cfg.Convert.CollectAll,
		Logger:        log,
	}
	res, err := fortran.Convert(files, cfg.Convert.Out, opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range res.Written {
		fmt.Fprintln(out, p)
	}

	if cfg.Convert.SmokeTests {
		tests, err := testgen.Generate(res.Project, fortran.GenOptions{
			Package:       opts.Package,
			RuntimeImport: opts.RuntimeImport,
			ExportNames:   opts.ExportNames,
		})
		if err != nil {
			return err
		}
		for _, f := range tests {
			p := filepath.Join(cfg.Convert.Out, f.Name)
			if err := fortran.WriteFileAtomic(p, f.Source); err != nil {
				return err
			}
			fmt.Fprintln(out, p)
		}
	}
	if emitIR {
		var buf bytes.Buffer
		if err := ir.WriteSnapshot(&buf, res.Project); err != nil {
			return fmt.Errorf("writing IR snapshot: %w", err)
		}
		p := filepath.Join(cfg.Convert.Out, IRFile)
		if err := fortran.WriteFileAtomic(p, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintln(out, p)
	}
	log.Info("conversion complete", "run_id", res.RunID, "out", cfg.Convert.Out)
	return nil
}
