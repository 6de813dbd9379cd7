package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	fortran "github.com/soypat/fort2go"
	"github.com/soypat/fort2go/internal/diagfmt"
	"github.com/soypat/fort2go/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] [file.f90|dir|snapshot]...",
	Short: "Print the intermediate representation of Fortran sources",
	Long: `Ir parses the sources and prints the resulting project tree. With --analyze
the tree is annotated by semantic analysis first and analysis notes are listed.
A single argument ending in .irpack is read as a snapshot instead.`,
	RunE: runIR,
}

func init() {
	irCmd.Flags().Bool("analyze", false, "run semantic analysis before printing")
	irCmd.Flags().String("snapshot", "", "write a msgpack snapshot to this file instead of printing")
	irCmd.Flags().Bool("include-legacy", false, "include fixed-form .f and .for files when scanning directories")
}

func runIR(cmd *cobra.Command, args []string) error {
	analyze, _ := cmd.Flags().GetBool("analyze")
	snapshot, _ := cmd.Flags().GetString("snapshot")

	var proj *ir.Project
	if len(args) == 1 && strings.HasSuffix(args[0], ".irpack") {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if proj, err = ir.ReadSnapshot(f); err != nil {
			return err
		}
	} else {
		cfg, err := loadProject(cmd)
		if err != nil {
			return err
		}
		applySourceFlags(cmd, cfg)
		files, err := sourceFiles(cfg, args)
		if err != nil {
			return err
		}
		proj, err = fortran.ParseSources(files, fortran.ParseOptions{CollectAll: true})
		if err != nil {
			diagfmt.NewPrinter(os.Stderr, useColor(cmd)).Print(err)
			return errFailed
		}
	}

	out := cmd.OutOrStdout()
	if analyze {
		notes, err := fortran.Analyze(proj, true)
		if err != nil {
			diagfmt.NewPrinter(os.Stderr, useColor(cmd)).Print(err)
			return errFailed
		}
		for _, k := range notes.Keys() {
			fmt.Fprintf(os.Stderr, "note: %s: %s\n", k, notes[k])
		}
	}
	if snapshot != "" {
		var buf bytes.Buffer
		if err := ir.WriteSnapshot(&buf, proj); err != nil {
			return err
		}
		return fortran.WriteFileAtomic(snapshot, buf.Bytes())
	}
	return ir.Fprint(out, proj, ir.NotNilFilter)
}
