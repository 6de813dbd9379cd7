package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soypat/fort2go/internal/config"
	"github.com/soypat/fort2go/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the Fortran sources of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().Bool("include-legacy", false, "include fixed-form .f and .for files")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	applySourceFlags(cmd, cfg)
	root := cfg.Source.Root
	if len(args) == 1 {
		root = args[0]
	}
	files, err := scan.Files(root, cfg.Source.IncludeLegacy)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
	fmt.Fprintf(os.Stderr, "Found %d Fortran files\n", len(files))
	return nil
}

func applySourceFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("include-legacy") {
		cfg.Source.IncludeLegacy, _ = cmd.Flags().GetBool("include-legacy")
	}
}

// sourceFiles expands the command arguments into Fortran files. Directories
// are scanned; no arguments scans the configured source root.
func sourceFiles(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{cfg.Source.Root}
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := scan.Files(arg, cfg.Source.IncludeLegacy)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Fortran files found in %v", args)
	}
	return files, nil
}
