package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soypat/fort2go/internal/pkgbuild"
	"github.com/soypat/fort2go/internal/version"
)

var buildPackageCmd = &cobra.Command{
	Use:   "build-package",
	Short: "Create a standalone Go module from generated sources",
	Args:  cobra.NoArgs,
	RunE:  runBuildPackage,
}

func init() {
	f := buildPackageCmd.Flags()
	f.String("in", "", "directory holding the generated Go files (default: the convert output directory)")
	f.String("name", "", "package name")
	f.StringP("out", "o", "", "output directory")
	f.String("module", "", "module path (default: the package name)")
	f.String("version", "", "semantic version recorded in the manifest")
	f.String("runtime-version", "", "required version of the runtime module")
	f.String("runtime-replace", "", "local directory replacing the runtime module")
}

func runBuildPackage(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	in := cfg.Convert.Out
	if f.Changed("in") {
		in, _ = f.GetString("in")
	}
	for flag, dst := range map[string]*string{
		"name":            &cfg.Package.Name,
		"out":             &cfg.Package.Out,
		"module":          &cfg.Package.Module,
		"version":         &cfg.Package.Version,
		"runtime-replace": &cfg.Package.RuntimeReplace,
	} {
		if f.Changed(flag) {
			*dst, _ = f.GetString(flag)
		}
	}
	if cfg.Package.Name == "" {
		return fmt.Errorf("a package name is required (--name or [package].name)")
	}
	runtimeVersion, _ := f.GetString("runtime-version")
	dir, err := pkgbuild.Build(in, cfg.Package.Out, pkgbuild.Options{
		Name:           cfg.Package.Name,
		Module:         cfg.Package.Module,
		Version:        cfg.Package.Version,
		RuntimeVersion: runtimeVersion,
		RuntimeReplace: cfg.Package.RuntimeReplace,
		ToolVersion:    version.Version,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Package created: %s\n", dir)
	return nil
}
