// Command fort2go translates a subset of Fortran 90/95 into Go.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/soypat/fort2go/internal/config"
	"github.com/soypat/fort2go/internal/diagfmt"
	"github.com/soypat/fort2go/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "fort2go",
	Short:         "Fortran to Go translator",
	Long:          `fort2go translates explicitly typed Fortran 90/95 modules into Go source files backed by the intrinsic runtime.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch colorFlag, _ := cmd.Root().PersistentFlags().GetString("color"); colorFlag {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		}
	},
}

// errFailed is returned by commands that already reported why they failed.
var errFailed = errors.New("failed")

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(buildPackageCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().String("config", "", "project file (default: "+config.FileName+" in the working directory or a parent)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			diagfmt.NewPrinter(os.Stderr, useColor(rootCmd)).Print(err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) bool {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetCount("verbose")
	level := slog.LevelWarn
	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadProject returns the project configuration: the file named by --config,
// else the nearest project file, else the defaults.
func loadProject(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}
