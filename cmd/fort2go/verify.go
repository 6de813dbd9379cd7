package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soypat/fort2go/internal/harness"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [config.yaml]",
	Short: "Compare the output of a Fortran program and its translation",
	Long: `Verify builds the reference Fortran program and the translated Go program
(or uses prebuilt executables) and runs every configured case against both.
It exits with status 1 unless every case produces identical output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().IntP("jobs", "j", 0, "cases run concurrently (default: [verify].jobs)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	path := cfg.Verify.Config
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no verification config (argument or [verify].config)")
	}
	jobs := cfg.Verify.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs, _ = cmd.Flags().GetInt("jobs")
	}
	vcfg, err := harness.LoadConfig(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := harness.Verify(ctx, vcfg, harness.Options{Jobs: jobs, Logger: newLogger(cmd)})
	if err != nil {
		return err
	}

	pass, fail := color.New(color.FgGreen), color.New(color.FgRed, color.Bold)
	if !useColor(cmd) {
		pass.DisableColor()
		fail.DisableColor()
	}
	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.OK:
			fmt.Fprintf(out, "%s %s\n", pass.Sprint("ok  "), r.Name)
		case r.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", fail.Sprint("FAIL"), r.Name, r.Err)
		default:
			fmt.Fprintf(out, "%s %s: output differs\n%s\n", fail.Sprint("FAIL"), r.Name, r.Diff)
		}
	}
	if !harness.OK(results) {
		return errFailed
	}
	return nil
}
