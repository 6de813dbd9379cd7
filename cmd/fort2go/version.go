package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soypat/fort2go/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the fort2go version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String(!color.NoColor))
	},
}
