package version

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

// Version information for the fort2go CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// String returns the version line printed by "fort2go version".
func String(colored bool) string {
	v := Version
	if colored {
		v = colorize(Version)
	}
	var b strings.Builder
	b.WriteString("fort2go " + v)
	if GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		b.WriteString(" built " + BuildDate)
	}
	return b.String()
}

func colorize(s string) string {
	v, err := semver.NewVersion(s)
	if err != nil {
		return s
	}
	out := majorColor.Sprint(v.Major()) + "." + minorColor.Sprint(v.Minor()) + "." + patchColor.Sprint(v.Patch())
	if v.Prerelease() != "" {
		out += "-" + v.Prerelease()
	}
	return out
}
