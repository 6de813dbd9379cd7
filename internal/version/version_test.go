package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, GitCommit, BuildDate = v, c, d }(Version, GitCommit, BuildDate)
	Version, GitCommit, BuildDate = "1.4.2-rc.1", "abc123", "2026-01-02"
	if got := String(false); got != "fort2go 1.4.2-rc.1 (abc123) built 2026-01-02" {
		t.Errorf("got %q", got)
	}
	majorColor.EnableColor()
	defer majorColor.DisableColor()
	if got := String(true); !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc.1 (abc123) built 2026-01-02") {
		t.Errorf("colored %q", got)
	}
}
