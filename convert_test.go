package fortran

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/fort2go/symbol"
)

func writeSources(t *testing.T, files map[string]string) (dir string, paths []string) {
	t.Helper()
	dir = t.TempDir()
	for name, src := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return dir, paths
}

func TestConvert(t *testing.T) {
	var paths []string
	for _, name := range []string{"valid_vecmath.f90", "valid_continuation.f90"} {
		paths = append(paths, filepath.Join("testdata", name))
	}
	out := filepath.Join(t.TempDir(), "gen")
	var logbuf bytes.Buffer
	res, err := Convert(paths, out, Options{
		Package: "legacy",
		Logger:  slog.New(slog.NewTextHandler(&logbuf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(out, "cont_f90.go"),
		filepath.Join(out, "vecmath_f90.go"),
		filepath.Join(out, NotesFile),
	}
	if strings.Join(res.Written, "\n") != strings.Join(want, "\n") {
		t.Fatalf("written %v, want %v", res.Written, want)
	}
	for _, p := range want {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o644 {
			t.Errorf("%s has mode %v", p, info.Mode())
		}
	}
	notes, err := os.ReadFile(filepath.Join(out, NotesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(notes), res.RunID) {
		t.Error("notes do not carry the run id")
	}
	if !strings.Contains(string(notes), "- kind.real.default: ") {
		t.Errorf("notes missing default REAL entry:\n%s", notes)
	}
	if !strings.Contains(logbuf.String(), "run_id="+res.RunID) {
		t.Errorf("log lacks run id:\n%s", logbuf.String())
	}
	cont, err := os.ReadFile(want[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(cont, []byte("func Sum3(a int32, b int32, c int32, total *intrinsic.Ref[int32]) {")) {
		t.Errorf("unexpected output:\n%s", cont)
	}
	if !bytes.Contains(cont, []byte("total.V = a + b + c")) {
		t.Errorf("continuation not joined:\n%s", cont)
	}
}

func TestConvertNoPartialOutput(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"good.f90": "module good\ncontains\n  subroutine s()\n  end subroutine s\nend module good\n",
		"bad.f90":  "module bad\ncontains\n  subroutine t(x)\n  end subroutine t\nend module bad\n",
	})
	out := filepath.Join(t.TempDir(), "out")
	_, err := Convert(paths, out, Options{})
	if err == nil || !strings.Contains(err.Error(), "implicit typing is required to be absent") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(out)
		t.Errorf("output directory must not be created, found %v", entries)
	}
}

func TestConvertRollback(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"a.f90": "module aa\nend module aa\n",
		"z.f90": "module zz\nend module zz\n",
	})
	out := t.TempDir()
	// A directory in place of the second output file makes its rename fail.
	if err := os.MkdirAll(filepath.Join(out, "zz_f90.go", "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := Convert(paths, out, Options{})
	if err == nil {
		t.Fatal("expected write error")
	}
	if _, err := os.Stat(filepath.Join(out, "aa_f90.go")); !os.IsNotExist(err) {
		t.Error("file written before the failure was not removed")
	}
	entries, _ := os.ReadDir(out)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".fort2go-") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}

func TestConvertRollbackRestores(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"a.f90": "module aa\nend module aa\n",
		"z.f90": "module zz\nend module zz\n",
	})
	out := t.TempDir()
	prev := filepath.Join(out, "aa_f90.go")
	if err := os.WriteFile(prev, []byte("package old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(out, "zz_f90.go", "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Convert(paths, out, Options{}); err == nil {
		t.Fatal("expected write error")
	}
	got, err := os.ReadFile(prev)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "package old\n" {
		t.Errorf("previous output not restored: %q", got)
	}
}

func TestRenderNotes(t *testing.T) {
	got, err := RenderNotes("run-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(got, []byte("Additional notes from analysis:\n- None\n")) {
		t.Errorf("empty notes:\n%s", got)
	}
	notes := symbol.Notes{"b": "second", "a": "first"}
	got, err = RenderNotes("run-2", notes)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(got, []byte("Additional notes from analysis:\n- a: first\n- b: second\n")) {
		t.Errorf("notes not sorted:\n%s", got)
	}
	if !bytes.HasPrefix(got, []byte("Migration Notes (generated by fort2go, run run-2)")) {
		t.Errorf("header:\n%s", got)
	}
}
