package fortran

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/soypat/fort2go/ir"
)

//go:embed testdata
var testdatadir embed.FS

func TestData_valid(t *testing.T) {
	entries, err := fs.ReadDir(testdatadir, "testdata")
	if err != nil || len(entries) == 0 {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "valid_") {
			continue
		}
		t.Run(name, func(t *testing.T) {
			path := "testdata/" + name
			src, err := fs.ReadFile(testdatadir, path)
			if err != nil {
				t.Fatal(err)
			}
			checkErrors(t, path, string(src), false)
		})
	}
}

func TestData_invalid(t *testing.T) {
	entries, err := fs.ReadDir(testdatadir, "testdata")
	if err != nil || len(entries) == 0 {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "invalid_") {
			continue
		}
		t.Run(name, func(t *testing.T) {
			srcpath := "testdata/" + name
			src, err := fs.ReadFile(testdatadir, srcpath)
			if err != nil {
				t.Fatal(err)
			}
			checkErrors(t, srcpath, string(src), true)
		})
	}
}

var errCommentRx = regexp.MustCompile(`!\s*ERROR\s+"([^"]*)"`)

// expectedErrors scans the source for error annotations and returns
// a map of line numbers to expected error patterns (as regexes).
func expectedErrors(src string) map[int]string {
	errs := make(map[int]string)
	for lineNum, line := range strings.Split(src, "\n") {
		if m := errCommentRx.FindStringSubmatch(line); len(m) == 2 {
			errs[lineNum+1] = m[1]
		}
	}
	return errs
}

// checkErrors parses src collecting every error and verifies errors match annotations.
// If expectErrors is false, it verifies that no errors occurred.
func checkErrors(t *testing.T, srcpath, src string, expectErrors bool) {
	t.Helper()
	expected := map[int]string{}
	if expectErrors {
		expected = expectedErrors(src)
	}
	proj := ir.NewProject()
	err := ParseFile(srcpath, strings.NewReader(src), proj, ParseOptions{CollectAll: true})
	var actual ir.ErrorList
	if err != nil && !errors.As(err, &actual) {
		var single *ir.Error
		if !errors.As(err, &single) {
			t.Fatalf("unexpected error type %T: %v", err, err)
		}
		actual = ir.ErrorList{single}
	}
	if err := compareErrors(t, srcpath, expected, actual); err != nil {
		t.Error(err)
	}
}

// compareErrors compares expected errors (from annotations) with actual parser errors.
func compareErrors(t *testing.T, srcpath string, expected map[int]string, actual ir.ErrorList) error {
	t.Helper()
	actualAreExpected := make([]bool, len(actual))
	for line, pattern := range expected {
		sp := ir.Pos{Source: srcpath, Line: line}
		rx, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid regex pattern %q: %v", sp, pattern, err)
		}
		matched := false
		lineErrFound := ""
		for i := range actual {
			if actual[i].Pos.Line == line {
				lineErrFound = actual[i].Error()
				if rx.MatchString(lineErrFound) {
					matched = true
					actualAreExpected[i] = true
					break
				}
			}
		}
		if lineErrFound == "" {
			return fmt.Errorf("%s: expected error matching %q, but no error found", sp, pattern)
		}
		if !matched {
			return fmt.Errorf("%s: expected error matching %q, but got: %v", sp, pattern, lineErrFound)
		}
	}
	for i, isExpected := range actualAreExpected {
		if !isExpected {
			t.Errorf("unexpected error: %v", actual[i])
		}
	}
	return nil
}

func parseString(t *testing.T, src string) (*ir.Project, error) {
	t.Helper()
	proj := ir.NewProject()
	err := ParseFile("test.f90", strings.NewReader(src), proj, ParseOptions{})
	return proj, err
}

func mustParse(t *testing.T, src string) *ir.Project {
	t.Helper()
	proj, err := parseString(t, src)
	if err != nil {
		t.Fatal(err)
	}
	return proj
}

func TestParseModuleStructure(t *testing.T) {
	const src = `module Geometry
  use constants, only: pi
  implicit none
  type, public :: point
    real(8) :: x, y
  end type
contains
  recursive subroutine walk(p, n)
    type(point), intent(inout) :: p
    integer(kind=8), intent(in) :: n
    p.V.x += 1
  end subroutine
  elemental real(kind=8) function area(r) result(a)
    real(8), intent(in) :: r
    a = r * r
  end function area
end module geometry
`
	proj := mustParse(t, src)
	m := proj.Module("GEOMETRY")
	if m == nil {
		t.Fatal("module not registered by lower-cased name")
	}
	if !m.ImplicitNone || len(m.Uses) != 1 || m.Uses[0].Module != "constants" || len(m.Uses[0].Only) != 1 {
		t.Errorf("module header not parsed: %+v", m)
	}
	dt := m.DerivedType("Point")
	if dt == nil || len(dt.Components) != 2 {
		t.Fatalf("derived type not parsed: %+v", dt)
	}
	if len(m.Subroutines) != 1 || len(m.Functions) != 1 {
		t.Fatalf("got %d subroutines and %d functions", len(m.Subroutines), len(m.Functions))
	}
	walk := m.Subroutines[0]
	if !walk.Recursive || walk.Module != "Geometry" || len(walk.Args) != 2 || len(walk.Body) != 1 {
		t.Errorf("subroutine not parsed: %+v", walk.Procedure)
	}
	if walk.Body[0].Text != "p.V.x += 1" || walk.Body[0].Pos.Line != 11 {
		t.Errorf("body line %+v", walk.Body[0])
	}
	area := m.Functions[0]
	if !area.Elemental || area.Result != "a" || area.Prefix == nil || area.Prefix.Kind != 8 {
		t.Errorf("function header not parsed: %+v", area)
	}
}

func TestParseDeclarations(t *testing.T) {
	const src = `module m
contains
  subroutine s(a, b, c, name)
    integer, intent(in) :: a
    real(kind=8), dimension(3, 2), intent(inout) :: b
    logical, optional, intent(in) :: c
    character(len=16), intent(in) :: name
    double precision :: tmp(4), acc
    integer, parameter :: n = 10, k = 2
    tmp.Fill(0)
  end subroutine s
end module m
`
	proj := mustParse(t, src)
	s := proj.Module("m").Subroutines[0]
	var tests = []struct {
		name   string
		typ    ir.Type
		kind   int
		dims   []int
		intent ir.Intent
	}{
		{"a", ir.TypeInteger, 0, nil, ir.IntentIn},
		{"b", ir.TypeReal, 8, []int{3, 2}, ir.IntentInOut},
		{"c", ir.TypeLogical, 0, nil, ir.IntentIn},
		{"name", ir.TypeCharacter, 0, nil, ir.IntentIn},
		{"tmp", ir.TypeDoublePrecision, 0, []int{4}, ir.IntentNone},
		{"acc", ir.TypeDoublePrecision, 0, nil, ir.IntentNone},
		{"n", ir.TypeInteger, 0, nil, ir.IntentNone},
	}
	for _, tt := range tests {
		d := s.Decl(tt.name)
		if d == nil {
			t.Errorf("%s not declared", tt.name)
			continue
		}
		if d.Type != tt.typ || d.Kind != tt.kind || d.Intent != tt.intent || fmt.Sprint(d.Dims) != fmt.Sprint(tt.dims) {
			t.Errorf("%s: got %v kind=%d dims=%v intent=%v", tt.name, d.Type, d.Kind, d.Dims, d.Intent)
		}
	}
	if d := s.Decl("c"); !d.Optional {
		t.Error("c should be optional")
	}
	if d := s.Decl("name"); d.CharLen != 16 {
		t.Errorf("name length %d", d.CharLen)
	}
	if d := s.Decl("k"); !d.Parameter || d.Init != "2" {
		t.Errorf("k = %+v", d)
	}
}

func TestParseFailFast(t *testing.T) {
	const src = `module m
  integer :: x
  real :: y
end module m
`
	_, err := parseString(t, src)
	var perr *ir.Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *ir.Error, got %T %v", err, err)
	}
	if perr.Pos.Line != 2 || perr.Kind != ir.ErrParse {
		t.Errorf("got %v", perr)
	}
	var list ir.ErrorList
	if errors.As(err, &list) {
		t.Error("fail-fast parse returned an error list")
	}
}

// A module-level declaration is rejected naming module-level state.
func TestScenarioModuleState(t *testing.T) {
	_, err := parseString(t, "module m\n  real :: total\nend module m\n")
	if err == nil || !strings.Contains(err.Error(), "module-level state unsupported") {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(err, ir.ErrUnsupported) {
		t.Error("module-level state is unsupported by design")
	}
}

// An assumed-shape declaration is rejected naming the construct.
func TestScenarioAssumedShape(t *testing.T) {
	const src = `module m
contains
  subroutine s(x)
    real(kind=16), dimension(:) :: x
  end subroutine s
end module m
`
	_, err := parseString(t, src)
	var perr *ir.Error
	if !errors.As(err, &perr) {
		t.Fatalf("want *ir.Error, got %v", err)
	}
	if perr.Kind != ir.ErrParse || perr.Construct != "dimension(:)" || perr.Pos.Line != 4 {
		t.Errorf("got %#v", perr)
	}
	if perr.Scope != "subroutine s in module m" {
		t.Errorf("scope %q", perr.Scope)
	}
}

// Two files with distinct modules, parsed in sorted path order.
func TestScenarioTwoFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b_solver.f90": "module Solver\ncontains\n  subroutine run()\n  end subroutine run\nend module Solver\n",
		"a_mesh.f90":   "module MESH\nend module MESH\n",
	}
	var paths []string
	for name, src := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	proj, err := ParseSources(paths, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(proj.Modules) != 2 {
		t.Fatalf("got %d modules", len(proj.Modules))
	}
	if proj.Modules["solver"] == nil || proj.Modules["mesh"] == nil {
		t.Errorf("modules not keyed by lower-cased name: %v", proj.Modules)
	}
	if !strings.HasSuffix(proj.Sources[0], "a_mesh.f90") {
		t.Errorf("sources not sorted: %v", proj.Sources)
	}
}

func TestParseCollisionLastWins(t *testing.T) {
	const src = "module util\nend module\nmodule UTIL\nend module\n"
	proj := mustParse(t, src)
	if len(proj.Modules) != 1 {
		t.Fatalf("got %d modules", len(proj.Modules))
	}
	if got := proj.Module("util"); got.Name != "UTIL" || got.Pos.Line != 3 {
		t.Errorf("later module must win, got %s at %v", got.Name, got.Pos)
	}
	if len(proj.Collisions) != 1 || proj.Collisions[0].Previous.Line != 1 {
		t.Errorf("collision not recorded: %+v", proj.Collisions)
	}
}

func TestParseMissingEnd(t *testing.T) {
	_, err := parseString(t, "module m\ncontains\n  subroutine s()\n")
	if err == nil || !strings.Contains(err.Error(), "missing END statement for subroutine") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseSourcesNotExist(t *testing.T) {
	_, err := ParseSources([]string{filepath.Join(t.TempDir(), "nope.f90")}, ParseOptions{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want fs.ErrNotExist, got %v", err)
	}
}
