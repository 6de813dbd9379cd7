package symbol

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/fort2go/ir"
)

func pos(line int) ir.Pos { return ir.Pos{Source: "test.f90", Line: line} }

func decl(name string, typ ir.Type, kind int, intent ir.Intent, dims ...int) *ir.VarDecl {
	return &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: typ, Kind: kind}, Name: name, Intent: intent, Dims: dims, Pos: pos(2)}
}

func args(names ...string) []*ir.Argument {
	var a []*ir.Argument
	for _, n := range names {
		a = append(a, &ir.Argument{Name: n})
	}
	return a
}

func project(mods ...*ir.Module) *ir.Project {
	p := ir.NewProject()
	for _, m := range mods {
		p.AddModule(m)
	}
	return p
}

func subroutine(name string, a []*ir.Argument, decls ...*ir.VarDecl) *ir.Subroutine {
	return &ir.Subroutine{Procedure: ir.Procedure{Name: name, Args: a, Decls: decls, Module: "m", ImplicitNone: true, Pos: pos(1)}}
}

func TestAnalyzeByRef(t *testing.T) {
	sub := subroutine("s", args("a", "b", "c", "d", "e"),
		decl("a", ir.TypeInteger, 0, ir.IntentIn),
		decl("b", ir.TypeInteger, 0, ir.IntentOut),
		decl("c", ir.TypeReal, 8, ir.IntentInOut),
		decl("d", ir.TypeReal, 8, ir.IntentInOut, 3),
		decl("e", ir.TypeLogical, 0, ir.IntentNone),
	)
	m := &ir.Module{Name: "m", Subroutines: []*ir.Subroutine{sub}}
	notes, err := Analyze(project(m), Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, true, false, false}
	for i, arg := range sub.Args {
		if !arg.Resolved {
			t.Errorf("argument %s not resolved", arg.Name)
		}
		if arg.ByRef != want[i] {
			t.Errorf("argument %s: byref=%v, want %v", arg.Name, arg.ByRef, want[i])
		}
	}
	if sub.Args[3].Dims[0] != 3 || sub.Args[2].Kind != 8 {
		t.Errorf("declaration not copied: %+v %+v", sub.Args[2], sub.Args[3])
	}
	if _, ok := notes["intent.m.s.e"]; !ok {
		t.Errorf("missing no-intent note, have %v", notes.Keys())
	}
}

func TestAnalyzeArgumentOrder(t *testing.T) {
	// Declarations appear in a different order than the argument list.
	sub := subroutine("s", args("z", "y", "x"),
		decl("x", ir.TypeInteger, 0, ir.IntentIn),
		decl("Y", ir.TypeInteger, 0, ir.IntentIn),
		decl("z", ir.TypeInteger, 0, ir.IntentIn),
	)
	m := &ir.Module{Name: "m", Subroutines: []*ir.Subroutine{sub}}
	if _, err := Analyze(project(m), Options{}); err != nil {
		t.Fatal(err)
	}
	got := []string{sub.Args[0].Name, sub.Args[1].Name, sub.Args[2].Name}
	if strings.Join(got, ",") != "z,y,x" {
		t.Errorf("argument order changed: %v", got)
	}
}

func TestAnalyzeFunctionResult(t *testing.T) {
	fn := &ir.Function{
		Procedure: ir.Procedure{Name: "norm", Args: args("v"), Module: "m", Pos: pos(1), Decls: []*ir.VarDecl{
			decl("v", ir.TypeReal, 8, ir.IntentIn, 3),
			decl("norm", ir.TypeReal, 8, ir.IntentNone),
		}},
		Result: "norm",
	}
	prefixed := &ir.Function{
		Procedure: ir.Procedure{Name: "twice", Args: args("n"), Module: "m", Pos: pos(5), Decls: []*ir.VarDecl{
			decl("n", ir.TypeInteger, 0, ir.IntentIn),
		}},
		Result: "twice",
		Prefix: &ir.TypeSpec{Type: ir.TypeInteger, Kind: 8},
	}
	m := &ir.Module{Name: "m", ImplicitNone: true, Functions: []*ir.Function{fn, prefixed}}
	if _, err := Analyze(project(m), Options{}); err != nil {
		t.Fatal(err)
	}
	if fn.ResultType.Type != ir.TypeReal || fn.ResultType.Kind != 8 {
		t.Errorf("norm result type %v", fn.ResultType)
	}
	if prefixed.ResultType.Kind != 8 {
		t.Errorf("twice result type %v", prefixed.ResultType)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	var tests = []struct {
		name        string
		proc        *ir.Subroutine
		fn          *ir.Function
		wantErr     string
		unsupported bool
	}{
		{
			name:    "undeclared argument",
			proc:    subroutine("s", args("x")),
			wantErr: "implicit typing is required to be absent, and is not allowed",
		},
		{
			name:    "duplicate declaration",
			proc:    subroutine("s", nil, decl("x", ir.TypeInteger, 0, 0), decl("X", ir.TypeReal, 0, 0)),
			wantErr: "duplicate declaration",
		},
		{
			name:        "complex",
			proc:        subroutine("s", args("z"), decl("z", ir.TypeComplex, 0, ir.IntentIn)),
			wantErr:     "COMPLEX type",
			unsupported: true,
		},
		{
			name:        "bad kind",
			proc:        subroutine("s", args("x"), decl("x", ir.TypeReal, 3, ir.IntentIn)),
			wantErr:     "KIND=3 is not supported for REAL",
			unsupported: true,
		},
		{
			name:        "character array",
			proc:        subroutine("s", nil, &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: ir.TypeCharacter, CharLen: 4}, Name: "c", Dims: []int{3}}),
			wantErr:     "character array",
			unsupported: true,
		},
		{
			name:        "save",
			proc:        subroutine("s", nil, &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: ir.TypeInteger}, Name: "n", Save: true}),
			wantErr:     "SAVE attribute",
			unsupported: true,
		},
		{
			name:        "implicit save",
			proc:        subroutine("s", nil, &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: ir.TypeInteger}, Name: "n", Init: "0"}),
			wantErr:     "implicit SAVE",
			unsupported: true,
		},
		{
			name:    "parameter without value",
			proc:    subroutine("s", nil, &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: ir.TypeInteger}, Name: "n", Parameter: true}),
			wantErr: "PARAMETER without initializer",
		},
		{
			name:    "intent on local",
			proc:    subroutine("s", nil, decl("x", ir.TypeInteger, 0, ir.IntentIn)),
			wantErr: "INTENT on a variable",
		},
		{
			name:        "go keyword",
			proc:        subroutine("s", args("range"), decl("range", ir.TypeInteger, 0, ir.IntentIn)),
			wantErr:     "Go keyword",
			unsupported: true,
		},
		{
			name:    "unknown derived type",
			proc:    subroutine("s", nil, &ir.VarDecl{TypeSpec: ir.TypeSpec{Type: ir.TypeDerived, TypeName: "nope"}, Name: "p"}),
			wantErr: "unknown derived type",
		},
		{
			name: "untyped function",
			fn: &ir.Function{
				Procedure: ir.Procedure{Name: "f", Module: "m", Pos: pos(1)},
				Result:    "f",
			},
			wantErr: "function result has no explicit type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &ir.Module{Name: "m"}
			if tt.proc != nil {
				m.Subroutines = append(m.Subroutines, tt.proc)
			}
			if tt.fn != nil {
				m.Functions = append(m.Functions, tt.fn)
			}
			_, err := Analyze(project(m), Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if errors.Is(err, ir.ErrUnsupported) != tt.unsupported {
				t.Errorf("errors.Is(err, ErrUnsupported) = %v, want %v", !tt.unsupported, tt.unsupported)
			}
			var ierr *ir.Error
			if !errors.As(err, &ierr) || ierr.Kind != ir.ErrSemantic {
				t.Errorf("want semantic *ir.Error, got %T", err)
			}
		})
	}
}

func TestAnalyzeCollectAll(t *testing.T) {
	m := &ir.Module{Name: "m", Subroutines: []*ir.Subroutine{
		subroutine("a", args("x")),
		subroutine("b", args("y")),
	}}
	_, err := Analyze(project(m), Options{CollectAll: true})
	var list ir.ErrorList
	if !errors.As(err, &list) || len(list) != 2 {
		t.Fatalf("want 2 errors, got %v", err)
	}
}

func TestAnalyzeUses(t *testing.T) {
	lib := &ir.Module{Name: "lib", Subroutines: []*ir.Subroutine{subroutine("helper", nil)}}
	user := &ir.Module{Name: "app", Uses: []ir.UseStmt{{Module: "LIB", Only: []string{"helper"}}}}
	if _, err := Analyze(project(lib, user), Options{}); err != nil {
		t.Fatal(err)
	}
	user.Uses = []ir.UseStmt{{Module: "lib", Only: []string{"missing"}}}
	if _, err := Analyze(project(lib, user), Options{}); err == nil || !strings.Contains(err.Error(), "name not found in module lib") {
		t.Fatalf("unexpected error %v", err)
	}
	user.Uses = []ir.UseStmt{{Module: "other"}}
	if _, err := Analyze(project(lib, user), Options{}); err == nil || !strings.Contains(err.Error(), "not in the project") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAnalyzeDerivedType(t *testing.T) {
	dt := &ir.DerivedType{Name: "point", Components: []*ir.VarDecl{
		decl("x", ir.TypeReal, 8, 0),
		decl("y", ir.TypeReal, 8, 0),
	}}
	sub := subroutine("move", args("p"), &ir.VarDecl{
		TypeSpec: ir.TypeSpec{Type: ir.TypeDerived, TypeName: "Point"},
		Name:     "p",
		Intent:   ir.IntentInOut,
	})
	m := &ir.Module{Name: "geom", Types: []*ir.DerivedType{dt}, Subroutines: []*ir.Subroutine{sub}}
	if _, err := Analyze(project(m), Options{}); err != nil {
		t.Fatal(err)
	}
	if !sub.Args[0].ByRef {
		t.Error("derived INTENT(INOUT) scalar must be passed by reference")
	}
	if sub.Args[0].TypeName != "point" || sub.Decls[0].TypeName != "point" {
		t.Errorf("type name %q not taken from the definition", sub.Args[0].TypeName)
	}

	fn := &ir.Function{
		Procedure: ir.Procedure{Name: "origin", Module: "geom", Pos: pos(1)},
		Result:    "origin",
		Prefix:    &ir.TypeSpec{Type: ir.TypeDerived, TypeName: "POINT"},
	}
	m.Functions = []*ir.Function{fn}
	if _, err := Analyze(project(m), Options{}); err != nil {
		t.Fatal(err)
	}
	if fn.ResultType.TypeName != "point" || fn.Prefix.TypeName != "point" {
		t.Errorf("result type %v not taken from the definition", fn.ResultType)
	}

	dt.Components = append(dt.Components, decl("tags", ir.TypeInteger, 0, 0, 4))
	if _, err := Analyze(project(m), Options{}); err == nil || !strings.Contains(err.Error(), "array component") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAnalyzeNotes(t *testing.T) {
	sub := subroutine("s", args("x"), decl("x", ir.TypeReal, 16, ir.IntentIn))
	sub.ImplicitNone = false
	sub.Elemental = true
	m := &ir.Module{Name: "m", Subroutines: []*ir.Subroutine{sub}}
	p := project(m)
	p.AddModule(&ir.Module{Name: "M", Pos: pos(10), Subroutines: m.Subroutines})
	notes, err := Analyze(p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"collision.module.m", "elemental.m.s", "implicit-none.m.s", "kind.real.16"}
	got := notes.Keys()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got notes %v, want %v", got, want)
	}
}
