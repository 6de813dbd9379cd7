// Package ir holds the structural model of a Fortran project built by the
// line parser and annotated by the semantic analyzer.
//
// Executable statements are not parsed. They are carried as [BodyLine] text
// belonging to their enclosing program unit.
package ir

import (
	"slices"
	"strconv"
	"strings"
)

// Pos is the position of a logical source line.
type Pos struct {
	Source string
	Line   int
}

func (p Pos) String() string {
	return string(p.AppendString(nil))
}

func (p Pos) AppendString(b []byte) []byte {
	if b == nil {
		b = make([]byte, 0, len(p.Source)+6)
	}
	b = append(b, p.Source...)
	if p.Line > 0 {
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(p.Line), 10)
	}
	return b
}

// IsValid reports whether the position refers to a line.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Type is the intrinsic type keyword of a declaration.
type Type uint8

const (
	TypeUndefined Type = iota
	TypeInteger
	TypeReal
	TypeDoublePrecision
	TypeComplex
	TypeLogical
	TypeCharacter
	TypeDerived // TYPE(name)
)

var typeNames = [...]string{
	TypeUndefined:       "<undefined>",
	TypeInteger:         "INTEGER",
	TypeReal:            "REAL",
	TypeDoublePrecision: "DOUBLE PRECISION",
	TypeComplex:         "COMPLEX",
	TypeLogical:         "LOGICAL",
	TypeCharacter:       "CHARACTER",
	TypeDerived:         "TYPE",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Intent of a dummy argument.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentIn
	IntentOut
	IntentInOut
)

func (i Intent) String() string {
	switch i {
	case IntentIn:
		return "in"
	case IntentOut:
		return "out"
	case IntentInOut:
		return "inout"
	}
	return ""
}

// Writes reports whether a procedure may store to an argument with this intent
// in a way the caller must observe.
func (i Intent) Writes() bool {
	return i == IntentOut || i == IntentInOut
}

// TypeSpec is a type keyword together with its literal selectors.
// A zero Kind or CharLen means the selector was absent.
type TypeSpec struct {
	Type     Type
	TypeName string // Derived type name when Type is TypeDerived.
	Kind     int
	CharLen  int
}

func (ts TypeSpec) String() string {
	return string(ts.AppendString(nil))
}

func (ts TypeSpec) AppendString(b []byte) []byte {
	if ts.Type == TypeDerived {
		b = append(b, "TYPE("...)
		b = append(b, ts.TypeName...)
		return append(b, ')')
	}
	b = append(b, ts.Type.String()...)
	switch {
	case ts.CharLen > 0 && ts.Kind > 0:
		b = append(b, "(LEN="...)
		b = strconv.AppendInt(b, int64(ts.CharLen), 10)
		b = append(b, ",KIND="...)
		b = strconv.AppendInt(b, int64(ts.Kind), 10)
		b = append(b, ')')
	case ts.CharLen > 0:
		b = append(b, "(LEN="...)
		b = strconv.AppendInt(b, int64(ts.CharLen), 10)
		b = append(b, ')')
	case ts.Kind > 0:
		b = append(b, "(KIND="...)
		b = strconv.AppendInt(b, int64(ts.Kind), 10)
		b = append(b, ')')
	}
	return b
}

// Project is the whole translation input. Modules and Programs are keyed by
// lower-cased name, Fortran names being case insensitive.
type Project struct {
	Modules    map[string]*Module
	Programs   map[string]*Program
	Sources    []string
	Collisions []Collision
}

// Collision records a unit registered under a name already in use.
// The later registration replaces the earlier one.
type Collision struct {
	Unit     string // "module" or "program"
	Name     string
	Previous Pos
	Current  Pos
}

func NewProject() *Project {
	return &Project{
		Modules:  make(map[string]*Module),
		Programs: make(map[string]*Program),
	}
}

// AddModule registers m, replacing and returning any module of the same name.
func (p *Project) AddModule(m *Module) (replaced *Module) {
	key := strings.ToLower(m.Name)
	replaced = p.Modules[key]
	if replaced != nil {
		p.Collisions = append(p.Collisions, Collision{Unit: "module", Name: m.Name, Previous: replaced.Pos, Current: m.Pos})
	}
	p.Modules[key] = m
	return replaced
}

// AddProgram registers pg, replacing and returning any program of the same name.
func (p *Project) AddProgram(pg *Program) (replaced *Program) {
	key := strings.ToLower(pg.Name)
	replaced = p.Programs[key]
	if replaced != nil {
		p.Collisions = append(p.Collisions, Collision{Unit: "program", Name: pg.Name, Previous: replaced.Pos, Current: pg.Pos})
	}
	p.Programs[key] = pg
	return replaced
}

// Module looks up a module by case-insensitive name.
func (p *Project) Module(name string) *Module {
	return p.Modules[strings.ToLower(name)]
}

// SortedModules returns the modules ordered by lower-cased name.
func (p *Project) SortedModules() []*Module {
	keys := make([]string, 0, len(p.Modules))
	for k := range p.Modules {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	mods := make([]*Module, len(keys))
	for i, k := range keys {
		mods[i] = p.Modules[k]
	}
	return mods
}

// SortedPrograms returns the programs ordered by lower-cased name.
func (p *Project) SortedPrograms() []*Program {
	keys := make([]string, 0, len(p.Programs))
	for k := range p.Programs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	progs := make([]*Program, len(keys))
	for i, k := range keys {
		progs[i] = p.Programs[k]
	}
	return progs
}

type Module struct {
	Name         string
	Uses         []UseStmt
	Subroutines  []*Subroutine
	Functions    []*Function
	Types        []*DerivedType
	ImplicitNone bool
	Pos          Pos
}

// Callables returns subroutines and functions in source order.
func (m *Module) Callables() []Callable {
	c := make([]Callable, 0, len(m.Subroutines)+len(m.Functions))
	for _, s := range m.Subroutines {
		c = append(c, s)
	}
	for _, f := range m.Functions {
		c = append(c, f)
	}
	slices.SortStableFunc(c, func(a, b Callable) int {
		return a.Unit().Pos.Line - b.Unit().Pos.Line
	})
	return c
}

// DerivedType looks up a type definition by case-insensitive name.
func (m *Module) DerivedType(name string) *DerivedType {
	for _, dt := range m.Types {
		if strings.EqualFold(dt.Name, name) {
			return dt
		}
	}
	return nil
}

type Program struct {
	Name         string
	Uses         []UseStmt
	Decls        []*VarDecl
	Body         []BodyLine
	ImplicitNone bool
	Pos          Pos
}

// Callable is implemented by *Subroutine and *Function.
type Callable interface {
	Unit() *Procedure
}

// Procedure holds what subroutines and functions share.
type Procedure struct {
	Name      string
	Args      []*Argument // Order defines the positional calling convention.
	Decls     []*VarDecl
	Uses      []UseStmt
	Body      []BodyLine
	Recursive bool
	Pure      bool
	Elemental bool
	// Module is the name of the parent module. Free procedures are rejected at parse time.
	Module       string
	ImplicitNone bool
	Pos          Pos
}

func (p *Procedure) Unit() *Procedure { return p }

// Decl looks up a declaration by case-insensitive name.
func (p *Procedure) Decl(name string) *VarDecl {
	return findDecl(p.Decls, name)
}

// Arg looks up a dummy argument by case-insensitive name.
func (p *Procedure) Arg(name string) *Argument {
	for _, a := range p.Args {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

type Subroutine struct {
	Procedure
}

type Function struct {
	Procedure
	// Result is the name the function value is bound to inside the body.
	// It is the function name unless a RESULT clause is present.
	Result string
	// Prefix is the type given before the FUNCTION keyword, if any.
	Prefix *TypeSpec

	// Set by analysis.
	ResultType TypeSpec
	ResultDims []int
}

// ResultDecl returns the declaration of the result variable, or nil.
func (f *Function) ResultDecl() *VarDecl {
	return findDecl(f.Decls, f.Result)
}

// Argument is a dummy argument. Everything but Name is filled in by analysis
// from the matching declaration.
type Argument struct {
	Name string
	TypeSpec
	Intent   Intent
	Dims     []int
	Optional bool
	// ByRef is set for scalar arguments with INTENT(OUT) or INTENT(INOUT).
	ByRef    bool
	Resolved bool
}

// IsArray reports whether the argument has array shape.
func (a *Argument) IsArray() bool { return len(a.Dims) > 0 }

type VarDecl struct {
	TypeSpec
	Name        string
	Dims        []int // Literal extents in declaration order. Empty for scalars.
	Intent      Intent
	Optional    bool
	Allocatable bool
	Pointer     bool
	Save        bool
	Parameter   bool
	Init        string // Raw initializer text after '='.
	Pos         Pos
}

// IsArray reports whether the declaration has array shape.
func (d *VarDecl) IsArray() bool { return len(d.Dims) > 0 }

// Size returns the number of elements of the declared entity.
func (d *VarDecl) Size() int {
	n := 1
	for _, e := range d.Dims {
		n *= e
	}
	return n
}

// UseStmt is a module dependency. Only is nil when the import is unrestricted.
type UseStmt struct {
	Module string
	Only   []string
	Pos    Pos
}

type DerivedType struct {
	Name       string
	Components []*VarDecl
	Pos        Pos
}

// Component looks up a component by case-insensitive name.
func (dt *DerivedType) Component(name string) *VarDecl {
	return findDecl(dt.Components, name)
}

// BodyLine is one opaque executable line.
type BodyLine struct {
	Text string
	Pos  Pos
}

func findDecl(decls []*VarDecl, name string) *VarDecl {
	for _, d := range decls {
		if strings.EqualFold(d.Name, name) {
			return d
		}
	}
	return nil
}
