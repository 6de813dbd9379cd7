// Package symbol performs semantic analysis of a parsed Fortran project:
// argument resolution, argument passing classification and validation of
// declarations against the supported subset.
package symbol

import (
	"go/token"
	"slices"
	"strconv"
	"strings"

	"github.com/soypat/fort2go/ir"
)

// RuntimePackage is the package name generated code uses for the array and
// intrinsic runtime. Fortran names equal to it are rejected.
const RuntimePackage = "intrinsic"

// Options configures analysis.
type Options struct {
	// CollectAll keeps analyzing after an error and returns all errors
	// found as an [ir.ErrorList]. By default analysis stops at the first error.
	CollectAll bool
}

// Notes are migration notes keyed by a stable identifier.
type Notes map[string]string

// Add records a note. The first text recorded for a key is kept.
func (n Notes) Add(key, text string) {
	if _, ok := n[key]; !ok {
		n[key] = text
	}
}

// Keys returns the note keys in sorted order.
func (n Notes) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Analyzer annotates a project in place.
type Analyzer struct {
	proj  *ir.Project
	opts  Options
	notes Notes
	errs  ir.ErrorList
}

func NewAnalyzer(proj *ir.Project, opts Options) *Analyzer {
	return &Analyzer{proj: proj, opts: opts, notes: make(Notes)}
}

// Analyze validates every module and program of proj and resolves the
// arguments of every procedure. Modules are visited in sorted name order and
// procedures in source order.
func Analyze(proj *ir.Project, opts Options) (Notes, error) {
	a := NewAnalyzer(proj, opts)
	err := a.Run()
	return a.notes, err
}

// Notes returns the notes gathered so far.
func (a *Analyzer) Notes() Notes { return a.notes }

// Run performs the analysis.
func (a *Analyzer) Run() error {
	for _, c := range a.proj.Collisions {
		a.notes.Add("collision."+c.Unit+"."+strings.ToLower(c.Name),
			c.Unit+" "+c.Name+" defined at "+c.Previous.String()+" was replaced by the one at "+c.Current.String())
	}
	for _, m := range a.proj.SortedModules() {
		if err := a.module(m); err != nil && !a.opts.CollectAll {
			return err
		}
	}
	for _, p := range a.proj.SortedPrograms() {
		if err := a.program(p); err != nil && !a.opts.CollectAll {
			return err
		}
	}
	return a.errs.Err()
}

// fail records err. The returned value is non-nil so callers can stop.
func (a *Analyzer) fail(err *ir.Error) *ir.Error {
	a.errs.Add(err)
	return err
}

func (a *Analyzer) module(m *ir.Module) *ir.Error {
	scope := "module " + m.Name
	if err := a.uses(scope, m.Uses); err != nil {
		return err
	}
	for _, dt := range m.Types {
		if err := a.derivedType(m, dt); err != nil {
			if !a.opts.CollectAll {
				return err
			}
		}
	}
	var first *ir.Error
	for _, c := range m.Callables() {
		var err *ir.Error
		switch c := c.(type) {
		case *ir.Subroutine:
			err = a.procedure(m, &c.Procedure, nil)
		case *ir.Function:
			err = a.procedure(m, &c.Procedure, c)
		}
		if err != nil {
			if !a.opts.CollectAll {
				return err
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (a *Analyzer) derivedType(m *ir.Module, dt *ir.DerivedType) *ir.Error {
	scope := "type " + dt.Name + " in module " + m.Name
	if err := a.checkName(scope, dt.Name, dt.Pos); err != nil {
		return err
	}
	seen := make(map[string]bool, len(dt.Components))
	for _, c := range dt.Components {
		key := strings.ToLower(c.Name)
		if seen[key] {
			return a.fail(semantic(scope, c.Pos, c.Name, "duplicate component"))
		}
		seen[key] = true
		if err := a.checkName(scope, c.Name, c.Pos); err != nil {
			return err
		}
		switch {
		case c.Type == ir.TypeDerived:
			return a.fail(unsupported(scope, c.Pos, c.Name, "derived type component of derived type"))
		case c.Type == ir.TypeCharacter:
			return a.fail(unsupported(scope, c.Pos, c.Name, "character component"))
		case c.IsArray():
			return a.fail(unsupported(scope, c.Pos, c.Name, "array component"))
		case c.Init != "":
			return a.fail(unsupported(scope, c.Pos, c.Name, "default component initialization"))
		case c.Intent != ir.IntentNone || c.Optional || c.Allocatable || c.Pointer || c.Save || c.Parameter:
			return a.fail(unsupported(scope, c.Pos, c.Name, "component attribute"))
		}
		if err := a.checkType(scope, c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) program(p *ir.Program) *ir.Error {
	scope := "program " + p.Name
	if err := a.uses(scope, p.Uses); err != nil {
		return err
	}
	if _, err := a.declMap(scope, p.Decls); err != nil {
		return err
	}
	for _, d := range p.Decls {
		if err := a.local(scope, d); err != nil {
			return err
		}
	}
	if !p.ImplicitNone {
		a.notes.Add("implicit-none."+strings.ToLower(p.Name), "program "+p.Name+" lacks IMPLICIT NONE; undeclared names are still rejected")
	}
	return nil
}

func (a *Analyzer) procedure(m *ir.Module, p *ir.Procedure, fn *ir.Function) *ir.Error {
	unit := "subroutine"
	if fn != nil {
		unit = "function"
	}
	scope := unit + " " + p.Name + " in module " + m.Name
	key := strings.ToLower(m.Name + "." + p.Name)
	if err := a.checkName(scope, p.Name, p.Pos); err != nil {
		return err
	}
	if err := a.uses(scope, p.Uses); err != nil {
		return err
	}
	decls, err := a.declMap(scope, p.Decls)
	if err != nil {
		return err
	}

	for _, arg := range p.Args {
		d := decls[strings.ToLower(arg.Name)]
		if d == nil {
			return a.fail(semantic(scope, p.Pos, arg.Name, "implicit typing is required to be absent, and is not allowed"))
		}
		if d.Parameter {
			return a.fail(semantic(scope, d.Pos, d.Name, "dummy argument declared PARAMETER"))
		}
		if d.Init != "" {
			return a.fail(semantic(scope, d.Pos, d.Name, "dummy argument with initializer"))
		}
		if err := a.checkDecl(scope, d); err != nil {
			return err
		}
		arg.TypeSpec = d.TypeSpec
		arg.Intent = d.Intent
		arg.Dims = d.Dims
		arg.Optional = d.Optional
		arg.ByRef = !d.IsArray() && d.Intent.Writes()
		arg.Resolved = true
		if d.Intent == ir.IntentNone && !d.IsArray() {
			a.notes.Add("intent."+key+"."+strings.ToLower(arg.Name),
				"scalar argument "+arg.Name+" of "+p.Name+" has no INTENT and is passed by value; updates are not visible to the caller")
		}
	}

	var result *ir.VarDecl
	if fn != nil {
		result = fn.ResultDecl()
		if p.Arg(fn.Result) != nil {
			return a.fail(semantic(scope, p.Pos, fn.Result, "function result is also a dummy argument"))
		}
		switch {
		case result != nil && fn.Prefix != nil:
			return a.fail(semantic(scope, result.Pos, result.Name, "function result type declared twice"))
		case result != nil:
			if result.Intent != ir.IntentNone || result.Optional || result.Parameter || result.Init != "" {
				return a.fail(semantic(scope, result.Pos, result.Name, "invalid attribute on function result"))
			}
			if err := a.checkDecl(scope, result); err != nil {
				return err
			}
			fn.ResultType = result.TypeSpec
			fn.ResultDims = result.Dims
		case fn.Prefix != nil:
			d := &ir.VarDecl{TypeSpec: *fn.Prefix, Name: fn.Result, Pos: p.Pos}
			if err := a.checkDecl(scope, d); err != nil {
				return err
			}
			fn.Prefix.TypeName = d.TypeName
			fn.ResultType = d.TypeSpec
		default:
			return a.fail(semantic(scope, p.Pos, fn.Result, "function result has no explicit type"))
		}
	}

	for _, d := range p.Decls {
		if d == result || p.Arg(d.Name) != nil {
			continue
		}
		if err := a.local(scope, d); err != nil {
			return err
		}
	}

	if p.Elemental {
		a.notes.Add("elemental."+key, p.Name+" is ELEMENTAL; the Go function accepts scalars only and must be looped over arrays explicitly")
	}
	if !p.ImplicitNone && !m.ImplicitNone {
		a.notes.Add("implicit-none."+key, unit+" "+p.Name+" lacks IMPLICIT NONE; undeclared names are still rejected")
	}
	return nil
}

// local validates a declaration that is not a dummy argument or function result.
func (a *Analyzer) local(scope string, d *ir.VarDecl) *ir.Error {
	switch {
	case d.Intent != ir.IntentNone:
		return a.fail(semantic(scope, d.Pos, d.Name, "INTENT on a variable that is not a dummy argument"))
	case d.Optional:
		return a.fail(semantic(scope, d.Pos, d.Name, "OPTIONAL on a variable that is not a dummy argument"))
	case d.Parameter && d.Init == "":
		return a.fail(semantic(scope, d.Pos, d.Name, "PARAMETER without initializer"))
	case d.Parameter && d.IsArray():
		return a.fail(unsupported(scope, d.Pos, d.Name, "array named constant"))
	case d.Parameter && d.Type == ir.TypeDerived:
		return a.fail(unsupported(scope, d.Pos, d.Name, "derived type named constant"))
	case !d.Parameter && d.Init != "":
		return a.fail(unsupported(scope, d.Pos, d.Name+" = "+d.Init, "initialized variable (implicit SAVE, static storage)"))
	}
	return a.checkDecl(scope, d)
}

// checkDecl validates what every declaration shares.
func (a *Analyzer) checkDecl(scope string, d *ir.VarDecl) *ir.Error {
	if err := a.checkName(scope, d.Name, d.Pos); err != nil {
		return err
	}
	switch {
	case d.Save:
		return a.fail(unsupported(scope, d.Pos, d.Name, "SAVE attribute (static storage)"))
	case d.Pointer:
		return a.fail(unsupported(scope, d.Pos, d.Name, "POINTER attribute"))
	case d.Allocatable:
		return a.fail(unsupported(scope, d.Pos, d.Name, "ALLOCATABLE attribute"))
	case d.Type == ir.TypeCharacter && d.IsArray():
		return a.fail(unsupported(scope, d.Pos, d.Name, "character array"))
	}
	return a.checkType(scope, d)
}

func (a *Analyzer) checkType(scope string, d *ir.VarDecl) *ir.Error {
	switch d.Type {
	case ir.TypeComplex:
		return a.fail(unsupported(scope, d.Pos, d.Name, "COMPLEX type"))
	case ir.TypeDerived:
		dt := a.findType(d.TypeName)
		if dt == nil {
			return a.fail(semantic(scope, d.Pos, d.TypeSpec.String(), "unknown derived type"))
		}
		// Use sites take the spelling of the definition, which names the Go type.
		d.TypeName = dt.Name
		return nil
	}
	_, note, err := GoType(d.TypeSpec)
	if err != nil {
		return a.fail(unsupported(scope, d.Pos, d.TypeSpec.String()+" :: "+d.Name, err.Error()))
	}
	if note != "" {
		a.notes.Add("kind."+strings.ToLower(strings.ReplaceAll(d.Type.String(), " ", ""))+"."+kindKey(d.Kind), note)
	}
	return nil
}

func kindKey(k int) string {
	if k == 0 {
		return "default"
	}
	return strconv.Itoa(k)
}

// checkName rejects names that cannot be used as Go identifiers.
func (a *Analyzer) checkName(scope, name string, pos ir.Pos) *ir.Error {
	lower := strings.ToLower(name)
	switch {
	case token.IsKeyword(lower) || token.IsKeyword(name):
		return a.fail(unsupported(scope, pos, name, "name is a Go keyword"))
	case lower == RuntimePackage:
		return a.fail(unsupported(scope, pos, name, "name collides with the runtime package"))
	}
	return nil
}

func (a *Analyzer) declMap(scope string, decls []*ir.VarDecl) (map[string]*ir.VarDecl, *ir.Error) {
	m := make(map[string]*ir.VarDecl, len(decls))
	for _, d := range decls {
		key := strings.ToLower(d.Name)
		if prev := m[key]; prev != nil {
			return nil, a.fail(semantic(scope, d.Pos, d.Name, "duplicate declaration, first declared at "+prev.Pos.String()))
		}
		m[key] = d
	}
	return m, nil
}

func (a *Analyzer) uses(scope string, uses []ir.UseStmt) *ir.Error {
	for _, u := range uses {
		m := a.proj.Module(u.Module)
		if m == nil {
			return a.fail(semantic(scope, u.Pos, u.Module, "USE of a module not in the project"))
		}
		for _, name := range u.Only {
			if !exports(m, name) {
				return a.fail(semantic(scope, u.Pos, name, "name not found in module "+m.Name))
			}
		}
	}
	return nil
}

// exports reports whether a USE ... ONLY list entry names something m defines.
func exports(m *ir.Module, name string) bool {
	if m.DerivedType(name) != nil {
		return true
	}
	for _, c := range m.Callables() {
		if strings.EqualFold(c.Unit().Name, name) {
			return true
		}
	}
	return false
}

func (a *Analyzer) findType(name string) *ir.DerivedType {
	for _, m := range a.proj.SortedModules() {
		if dt := m.DerivedType(name); dt != nil {
			return dt
		}
	}
	return nil
}

func semantic(scope string, pos ir.Pos, construct, reason string) *ir.Error {
	return &ir.Error{Kind: ir.ErrSemantic, Pos: pos, Scope: scope, Construct: construct, Reason: reason}
}

func unsupported(scope string, pos ir.Pos, construct, reason string) *ir.Error {
	e := semantic(scope, pos, construct, reason)
	e.Unsupported = true
	return e
}
