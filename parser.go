package fortran

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/soypat/fort2go/ir"
	"github.com/soypat/fort2go/token"
)

// ParseOptions configures the structural parser.
type ParseOptions struct {
	// CollectAll keeps parsing after an error and reports every error found
	// as an [ir.ErrorList]. By default parsing stops at the first error.
	CollectAll bool
}

// Parser builds the IR of one source file line by line. Context comes only
// from the stack of open units; each line is classified on its own.
type Parser struct {
	source string
	proj   *ir.Project
	opts   ParseOptions
	stack  []*frame
	errs   ir.ErrorList
}

// frame is an open unit.
type frame struct {
	kind  token.Line // Unit start kind.
	name  string
	pos   ir.Pos
	mod   *ir.Module
	prog  *ir.Program
	proc  *ir.Procedure
	dtype *ir.DerivedType
	// spec is set while in the specification part of the unit.
	spec bool
	// contains is set after the CONTAINS statement.
	contains bool
}

var (
	reFuncPrefixItem = regexp.MustCompile(`(?i)^\s*(?:(recursive|pure|elemental|impure)\b|((?:integer|real|logical|character|complex|double\s*precision)\s*(?:\([^)]*\))?|type\s*\(\s*\w+\s*\)))\s*`)
	reResultClause   = regexp.MustCompile(`(?i)^result\s*\(\s*([a-z_]\w*)\s*\)$`)
	reBindClause     = regexp.MustCompile(`(?i)^bind\s*\(`)
	reOnlyList       = regexp.MustCompile(`(?i)^only\s*:\s*(.*)$`)
)

// NewParser returns a parser adding the units of source to proj.
func NewParser(source string, proj *ir.Project, opts ParseOptions) *Parser {
	return &Parser{source: source, proj: proj, opts: opts}
}

// ParseFile parses Fortran source read from r into proj. source names the file in
// positions and errors.
func ParseFile(source string, r io.Reader, proj *ir.Project, opts ParseOptions) error {
	return NewParser(source, proj, opts).Parse(r)
}

// ParseSources parses the files in sorted path order into a new project.
// With CollectAll set, errors from every file are returned together.
func ParseSources(paths []string, opts ParseOptions) (*ir.Project, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	proj := ir.NewProject()
	proj.Sources = sorted
	var all ir.ErrorList
	for _, path := range sorted {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		err = ParseFile(path, f, proj, opts)
		f.Close()
		if err == nil {
			continue
		}
		if !opts.CollectAll {
			return nil, err
		}
		switch e := err.(type) {
		case ir.ErrorList:
			all = append(all, e...)
		case *ir.Error:
			all.Add(e)
		default:
			return nil, err
		}
	}
	if len(all) > 0 {
		return nil, all.Err()
	}
	return proj, nil
}

// Parse consumes the whole input.
func (p *Parser) Parse(r io.Reader) error {
	lines, err := readLogicalLines(r)
	if err != nil {
		return fmt.Errorf("%s: %w", p.source, err)
	}
	for _, ll := range lines {
		if perr := p.parseLine(ll); perr != nil {
			if !p.opts.CollectAll {
				return perr
			}
			p.errs.Add(perr)
		}
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		f := p.stack[i]
		perr := &ir.Error{Kind: ir.ErrParse, Pos: f.pos, Scope: p.scopeOf(i), Reason: "missing END statement for " + unitWord(f.kind)}
		if !p.opts.CollectAll {
			return perr
		}
		p.errs.Add(perr)
	}
	p.stack = p.stack[:0]
	return p.errs.Err()
}

func (p *Parser) parseLine(ll logicalLine) *ir.Error {
	info := classify(ll.Text)
	switch info.kind {
	case token.Blank:
		return nil
	case token.Preprocessor:
		return p.unsupported(ll, "", "preprocessor directive")
	case token.Unsupported:
		return p.unsupported(ll, "", info.reason)
	case token.ModuleStart, token.ProgramStart:
		return p.parseMainUnit(ll, info)
	case token.SubroutineStart, token.FunctionStart:
		return p.parseCallable(ll, info)
	case token.TypeStart:
		return p.parseTypeStart(ll, info)
	case token.ModuleEnd, token.ProgramEnd, token.SubroutineEnd, token.FunctionEnd, token.TypeEnd, token.End:
		return p.parseEnd(ll, info)
	case token.Use:
		return p.parseUse(ll, info)
	case token.ImplicitNone:
		return p.parseImplicitNone(ll)
	case token.Implicit:
		return p.unsupported(ll, "", "implicit typing rules")
	case token.Declaration:
		return p.parseDecl(ll)
	case token.Contains:
		return p.parseContains(ll)
	}
	return p.parseBodyLine(ll)
}

func (p *Parser) parseMainUnit(ll logicalLine, info lineInfo) *ir.Error {
	if len(p.stack) > 0 {
		return p.malformed(ll, "", unitWord(info.kind)+" nested inside another unit")
	}
	f := &frame{kind: info.kind, name: info.sub[1], pos: p.pos(ll), spec: true}
	if info.kind == token.ModuleStart {
		f.mod = &ir.Module{Name: f.name, Pos: f.pos}
		p.proj.AddModule(f.mod)
	} else {
		f.prog = &ir.Program{Name: f.name, Pos: f.pos}
		p.proj.AddProgram(f.prog)
	}
	p.stack = append(p.stack, f)
	return nil
}

func (p *Parser) parseCallable(ll logicalLine, info lineInfo) *ir.Error {
	f := &frame{kind: info.kind, name: info.sub[2], pos: p.pos(ll), spec: true}
	proc := ir.Procedure{Name: f.name, Pos: f.pos}
	var sub *ir.Subroutine
	var fn *ir.Function
	if info.kind == token.SubroutineStart {
		sub = &ir.Subroutine{Procedure: proc}
		f.proc = &sub.Procedure
	} else {
		fn = &ir.Function{Procedure: proc, Result: f.name}
		f.proc = &fn.Procedure
	}
	top := p.top()
	// The frame is pushed even when the header is rejected, so that the
	// matching END closes it.
	p.stack = append(p.stack, f)

	switch {
	case top == nil:
		return p.unsupported(ll, "", "free "+unitWord(info.kind)+" outside a module")
	case top.kind == token.ModuleStart && !top.contains:
		return p.malformed(ll, "", unitWord(info.kind)+" before CONTAINS in module")
	case top.kind != token.ModuleStart:
		return p.unsupported(ll, "", "internal "+unitWord(info.kind)+" inside "+unitWord(top.kind))
	}
	f.proc.Module = top.mod.Name

	if err := p.parsePrefixKeywords(ll, info.sub[1], f.proc, fn); err != nil {
		return err
	}
	args, err := p.parseArgs(ll, info.sub[3])
	if err != nil {
		return err
	}
	f.proc.Args = args

	trailer := strings.TrimSpace(info.sub[4])
	switch {
	case trailer == "":
	case reBindClause.MatchString(trailer):
		return p.unsupported(ll, trailer, "BIND attribute")
	case fn != nil && reResultClause.MatchString(trailer):
		fn.Result = reResultClause.FindStringSubmatch(trailer)[1]
		if strings.EqualFold(fn.Result, fn.Name) {
			return p.malformed(ll, trailer, "RESULT name equal to function name")
		}
	default:
		return p.malformed(ll, trailer, "unexpected text after "+unitWord(info.kind)+" header")
	}

	if sub != nil {
		top.mod.Subroutines = append(top.mod.Subroutines, sub)
	} else {
		top.mod.Functions = append(top.mod.Functions, fn)
	}
	return nil
}

// parsePrefixKeywords reads RECURSIVE, PURE, ELEMENTAL and, for functions,
// the result type given before the FUNCTION keyword.
func (p *Parser) parsePrefixKeywords(ll logicalLine, prefix string, proc *ir.Procedure, fn *ir.Function) *ir.Error {
	for rest := prefix; strings.TrimSpace(rest) != ""; {
		m := reFuncPrefixItem.FindStringSubmatchIndex(rest)
		if m == nil {
			return p.malformed(ll, strings.TrimSpace(rest), "invalid procedure prefix")
		}
		if m[2] >= 0 {
			switch strings.ToLower(rest[m[2]:m[3]]) {
			case "recursive":
				proc.Recursive = true
			case "pure":
				proc.Pure = true
			case "elemental":
				proc.Elemental = true
			}
		} else {
			spec := rest[m[4]:m[5]]
			if fn == nil {
				return p.malformed(ll, spec, "type prefix on subroutine")
			}
			if fn.Prefix != nil {
				return p.malformed(ll, spec, "more than one result type")
			}
			decls, derr := parseDeclaration(spec + " :: " + fn.Name)
			if derr != nil {
				return p.declError(ll, derr)
			}
			ts := decls[0].TypeSpec
			fn.Prefix = &ts
		}
		rest = rest[m[1]:]
	}
	return nil
}

func (p *Parser) parseArgs(ll logicalLine, list string) ([]*ir.Argument, *ir.Error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var args []*ir.Argument
	for _, a := range strings.Split(list, ",") {
		a = strings.TrimSpace(a)
		switch {
		case a == "*":
			return nil, p.unsupported(ll, a, "alternate return")
		case !reIdent.MatchString(a):
			return nil, p.malformed(ll, a, "invalid dummy argument")
		}
		for _, prev := range args {
			if strings.EqualFold(prev.Name, a) {
				return nil, p.malformed(ll, a, "duplicate dummy argument")
			}
		}
		args = append(args, &ir.Argument{Name: a})
	}
	return args, nil
}

func (p *Parser) parseTypeStart(ll logicalLine, info lineInfo) *ir.Error {
	top := p.top()
	f := &frame{kind: token.TypeStart, name: info.sub[2], pos: p.pos(ll), spec: true}
	f.dtype = &ir.DerivedType{Name: f.name, Pos: f.pos}
	p.stack = append(p.stack, f)
	switch {
	case top == nil:
		return p.malformed(ll, "", "derived type definition outside a module")
	case top.kind != token.ModuleStart:
		return p.unsupported(ll, "", "derived type definition inside "+unitWord(top.kind))
	case top.contains:
		return p.malformed(ll, "", "derived type definition after CONTAINS")
	}
	if attrs := strings.TrimSpace(info.sub[1]); attrs != "" {
		for _, a := range splitTopLevel(attrs) {
			a = strings.TrimSpace(a)
			if !strings.EqualFold(a, "public") {
				return p.unsupported(ll, a, "derived type attribute")
			}
		}
	}
	if top.mod.DerivedType(f.name) != nil {
		return p.malformed(ll, f.name, "duplicate derived type")
	}
	top.mod.Types = append(top.mod.Types, f.dtype)
	return nil
}

func (p *Parser) parseEnd(ll logicalLine, info lineInfo) *ir.Error {
	top := p.top()
	if top == nil {
		return p.malformed(ll, "", "END without an open unit")
	}
	if info.kind != token.End && info.kind.StartOf() != top.kind {
		return p.malformed(ll, "", info.kind.String()+" closes "+unitWord(top.kind)+" "+top.name)
	}
	if info.kind == token.End && top.kind == token.TypeStart {
		return p.malformed(ll, "", "derived type definition requires END TYPE")
	}
	var err *ir.Error
	if len(info.sub) > 2 && info.sub[2] != "" && !strings.EqualFold(info.sub[2], top.name) {
		err = p.malformed(ll, info.sub[2], "END name does not match "+unitWord(top.kind)+" "+top.name)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return err
}

func (p *Parser) parseUse(ll logicalLine, info lineInfo) *ir.Error {
	top := p.top()
	switch {
	case top == nil:
		return p.malformed(ll, "", "USE outside a program unit")
	case top.kind == token.TypeStart:
		return p.malformed(ll, "", "USE inside derived type definition")
	case !top.spec:
		return p.malformed(ll, "", "USE after the specification part")
	case info.sub[1] != "":
		return p.unsupported(ll, "", "USE with module nature")
	}
	use := ir.UseStmt{Module: info.sub[2], Pos: p.pos(ll)}
	if list := strings.TrimSpace(info.sub[3]); list != "" {
		om := reOnlyList.FindStringSubmatch(list)
		if om == nil {
			return p.unsupported(ll, list, "USE rename list")
		}
		use.Only = []string{}
		for _, name := range splitTopLevel(om[1]) {
			name = strings.TrimSpace(name)
			switch {
			case strings.Contains(name, "=>"):
				return p.unsupported(ll, name, "USE rename")
			case !reIdent.MatchString(name):
				return p.unsupported(ll, name, "USE of generic or operator")
			}
			use.Only = append(use.Only, name)
		}
	}
	switch {
	case top.proc != nil:
		top.proc.Uses = append(top.proc.Uses, use)
	case top.prog != nil:
		top.prog.Uses = append(top.prog.Uses, use)
	case top.mod != nil:
		top.mod.Uses = append(top.mod.Uses, use)
	}
	return nil
}

func (p *Parser) parseImplicitNone(ll logicalLine) *ir.Error {
	top := p.top()
	switch {
	case top == nil:
		return p.malformed(ll, "", "IMPLICIT NONE outside a program unit")
	case top.kind == token.TypeStart:
		return p.malformed(ll, "", "IMPLICIT NONE inside derived type definition")
	case !top.spec:
		return p.malformed(ll, "", "IMPLICIT NONE after the specification part")
	}
	switch {
	case top.proc != nil:
		top.proc.ImplicitNone = true
	case top.prog != nil:
		top.prog.ImplicitNone = true
	case top.mod != nil:
		top.mod.ImplicitNone = true
	}
	return nil
}

func (p *Parser) parseDecl(ll logicalLine) *ir.Error {
	top := p.top()
	switch {
	case top == nil:
		return p.malformed(ll, "", "declaration outside a program unit")
	case top.kind == token.ModuleStart:
		return p.unsupported(ll, "", "module-level state unsupported")
	case top.contains:
		return p.malformed(ll, "", "declaration after CONTAINS")
	case !top.spec:
		return p.malformed(ll, "", "declaration after executable statement")
	}
	decls, derr := parseDeclaration(ll.Text)
	if derr != nil {
		return p.declError(ll, derr)
	}
	pos := p.pos(ll)
	for _, d := range decls {
		d.Pos = pos
	}
	switch {
	case top.dtype != nil:
		top.dtype.Components = append(top.dtype.Components, decls...)
	case top.proc != nil:
		top.proc.Decls = append(top.proc.Decls, decls...)
	case top.prog != nil:
		top.prog.Decls = append(top.prog.Decls, decls...)
	}
	return nil
}

func (p *Parser) parseContains(ll logicalLine) *ir.Error {
	top := p.top()
	switch {
	case top == nil:
		return p.malformed(ll, "", "CONTAINS outside a program unit")
	case top.kind == token.TypeStart:
		return p.unsupported(ll, "", "type-bound procedures")
	case top.contains:
		return p.malformed(ll, "", "duplicate CONTAINS")
	}
	top.contains = true
	top.spec = false
	return nil
}

func (p *Parser) parseBodyLine(ll logicalLine) *ir.Error {
	top := p.top()
	text := strings.TrimSpace(ll.Text)
	switch {
	case top == nil:
		return p.malformed(ll, "", "statement outside any program unit")
	case top.kind == token.TypeStart:
		if strings.EqualFold(text, "sequence") {
			return nil
		}
		return p.unsupported(ll, "", "statement inside derived type definition")
	case top.kind == token.ModuleStart:
		return p.malformed(ll, "", "executable statement at module scope")
	case top.contains:
		return p.malformed(ll, "", "executable statement after CONTAINS")
	}
	top.spec = false
	line := ir.BodyLine{Text: text, Pos: p.pos(ll)}
	if top.proc != nil {
		top.proc.Body = append(top.proc.Body, line)
	} else {
		top.prog.Body = append(top.prog.Body, line)
	}
	return nil
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pos(ll logicalLine) ir.Pos {
	return ir.Pos{Source: p.source, Line: ll.Line}
}

// scopeOf describes stack frame i, e.g. "function f in module m".
func (p *Parser) scopeOf(i int) string {
	if i < 0 || i >= len(p.stack) {
		return ""
	}
	f := p.stack[i]
	s := unitWord(f.kind) + " " + f.name
	if i > 0 {
		s += " in " + p.scopeOf(i-1)
	}
	return s
}

func (p *Parser) scope() string {
	return p.scopeOf(len(p.stack) - 1)
}

func (p *Parser) newError(ll logicalLine, construct, reason string, unsupported bool) *ir.Error {
	if construct == "" {
		construct = strings.TrimSpace(ll.Text)
	}
	return &ir.Error{
		Kind:        ir.ErrParse,
		Pos:         p.pos(ll),
		Scope:       p.scope(),
		Construct:   construct,
		Reason:      reason,
		Unsupported: unsupported,
	}
}

func (p *Parser) unsupported(ll logicalLine, construct, reason string) *ir.Error {
	return p.newError(ll, construct, reason, true)
}

func (p *Parser) malformed(ll logicalLine, construct, reason string) *ir.Error {
	return p.newError(ll, construct, reason, false)
}

func (p *Parser) declError(ll logicalLine, derr *declError) *ir.Error {
	return p.newError(ll, derr.construct, derr.reason, derr.unsupported)
}

func unitWord(kind token.Line) string {
	switch kind {
	case token.ModuleStart:
		return "module"
	case token.ProgramStart:
		return "program"
	case token.SubroutineStart:
		return "subroutine"
	case token.FunctionStart:
		return "function"
	case token.TypeStart:
		return "type"
	}
	return strings.ToLower(kind.String())
}
