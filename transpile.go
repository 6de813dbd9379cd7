package fortran

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/soypat/fort2go/ir"
	"github.com/soypat/fort2go/symbol"
)

// DefaultRuntimeImport is the import path of the array runtime referenced by generated code.
const DefaultRuntimeImport = "github.com/soypat/fort2go/intrinsic"

// GenOptions configures code generation.
type GenOptions struct {
	// Package is the name of the generated Go package. Defaults to "fortran".
	Package string
	// RuntimeImport overrides DefaultRuntimeImport.
	RuntimeImport string
	// ExportNames upper-cases the first letter of procedure names.
	ExportNames bool
}

func (opts GenOptions) withDefaults() GenOptions {
	if opts.Package == "" {
		opts.Package = "fortran"
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = DefaultRuntimeImport
	}
	return opts
}

// File is a generated Go source file.
type File struct {
	Name   string // Base name, see [FileName].
	Module string
	Source []byte
}

var (
	_astTypeArray = &ast.SelectorExpr{X: ast.NewIdent(symbol.RuntimePackage), Sel: ast.NewIdent("Array")}
	_astTypeRef   = &ast.SelectorExpr{X: ast.NewIdent(symbol.RuntimePackage), Sel: ast.NewIdent("Ref")}
)

// stdImports are the standard packages body text may reference by name.
var stdImports = map[string]string{
	"math":    "math",
	"cmplx":   "math/cmplx",
	"bits":    "math/bits",
	"fmt":     "fmt",
	"strings": "strings",
	"strconv": "strconv",
	"os":      "os",
	"sort":    "sort",
	"slices":  "slices",
}

// FileName returns the name of the Go file generated for module m.
func FileName(m *ir.Module) string {
	return strings.ToLower(m.Name) + "_f90.go"
}

// Generate translates every module of an analyzed project. Nothing is
// returned unless every module translates.
func Generate(proj *ir.Project, opts GenOptions) ([]File, error) {
	opts = opts.withDefaults()
	if err := checkCollisions(proj, opts); err != nil {
		return nil, err
	}
	var files []File
	for _, m := range proj.SortedModules() {
		tg := NewToGo(proj, opts)
		src, err := tg.TransformModule(m)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: FileName(m), Module: m.Name, Source: src})
	}
	return files, nil
}

// checkCollisions rejects Go identifiers declared by more than one module,
// all modules sharing a single Go package.
func checkCollisions(proj *ir.Project, opts GenOptions) error {
	type owner struct {
		scope string
		pos   ir.Pos
	}
	seen := make(map[string]owner)
	declare := func(name, scope string, pos ir.Pos) error {
		if name == "init" {
			// Package-scope init is run by Go at load time and cannot be referenced.
			return &ir.Error{Kind: ir.ErrGenerate, Pos: pos, Scope: scope, Construct: name,
				Reason: "init is reserved at Go package scope", Unsupported: true}
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return &ir.Error{Kind: ir.ErrGenerate, Pos: pos, Scope: scope, Construct: name,
				Reason: "name collides in the generated package with " + prev.scope + " at " + prev.pos.String()}
		}
		seen[key] = owner{scope: scope, pos: pos}
		return nil
	}
	for _, m := range proj.SortedModules() {
		for _, dt := range m.Types {
			if err := declare(dt.Name, "type "+dt.Name+" in module "+m.Name, dt.Pos); err != nil {
				return err
			}
		}
		for _, c := range m.Callables() {
			p := c.Unit()
			if err := declare(opts.FuncName(p.Name), unitKind(c)+" "+p.Name+" in module "+m.Name, p.Pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToGo translates one analyzed module into a Go source file.
// Signatures and declarations are built as Go syntax trees. Body lines
// are Go statement text and are only checked to parse.
type ToGo struct {
	proj    *ir.Project
	opts    GenOptions
	mod     *ir.Module
	scope   string
	runtime bool
	imports map[string]bool
}

func NewToGo(proj *ir.Project, opts GenOptions) *ToGo {
	return &ToGo{proj: proj, opts: opts.withDefaults()}
}

// TransformModule returns the gofmt-formatted Go file for m.
func (tg *ToGo) TransformModule(m *ir.Module) ([]byte, error) {
	tg.mod = m
	tg.runtime = false
	tg.imports = make(map[string]bool)
	tg.scope = "module " + m.Name

	var decls bytes.Buffer
	for _, dt := range m.Types {
		tg.scope = "type " + dt.Name + " in module " + m.Name
		gd, err := tg.TransformDerivedType(dt)
		if err != nil {
			return nil, err
		}
		if err := tg.printNode(&decls, gd); err != nil {
			return nil, err
		}
		decls.WriteString("\n\n")
	}
	for _, c := range m.Callables() {
		var fn *ast.FuncDecl
		var body []string
		var err error
		switch c := c.(type) {
		case *ir.Subroutine:
			fn, body, err = tg.TransformSubroutine(c)
		case *ir.Function:
			fn, body, err = tg.TransformFunction(c)
		}
		if err != nil {
			return nil, err
		}
		if err := tg.writeFunc(&decls, fn, body); err != nil {
			return nil, err
		}
		decls.WriteString("\n\n")
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by fort2go from %s. DO NOT EDIT.\n\n", filepath.Base(m.Pos.Source))
	fmt.Fprintf(&out, "package %s\n\n", tg.opts.Package)
	tg.writeImports(&out)
	out.Write(decls.Bytes())
	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, &ir.Error{Kind: ir.ErrGenerate, Pos: m.Pos, Scope: "module " + m.Name, Reason: "formatting generated code: " + err.Error()}
	}
	return src, nil
}

// TransformDerivedType returns the struct declaration of dt.
func (tg *ToGo) TransformDerivedType(dt *ir.DerivedType) (*ast.GenDecl, error) {
	fields := &ast.FieldList{}
	for _, c := range dt.Components {
		typ, err := tg.goType(c.TypeSpec, nil, c.Pos)
		if err != nil {
			return nil, err
		}
		fields.List = append(fields.List, &ast.Field{Names: []*ast.Ident{ast.NewIdent(c.Name)}, Type: typ})
	}
	return &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{&ast.TypeSpec{
			Name: ast.NewIdent(dt.Name),
			Type: &ast.StructType{Fields: fields},
		}},
	}, nil
}

// TransformSubroutine returns the Go function declaration for sub along
// with the body lines that follow the generated local declarations.
func (tg *ToGo) TransformSubroutine(sub *ir.Subroutine) (*ast.FuncDecl, []string, error) {
	return tg.transformProcedure(&sub.Procedure, nil)
}

// TransformFunction is like TransformSubroutine. The function result
// becomes a named result and a final return is appended.
func (tg *ToGo) TransformFunction(fn *ir.Function) (*ast.FuncDecl, []string, error) {
	return tg.transformProcedure(&fn.Procedure, fn)
}

func (tg *ToGo) transformProcedure(p *ir.Procedure, fn *ir.Function) (_ *ast.FuncDecl, body []string, err error) {
	unit := "subroutine"
	if fn != nil {
		unit = "function"
	}
	tg.scope = unit + " " + p.Name + " in module " + tg.mod.Name

	params, err := tg.getScopeParams(nil, p)
	if err != nil {
		return nil, nil, err
	}
	decl := &ast.FuncDecl{
		Name: ast.NewIdent(tg.opts.FuncName(p.Name)),
		Type: &ast.FuncType{Params: &ast.FieldList{List: params}},
		Body: &ast.BlockStmt{},
	}
	if fn != nil {
		field, init, err := tg.getReturnParam(fn)
		if err != nil {
			return nil, nil, err
		}
		decl.Type.Results = &ast.FieldList{List: []*ast.Field{field}}
		decl.Body.List = append(decl.Body.List, init...)
	}

	var result *ir.VarDecl
	if fn != nil {
		result = fn.ResultDecl()
	}
	for _, d := range p.Decls {
		if d == result || p.Arg(d.Name) != nil {
			continue
		}
		stmts, err := tg.transformLocal(d)
		if err != nil {
			return nil, nil, err
		}
		decl.Body.List = append(decl.Body.List, stmts...)
	}

	body, err = tg.checkBody(p.Body)
	if err != nil {
		return nil, nil, err
	}
	if fn != nil {
		body = append(body, "return")
	}
	return decl, body, nil
}

// getScopeParams appends the parameters of p in argument order.
func (tg *ToGo) getScopeParams(dst []*ast.Field, p *ir.Procedure) ([]*ast.Field, error) {
	for _, arg := range p.Args {
		if !arg.Resolved {
			return nil, tg.errorf(p.Pos, arg.Name, "argument was not analyzed")
		}
		typ, err := tg.goType(arg.TypeSpec, arg.Dims, p.Pos)
		if err != nil {
			return nil, err
		}
		switch {
		case arg.IsArray():
			// Already a pointer to the runtime array.
		case arg.ByRef:
			typ = &ast.StarExpr{X: &ast.IndexExpr{X: _astTypeRef, Index: typ}}
			tg.runtime = true
		case arg.Optional:
			typ = &ast.StarExpr{X: typ}
		}
		dst = append(dst, &ast.Field{Names: []*ast.Ident{ast.NewIdent(arg.Name)}, Type: typ})
	}
	return dst, nil
}

// getReturnParam returns the named result of fn and the statements that
// initialize it on entry.
func (tg *ToGo) getReturnParam(fn *ir.Function) (*ast.Field, []ast.Stmt, error) {
	typ, err := tg.goType(fn.ResultType, fn.ResultDims, fn.Pos)
	if err != nil {
		return nil, nil, err
	}
	name := ast.NewIdent(fn.Result)
	field := &ast.Field{Names: []*ast.Ident{name}, Type: typ}
	var init ast.Expr
	switch {
	case len(fn.ResultDims) > 0:
		init = tg.newArrayExpr(fn.ResultType, fn.ResultDims)
	case fn.ResultType.Type == ir.TypeCharacter && fn.ResultType.CharLen > 0:
		init = tg.padExpr(fn.ResultType.CharLen)
	default:
		return field, nil, nil
	}
	return field, []ast.Stmt{&ast.AssignStmt{Lhs: []ast.Expr{ast.NewIdent(fn.Result)}, Tok: token.ASSIGN, Rhs: []ast.Expr{init}}}, nil
}

// transformLocal declares a local variable or named constant and marks it used.
func (tg *ToGo) transformLocal(d *ir.VarDecl) ([]ast.Stmt, error) {
	name := ast.NewIdent(d.Name)
	elem, err := tg.goType(d.TypeSpec, nil, d.Pos)
	if err != nil {
		return nil, err
	}
	spec := &ast.ValueSpec{Names: []*ast.Ident{name}}
	tok := token.VAR
	switch {
	case d.Parameter:
		lit, err := goLiteral(d.Init, d.TypeSpec)
		if err != nil {
			return nil, tg.errorf(d.Pos, d.Name+" = "+d.Init, "named constant value: "+err.Error())
		}
		tok = token.CONST
		spec.Type = elem
		spec.Values = []ast.Expr{lit}
	case d.IsArray():
		spec.Values = []ast.Expr{tg.newArrayExpr(d.TypeSpec, d.Dims)}
	case d.Type == ir.TypeCharacter && d.CharLen > 0:
		spec.Values = []ast.Expr{tg.padExpr(d.CharLen)}
	default:
		spec.Type = elem
	}
	return []ast.Stmt{
		&ast.DeclStmt{Decl: &ast.GenDecl{Tok: tok, Specs: []ast.Spec{spec}}},
		&ast.AssignStmt{Lhs: []ast.Expr{ast.NewIdent("_")}, Tok: token.ASSIGN, Rhs: []ast.Expr{ast.NewIdent(d.Name)}},
	}, nil
}

// goType returns the Go type of an entity. Entities with dims are runtime arrays.
func (tg *ToGo) goType(ts ir.TypeSpec, dims []int, pos ir.Pos) (ast.Expr, error) {
	name, _, err := symbol.GoType(ts)
	if err != nil {
		return nil, tg.errorf(pos, ts.String(), err.Error())
	}
	var typ ast.Expr = ast.NewIdent(name)
	if len(dims) > 0 {
		tg.runtime = true
		typ = &ast.StarExpr{X: &ast.IndexExpr{X: _astTypeArray, Index: typ}}
	}
	return typ, nil
}

// newArrayExpr returns intrinsic.NewArray[T](nil, dims...).
func (tg *ToGo) newArrayExpr(ts ir.TypeSpec, dims []int) ast.Expr {
	tg.runtime = true
	elem, _, _ := symbol.GoType(ts)
	args := []ast.Expr{ast.NewIdent("nil")}
	for _, d := range dims {
		args = append(args, &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(d)})
	}
	return &ast.CallExpr{
		Fun: &ast.IndexExpr{
			X:     &ast.SelectorExpr{X: ast.NewIdent(symbol.RuntimePackage), Sel: ast.NewIdent("NewArray")},
			Index: ast.NewIdent(elem),
		},
		Args: args,
	}
}

// padExpr returns intrinsic.Pad("", n), a blank CHARACTER(LEN=n) value.
func (tg *ToGo) padExpr(n int) ast.Expr {
	tg.runtime = true
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: ast.NewIdent(symbol.RuntimePackage), Sel: ast.NewIdent("Pad")},
		Args: []ast.Expr{&ast.BasicLit{Kind: token.STRING, Value: `""`}, &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(n)}},
	}
}

// checkBody parses the body lines as Go statements, recording the packages
// they reference. The returned lines are the input text.
func (tg *ToGo) checkBody(lines []ir.BodyLine) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	const header = "package p\nfunc _() {\n"
	const headerLines = 2
	var src strings.Builder
	src.WriteString(header)
	text := make([]string, len(lines))
	for i, l := range lines {
		text[i] = l.Text
		src.WriteString(l.Text)
		src.WriteByte('\n')
	}
	src.WriteString("}\n")

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", src.String(), parser.SkipObjectResolution)
	if err != nil {
		line := lines[0]
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			idx := list[0].Pos.Line - headerLines - 1
			if idx >= len(lines) {
				idx = len(lines) - 1
			}
			if idx >= 0 {
				line = lines[idx]
			}
			err = errors.New(list[0].Msg)
		}
		return nil, tg.errorf(line.Pos, line.Text, "body line is not a valid Go statement: "+err.Error())
	}
	ast.Inspect(f, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			if id.Name == symbol.RuntimePackage {
				tg.runtime = true
			} else if path, ok := stdImports[id.Name]; ok {
				tg.imports[path] = true
			}
		}
		return true
	})
	return text, nil
}

func (tg *ToGo) writeFunc(w *bytes.Buffer, fn *ast.FuncDecl, body []string) error {
	// The declaration is printed with an empty body so the opaque lines
	// can be spliced in after the generated locals.
	stmts := fn.Body.List
	fn.Body.List = nil
	if err := tg.printNode(w, &ast.FuncDecl{Name: fn.Name, Type: fn.Type}); err != nil {
		return err
	}
	w.WriteString(" {\n")
	for _, s := range stmts {
		if err := tg.printNode(w, s); err != nil {
			return err
		}
		w.WriteByte('\n')
	}
	for _, line := range body {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	w.WriteString("}")
	fn.Body.List = stmts
	return nil
}

func (tg *ToGo) writeImports(w *bytes.Buffer) {
	var paths []string
	for p := range tg.imports {
		paths = append(paths, strconv.Quote(p))
	}
	slices.Sort(paths)
	if tg.runtime {
		rt := strconv.Quote(tg.opts.RuntimeImport)
		if path.Base(tg.opts.RuntimeImport) != symbol.RuntimePackage {
			rt = symbol.RuntimePackage + " " + rt
		}
		if len(paths) > 0 {
			paths = append(paths, "")
		}
		paths = append(paths, rt)
	}
	if len(paths) == 0 {
		return
	}
	w.WriteString("import (\n")
	for _, p := range paths {
		w.WriteString(p)
		w.WriteByte('\n')
	}
	w.WriteString(")\n\n")
}

func (tg *ToGo) printNode(w *bytes.Buffer, node any) error {
	if err := printer.Fprint(w, token.NewFileSet(), node); err != nil {
		return &ir.Error{Kind: ir.ErrGenerate, Scope: tg.scope, Reason: "printing generated code: " + err.Error()}
	}
	return nil
}

func (tg *ToGo) errorf(pos ir.Pos, construct, reason string) *ir.Error {
	return &ir.Error{Kind: ir.ErrGenerate, Pos: pos, Scope: tg.scope, Construct: construct, Reason: reason}
}

// FuncName returns the Go name of the procedure called name.
func (opts GenOptions) FuncName(name string) string {
	if !opts.ExportNames {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func unitKind(c ir.Callable) string {
	if _, ok := c.(*ir.Function); ok {
		return "function"
	}
	return "subroutine"
}

// padBytes pads or truncates s to n bytes like intrinsic.Pad, never splitting a UTF-8 sequence.
func padBytes(s string, n int) string {
	if len(s) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s + strings.Repeat(" ", n-len(s))
}

var reRealLiteral = regexp.MustCompile(`(?i)^([+-]?(?:\d+\.?\d*|\.\d+))(?:([ed])([+-]?\d+))?(?:_(\w+))?$`)

// goLiteral converts a named constant initializer to a Go expression.
// Fortran literal forms are rewritten, anything else must already be a Go expression.
func goLiteral(init string, ts ir.TypeSpec) (ast.Expr, error) {
	s := strings.TrimSpace(init)
	switch {
	case strings.EqualFold(s, ".true."):
		return ast.NewIdent("true"), nil
	case strings.EqualFold(s, ".false."):
		return ast.NewIdent("false"), nil
	case len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0]:
		q := s[:1]
		v := strings.ReplaceAll(s[1:len(s)-1], q+q, q)
		if ts.CharLen > 0 {
			v = padBytes(v, ts.CharLen)
		}
		return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(v)}, nil
	}
	if m := reRealLiteral.FindStringSubmatch(s); m != nil {
		v := m[1]
		if m[2] != "" {
			v += "e" + m[3]
		}
		kind := token.INT
		if strings.ContainsAny(v, ".e") {
			kind = token.FLOAT
		}
		return &ast.BasicLit{Kind: kind, Value: v}, nil
	}
	if _, err := parser.ParseExpr(s); err != nil {
		return nil, err
	}
	// Printed verbatim; the file is gofmt-formatted afterwards.
	return ast.NewIdent(s), nil
}
