// Package testgen writes smoke tests calling every generated procedure with
// zero-valued arguments.
package testgen

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	fortran "github.com/soypat/fort2go"
	"github.com/soypat/fort2go/ir"
	"github.com/soypat/fort2go/symbol"
)

// FileName returns the name of the smoke test file of module m.
func FileName(m *ir.Module) string {
	return strings.TrimSuffix(fortran.FileName(m), ".go") + "_test.go"
}

// Generate returns one test file per module of an analyzed project that
// declares at least one procedure. opts must match the options the code was
// generated with.
func Generate(proj *ir.Project, opts fortran.GenOptions) ([]fortran.File, error) {
	if opts.Package == "" {
		opts.Package = "fortran"
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = fortran.DefaultRuntimeImport
	}
	var files []fortran.File
	for _, m := range proj.SortedModules() {
		callables := m.Callables()
		if len(callables) == 0 {
			continue
		}
		g := &gen{opts: opts}
		var body bytes.Buffer
		for _, c := range callables {
			if err := g.test(&body, m, c); err != nil {
				return nil, err
			}
		}
		var out bytes.Buffer
		fmt.Fprintf(&out, "// Code generated by fort2go from %s. DO NOT EDIT.\n\n", filepath.Base(m.Pos.Source))
		fmt.Fprintf(&out, "package %s\n\nimport (\n\t\"testing\"\n", opts.Package)
		if g.runtime {
			rt := strconv.Quote(opts.RuntimeImport)
			if path.Base(opts.RuntimeImport) != symbol.RuntimePackage {
				rt = symbol.RuntimePackage + " " + rt
			}
			fmt.Fprintf(&out, "\n\t%s\n", rt)
		}
		out.WriteString(")\n\n")
		out.Write(body.Bytes())
		src, err := format.Source(out.Bytes())
		if err != nil {
			return nil, fmt.Errorf("formatting smoke tests of module %s: %w", m.Name, err)
		}
		files = append(files, fortran.File{Name: FileName(m), Module: m.Name, Source: src})
	}
	return files, nil
}

type gen struct {
	opts    fortran.GenOptions
	runtime bool
}

func (g *gen) test(w *bytes.Buffer, m *ir.Module, c ir.Callable) error {
	p := c.Unit()
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		arg, err := g.zeroArg(a)
		if err != nil {
			return fmt.Errorf("%s: argument %s of %s: %w", p.Pos, a.Name, p.Name, err)
		}
		args[i] = arg
	}
	call := g.opts.FuncName(p.Name) + "(" + strings.Join(args, ", ") + ")"
	if _, ok := c.(*ir.Function); ok {
		call = "_ = " + call
	}
	fmt.Fprintf(w, "func TestSmoke_%s_%s(t *testing.T) {\n\t%s\n}\n\n", strings.ToLower(m.Name), p.Name, call)
	return nil
}

func (g *gen) zeroArg(a *ir.Argument) (string, error) {
	if !a.Resolved {
		return "", fmt.Errorf("argument was not analyzed")
	}
	typ, _, err := symbol.GoType(a.TypeSpec)
	if err != nil {
		return "", err
	}
	switch {
	case a.IsArray():
		g.runtime = true
		dims := make([]string, len(a.Dims))
		for i, d := range a.Dims {
			dims[i] = strconv.Itoa(d)
		}
		return fmt.Sprintf("%s.NewArray[%s](nil, %s)", symbol.RuntimePackage, typ, strings.Join(dims, ", ")), nil
	case a.ByRef:
		g.runtime = true
		return fmt.Sprintf("%s.NewRef[%s](%s)", symbol.RuntimePackage, typ, zeroValue(a.TypeSpec, typ)), nil
	case a.Optional:
		return "nil", nil
	}
	return zeroValue(a.TypeSpec, typ), nil
}

func zeroValue(ts ir.TypeSpec, typ string) string {
	switch ts.Type {
	case ir.TypeLogical:
		return "false"
	case ir.TypeCharacter:
		return strconv.Quote(strings.Repeat(" ", ts.CharLen))
	case ir.TypeDerived:
		return typ + "{}"
	}
	return "0"
}
