// fortranvar prints variable information from Fortran source files after
// semantic analysis.
//
// Usage:
//
//	fortranvar [flags] file.f90 [file2.f90 ...]
//
// Output format:
//
//	UNIT(name) SCOPE(TYPE:varname(dims)): decl=file:line [flags]
//
// Example output:
//
//	SUB(scale) ARG(REAL(KIND=8):x(3)): decl=vec.f90:12 INTENT(INOUT)
//	FUNC(norm2) RESULT(REAL(KIND=8):r): decl=vec.f90:20
//	MOD(vec) COMP(INTEGER:n): decl=vec.f90:4
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	fortran "github.com/soypat/fort2go"
	"github.com/soypat/fort2go/ir"
	"github.com/soypat/fort2go/symbol"
)

var (
	flagVerbose = flag.Bool("v", false, "verbose output (show Go types)")
	flagFilter  = flag.String("filter", "", "filter variables by name (case-insensitive substring)")
	flagType    = flag.String("type", "", "filter by type (INTEGER, REAL, CHARACTER, etc.)")
	flagAll     = flag.Bool("all", false, "report every error instead of the first")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fortranvar [flags] file.f90 [file2.f90 ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	proj, err := fortran.ParseSources(flag.Args(), fortran.ParseOptions{CollectAll: *flagAll})
	if err == nil {
		_, err = fortran.Analyze(proj, *flagAll)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l := lister{w: os.Stdout}
	ir.Inspect(proj, l.visit)
}

// lister prints the declarations of the unit being visited.
type lister struct {
	w      io.Writer
	module string
	kind   string // Unit kind of the enclosing unit.
	unit   string
	proc   *ir.Procedure
	result string
	comp   bool // Inside a derived type definition.
}

func (l *lister) visit(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Module:
		l.module = n.Name
		l.kind, l.unit, l.proc, l.comp = "MOD", n.Name, nil, false
	case *ir.DerivedType:
		l.kind, l.unit, l.proc, l.comp = "MOD", l.module+"%"+n.Name, nil, true
	case *ir.Subroutine:
		l.kind, l.unit, l.proc, l.result, l.comp = "SUB", n.Name, &n.Procedure, "", false
	case *ir.Function:
		l.kind, l.unit, l.proc, l.result, l.comp = "FUNC", n.Name, &n.Procedure, n.Result, false
	case *ir.Program:
		l.kind, l.unit, l.proc, l.comp = "PROG", n.Name, nil, false
	case *ir.VarDecl:
		l.decl(n)
	}
	return true
}

func (l *lister) decl(d *ir.VarDecl) {
	scope := scopeOf(d)
	var flags string
	switch {
	case l.comp:
		scope = "COMP"
	case l.proc == nil:
	case strings.EqualFold(d.Name, l.result):
		scope = "RESULT"
	case l.proc.Arg(d.Name) != nil:
		scope = "ARG"
		if l.proc.Arg(d.Name).ByRef {
			flags = "BYREF"
		}
	}
	printVar(l.w, l.kind, l.unit, scope, d, flags)
}

func scopeOf(d *ir.VarDecl) string {
	if d.Parameter {
		return "PARAM"
	}
	return "LOCAL"
}

func printVar(w io.Writer, unitKind, unitName, scope string, d *ir.VarDecl, extra string) {
	if *flagFilter != "" && !strings.Contains(strings.ToUpper(d.Name), strings.ToUpper(*flagFilter)) {
		return
	}
	typeStr := d.TypeSpec.String()
	if *flagType != "" && !strings.EqualFold(d.Type.String(), *flagType) {
		return
	}
	var parts []string
	if d.Intent != ir.IntentNone {
		parts = append(parts, "INTENT("+strings.ToUpper(d.Intent.String())+")")
	}
	if d.Optional {
		parts = append(parts, "OPTIONAL")
	}
	if d.Parameter && d.Init != "" {
		parts = append(parts, "="+d.Init)
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	if *flagVerbose {
		if goType, _, err := symbol.GoType(d.TypeSpec); err == nil {
			parts = append(parts, "go="+goType)
		}
	}
	flags := ""
	if len(parts) > 0 {
		flags = " " + strings.Join(parts, " ")
	}
	fmt.Fprintf(w, "%s(%s) %s(%s:%s%s): decl=%s%s\n",
		unitKind, unitName, scope, typeStr, d.Name, formatDims(d.Dims), d.Pos, flags)
}

func formatDims(dims []int) string {
	if len(dims) == 0 {
		return ""
	}
	strs := make([]string, len(dims))
	for i, n := range dims {
		strs[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(strs, ",") + ")"
}
