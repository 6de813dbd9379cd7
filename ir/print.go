package ir

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
)

// A FieldFilter is used to filter fields when printing IR nodes.
// If it returns false, the field is excluded from the output.
type FieldFilter func(name string, value reflect.Value) bool

// NotNilFilter excludes nil pointers, slices and maps, false bools and empty strings.
func NotNilFilter(_ string, v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return !v.IsNil()
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.Len() > 0
	}
	return true
}

// Fprint prints the IR node x to w in an indented tree format.
// Maps are printed in sorted key order so output is deterministic.
func Fprint(w io.Writer, x any, f FieldFilter) error {
	p := &printer{
		output: w,
		filter: f,
		ptrmap: make(map[any]int),
	}
	p.print(reflect.ValueOf(x))
	return p.err
}

// Print calls Fprint(os.Stdout, x, NotNilFilter) for debugging convenience.
func Print(x any) error {
	return Fprint(os.Stdout, x, NotNilFilter)
}

type printer struct {
	output io.Writer
	filter FieldFilter
	ptrmap map[any]int
	indent int
	err    error
}

var posType = reflect.TypeFor[Pos]()

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.output, format, args...)
}

func (p *printer) newline() {
	p.printf("\n%s", strings.Repeat(".  ", p.indent))
}

func (p *printer) print(v reflect.Value) {
	if !v.IsValid() {
		p.printf("nil")
		return
	}
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			p.printf("nil")
			return
		}
		ptr := v.Interface()
		if id, exists := p.ptrmap[ptr]; exists {
			p.printf("(obj @ %d)", id)
			return
		}
		p.ptrmap[ptr] = len(p.ptrmap)
		p.printf("*")
		v = v.Elem()
	}

	t := v.Type()
	if t == posType {
		p.printf("%s", v.Interface().(Pos).String())
		return
	}

	switch v.Kind() {
	case reflect.Struct:
		p.printf("%s {", t.Name())
		p.indent++
		p.fields(v)
		p.indent--
		p.newline()
		p.printf("}")

	case reflect.Slice:
		if v.IsNil() {
			p.printf("nil")
			return
		}
		p.printf("%s (len = %d) {", t, v.Len())
		p.indent++
		for i := 0; i < v.Len(); i++ {
			p.newline()
			p.printf("%d: ", i)
			p.print(v.Index(i))
		}
		p.indent--
		if v.Len() > 0 {
			p.newline()
		}
		p.printf("}")

	case reflect.Map:
		p.printf("%s (len = %d) {", t, v.Len())
		keys := v.MapKeys()
		sortValues(keys)
		p.indent++
		for _, k := range keys {
			p.newline()
			p.print(k)
			p.printf(": ")
			p.print(v.MapIndex(k))
		}
		p.indent--
		if len(keys) > 0 {
			p.newline()
		}
		p.printf("}")

	case reflect.String:
		p.printf("%q", v.String())

	default:
		if !v.CanInterface() {
			p.printf("?")
			return
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			p.printf("%s", s)
			return
		}
		p.printf("%v", v.Interface())
	}
}

// fields prints the exported fields of a struct, flattening embedded structs.
func (p *printer) fields(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && fv.Kind() == reflect.Struct {
			p.fields(fv)
			continue
		}
		if p.filter != nil && !p.filter(field.Name, fv) {
			continue
		}
		p.newline()
		p.printf("%s: ", field.Name)
		p.print(fv)
	}
}

func sortValues(keys []reflect.Value) {
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
}
