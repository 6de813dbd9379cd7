package ir

import (
	"errors"
	"slices"
	"strconv"
)

// ErrUnsupported is matched by errors.Is for every construct rejected because it
// lies outside the supported subset, as opposed to malformed input.
var ErrUnsupported = errors.New("unsupported by design")

// ErrorKind classifies failures by pipeline phase.
type ErrorKind uint8

const (
	ErrParse ErrorKind = iota + 1
	ErrSemantic
	ErrGenerate
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parse error"
	case ErrSemantic:
		return "semantic error"
	case ErrGenerate:
		return "generation error"
	}
	return "error"
}

// Error is a translation failure tied to a source line.
type Error struct {
	Kind ErrorKind
	Pos  Pos
	// Scope names the enclosing unit, i.e: "subroutine foo in module bar".
	Scope string
	// Construct is the offending source text, verbatim.
	Construct string
	Reason    string
	// Unsupported is set when the construct is valid Fortran outside the supported subset.
	Unsupported bool
}

func (e *Error) Error() string {
	return string(e.AppendString(nil))
}

func (e *Error) AppendString(b []byte) []byte {
	if e.Pos.Source != "" || e.Pos.Line > 0 {
		b = e.Pos.AppendString(b)
		b = append(b, ':', ' ')
	}
	b = append(b, e.Kind.String()...)
	if e.Scope != "" {
		b = append(b, " in "...)
		b = append(b, e.Scope...)
	}
	b = append(b, ':', ' ')
	b = append(b, e.Reason...)
	if e.Construct != "" {
		b = append(b, ": "...)
		b = strconv.AppendQuote(b, e.Construct)
	}
	if e.Unsupported {
		b = append(b, " ("...)
		b = append(b, ErrUnsupported.Error()...)
		b = append(b, ')')
	}
	return b
}

func (e *Error) Unwrap() error {
	if e.Unsupported {
		return ErrUnsupported
	}
	return nil
}

// ErrorList collects errors when translation continues past the first failure.
type ErrorList []*Error

func (l *ErrorList) Add(err *Error) {
	*l = append(*l, err)
}

// Sort orders the list by source and line. Errors without position go last.
func (l ErrorList) Sort() {
	slices.SortStableFunc(l, func(a, b *Error) int {
		switch {
		case a.Pos.Source < b.Pos.Source:
			return -1
		case a.Pos.Source > b.Pos.Source:
			return 1
		}
		return a.Pos.Line - b.Pos.Line
	})
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return l[0].Error() + " (and " + strconv.Itoa(len(l)-1) + " more errors)"
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i := range l {
		errs[i] = l[i]
	}
	return errs
}

// Err returns nil for an empty list, the single error for a list of one,
// and the list otherwise.
func (l ErrorList) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	}
	return l
}
