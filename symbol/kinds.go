package symbol

import (
	"strconv"

	"github.com/soypat/fort2go/ir"
)

// KindError is returned for a KIND selector with no Go representation.
type KindError struct {
	Type ir.Type
	Kind int
}

func (e *KindError) Error() string {
	return "KIND=" + strconv.Itoa(e.Kind) + " is not supported for " + e.Type.String()
}

// RealFromKind maps a REAL kind to a Go type. A non-empty note
// reports a precision change.
func RealFromKind(k int) (goType, note string, err error) {
	switch k {
	case 0:
		return "float64", "default REAL is mapped to float64, wider than the usual 32 bit default", nil
	case 4:
		return "float32", "", nil
	case 8:
		return "float64", "", nil
	case 2:
		return "float32", "REAL(KIND=2) has no Go equivalent and is widened to float32", nil
	case 10, 16:
		return "float64", "REAL(KIND=" + strconv.Itoa(k) + ") is narrowed to float64", nil
	}
	return "", "", &KindError{Type: ir.TypeReal, Kind: k}
}

// IntFromKind maps an INTEGER kind to a Go type.
func IntFromKind(k int) (goType, note string, err error) {
	switch k {
	case 0, 4:
		return "int32", "", nil
	case 1:
		return "int8", "", nil
	case 2:
		return "int16", "", nil
	case 8:
		return "int64", "", nil
	case 16:
		return "int64", "INTEGER(KIND=16) is narrowed to int64", nil
	}
	return "", "", &KindError{Type: ir.TypeInteger, Kind: k}
}

// LogicalFromKind maps a LOGICAL kind to a Go type.
func LogicalFromKind(k int) (goType, note string, err error) {
	switch k {
	case 0, 1, 2, 4, 8:
		return "bool", "", nil
	}
	return "", "", &KindError{Type: ir.TypeLogical, Kind: k}
}

// CharFromKind maps a CHARACTER kind to a Go type.
func CharFromKind(k int) (goType, note string, err error) {
	switch k {
	case 0, 1:
		return "string", "", nil
	}
	return "", "", &KindError{Type: ir.TypeCharacter, Kind: k}
}

// GoType maps a type specification to the Go type name used for scalars of
// that type. Derived types map to their own name.
func GoType(ts ir.TypeSpec) (goType, note string, err error) {
	switch ts.Type {
	case ir.TypeInteger:
		return IntFromKind(ts.Kind)
	case ir.TypeReal:
		return RealFromKind(ts.Kind)
	case ir.TypeDoublePrecision:
		if ts.Kind != 0 {
			return "", "", &KindError{Type: ts.Type, Kind: ts.Kind}
		}
		return "float64", "", nil
	case ir.TypeLogical:
		return LogicalFromKind(ts.Kind)
	case ir.TypeCharacter:
		return CharFromKind(ts.Kind)
	case ir.TypeDerived:
		return ts.TypeName, "", nil
	}
	return "", "", &KindError{Type: ts.Type, Kind: ts.Kind}
}
