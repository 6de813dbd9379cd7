package token

import (
	"strconv"
	"strings"
)

// Line is the classification of one logical source line. Classification is
// context free: every kind is recognized by its leading keyword alone.
type Line int

// List of all line kinds of the supported Fortran subset.
// When adding a new kind add it inside its block since predicates compare ranges.
const (
	// Not to be used in code. Is to catch uninitialized lines.
	Undefined Line = iota // <undefined>
	Blank                 // <blank>

	// ==================== PROGRAM UNITS ====================

	ModuleStart     // MODULE
	ProgramStart    // PROGRAM
	SubroutineStart // SUBROUTINE
	FunctionStart   // FUNCTION
	TypeStart       // TYPE

	ModuleEnd     // END MODULE
	ProgramEnd    // END PROGRAM
	SubroutineEnd // END SUBROUTINE
	FunctionEnd   // END FUNCTION
	TypeEnd       // END TYPE
	End           // END

	// ==================== SPECIFICATION ====================

	Use          // USE
	ImplicitNone // IMPLICIT NONE
	Implicit     // IMPLICIT
	Declaration  // <declaration>
	Contains     // CONTAINS

	// ==================== REJECTED ====================

	Preprocessor // <preprocessor>
	Unsupported  // <unsupported>

	// Executable text, carried as opaque body lines.
	Other // <other>
	numLines
)

var lineNames = [numLines]string{
	Undefined:       "<undefined>",
	Blank:           "<blank>",
	ModuleStart:     "MODULE",
	ProgramStart:    "PROGRAM",
	SubroutineStart: "SUBROUTINE",
	FunctionStart:   "FUNCTION",
	TypeStart:       "TYPE",
	ModuleEnd:       "END MODULE",
	ProgramEnd:      "END PROGRAM",
	SubroutineEnd:   "END SUBROUTINE",
	FunctionEnd:     "END FUNCTION",
	TypeEnd:         "END TYPE",
	End:             "END",
	Use:             "USE",
	ImplicitNone:    "IMPLICIT NONE",
	Implicit:        "IMPLICIT",
	Declaration:     "<declaration>",
	Contains:        "CONTAINS",
	Preprocessor:    "<preprocessor>",
	Unsupported:     "<unsupported>",
	Other:           "<other>",
}

func (l Line) String() string {
	if l < 0 || l >= numLines {
		return "Line(" + strconv.Itoa(int(l)) + ")"
	}
	return lineNames[l]
}

// IsUnitStart returns true if the line opens a program unit or a derived type definition.
func (l Line) IsUnitStart() bool {
	return l >= ModuleStart && l <= TypeStart
}

// IsUnitEnd returns true if the line closes a program unit or derived type definition,
// including the bare END form.
func (l Line) IsUnitEnd() bool {
	return l >= ModuleEnd && l <= End
}

// IsCallable returns true for the start of a subroutine or function.
func (l Line) IsCallable() bool {
	return l == SubroutineStart || l == FunctionStart
}

// IsSpecification returns true for lines that belong to the declaration section of a unit.
func (l Line) IsSpecification() bool {
	return l >= Use && l <= Declaration
}

// IsRejected returns true for lines that always abort parsing.
func (l Line) IsRejected() bool {
	return l == Preprocessor || l == Unsupported
}

// EndOf returns the explicit END form matching a start kind.
// Kinds that are not unit starts return [Undefined].
func (l Line) EndOf() Line {
	if !l.IsUnitStart() {
		return Undefined
	}
	return l - ModuleStart + ModuleEnd
}

// StartOf returns the start form matching an explicit END kind.
// The bare [End] and non-end kinds return [Undefined].
func (l Line) StartOf() Line {
	if l < ModuleEnd || l > TypeEnd {
		return Undefined
	}
	return l - ModuleEnd + ModuleStart
}

// Lookup returns the kind whose name matches s, ignoring case and the angle
// brackets of pseudo kinds, i.e: "declaration" finds [Declaration].
func Lookup(s string) (Line, bool) {
	for l := Blank; l < numLines; l++ {
		name := strings.Trim(lineNames[l], "<>")
		if strings.EqualFold(name, s) || strings.EqualFold(lineNames[l], s) {
			return l, true
		}
	}
	return Undefined, false
}
