package fortran

import (
	"testing"

	"github.com/soypat/fort2go/token"
)

func TestClassify(t *testing.T) {
	var tests = []struct {
		line string
		want token.Line
	}{
		{"", token.Blank},
		{"   ", token.Blank},
		{"module foo", token.ModuleStart},
		{"MODULE Foo", token.ModuleStart},
		{"module procedure bar", token.Unsupported},
		{"end module foo", token.ModuleEnd},
		{"endmodule", token.ModuleEnd},
		{"program main", token.ProgramStart},
		{"end program", token.ProgramEnd},
		{"subroutine s(a, b)", token.SubroutineStart},
		{"subroutine s", token.SubroutineStart},
		{"pure recursive subroutine s()", token.SubroutineStart},
		{"end subroutine s", token.SubroutineEnd},
		{"function f(x)", token.FunctionStart},
		{"real(kind=8) function f(x) result(y)", token.FunctionStart},
		{"elemental integer function f(x)", token.FunctionStart},
		{"type(point) function f(x)", token.FunctionStart},
		{"end function", token.FunctionEnd},
		{"end", token.End},
		{"END", token.End},
		{"type point", token.TypeStart},
		{"type :: point", token.TypeStart},
		{"type, public :: point", token.TypeStart},
		{"end type point", token.TypeEnd},
		{"type(point) :: p", token.Declaration},
		{"use mymod", token.Use},
		{"use :: mymod", token.Use},
		{"use mymod, only: a, b", token.Use},
		{"use, intrinsic :: iso_fortran_env", token.Use},
		{"useful = 1", token.Other},
		{"implicit none", token.ImplicitNone},
		{"IMPLICIT NONE", token.ImplicitNone},
		{"implicit real*8 (a-h, o-z)", token.Implicit},
		{"integer :: i", token.Declaration},
		{"integer i, j", token.Declaration},
		{"real(8), dimension(3) :: v", token.Declaration},
		{"real*8 x", token.Declaration},
		{"double precision :: d", token.Declaration},
		{"character(len=10) :: s", token.Declaration},
		{"logical, intent(in) :: flag", token.Declaration},
		{"contains", token.Contains},
		{"#include \"x.h\"", token.Preprocessor},
		{"#ifdef DEBUG", token.Preprocessor},
		{"goto 100", token.Unsupported},
		{"go to 100", token.Unsupported},
		{"100 continue", token.Unsupported},
		{"common /blk/ a, b", token.Unsupported},
		{"equivalence (a, b)", token.Unsupported},
		{"data x /1.0/", token.Unsupported},
		{"format (i5)", token.Unsupported},
		{"write(*,*) x", token.Unsupported},
		{"read(5, *) x", token.Unsupported},
		{"print *, x", token.Unsupported},
		{"include 'common.inc'", token.Unsupported},
		{"stop", token.Unsupported},
		{"error stop 1", token.Unsupported},
		{"exit", token.Unsupported},
		{"cycle outer", token.Unsupported},
		{"save", token.Unsupported},
		{"private :: helper", token.Unsupported},
		{"interface", token.Unsupported},
		{"end interface", token.Unsupported},
		{"allocate(a(10))", token.Unsupported},
		{"where (a > 0) a = 1", token.Unsupported},
		{"x = y + 1", token.Other},
		{"if x != 0 {", token.Other},
		{"common_factor = 2", token.Other},
		{"datax := 3", token.Other},
		{"stopped = true", token.Other},
		{"exit_code := 1", token.Other},
		{"end_index := 4", token.Other},
		{"endif", token.Other},
		{"end do", token.Other},
		{"}", token.Other},
		{"realistic := 1.0", token.Other},
		{"integers.Set(1, 1)", token.Other},
		{"printValue(x)", token.Other},
	}
	for _, tt := range tests {
		got := Classify(tt.line)
		if got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.line, got, tt.want)
		}
	}
}

// Classification depends only on the line itself.
func TestClassifyContextFree(t *testing.T) {
	lines := []string{"module a", "integer :: x", "x = 1", "end module a"}
	first := make([]token.Line, len(lines))
	for i, l := range lines {
		first[i] = Classify(l)
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if got := Classify(lines[i]); got != first[i] {
			t.Errorf("Classify(%q) changed from %s to %s", lines[i], first[i], got)
		}
	}
}
