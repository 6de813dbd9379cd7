package intrinsic

import (
	"fmt"
	"strconv"
)

// Array is a Fortran array: column-major storage (first subscript varies fastest)
// with per-dimension lower bounds, 1 by default. Subscript arithmetic written for
// the Fortran original addresses the same logical element through At and Set.
type Array[T any] struct {
	data   []T
	shape  []int
	lower  []int
	stride []int
}

// NewArray creates an array with bounds [1:shape[i]] on each dimension.
// If data is nil a zeroed backing slice is allocated, otherwise data is used
// as storage in column-major order and must hold exactly the product of shape.
func NewArray[T any](data []T, shape ...int) *Array[T] {
	lower := make([]int, len(shape))
	upper := make([]int, len(shape))
	for i, n := range shape {
		lower[i] = 1
		upper[i] = n
	}
	return NewArrayWithBounds(data, shape, lower, upper)
}

// NewArrayWithBounds creates an array with explicit bounds [lower[i]:upper[i]].
// shape[i] must equal upper[i]-lower[i]+1.
func NewArrayWithBounds[T any](data []T, shape, lower, upper []int) *Array[T] {
	if len(shape) == 0 {
		panic("intrinsic: array must have at least one dimension")
	}
	if len(lower) != len(shape) || len(upper) != len(shape) {
		panic("intrinsic: bounds rank does not match shape rank")
	}
	size := 1
	stride := make([]int, len(shape))
	for i, n := range shape {
		if n < 0 || upper[i]-lower[i]+1 != n {
			panic(fmt.Sprintf("intrinsic: dimension %d: extent %d does not match bounds %d:%d", i+1, n, lower[i], upper[i]))
		}
		stride[i] = size
		size *= n
	}
	if data == nil {
		data = make([]T, size)
	} else if len(data) != size {
		panic("intrinsic: data length " + strconv.Itoa(len(data)) + " does not match array size " + strconv.Itoa(size))
	}
	return &Array[T]{
		data:   data,
		shape:  append([]int(nil), shape...),
		lower:  append([]int(nil), lower...),
		stride: stride,
	}
}

func (arr *Array[T]) offset(subscripts []int) int {
	if len(subscripts) != len(arr.shape) {
		panic(fmt.Sprintf("intrinsic: rank %d array indexed with %d subscripts", len(arr.shape), len(subscripts)))
	}
	off := 0
	for i, s := range subscripts {
		d := s - arr.lower[i]
		if d < 0 || d >= arr.shape[i] {
			panic(fmt.Sprintf("intrinsic: subscript %d of dimension %d out of bounds %d:%d", s, i+1, arr.lower[i], arr.lower[i]+arr.shape[i]-1))
		}
		off += d * arr.stride[i]
	}
	return off
}

// At returns the element at the Fortran subscripts.
func (arr *Array[T]) At(subscripts ...int) T {
	return arr.data[arr.offset(subscripts)]
}

// Set stores v at the Fortran subscripts.
func (arr *Array[T]) Set(v T, subscripts ...int) {
	arr.data[arr.offset(subscripts)] = v
}

// Ptr returns the address of the element at the subscripts, so it may be
// passed where the callee writes through a reference.
func (arr *Array[T]) Ptr(subscripts ...int) *T {
	return &arr.data[arr.offset(subscripts)]
}

// Size returns the total number of elements. Fortran: SIZE(a).
func (arr *Array[T]) Size() int { return len(arr.data) }

// Len returns the extent of the first dimension. Fortran: SIZE(a, 1).
func (arr *Array[T]) Len() int { return arr.shape[0] }

// Rank returns the number of dimensions.
func (arr *Array[T]) Rank() int { return len(arr.shape) }

// Shape returns a copy of the extents. Fortran: SHAPE(a).
func (arr *Array[T]) Shape() []int { return append([]int(nil), arr.shape...) }

// Lower returns a copy of the lower bounds. Fortran: LBOUND(a).
func (arr *Array[T]) Lower() []int { return append([]int(nil), arr.lower...) }

// Upper returns the upper bounds. Fortran: UBOUND(a).
func (arr *Array[T]) Upper() []int {
	upper := make([]int, len(arr.shape))
	for i := range upper {
		upper[i] = arr.lower[i] + arr.shape[i] - 1
	}
	return upper
}

// LowerDim returns the lower bound of 1-based dimension dim. Fortran: LBOUND(a, dim).
func (arr *Array[T]) LowerDim(dim int) int { return arr.lower[dim-1] }

// UpperDim returns the upper bound of 1-based dimension dim. Fortran: UBOUND(a, dim).
func (arr *Array[T]) UpperDim(dim int) int { return arr.lower[dim-1] + arr.shape[dim-1] - 1 }

// Data returns the backing storage in column-major order. Writes are visible through the array.
func (arr *Array[T]) Data() []T { return arr.data }

// Fill sets every element to v. Fortran: a = v.
func (arr *Array[T]) Fill(v T) {
	for i := range arr.data {
		arr.data[i] = v
	}
}

// Copy returns an array of the same bounds with its own storage.
func (arr *Array[T]) Copy() *Array[T] {
	return NewArrayWithBounds(append([]T(nil), arr.data...), arr.shape, arr.lower, arr.Upper())
}
