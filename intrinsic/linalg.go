package intrinsic

import "fmt"

// DOT_PRODUCT returns the sum of a(i)*b(i) over vectors of equal size.
func DOT_PRODUCT[T numeric](a, b *Array[T]) T {
	if a.Rank() != 1 || b.Rank() != 1 || a.Size() != b.Size() {
		panic(fmt.Sprintf("intrinsic: DOT_PRODUCT of shapes %v and %v", a.shape, b.shape))
	}
	var sum T
	bd := b.Data()
	for i, v := range a.Data() {
		sum += v * bd[i]
	}
	return sum
}

// TRANSPOSE returns the rank-2 array with dimensions swapped. Result bounds start at 1.
func TRANSPOSE[T any](a *Array[T]) *Array[T] {
	if a.Rank() != 2 {
		panic("intrinsic: TRANSPOSE of rank " + fmt.Sprint(a.Rank()) + " array")
	}
	rows, cols := a.shape[0], a.shape[1]
	res := NewArray[T](nil, cols, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			res.data[j+i*cols] = a.data[i+j*rows]
		}
	}
	return res
}

// MATMUL is the matrix product. Either argument may be a vector, in which
// case it acts as a row (first argument) or column (second argument).
// Result bounds start at 1.
func MATMUL[T numeric](a, b *Array[T]) *Array[T] {
	var m, k, n int
	switch {
	case a.Rank() == 2 && b.Rank() == 2:
		m, k, n = a.shape[0], a.shape[1], b.shape[1]
		if b.shape[0] != k {
			break
		}
		res := NewArray[T](nil, m, n)
		matmul(res.data, a.data, b.data, m, k, n)
		return res
	case a.Rank() == 2 && b.Rank() == 1:
		m, k, n = a.shape[0], a.shape[1], 1
		if b.shape[0] != k {
			break
		}
		res := NewArray[T](nil, m)
		matmul(res.data, a.data, b.data, m, k, n)
		return res
	case a.Rank() == 1 && b.Rank() == 2:
		m, k, n = 1, a.shape[0], b.shape[1]
		if b.shape[0] != k {
			break
		}
		res := NewArray[T](nil, n)
		matmul(res.data, a.data, b.data, m, k, n)
		return res
	}
	panic(fmt.Sprintf("intrinsic: MATMUL of shapes %v and %v", a.shape, b.shape))
}

// matmul computes c = a*b for column-major a(m,k), b(k,n), c(m,n).
func matmul[T numeric](c, a, b []T, m, k, n int) {
	for j := 0; j < n; j++ {
		for p := 0; p < k; p++ {
			bpj := b[p+j*k]
			for i := 0; i < m; i++ {
				c[i+j*m] += a[i+p*m] * bpj
			}
		}
	}
}

// SIZE returns the number of elements, or the extent of dimension dim when given.
func SIZE[T any](a *Array[T], dim ...int) int {
	if len(dim) > 0 {
		return a.shape[dim[0]-1]
	}
	return a.Size()
}

// LBOUND returns the lower bounds of a as a rank-1 integer array.
func LBOUND[T any](a *Array[T]) *Array[int32] { return boundsArray(a.Lower()) }

// UBOUND returns the upper bounds of a as a rank-1 integer array.
func UBOUND[T any](a *Array[T]) *Array[int32] { return boundsArray(a.Upper()) }

// SHAPE returns the extents of a as a rank-1 integer array.
func SHAPE[T any](a *Array[T]) *Array[int32] { return boundsArray(a.shape) }

func boundsArray(b []int) *Array[int32] {
	data := make([]int32, len(b))
	for i, v := range b {
		data[i] = int32(v)
	}
	return NewArray(data, len(data))
}

// PRESENT reports whether an optional argument was passed.
func PRESENT[T any](arg *T) bool { return arg != nil }

// ALLOCATED reports whether an array has storage.
func ALLOCATED[T any](a *Array[T]) bool { return a != nil && a.data != nil }
