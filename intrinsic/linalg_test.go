package intrinsic

import (
	"slices"
	"testing"
)

func TestMatmul(t *testing.T) {
	// a = [1 3 5; 2 4 6] stored by columns.
	a := NewArray([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewArray([]float64{1, 0, 0, 1, 1, 1}, 3, 2)
	c := MATMUL(a, b)
	if !slices.Equal(c.Shape(), []int{2, 2}) {
		t.Fatalf("shape %v", c.Shape())
	}
	// column 1 = a(:,1), column 2 = a(:,1)+a(:,2)+a(:,3)
	want := []float64{1, 2, 9, 12}
	if !slices.Equal(c.Data(), want) {
		t.Errorf("MATMUL = %v, want %v", c.Data(), want)
	}

	v := NewArray([]float64{1, 1, 1}, 3)
	mv := MATMUL(a, v)
	if !slices.Equal(mv.Data(), []float64{9, 12}) {
		t.Errorf("matrix-vector = %v", mv.Data())
	}
	u := NewArray([]float64{1, 1}, 2)
	vm := MATMUL(u, a)
	if !slices.Equal(vm.Data(), []float64{3, 7, 11}) {
		t.Errorf("vector-matrix = %v", vm.Data())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on nonconforming shapes")
		}
	}()
	MATMUL(a, a)
}

func TestTranspose(t *testing.T) {
	a := NewArray([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	at := TRANSPOSE(a)
	if !slices.Equal(at.Shape(), []int{3, 2}) {
		t.Fatalf("shape %v", at.Shape())
	}
	for i := 1; i <= 2; i++ {
		for j := 1; j <= 3; j++ {
			if a.At(i, j) != at.At(j, i) {
				t.Errorf("a(%d,%d)=%d but at(%d,%d)=%d", i, j, a.At(i, j), j, i, at.At(j, i))
			}
		}
	}
}

func TestDotProduct(t *testing.T) {
	a := NewArray([]int32{1, 2, 3}, 3)
	b := NewArray([]int32{4, 5, 6}, 3)
	if got := DOT_PRODUCT(a, b); got != 32 {
		t.Errorf("DOT_PRODUCT = %d, want 32", got)
	}
}

func TestInquiry(t *testing.T) {
	a := NewArrayWithBounds[float32](nil, []int{3, 2}, []int{0, -1}, []int{2, 0})
	if SIZE(a) != 6 || SIZE(a, 1) != 3 || SIZE(a, 2) != 2 {
		t.Error("SIZE wrong")
	}
	if !slices.Equal(LBOUND(a).Data(), []int32{0, -1}) {
		t.Errorf("LBOUND = %v", LBOUND(a).Data())
	}
	if !slices.Equal(UBOUND(a).Data(), []int32{2, 0}) {
		t.Errorf("UBOUND = %v", UBOUND(a).Data())
	}
	if !slices.Equal(SHAPE(a).Data(), []int32{3, 2}) {
		t.Errorf("SHAPE = %v", SHAPE(a).Data())
	}
	var missing *int32
	x := int32(1)
	if PRESENT(missing) || !PRESENT(&x) {
		t.Error("PRESENT wrong")
	}
	var none *Array[float32]
	if ALLOCATED(none) || !ALLOCATED(a) {
		t.Error("ALLOCATED wrong")
	}
}
