package intrinsic

import "math"

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type float interface {
	~float32 | ~float64
}

type numeric interface {
	signed | float
}

// Elemental numeric intrinsics. Each works on one scalar; loops over arrays
// are written out in the translated body.

// ABS returns |x|. Fortran: ABS(x).
func ABS[T numeric](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func SQRT[T float](x T) T  { return T(math.Sqrt(float64(x))) }
func EXP[T float](x T) T   { return T(math.Exp(float64(x))) }
func LOG[T float](x T) T   { return T(math.Log(float64(x))) }
func LOG10[T float](x T) T { return T(math.Log10(float64(x))) }
func SIN[T float](x T) T   { return T(math.Sin(float64(x))) }
func COS[T float](x T) T   { return T(math.Cos(float64(x))) }
func TAN[T float](x T) T   { return T(math.Tan(float64(x))) }
func ASIN[T float](x T) T  { return T(math.Asin(float64(x))) }
func ACOS[T float](x T) T  { return T(math.Acos(float64(x))) }
func ATAN[T float](x T) T  { return T(math.Atan(float64(x))) }
func SINH[T float](x T) T  { return T(math.Sinh(float64(x))) }
func COSH[T float](x T) T  { return T(math.Cosh(float64(x))) }
func TANH[T float](x T) T  { return T(math.Tanh(float64(x))) }

// ATAN2 returns the angle of the point (x, y). Fortran: ATAN2(y, x).
func ATAN2[T float](y, x T) T { return T(math.Atan2(float64(y), float64(x))) }

// MOD returns a - INT(a/p)*p, taking the sign of a. Fortran: MOD(a, p).
func MOD[T numeric](a, p T) T {
	switch any(a).(type) {
	case float32, float64:
		return T(math.Mod(float64(a), float64(p)))
	}
	return a - p*T(int64(a)/int64(p))
}

// MODULO returns a - FLOOR(a/p)*p, taking the sign of p. Fortran: MODULO(a, p).
func MODULO[T numeric](a, p T) T {
	r := MOD(a, p)
	if r != 0 && (r < 0) != (p < 0) {
		r += p
	}
	return r
}

// SIGN returns |a| with the sign of b. For floating point arguments the sign
// bit of b is honored, so SIGN(1.0, -0.0) is -1.0. Fortran: SIGN(a, b).
func SIGN[T numeric](a, b T) T {
	switch any(b).(type) {
	case float32, float64:
		return T(math.Copysign(float64(a), float64(b)))
	}
	a = ABS(a)
	if b < 0 {
		return -a
	}
	return a
}

// MAX returns the largest argument. Fortran: MAX(a1, a2, ...).
func MAX[T numeric](first T, rest ...T) T {
	m := first
	for _, v := range rest {
		m = max(m, v)
	}
	return m
}

// MIN returns the smallest argument. Fortran: MIN(a1, a2, ...).
func MIN[T numeric](first T, rest ...T) T {
	m := first
	for _, v := range rest {
		m = min(m, v)
	}
	return m
}

// NINT rounds to the nearest default integer, halves away from zero. Fortran: NINT(x).
func NINT[T float](x T) int32 { return int32(math.Round(float64(x))) }

// NINT8 is NINT(x, KIND=8).
func NINT8[T float](x T) int64 { return int64(math.Round(float64(x))) }

func FLOOR[T float](x T) int32   { return int32(math.Floor(float64(x))) }
func CEILING[T float](x T) int32 { return int32(math.Ceil(float64(x))) }

// AINT truncates toward zero keeping the real type. Fortran: AINT(x).
func AINT[T float](x T) T { return T(math.Trunc(float64(x))) }

// ANINT rounds to the nearest whole number keeping the real type. Fortran: ANINT(x).
func ANINT[T float](x T) T { return T(math.Round(float64(x))) }

// DIM returns a-b if positive, otherwise zero. Fortran: DIM(a, b).
func DIM[T numeric](a, b T) T {
	if a > b {
		return a - b
	}
	return 0
}

// MERGE returns tsource where mask is true and fsource otherwise. Fortran: MERGE(t, f, mask).
func MERGE[T any](tsource, fsource T, mask bool) T {
	if mask {
		return tsource
	}
	return fsource
}

// MergeArray is the elemental MERGE over conforming arrays.
func MergeArray[T any](tsource, fsource *Array[T], mask *Array[bool]) *Array[T] {
	if tsource.Size() != fsource.Size() || tsource.Size() != mask.Size() {
		panic("intrinsic: MERGE arguments do not conform")
	}
	res := tsource.Copy()
	m := mask.Data()
	for i, f := range fsource.Data() {
		if !m[i] {
			res.data[i] = f
		}
	}
	return res
}

// LOGICAL converts an integer to a logical the way gfortran does: nonzero is true.
func LOGICAL[T signed](v T) bool { return v != 0 }

// INT converts a logical to 0 or 1.
func INT[T signed](v bool) T {
	if v {
		return 1
	}
	return 0
}
