package intrinsic

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Formatter writes values the way gfortran list-directed output (PRINT *) does.
type Formatter struct {
	W io.Writer
}

// NewFormatter returns a Formatter writing to standard output.
func NewFormatter() Formatter {
	return Formatter{W: os.Stdout}
}

// Print writes one record: a leading blank, each value in its default field, then a newline.
// Arrays are written element by element in storage order.
func (f Formatter) Print(v ...any) error {
	buf := []byte{' '}
	prevString := false
	for i, val := range v {
		_, isString := val.(string)
		// Adjacent character items are not separated by a blank.
		if i > 0 && !(prevString && isString) {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, val)
		prevString = isString
	}
	buf = append(buf, '\n')
	w := f.W
	if w == nil {
		w = os.Stdout
	}
	_, err := w.Write(buf)
	return err
}

// Sprint returns the record Print would write, without the trailing newline.
func Sprint(v ...any) string {
	var b recordBuffer
	Formatter{W: &b}.Print(v...)
	return string(b[:len(b)-1])
}

type recordBuffer []byte

func (b *recordBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

func appendValue(dst []byte, value any) []byte {
	switch v := value.(type) {
	case string:
		return append(dst, v...)
	case bool:
		if v {
			return append(dst, 'T')
		}
		return append(dst, 'F')
	case int8:
		return appendInt(dst, int64(v), 4)
	case int16:
		return appendInt(dst, int64(v), 6)
	case int32:
		return appendInt(dst, int64(v), 11)
	case int:
		return appendInt(dst, int64(v), 11)
	case int64:
		return appendInt(dst, v, 20)
	case float32:
		return appendReal(dst, float64(v), 8, 32)
	case float64:
		return appendReal(dst, v, 16, 64)
	case *Array[int32]:
		return appendArray(dst, v)
	case *Array[int64]:
		return appendArray(dst, v)
	case *Array[float32]:
		return appendArray(dst, v)
	case *Array[float64]:
		return appendArray(dst, v)
	case *Array[bool]:
		return appendArray(dst, v)
	case *Ref[int32]:
		return appendValue(dst, v.V)
	case *Ref[float64]:
		return appendValue(dst, v.V)
	}
	panic(fmt.Sprintf("intrinsic: unsupported list-directed item %T", value))
}

func appendArray[T any](dst []byte, a *Array[T]) []byte {
	for i, e := range a.data {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = appendValue(dst, e)
	}
	return dst
}

// appendInt right-aligns v in a field of the given width.
func appendInt(dst []byte, v int64, width int) []byte {
	start := len(dst)
	dst = strconv.AppendInt(dst, v, 10)
	return padLeft(dst, start, width)
}

// appendReal writes a fixed-point value with the integer part right-aligned
// in a 3 digit column followed by the fraction and trailing blank padding,
// as libgfortran write_float does for list-directed output.
func appendReal(dst []byte, v float64, prec, bits int) []byte {
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'f', prec, bits)
	intDigits := 1
	if a := math.Abs(v); a >= 1 {
		intDigits = int(math.Log10(a)) + 1
	}
	left := 3 - intDigits
	right := 16 - (len(dst) - start) - left
	dst = padLeft(dst, start, len(dst)-start+max(left, 0))
	for ; right > 0; right-- {
		dst = append(dst, ' ')
	}
	return dst
}

func padLeft(dst []byte, start, width int) []byte {
	n := len(dst) - start
	if n >= width {
		return dst
	}
	pad := width - n
	for range pad {
		dst = append(dst, ' ')
	}
	copy(dst[start+pad:], dst[start:start+n])
	for i := start; i < start+pad; i++ {
		dst[i] = ' '
	}
	return dst
}
