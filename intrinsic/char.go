package intrinsic

import (
	"strings"
	"unicode/utf8"
)

// Fixed-length character support. A CHARACTER(LEN=n) variable is a Go string
// of exactly n bytes; assignment pads with blanks or truncates on the right.

// Pad returns s blank-padded or truncated to n bytes. Fortran: assignment to CHARACTER(LEN=n).
// Truncation never splits a UTF-8 sequence; the cut bytes are padded with blanks.
func Pad(s string, n int) string {
	if len(s) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// LEN_TRIM returns the length of s without trailing blanks.
func LEN_TRIM(s string) int32 { return int32(len(strings.TrimRight(s, " "))) }

// TRIM removes trailing blanks.
func TRIM(s string) string { return strings.TrimRight(s, " ") }

// ADJUSTL moves leading blanks to the end, keeping the length.
func ADJUSTL(s string) string {
	t := strings.TrimLeft(s, " ")
	return t + strings.Repeat(" ", len(s)-len(t))
}

// ADJUSTR moves trailing blanks to the front, keeping the length.
func ADJUSTR(s string) string {
	t := strings.TrimRight(s, " ")
	return strings.Repeat(" ", len(s)-len(t)) + t
}

// INDEX returns the 1-based position of substring in s, or 0. Fortran: INDEX(s, sub).
func INDEX(s, substring string) int32 { return int32(strings.Index(s, substring) + 1) }

// CHAR returns the character with code i. Fortran: CHAR(i) and ACHAR(i).
func CHAR[T signed](i T) string { return string([]byte{byte(i)}) }

// ICHAR returns the code of the first character of c. Fortran: ICHAR(c) and IACHAR(c).
func ICHAR(c string) int32 { return int32(c[0]) }
