package fortran

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// logicalLine is one free-form statement line: comment removed and
// continuation lines joined. Line is the number of its first physical line.
type logicalLine struct {
	Text string
	Line int
}

// readLogicalLines decodes src and splits it into logical lines. Input that is
// not valid UTF-8 is decoded as ISO-8859-1, the usual encoding of legacy sources.
func readLogicalLines(r io.Reader) ([]logicalLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding latin-1 source: %w", err)
		}
	}
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	physical := strings.Split(string(raw), "\n")

	var lines []logicalLine
	var pending strings.Builder
	start := 0
	for i, text := range physical {
		text = strings.TrimRight(StripComment(text), " \t\r")
		if pending.Len() > 0 {
			// Continued line: an optional leading '&' marks where text resumes.
			// Comment lines between continuations are skipped.
			text = strings.TrimLeft(text, " \t")
			if text == "" {
				continue
			}
			text = strings.TrimPrefix(text, "&")
		} else {
			start = i + 1
		}
		if body, ok := continued(text); ok {
			pending.WriteString(body)
			continue
		}
		pending.WriteString(text)
		lines = append(lines, logicalLine{Text: pending.String(), Line: start})
		pending.Reset()
	}
	if pending.Len() > 0 {
		lines = append(lines, logicalLine{Text: pending.String(), Line: start})
	}
	return lines, nil
}

// StripComment removes a '!' comment. A '!' inside a character literal is
// kept, as is one followed by a non-blank character after code, so that
// expressions like "a != b" in body text survive.
func StripComment(s string) string {
	var quote byte
	leading := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '!':
			if leading || i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\t' {
				return s[:i]
			}
		}
		if c != ' ' && c != '\t' {
			leading = false
		}
	}
	return s
}

// continued reports whether text ends with a continuation '&' and returns the
// text before it. A trailing "&&" is an operator, not a continuation.
func continued(text string) (string, bool) {
	if !strings.HasSuffix(text, "&") || strings.HasSuffix(text, "&&") {
		return text, false
	}
	return strings.TrimRight(text[:len(text)-1], " \t") + " ", true
}
