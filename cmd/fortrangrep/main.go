// fortrangrep searches Fortran source files with comment awareness.
//
// Usage:
//
//	fortrangrep [flags] pattern file.f90 [file2.f90 ...]
//
// Flags:
//
//	-i          case-insensitive matching
//	-n          show line numbers (default true)
//	-c          match code only: comments are stripped before matching
//	-k kinds    only match lines of the given comma separated kinds,
//	            i.e: "declaration,use" or "subroutine,function"
//	-A num      show num lines after match
//	-B num      show num lines before match
//	-C num      show num lines before and after match
//	-l          only print filenames with matches
//	-v          invert match (show non-matching lines)
//	-s num      start line (inclusive, 1-indexed)
//	-e num      end line (inclusive, 1-indexed)
//
// Line kinds are those of the translator's line classifier. Continuation
// lines take the kind of the statement they continue.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	fortran "github.com/soypat/fort2go"
	"github.com/soypat/fort2go/token"
)

var (
	flagIgnoreCase    = flag.Bool("i", false, "case-insensitive matching")
	flagLineNumbers   = flag.Bool("n", true, "show line numbers")
	flagCodeOnly      = flag.Bool("c", false, "strip comments before matching")
	flagKinds         = flag.String("k", "", "comma separated line kinds to search")
	flagAfterContext  = flag.Int("A", 0, "show num lines after match")
	flagBeforeContext = flag.Int("B", 0, "show num lines before match")
	flagContext       = flag.Int("C", 0, "show num lines before and after match (overrides -A and -B)")
	flagFilesOnly     = flag.Bool("l", false, "only print filenames with matches")
	flagInvert        = flag.Bool("v", false, "invert match (show non-matching lines)")
	flagStartLine     = flag.Int("s", 0, "start line (inclusive, 1-indexed)")
	flagEndLine       = flag.Int("e", 0, "end line (inclusive, 1-indexed)")
	flagNoSeparators  = flag.Bool("no-sep", false, "suppress -- separators between non-contiguous matches")
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: fortrangrep [flags] pattern file.f90 [file2.f90 ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	pattern := flag.Arg(0)
	if *flagIgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid pattern: %v\n", err)
		os.Exit(2)
	}
	kinds, err := parseKinds(*flagKinds)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	g := grep{
		re:       re,
		kinds:    kinds,
		codeOnly: *flagCodeOnly,
		invert:   *flagInvert,
		start:    *flagStartLine,
		end:      *flagEndLine,
		before:   *flagBeforeContext,
		after:    *flagAfterContext,
	}
	if *flagContext > 0 {
		g.before, g.after = *flagContext, *flagContext
	}

	files := flag.Args()[1:]
	exitCode := 1
	for _, filename := range files {
		src, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", filename, err)
			continue
		}
		lines := scanLines(src)
		matches := g.match(lines)
		if len(matches) == 0 {
			continue
		}
		exitCode = 0
		if *flagFilesOnly {
			fmt.Println(filename)
			continue
		}
		prefix := ""
		if len(files) > 1 {
			prefix = filename + ":"
		}
		g.print(os.Stdout, prefix, lines, matches)
	}
	os.Exit(exitCode)
}

func parseKinds(s string) (map[token.Line]bool, error) {
	if s == "" {
		return nil, nil
	}
	kinds := make(map[token.Line]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		l, ok := token.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown line kind %q", name)
		}
		kinds[l] = true
	}
	return kinds, nil
}

type line struct {
	num  int
	text string
	code string // text without comment
	kind token.Line
}

// scanLines splits src into physical lines classified by the statement they belong to.
func scanLines(src []byte) []line {
	raw := strings.Split(strings.TrimSuffix(string(bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))), "\n"), "\n")
	lines := make([]line, len(raw))
	var stmt strings.Builder
	first := -1
	for i, text := range raw {
		code := strings.TrimRight(fortran.StripComment(text), " \t")
		lines[i] = line{num: i + 1, text: text, code: code}
		if strings.TrimSpace(code) == "" && first < 0 {
			lines[i].kind = token.Blank
			continue
		}
		if first < 0 {
			first = i
		}
		body, more := strings.CutSuffix(code, "&")
		if more && strings.HasSuffix(body, "&") {
			more = false // Trailing && is an operator.
			body = code
		}
		stmt.WriteString(strings.TrimPrefix(strings.TrimSpace(body), "&"))
		stmt.WriteByte(' ')
		if more {
			continue
		}
		kind := fortran.Classify(stmt.String())
		for j := first; j <= i; j++ {
			lines[j].kind = kind
		}
		stmt.Reset()
		first = -1
	}
	return lines
}

type grep struct {
	re            *regexp.Regexp
	kinds         map[token.Line]bool
	codeOnly      bool
	invert        bool
	start, end    int
	before, after int
}

func (g *grep) match(lines []line) []int {
	var matches []int
	for i, ln := range lines {
		if (g.start > 0 && ln.num < g.start) || (g.end > 0 && ln.num > g.end) {
			continue
		}
		if g.kinds != nil && !g.kinds[ln.kind] {
			continue
		}
		text := ln.text
		if g.codeOnly {
			if ln.kind == token.Blank {
				continue
			}
			text = ln.code
		}
		if g.re.MatchString(text) != g.invert {
			matches = append(matches, i)
		}
	}
	return matches
}

func (g *grep) print(w io.Writer, prefix string, lines []line, matches []int) {
	isMatch := make(map[int]bool, len(matches))
	show := make(map[int]bool)
	for _, m := range matches {
		isMatch[m] = true
		for j := max(0, m-g.before); j <= min(len(lines)-1, m+g.after); j++ {
			show[j] = true
		}
	}
	last := -1
	for i, ln := range lines {
		if !show[i] {
			continue
		}
		if last >= 0 && i > last+1 && !*flagNoSeparators {
			fmt.Fprintln(w, "--")
		}
		last = i
		sep := "-"
		if isMatch[i] {
			sep = ":"
		}
		if *flagLineNumbers {
			fmt.Fprintf(w, "%s%d%s%s\n", prefix, ln.num, sep, ln.text)
		} else {
			fmt.Fprintf(w, "%s%s\n", prefix, ln.text)
		}
	}
}
