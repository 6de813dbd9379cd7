package fortran

import (
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/soypat/fort2go/ir"
)

// declError is a rejected declaration fragment. The parser attaches position and scope.
type declError struct {
	construct   string
	reason      string
	unsupported bool
}

func unsupportedDecl(construct, reason string) *declError {
	return &declError{construct: construct, reason: reason, unsupported: true}
}

func malformedDecl(construct, reason string) *declError {
	return &declError{construct: construct, reason: reason}
}

var (
	reTypeKeyword = regexp.MustCompile(`(?i)^(integer|real|double\s*precision|complex|logical|character|type)\b\s*`)
	reIdent       = regexp.MustCompile(`(?i)^[a-z_]\w*$`)
	reIdentPrefix = regexp.MustCompile(`(?i)^[a-z_]\w*`)
	reIntent      = regexp.MustCompile(`(?i)^intent\s*\(\s*(in|out|inout|in\s+out)\s*\)$`)
	reDimension   = regexp.MustCompile(`(?i)^dimension\s*(\(.*\))$`)
	reSelectorKV  = regexp.MustCompile(`(?i)^(kind|len)\s*=\s*(.*)$`)
)

// parseDeclaration parses a type declaration statement into one VarDecl per entity:
//
//	type-spec [, attr]... :: entity [, entity]...
//	type-spec entity [, entity]...
func parseDeclaration(text string) ([]*ir.VarDecl, *declError) {
	s := strings.TrimSpace(text)
	m := reTypeKeyword.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, malformedDecl(s, "not a type declaration")
	}
	var ts ir.TypeSpec
	switch kw := strings.ToLower(strings.Join(strings.Fields(s[m[2]:m[3]]), "")); kw {
	case "integer":
		ts.Type = ir.TypeInteger
	case "real":
		ts.Type = ir.TypeReal
	case "doubleprecision":
		ts.Type = ir.TypeDoublePrecision
	case "complex":
		ts.Type = ir.TypeComplex
	case "logical":
		ts.Type = ir.TypeLogical
	case "character":
		ts.Type = ir.TypeCharacter
	case "type":
		ts.Type = ir.TypeDerived
	}
	rest := s[m[1]:]

	// Type selector.
	switch {
	case strings.HasPrefix(rest, "*"):
		end := strings.IndexAny(rest[1:], " \t,:")
		if end < 0 {
			end = len(rest) - 1
		}
		return nil, unsupportedDecl(s[:m[1]]+rest[:end+1], "nonstandard *N type length")
	case strings.HasPrefix(rest, "("):
		sel, after, ok := cutParens(rest)
		if !ok {
			return nil, malformedDecl(s, "unbalanced parentheses in type selector")
		}
		if derr := parseSelector(&ts, sel); derr != nil {
			return nil, derr
		}
		rest = strings.TrimSpace(after)
	case ts.Type == ir.TypeDerived:
		return nil, malformedDecl(s, "TYPE declaration without type name")
	}

	var attrs []string
	entities := rest
	if i := indexTopLevel(rest, "::"); i >= 0 {
		head := strings.TrimSpace(rest[:i])
		entities = rest[i+2:]
		if head != "" {
			if head[0] != ',' {
				return nil, malformedDecl(s, "expected ',' before attribute list")
			}
			attrs = splitTopLevel(head[1:])
		}
	} else if strings.HasPrefix(rest, ",") {
		return nil, malformedDecl(s, "attributes require '::'")
	}

	proto := ir.VarDecl{TypeSpec: ts}
	var dims []int
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		low := strings.ToLower(a)
		switch {
		case reIntent.MatchString(a):
			switch strings.Join(strings.Fields(strings.ToLower(reIntent.FindStringSubmatch(a)[1])), "") {
			case "in":
				proto.Intent = ir.IntentIn
			case "out":
				proto.Intent = ir.IntentOut
			default:
				proto.Intent = ir.IntentInOut
			}
		case low == "optional":
			proto.Optional = true
		case low == "allocatable":
			proto.Allocatable = true
		case low == "pointer":
			proto.Pointer = true
		case low == "save":
			proto.Save = true
		case low == "parameter":
			proto.Parameter = true
		case reDimension.MatchString(a):
			d, derr := parseDims(reDimension.FindStringSubmatch(a)[1])
			if derr != nil {
				derr.construct = a
				return nil, derr
			}
			dims = d
		case strings.HasPrefix(low, "intent"):
			return nil, malformedDecl(a, "invalid INTENT")
		default:
			return nil, unsupportedDecl(a, "declaration attribute")
		}
	}

	var decls []*ir.VarDecl
	for _, ent := range splitTopLevel(entities) {
		ent = strings.TrimSpace(ent)
		name := reIdentPrefix.FindString(ent)
		if name == "" {
			return nil, malformedDecl(ent, "invalid entity declaration")
		}
		d := proto
		d.Name = name
		d.Dims = dims
		tail := strings.TrimSpace(ent[len(name):])
		if strings.HasPrefix(tail, "(") {
			inner, after, ok := cutParens(tail)
			if !ok {
				return nil, malformedDecl(ent, "unbalanced array specification")
			}
			ed, derr := parseDims("(" + inner + ")")
			if derr != nil {
				derr.construct = ent
				return nil, derr
			}
			d.Dims = ed
			tail = strings.TrimSpace(after)
		}
		switch {
		case tail == "":
		case strings.HasPrefix(tail, "*"):
			return nil, unsupportedDecl(ent, "nonstandard *N entity length")
		case strings.HasPrefix(tail, "=>"):
			return nil, unsupportedDecl(ent, "pointer initialization")
		case strings.HasPrefix(tail, "="):
			d.Init = strings.TrimSpace(tail[1:])
			if d.Init == "" {
				return nil, malformedDecl(ent, "missing initializer")
			}
		default:
			return nil, malformedDecl(ent, "invalid entity declaration")
		}
		decls = append(decls, &d)
	}
	if len(decls) == 0 {
		return nil, malformedDecl(s, "declaration has no entities")
	}
	return decls, nil
}

// parseSelector fills kind and length from the contents of a type selector.
func parseSelector(ts *ir.TypeSpec, sel string) *declError {
	if ts.Type == ir.TypeDerived {
		name := strings.TrimSpace(sel)
		if !reIdent.MatchString(name) {
			return malformedDecl(sel, "invalid derived type name")
		}
		ts.TypeName = name
		return nil
	}
	if ts.Type == ir.TypeDoublePrecision {
		return malformedDecl(sel, "DOUBLE PRECISION takes no kind selector")
	}
	for i, item := range splitTopLevel(sel) {
		item = strings.TrimSpace(item)
		key := "kind"
		if ts.Type == ir.TypeCharacter && i == 0 {
			key = "len"
		}
		if kv := reSelectorKV.FindStringSubmatch(item); kv != nil {
			key, item = strings.ToLower(kv[1]), strings.TrimSpace(kv[2])
		}
		switch key {
		case "len":
			if ts.Type != ir.TypeCharacter {
				return malformedDecl(item, "LEN selector on non-character type")
			}
			if item == "*" || item == ":" {
				return unsupportedDecl("len="+item, "assumed or deferred character length")
			}
			n, err := parseLiteral(item)
			if err != nil || n < 1 {
				return unsupportedDecl("len="+item, "non-literal or non-positive character length")
			}
			ts.CharLen = n
		case "kind":
			n, err := parseLiteral(item)
			if err != nil {
				return unsupportedDecl("kind="+item, "non-literal kind")
			}
			if n < 1 {
				return malformedDecl("kind="+item, "kind must be positive")
			}
			ts.Kind = n
		}
	}
	return nil
}

// parseDims parses a parenthesized extent list. Only literal extents are supported.
func parseDims(paren string) ([]int, *declError) {
	inner, after, ok := cutParens(paren)
	if !ok || strings.TrimSpace(after) != "" {
		return nil, malformedDecl(paren, "unbalanced array specification")
	}
	var dims []int
	for _, e := range splitTopLevel(inner) {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
			return nil, malformedDecl(paren, "empty extent")
		case e == ":":
			return nil, unsupportedDecl(paren, "assumed or deferred shape array")
		case e == "*" || strings.HasSuffix(e, ":*"):
			return nil, unsupportedDecl(paren, "assumed size array")
		case strings.Contains(e, ":"):
			return nil, unsupportedDecl(paren, "explicit lower bound")
		}
		n, err := parseLiteral(e)
		if err != nil {
			return nil, unsupportedDecl(paren, "non-literal array extent")
		}
		if n < 0 {
			return nil, malformedDecl(paren, "negative array extent")
		}
		dims = append(dims, n)
	}
	return dims, nil
}

// parseLiteral parses a decimal integer literal that fits a Go int.
func parseLiteral(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[int](v)
}

// cutParens expects s to start with '(' and returns the text inside the
// matching ')' and the text after it.
func cutParens(s string) (inner, after string, ok bool) {
	if !strings.HasPrefix(s, "(") {
		return "", s, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], true
			}
		}
	}
	return "", s, false
}

// splitTopLevel splits s on commas outside parentheses and character literals.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	return parts
}

// indexTopLevel returns the index of sep outside parentheses and character literals, or -1.
func indexTopLevel(s, sep string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			continue
		case c == '\'' || c == '"':
			quote = c
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return i
		}
	}
	return -1
}
