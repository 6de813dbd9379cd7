package fortran

import (
	"regexp"
	"strings"

	"github.com/soypat/fort2go/token"
)

// Line patterns. Each is anchored at the first non-blank character and
// matched case-insensitively against a logical line.
var (
	reModule     = regexp.MustCompile(`(?i)^module\s+([a-z_]\w*)\s*$`)
	reProgram    = regexp.MustCompile(`(?i)^program\s+([a-z_]\w*)\s*$`)
	reSubroutine = regexp.MustCompile(`(?i)^((?:(?:recursive|pure|elemental|impure)\s+)*)subroutine\s+([a-z_]\w*)\s*(?:\(([^)]*)\))?\s*(.*)$`)
	reFunction   = regexp.MustCompile(`(?i)^(.*?)\bfunction\s+([a-z_]\w*)\s*\(([^)]*)\)\s*(.*)$`)
	reFuncPrefix = regexp.MustCompile(`(?i)^(?:(?:recursive|pure|elemental|impure)\s+|(?:integer|real|logical|character|complex|double\s*precision)\s*(?:\([^)]*\))?\s+|type\s*\(\s*\w+\s*\)\s*)*$`)
	reEnd        = regexp.MustCompile(`(?i)^end\s*(module|program|subroutine|function|type)(?:\s+([a-z_]\w*))?\s*$`)
	reBareEnd    = regexp.MustCompile(`(?i)^end\s*$`)
	reTypeDef    = regexp.MustCompile(`(?i)^type\s*(?:,\s*([^:]*?)\s*)?(?:::)?\s*([a-z_]\w*)\s*$`)
	reUse        = regexp.MustCompile(`(?i)^use(?:\s*,\s*(\w+))?\s*(?:::)?\s*\b([a-z_]\w*)\s*(?:,\s*(.*))?$`)
	reImplicit   = regexp.MustCompile(`(?i)^implicit\b\s*(.*)$`)
	reContains   = regexp.MustCompile(`(?i)^contains\s*$`)
	reDeclStart  = regexp.MustCompile(`(?i)^(?:integer|real|double\s*precision|complex|logical|character)\b(?:\s*\*\s*\d+|\s*\([^)]*\))?\s*(?:,.*::|::|[a-z_])|^type\s*\(\s*\w+\s*\)`)
)

// unsupported lists statements outside the supported subset, with the
// reason reported when one is found.
var unsupported = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)^go\s*to\b`), "control transfer statement"},
	{regexp.MustCompile(`^\d+\s+\S`), "statement label"},
	{regexp.MustCompile(`(?i)^(?:assign\s+\d+\s+to\b|pause(?:\s+\S.*)?$)`), "legacy control statement"},
	{regexp.MustCompile(`(?i)^(?:error\s+)?stop\b\s*(?:\d+|'[^']*'|"[^"]*")?\s*$`), "STOP statement"},
	{regexp.MustCompile(`(?i)^(?:cycle|exit)(?:\s+[a-z_]\w*)?\s*$`), "loop control statement"},
	{regexp.MustCompile(`(?i)^common\b\s*[/a-z_]`), "COMMON block (global state)"},
	{regexp.MustCompile(`(?i)^equivalence\s*\(`), "EQUIVALENCE (storage association)"},
	{regexp.MustCompile(`(?i)^data\s+[a-z_][^=]*/`), "DATA statement (static initialization)"},
	{regexp.MustCompile(`(?i)^block\s*data\b`), "BLOCK DATA unit"},
	{regexp.MustCompile(`(?i)^namelist\s*/`), "NAMELIST group"},
	{regexp.MustCompile(`(?i)^(?:save|public|private|protected)\s*(?:::.*|\s+[a-z_].*)?$`), "access or SAVE statement"},
	{regexp.MustCompile(`(?i)^(?:external|intrinsic)\s*(?:::|\s+[a-z_])`), "EXTERNAL/INTRINSIC statement"},
	{regexp.MustCompile(`(?i)^format\s*\(`), "FORMAT statement"},
	{regexp.MustCompile(`(?i)^(?:read|write)\s*\(|^read\s*(?:\*|\d)`), "formatted I/O statement"},
	{regexp.MustCompile(`(?i)^print\s*(?:\*|\d|'|")`), "formatted I/O statement"},
	{regexp.MustCompile(`(?i)^(?:open|close|inquire|rewind|backspace)\s*\(`), "file I/O statement"},
	{regexp.MustCompile(`(?i)^include\s*['"]`), "INCLUDE line"},
	{regexp.MustCompile(`(?i)^entry\s+[a-z_]`), "ENTRY statement"},
	{regexp.MustCompile(`(?i)^(?:abstract\s+)?interface\b(?:\s+[a-z_]\w*)?\s*$|^end\s*interface\b`), "INTERFACE block"},
	{regexp.MustCompile(`(?i)^module\s+procedure\b`), "MODULE PROCEDURE statement"},
	{regexp.MustCompile(`(?i)^(?:de)?allocate\s*\(|^nullify\s*\(`), "dynamic allocation statement"},
	{regexp.MustCompile(`(?i)^(?:where|forall)\s*\(|^end\s*(?:where|forall)\b`), "masked array assignment"},
}

// lineInfo is the classification of a logical line along with the
// submatches of the recognizing pattern.
type lineInfo struct {
	kind   token.Line
	sub    []string
	reason string // Set for token.Unsupported.
}

// Classify returns the kind of a logical line, comment and continuations
// already processed. The result depends on the line alone.
func Classify(text string) token.Line {
	return classify(text).kind
}

func classify(text string) lineInfo {
	s := strings.TrimSpace(text)
	if s == "" {
		return lineInfo{kind: token.Blank}
	}
	if s[0] == '#' {
		return lineInfo{kind: token.Preprocessor}
	}
	for _, u := range unsupported {
		if u.re.MatchString(s) {
			return lineInfo{kind: token.Unsupported, reason: u.reason}
		}
	}
	if m := reEnd.FindStringSubmatch(s); m != nil {
		var kind token.Line
		switch strings.ToLower(m[1]) {
		case "module":
			kind = token.ModuleEnd
		case "program":
			kind = token.ProgramEnd
		case "subroutine":
			kind = token.SubroutineEnd
		case "function":
			kind = token.FunctionEnd
		case "type":
			kind = token.TypeEnd
		}
		return lineInfo{kind: kind, sub: m}
	}
	if reBareEnd.MatchString(s) {
		return lineInfo{kind: token.End}
	}
	if m := reModule.FindStringSubmatch(s); m != nil {
		return lineInfo{kind: token.ModuleStart, sub: m}
	}
	if m := reProgram.FindStringSubmatch(s); m != nil {
		return lineInfo{kind: token.ProgramStart, sub: m}
	}
	if m := reSubroutine.FindStringSubmatch(s); m != nil {
		return lineInfo{kind: token.SubroutineStart, sub: m}
	}
	if m := reFunction.FindStringSubmatch(s); m != nil && reFuncPrefix.MatchString(m[1]) {
		return lineInfo{kind: token.FunctionStart, sub: m}
	}
	if m := reTypeDef.FindStringSubmatch(s); m != nil {
		return lineInfo{kind: token.TypeStart, sub: m}
	}
	if reDeclStart.MatchString(s) {
		return lineInfo{kind: token.Declaration}
	}
	if m := reUse.FindStringSubmatch(s); m != nil && isUseKeyword(s) {
		return lineInfo{kind: token.Use, sub: m}
	}
	if m := reImplicit.FindStringSubmatch(s); m != nil {
		if strings.EqualFold(strings.TrimSpace(m[1]), "none") {
			return lineInfo{kind: token.ImplicitNone}
		}
		return lineInfo{kind: token.Implicit, sub: m}
	}
	if reContains.MatchString(s) {
		return lineInfo{kind: token.Contains}
	}
	return lineInfo{kind: token.Other}
}

// isUseKeyword rejects body text such as "useful = 1" that starts with the letters "use".
func isUseKeyword(s string) bool {
	if len(s) <= 3 {
		return false
	}
	switch s[3] {
	case ' ', '\t', ',', ':':
		return true
	}
	return false
}
