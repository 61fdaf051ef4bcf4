package quickopen

import (
	"strconv"
	"strings"
)

// Target is a parsed quick-open query: an optional path query plus an
// optional 1-based line number. Line is 0 when the query names no line.
type Target struct {
	Query string
	Line  int
}

// HasLine reports whether the target carries a line number.
func (t Target) HasLine() bool { return t.Line > 0 }

// ParseTarget splits a quick-open input into a path query and a trailing
// line number:
//
//	"buffer"      -> query "buffer"
//	"buffer:42"   -> query "buffer", line 42
//	":42"         -> line 42 only (jump within the current file)
//
// A trailing ":nonsense" is treated as part of the query, not a line.
func ParseTarget(input string) Target {
	input = strings.TrimSpace(input)
	i := strings.LastIndexByte(input, ':')
	if i < 0 {
		return Target{Query: input}
	}
	n, err := strconv.Atoi(input[i+1:])
	if err != nil || n <= 0 {
		return Target{Query: input}
	}
	return Target{Query: input[:i], Line: n}
}
