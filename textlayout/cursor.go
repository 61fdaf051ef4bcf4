package textlayout

// Cursor is a position in logical document coordinates: a line index and a
// rune column within that line. The zero value is the start of the document.
type Cursor struct {
	Line   int
	Column int
}

// InvalidCursor is the sentinel returned by queries that cannot produce a
// meaningful position.
var InvalidCursor = Cursor{Line: -1, Column: -1}

// IsValid reports whether the cursor refers to a real document position.
func (c Cursor) IsValid() bool {
	return c.Line >= 0 && c.Column >= 0
}

// Compare orders two cursors lexicographically by (line, column).
// It returns -1, 0, or +1.
func (c Cursor) Compare(o Cursor) int {
	switch {
	case c.Line < o.Line:
		return -1
	case c.Line > o.Line:
		return 1
	case c.Column < o.Column:
		return -1
	case c.Column > o.Column:
		return 1
	default:
		return 0
	}
}

// Before reports whether c orders strictly before o.
func (c Cursor) Before(o Cursor) bool {
	return c.Compare(o) < 0
}

// After reports whether c orders strictly after o.
func (c Cursor) After(o Cursor) bool {
	return c.Compare(o) > 0
}
