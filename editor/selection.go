package editor

import "github.com/loomtext/loom/textlayout"

// Selection represents a text selection in document coordinates. Anchor is
// where the selection started, Cursor is where it currently extends to; the
// two may be in either order.
type Selection struct {
	Anchor, Cursor textlayout.Cursor
}

// Active reports whether the selection covers a non-empty range.
func (s *Selection) Active() bool {
	return s.Anchor != s.Cursor
}

// Ordered returns the selection bounds in document order (start, end).
func (s *Selection) Ordered() (start, end textlayout.Cursor) {
	if s.Anchor.Compare(s.Cursor) <= 0 {
		return s.Anchor, s.Cursor
	}
	return s.Cursor, s.Anchor
}

// Contains reports whether a position falls inside the selection,
// start inclusive, end exclusive.
func (s *Selection) Contains(c textlayout.Cursor) bool {
	start, end := s.Ordered()
	return start.Compare(c) <= 0 && c.Compare(end) < 0
}

// Text extracts the selected text from the buffer.
func (s *Selection) Text(b *Buffer) string {
	start, end := s.Ordered()
	lo := b.CursorToOffset(start)
	hi := b.CursorToOffset(end)
	if lo >= hi {
		return ""
	}
	return b.Text()[lo:hi]
}

// ByteRange returns the selection as a byte range into the buffer text.
func (s *Selection) ByteRange(b *Buffer) Range {
	start, end := s.Ordered()
	return Range{Start: b.CursorToOffset(start), End: b.CursorToOffset(end)}
}

// Clear collapses the selection so that Anchor equals Cursor.
func (s *Selection) Clear() {
	s.Anchor = s.Cursor
}

// SelectAll expands the selection to cover the whole buffer.
func (s *Selection) SelectAll(b *Buffer) {
	s.Anchor = textlayout.Cursor{}
	last := b.LineCount() - 1
	text, _ := b.Line(last)
	col := 0
	for range text {
		col++
	}
	s.Cursor = textlayout.Cursor{Line: last, Column: col}
}
