package textlayout

import (
	"github.com/rivo/uniseg"
)

// Viewport maps between document positions and screen cells for a window of
// view lines. Row 0 is the first visible view line; x coordinates are
// absolute cells within the text area, including the wrap indent of
// continuation rows. The viewport holds no layouts of its own, every query
// goes through the cache.
type Viewport struct {
	cache  *LayoutCache
	height int

	topLine int // logical line of the first visible view line
	topView int // view line index within topLine
}

// NewViewport creates a viewport of the given height over cache.
func NewViewport(cache *LayoutCache, height int) *Viewport {
	return &Viewport{cache: cache, height: height}
}

// SetHeight resizes the viewport.
func (v *Viewport) SetHeight(h int) {
	if h < 0 {
		h = 0
	}
	v.height = h
}

// Height returns the viewport height in view lines.
func (v *Viewport) Height() int { return v.height }

// Top returns the logical line and view line of the first visible row.
func (v *Viewport) Top() (line, viewLine int) {
	return v.topLine, v.topView
}

// nextVisibleLine returns the first non-hidden line at or after line, or -1.
func (v *Viewport) nextVisibleLine(line int) int {
	for ; line < v.cache.doc.LineCount(); line++ {
		if !v.cache.LineHidden(line) {
			return line
		}
	}
	return -1
}

// prevVisibleLine returns the first non-hidden line at or before line, or -1.
func (v *Viewport) prevVisibleLine(line int) int {
	for ; line >= 0; line-- {
		if !v.cache.LineHidden(line) {
			return line
		}
	}
	return -1
}

// Row returns the view line rendered at the given row, or the invalid
// sentinel past end of document.
func (v *Viewport) Row(row int) *TextLayout {
	if row < 0 {
		return Invalid()
	}
	line := v.nextVisibleLine(v.topLine)
	view := v.topView
	for line >= 0 {
		count := v.cache.ViewLineCount(line)
		if view+row < count {
			return v.cache.TextLayoutAt(line, view+row)
		}
		row -= count - view
		view = 0
		line = v.nextVisibleLine(line + 1)
	}
	return Invalid()
}

// VisibleRows returns the view lines currently on screen, topmost first.
// The slice is shorter than the viewport height at end of document.
func (v *Viewport) VisibleRows() []*TextLayout {
	rows := make([]*TextLayout, 0, v.height)
	for i := 0; i < v.height; i++ {
		t := v.Row(i)
		if !t.IsValid() {
			break
		}
		rows = append(rows, t)
	}
	return rows
}

// RowOfCursor returns the on-screen row containing the cursor, or -1 when
// the cursor is scrolled out or does not resolve.
func (v *Viewport) RowOfCursor(cur Cursor) int {
	target := v.cache.TextLayoutForCursor(cur)
	if !target.IsValid() || v.cache.LineHidden(target.Line()) {
		return -1
	}
	row := 0
	line := v.nextVisibleLine(v.topLine)
	view := v.topView
	for line >= 0 && row < v.height {
		count := v.cache.ViewLineCount(line)
		for ; view < count && row < v.height; view++ {
			if line == target.Line() && view == target.ViewLine() {
				return row
			}
			row++
		}
		view = 0
		line = v.nextVisibleLine(line + 1)
	}
	return -1
}

// CursorToPoint converts a cursor to (x, row) screen cells. The x result
// includes the wrap indent of continuation rows. ok is false when the cursor
// is off screen or invalid.
func (v *Viewport) CursorToPoint(cur Cursor) (x, row int, ok bool) {
	row = v.RowOfCursor(cur)
	if row < 0 {
		return 0, 0, false
	}
	t := v.cache.TextLayoutForCursor(cur)
	return v.cellOffset(t, cur.Column), row, true
}

// PointToCursor converts screen cells back to the nearest cursor position.
// An x inside the wrap indent snaps to the row's first column; an x past the
// end of the row snaps to its last position. ok is false past end of
// document.
func (v *Viewport) PointToCursor(x, row int) (Cursor, bool) {
	t := v.Row(row)
	if !t.IsValid() {
		return InvalidCursor, false
	}
	return v.columnForCell(t, x), true
}

// ScrollBy moves the viewport by delta view lines, positive meaning down.
// Scrolling clamps at the document edges.
func (v *Viewport) ScrollBy(delta int) {
	for delta > 0 {
		line := v.nextVisibleLine(v.topLine)
		if line < 0 {
			return
		}
		v.topLine = line
		if v.topView+1 < v.cache.ViewLineCount(line) {
			v.topView++
		} else {
			next := v.nextVisibleLine(line + 1)
			if next < 0 {
				return
			}
			v.topLine, v.topView = next, 0
		}
		delta--
	}
	for delta < 0 {
		if v.topView > 0 {
			v.topView--
		} else {
			prev := v.prevVisibleLine(v.topLine - 1)
			if prev < 0 {
				v.topView = 0
				return
			}
			v.topLine = prev
			v.topView = v.cache.ViewLineCount(prev) - 1
		}
		delta++
	}
}

// ScrollToCursor scrolls the minimal amount needed to bring the cursor on
// screen. It is a no-op when the cursor is already visible or invalid.
func (v *Viewport) ScrollToCursor(cur Cursor) {
	if v.RowOfCursor(cur) >= 0 {
		return
	}
	t := v.cache.TextLayoutForCursor(cur)
	if !t.IsValid() {
		return
	}
	if cur.Line < v.topLine || (cur.Line == v.topLine && t.ViewLine() < v.topView) {
		v.topLine = cur.Line
		v.topView = t.ViewLine()
		return
	}
	// Below the window: place the cursor on the last row.
	v.topLine = cur.Line
	v.topView = t.ViewLine()
	v.ScrollBy(-(v.height - 1))
}

// cellOffset returns the absolute x of a column within its view line,
// including the continuation indent. Measurement uses the cache's tab width
// so positions agree with Run.Width.
func (v *Viewport) cellOffset(t *TextLayout, col int) int {
	if !t.IsValid() {
		return 0
	}
	tabWidth := v.cache.wrapper.TabWidth
	x := t.XOffset()
	text := t.Text()
	c := t.StartCol()
	state := -1
	for len(text) > 0 && c < col {
		var cluster string
		cluster, text, _, state = uniseg.StepString(text, state)
		x += MeasureText(cluster, tabWidth)
		c += runeLen(cluster)
	}
	return x
}

// columnForCell returns the column whose cell span contains x on this view
// line, snapping to the row edges when x falls outside the text.
func (v *Viewport) columnForCell(t *TextLayout, x int) Cursor {
	if !t.IsValid() {
		return InvalidCursor
	}
	tabWidth := v.cache.wrapper.TabWidth
	pos := t.XOffset()
	col := t.StartCol()
	text := t.Text()
	state := -1
	for len(text) > 0 {
		var cluster string
		cluster, text, _, state = uniseg.StepString(text, state)
		w := MeasureText(cluster, tabWidth)
		if x < pos+w {
			return Cursor{Line: t.Line(), Column: col}
		}
		pos += w
		col += runeLen(cluster)
	}
	return Cursor{Line: t.Line(), Column: col}
}
