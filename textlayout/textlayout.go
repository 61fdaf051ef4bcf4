package textlayout

import "fmt"

// TextLayout is a lightweight view onto one view line of a LineLayout: the
// unit that rendering, coordinate translation and cursor hit-testing operate
// on. Instances are cheap and disposable; the renderer constructs them fresh
// each query cycle and never holds them across an edit.
//
// A TextLayout does not own its LineLayout. Every query first checks
// validity and an invalid instance answers with the type's neutral default
// (0, false, InvalidCursor) rather than an error: asking about a view line
// that no longer exists is expected, frequent, benign input.
type TextLayout struct {
	owner    *LineLayout
	viewLine int

	// startX is computed lazily on first access and cached; -1 means not yet
	// computed. Only view lines > 0 need the computation, the first run of a
	// line always starts at 0. Single-threaded access assumed.
	startX int
}

// NewTextLayout returns the view onto the given view line of owner.
// Passing a nil owner or an out-of-range index yields an invalid instance.
func NewTextLayout(owner *LineLayout, viewLine int) *TextLayout {
	t := &TextLayout{owner: owner, viewLine: viewLine}
	if viewLine > 0 {
		t.startX = -1
	}
	return t
}

// Invalid returns the canonical invalid sentinel.
func Invalid() *TextLayout {
	return &TextLayout{}
}

// IsValid reports whether the owning LineLayout is alive and the view line
// index is within its run count.
func (t *TextLayout) IsValid() bool {
	return t != nil && t.owner.IsValid() && t.viewLine >= 0 && t.viewLine < t.owner.ViewLineCount()
}

// IsDirty reports whether this view line needs re-shaping, true when invalid.
func (t *TextLayout) IsDirty() bool {
	if !t.IsValid() {
		return true
	}
	return t.owner.IsDirty(t.viewLine)
}

// SetDirty updates the dirty state of this view line on the owning layout and
// returns the previous value. A no-op reporting dirty when invalid.
func (t *TextLayout) SetDirty(dirty bool) bool {
	if !t.IsValid() {
		return true
	}
	return t.owner.SetDirty(t.viewLine, dirty)
}

// Line returns the logical line index, -1 when invalid.
func (t *TextLayout) Line() int {
	if !t.IsValid() {
		return -1
	}
	return t.owner.Line()
}

// VirtualLine returns the post-folding line index, -1 when invalid.
func (t *TextLayout) VirtualLine() int {
	if !t.IsValid() {
		return -1
	}
	return t.owner.VirtualLine()
}

// ViewLine returns this instance's view line index, 0 when invalid.
func (t *TextLayout) ViewLine() int {
	if !t.IsValid() {
		return 0
	}
	return t.viewLine
}

// LineLayout returns the owning layout, nil for the invalid sentinel.
func (t *TextLayout) LineLayout() *LineLayout {
	if t == nil {
		return nil
	}
	return t.owner
}

func (t *TextLayout) run() Run {
	r, _ := t.owner.RunAt(t.viewLine)
	return r
}

// StartCol returns the first rune column of this view line within the
// logical line.
func (t *TextLayout) StartCol() int {
	if !t.IsValid() {
		return 0
	}
	return t.run().StartCol()
}

// EndCol returns one past the last rune column of this view line.
func (t *TextLayout) EndCol() int {
	if !t.IsValid() {
		return 0
	}
	r := t.run()
	return r.StartCol() + r.Length()
}

// Start returns the cursor position at the beginning of this view line.
func (t *TextLayout) Start() Cursor {
	if !t.IsValid() {
		return InvalidCursor
	}
	return Cursor{Line: t.Line(), Column: t.StartCol()}
}

// End returns the cursor position one past the end of this view line.
func (t *TextLayout) End() Cursor {
	if !t.IsValid() {
		return InvalidCursor
	}
	return Cursor{Line: t.Line(), Column: t.EndCol()}
}

// Length returns the run text length in runes.
func (t *TextLayout) Length() int {
	if !t.IsValid() {
		return 0
	}
	return t.run().Length()
}

// Text returns the run text.
func (t *TextLayout) Text() string {
	if !t.IsValid() {
		return ""
	}
	return t.run().Text()
}

// IsEmpty reports a degenerate view line covering no columns.
func (t *TextLayout) IsEmpty() bool {
	if !t.IsValid() {
		return true
	}
	return t.StartCol() == 0 && t.EndCol() == 0
}

// Wrap reports whether the line continues visually after this view line,
// i.e. this is not the last run of the owning line.
func (t *TextLayout) Wrap() bool {
	if !t.IsValid() {
		return false
	}
	return t.viewLine < t.owner.ViewLineCount()-1
}

// StartX returns the horizontal cell position where this view line begins:
// the cumulative natural width of all prior runs of the same logical line,
// shifted by the owner's wrap indent for every run after the first. The
// result is computed on first access and cached for the lifetime of the
// instance; later changes to the owner do not update it.
func (t *TextLayout) StartX() int {
	if !t.IsValid() {
		return 0
	}
	if t.startX == -1 {
		// viewLine is > 0 here, the first run is pinned to 0 at construction.
		x := t.owner.ShiftX()
		for i := 0; i < t.viewLine; i++ {
			r, _ := t.owner.RunAt(i)
			x += r.Width()
		}
		t.startX = x
	}
	return t.startX
}

// EndX returns the horizontal cell position one past the end of this view
// line.
func (t *TextLayout) EndX() int {
	if !t.IsValid() {
		return 0
	}
	return t.StartX() + t.run().Width()
}

// Width returns the natural (unclamped) cell width of this view line.
func (t *TextLayout) Width() int {
	if !t.IsValid() {
		return 0
	}
	return t.run().Width()
}

// XOffset returns the owner's wrap indent when this view line is rendered
// shifted, 0 otherwise. Renderers use it to separate the indent from the
// absolute start position that StartX reports.
func (t *TextLayout) XOffset() int {
	if !t.IsValid() {
		return 0
	}
	if t.StartX() != 0 {
		return t.owner.ShiftX()
	}
	return 0
}

// IncludesCursor reports whether c falls on this view line. The end column
// is exclusive only when the line wraps here; on the final view line the
// caret may rest at true end of line, so the end column is included.
func (t *TextLayout) IncludesCursor(c Cursor) bool {
	if !t.IsValid() {
		return false
	}
	return c.Line == t.Line() && c.Column >= t.StartCol() && (!t.Wrap() || c.Column < t.EndCol())
}

// Less reports whether this view line orders strictly before c,
// lexicographically by (line, start column). Together with Greater it lets
// the view binary-search which view line a cursor falls into.
func (t *TextLayout) Less(c Cursor) bool {
	if !t.IsValid() {
		return false
	}
	return t.Line() < c.Line || (t.Line() == c.Line && t.StartCol() < c.Column)
}

// LessEqual reports whether this view line starts at or before c.
func (t *TextLayout) LessEqual(c Cursor) bool {
	if !t.IsValid() {
		return false
	}
	return t.Line() < c.Line || (t.Line() == c.Line && t.StartCol() <= c.Column)
}

// Greater reports whether this view line orders strictly after c,
// lexicographically by (line, end column).
func (t *TextLayout) Greater(c Cursor) bool {
	if !t.IsValid() {
		return false
	}
	return t.Line() > c.Line || (t.Line() == c.Line && t.EndCol() > c.Column)
}

// GreaterEqual reports whether this view line ends at or after c.
func (t *TextLayout) GreaterEqual(c Cursor) bool {
	if !t.IsValid() {
		return false
	}
	return t.Line() > c.Line || (t.Line() == c.Line && t.EndCol() >= c.Column)
}

// String formats the layout for debug logging.
func (t *TextLayout) String() string {
	if !t.IsValid() {
		return "TextLayout(invalid)"
	}
	return fmt.Sprintf("TextLayout(line %d view %d cols [%d,%d) x [%d,%d) shift %d wrap %v)",
		t.Line(), t.viewLine, t.StartCol(), t.EndCol(), t.StartX(), t.EndX(), t.owner.ShiftX(), t.Wrap())
}
