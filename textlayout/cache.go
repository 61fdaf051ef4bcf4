package textlayout

// Document supplies raw line content to the layout cache. The cache never
// mutates text; editor.Buffer satisfies this.
type Document interface {
	// Line returns the text of the logical line, without its trailing
	// newline, and whether the line exists.
	Line(i int) (string, bool)

	// LineCount returns the number of logical lines in the document.
	LineCount() int
}

// FoldView maps logical lines through the current fold state. The zero
// mapping (no folds) is assumed when none is set.
type FoldView interface {
	// VirtualLine returns the post-folding index of a logical line.
	VirtualLine(line int) int

	// LineHidden reports whether the line is inside a collapsed region.
	LineHidden(line int) bool
}

// DefaultCacheCapacity bounds the number of LineLayouts kept alive. A few
// screens worth of lines is plenty; everything else is recomputed on demand.
const DefaultCacheCapacity = 256

// LayoutCache owns the LineLayout instances for a document. It realizes
// layouts lazily on first request, re-wraps dirty lines before handing them
// out, and invalidates evicted layouts in place so TextLayouts acquired
// before an edit degrade instead of reading stale geometry.
type LayoutCache struct {
	doc      Document
	wrapper  Wrapper
	folds    FoldView
	lines    map[int]*LineLayout
	capacity int
	lastReq  int
}

// NewLayoutCache creates a cache over doc using the given wrapper.
func NewLayoutCache(doc Document, wrapper Wrapper) *LayoutCache {
	return &LayoutCache{
		doc:      doc,
		wrapper:  wrapper,
		lines:    make(map[int]*LineLayout),
		capacity: DefaultCacheCapacity,
	}
}

// SetWrapper replaces the wrap parameters (width, tab width, indent cap) and
// marks every cached line for re-wrap.
func (c *LayoutCache) SetWrapper(w Wrapper) {
	if c.wrapper == w {
		return
	}
	c.wrapper = w
	for _, l := range c.lines {
		l.MarkAllDirty()
	}
}

// Wrapper returns the active wrap parameters.
func (c *LayoutCache) Wrapper() Wrapper {
	return c.wrapper
}

// SetFoldView installs the fold mapping and refreshes the virtual line of
// every cached layout. Passing nil reverts to the identity mapping.
func (c *LayoutCache) SetFoldView(fv FoldView) {
	c.folds = fv
	for line, l := range c.lines {
		l.SetVirtualLine(c.virtualLine(line))
	}
}

func (c *LayoutCache) virtualLine(line int) int {
	if c.folds == nil {
		return line
	}
	return c.folds.VirtualLine(line)
}

// LineHidden reports whether a logical line is folded away.
func (c *LayoutCache) LineHidden(line int) bool {
	return c.folds != nil && c.folds.LineHidden(line)
}

// LineLayoutFor returns the realized layout for a logical line, wrapping its
// text on first request or when the line is dirty. A line outside the
// document yields an invalid layout.
func (c *LayoutCache) LineLayoutFor(line int) *LineLayout {
	text, ok := c.doc.Line(line)
	if !ok {
		return NewLineLayout(-1, -1)
	}
	c.lastReq = line

	l := c.lines[line]
	if l == nil {
		c.evictIfFull()
		l = NewLineLayout(line, c.virtualLine(line))
		c.lines[line] = l
	}
	if !l.IsValid() || l.IsDirty(0) {
		runs, shiftX := c.wrapper.Layout(text)
		l.SetRuns(runs, shiftX)
		l.SetVirtualLine(c.virtualLine(line))
	}
	return l
}

// TextLayoutAt returns the view onto one view line of a logical line, or the
// invalid sentinel when either index does not resolve.
func (c *LayoutCache) TextLayoutAt(line, viewLine int) *TextLayout {
	l := c.LineLayoutFor(line)
	if !l.IsValid() || viewLine < 0 || viewLine >= l.ViewLineCount() {
		return Invalid()
	}
	return NewTextLayout(l, viewLine)
}

// TextLayoutForCursor returns the view line containing the cursor, or the
// invalid sentinel when the cursor does not resolve to one.
func (c *LayoutCache) TextLayoutForCursor(cur Cursor) *TextLayout {
	if !cur.IsValid() {
		return Invalid()
	}
	l := c.LineLayoutFor(cur.Line)
	if !l.IsValid() {
		return Invalid()
	}
	t := NewTextLayout(l, l.ViewLineForColumn(cur.Column))
	if !t.IncludesCursor(cur) {
		return Invalid()
	}
	return t
}

// ViewLineCount returns the number of view lines a logical line occupies.
// Folded-away lines occupy none.
func (c *LayoutCache) ViewLineCount(line int) int {
	if c.LineHidden(line) {
		return 0
	}
	return c.LineLayoutFor(line).ViewLineCount()
}

// LineChanged marks one line's layout stale after an edit that did not add
// or remove lines.
func (c *LayoutCache) LineChanged(line int) {
	if l := c.lines[line]; l != nil {
		l.MarkAllDirty()
	}
}

// LinesShifted discards every cached layout at or below the first edited
// line. Insertions and removals renumber everything underneath, so the stale
// layouts are invalidated in place for the benefit of outstanding references
// and dropped from the cache.
func (c *LayoutCache) LinesShifted(fromLine int) {
	for line, l := range c.lines {
		if line >= fromLine {
			l.Invalidate()
			delete(c.lines, line)
		}
	}
}

// Evict drops one line from the cache, invalidating its layout in place.
func (c *LayoutCache) Evict(line int) {
	if l := c.lines[line]; l != nil {
		l.Invalidate()
		delete(c.lines, line)
	}
}

// Clear drops the whole cache, invalidating every layout in place.
func (c *LayoutCache) Clear() {
	for line, l := range c.lines {
		l.Invalidate()
		delete(c.lines, line)
	}
}

// Len returns the number of cached layouts.
func (c *LayoutCache) Len() int {
	return len(c.lines)
}

// evictIfFull drops the cached line farthest from the most recent request.
func (c *LayoutCache) evictIfFull() {
	if len(c.lines) < c.capacity {
		return
	}
	victim, worst := -1, -1
	for line := range c.lines {
		d := line - c.lastReq
		if d < 0 {
			d = -d
		}
		if d > worst {
			victim, worst = line, d
		}
	}
	if victim >= 0 {
		c.Evict(victim)
	}
}
