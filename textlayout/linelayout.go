package textlayout

// LineLayout owns the wrap decomposition of exactly one logical document line
// into one or more view lines. It caches the shaped runs for each view line,
// tracks a per-run dirty bit so the renderer can detect stale geometry, and
// records the horizontal shift applied to wrapped continuation segments.
//
// LineLayouts are owned by a LayoutCache; TextLayout instances hold a
// non-owning reference and check validity on every query. A LineLayout whose
// document line was removed is invalidated in place rather than freed, so
// stale references degrade to conservative defaults instead of crashing.
type LineLayout struct {
	line        int
	virtualLine int
	runs        []Run
	dirty       []bool
	shiftX      int
}

// NewLineLayout creates an empty layout for the given logical and virtual
// line. It has no runs until SetRuns is called and reports dirty until then.
func NewLineLayout(line, virtualLine int) *LineLayout {
	return &LineLayout{line: line, virtualLine: virtualLine}
}

// IsValid reports whether the layout still refers to a live document line and
// has a realized wrap decomposition.
func (l *LineLayout) IsValid() bool {
	return l != nil && l.line >= 0 && len(l.runs) > 0
}

// Invalidate marks the layout as referring to a removed line. All subsequent
// queries on it, and on any TextLayout holding it, degrade to defaults.
func (l *LineLayout) Invalidate() {
	if l == nil {
		return
	}
	l.line = -1
	l.virtualLine = -1
	l.runs = nil
	l.dirty = nil
	l.shiftX = 0
}

// SetRuns replaces the wrap decomposition and clears all dirty bits.
// A realized line always has at least one run; passing an empty slice leaves
// the layout unrealized (and therefore invalid).
func (l *LineLayout) SetRuns(runs []Run, shiftX int) {
	l.runs = runs
	l.dirty = make([]bool, len(runs))
	l.shiftX = shiftX
}

// Runs returns the shaped run collection. Callers must not mutate it.
func (l *LineLayout) Runs() []Run {
	if l == nil {
		return nil
	}
	return l.runs
}

// RunAt returns the shaped run for the given view line.
// The second result is false when the index is out of range.
func (l *LineLayout) RunAt(viewLine int) (Run, bool) {
	if !l.IsValid() || viewLine < 0 || viewLine >= len(l.runs) {
		return Run{}, false
	}
	return l.runs[viewLine], true
}

// IsDirty reports whether the run at viewLine needs re-shaping. An invalid
// layout or an out-of-range index reports dirty unconditionally: the caller
// must re-layout before trusting any geometry.
func (l *LineLayout) IsDirty(viewLine int) bool {
	if !l.IsValid() || viewLine < 0 || viewLine >= len(l.dirty) {
		return true
	}
	return l.dirty[viewLine]
}

// SetDirty marks or clears the dirty state of one run and returns the
// previous value. On an invalid layout it is a no-op reporting dirty.
func (l *LineLayout) SetDirty(viewLine int, dirty bool) bool {
	if !l.IsValid() || viewLine < 0 || viewLine >= len(l.dirty) {
		return true
	}
	prev := l.dirty[viewLine]
	l.dirty[viewLine] = dirty
	return prev
}

// MarkAllDirty flags every run for re-shaping, e.g. after a width or tab
// configuration change that did not go through SetRuns.
func (l *LineLayout) MarkAllDirty() {
	for i := range l.dirty {
		l.dirty[i] = true
	}
}

// ShiftX returns the horizontal indent, in cells, applied to every run after
// the first when the line wraps.
func (l *LineLayout) ShiftX() int {
	if l == nil {
		return 0
	}
	return l.shiftX
}

// ViewLineCount returns the number of wrap segments; at least 1 for any
// realized line, 0 when invalid.
func (l *LineLayout) ViewLineCount() int {
	if l == nil {
		return 0
	}
	return len(l.runs)
}

// Line returns the logical line index, or -1 when the line was removed.
func (l *LineLayout) Line() int {
	if l == nil {
		return -1
	}
	return l.line
}

// VirtualLine returns the post-folding line index, or -1 when invalid.
func (l *LineLayout) VirtualLine() int {
	if l == nil {
		return -1
	}
	return l.virtualLine
}

// SetVirtualLine updates the post-folding index. Fold state changes move a
// line's virtual position without touching its wrap decomposition.
func (l *LineLayout) SetVirtualLine(v int) {
	if l != nil {
		l.virtualLine = v
	}
}

// ViewLineForColumn returns the view line whose column span contains col.
// Columns past the end of the line map to the last view line; an invalid
// layout maps everything to 0.
func (l *LineLayout) ViewLineForColumn(col int) int {
	if !l.IsValid() {
		return 0
	}
	for i := len(l.runs) - 1; i > 0; i-- {
		if col >= l.runs[i].StartCol() {
			return i
		}
	}
	return 0
}

// Length returns the rune length of the whole logical line.
func (l *LineLayout) Length() int {
	if !l.IsValid() {
		return 0
	}
	last := l.runs[len(l.runs)-1]
	return last.StartCol() + last.Length()
}

// Width returns the widest natural run width, the horizontal extent the
// renderer needs for this line.
func (l *LineLayout) Width() int {
	w := 0
	for i, r := range l.Runs() {
		rw := r.Width()
		if i > 0 {
			rw += l.shiftX
		}
		if rw > w {
			w = rw
		}
	}
	return w
}
