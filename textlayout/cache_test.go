package textlayout

import "testing"

type stubDoc struct {
	lines []string
}

func (d *stubDoc) Line(i int) (string, bool) {
	if i < 0 || i >= len(d.lines) {
		return "", false
	}
	return d.lines[i], true
}

func (d *stubDoc) LineCount() int { return len(d.lines) }

type stubFolds struct {
	hidden map[int]bool
}

func (f *stubFolds) LineHidden(line int) bool { return f.hidden[line] }

func (f *stubFolds) VirtualLine(line int) int {
	v := 0
	for i := 0; i < line; i++ {
		if !f.hidden[i] {
			v++
		}
	}
	return v
}

func newTestCache(lines ...string) (*LayoutCache, *stubDoc) {
	doc := &stubDoc{lines: lines}
	return NewLayoutCache(doc, Wrapper{Width: 10, TabWidth: 4}), doc
}

func TestCacheRealizesLines(t *testing.T) {
	c, _ := newTestCache("short", "a line that wraps onto several rows")

	l := c.LineLayoutFor(0)
	if !l.IsValid() {
		t.Fatal("layout for line 0 invalid")
	}
	if got := l.ViewLineCount(); got != 1 {
		t.Errorf("line 0 view lines = %d, want 1", got)
	}

	wrapped := c.LineLayoutFor(1)
	if got := wrapped.ViewLineCount(); got < 2 {
		t.Errorf("line 1 view lines = %d, want >= 2", got)
	}

	// Same instance on repeated lookup.
	if c.LineLayoutFor(0) != l {
		t.Error("repeated lookup returned a different instance")
	}
}

func TestCacheOutOfRange(t *testing.T) {
	c, _ := newTestCache("only line")

	if l := c.LineLayoutFor(5); l.IsValid() {
		t.Error("layout for missing line reports valid")
	}
	if tl := c.TextLayoutAt(5, 0); tl.IsValid() {
		t.Error("TextLayoutAt for missing line reports valid")
	}
	if tl := c.TextLayoutAt(0, 3); tl.IsValid() {
		t.Error("TextLayoutAt for missing view line reports valid")
	}
}

func TestCacheTextLayoutForCursor(t *testing.T) {
	c, _ := newTestCache("hello brave world")

	tl := c.TextLayoutForCursor(Cursor{Line: 0, Column: 8})
	if !tl.IsValid() {
		t.Fatal("cursor inside the line did not resolve")
	}
	if !tl.IncludesCursor(Cursor{Line: 0, Column: 8}) {
		t.Error("resolved view line does not include the cursor")
	}

	if tl := c.TextLayoutForCursor(Cursor{Line: 0, Column: 99}); tl.IsValid() {
		t.Error("cursor past end of line resolved")
	}
	if tl := c.TextLayoutForCursor(InvalidCursor); tl.IsValid() {
		t.Error("invalid cursor resolved")
	}
}

func TestCacheLineChangedRewraps(t *testing.T) {
	c, doc := newTestCache("first")

	before := c.LineLayoutFor(0)
	if got := before.ViewLineCount(); got != 1 {
		t.Fatalf("view lines = %d, want 1", got)
	}

	doc.lines[0] = "now a much longer line that wraps"
	c.LineChanged(0)

	after := c.LineLayoutFor(0)
	if after != before {
		t.Error("edit in place should reuse the layout instance")
	}
	if got := after.ViewLineCount(); got < 2 {
		t.Errorf("view lines after edit = %d, want >= 2", got)
	}
}

func TestCacheLinesShifted(t *testing.T) {
	c, doc := newTestCache("aaa", "bbb", "ccc")

	kept := c.LineLayoutFor(0)
	stale := c.LineLayoutFor(2)
	tl := NewTextLayout(stale, 0)

	doc.lines = []string{"aaa", "inserted", "bbb", "ccc"}
	c.LinesShifted(1)

	if !kept.IsValid() {
		t.Error("layout above the edit was invalidated")
	}
	if stale.IsValid() {
		t.Error("layout below the edit still valid")
	}
	if tl.IsValid() {
		t.Error("TextLayout over evicted layout still valid")
	}
	if got := tl.StartX(); got != 0 {
		t.Errorf("stale StartX = %d, want 0", got)
	}

	// Fresh lookup realizes the new content.
	if got := c.LineLayoutFor(1); !got.IsValid() || got.Line() != 1 {
		t.Errorf("re-realized line 1 = %+v", got)
	}
}

func TestCacheEvict(t *testing.T) {
	c, _ := newTestCache("aaa", "bbb")

	l := c.LineLayoutFor(1)
	tl := NewTextLayout(l, 0)
	c.Evict(1)

	if tl.IsValid() {
		t.Error("TextLayout valid after eviction")
	}
	if c.Len() != 1 {
		t.Errorf("cache size = %d, want 1", c.Len())
	}
}

func TestCacheCapacity(t *testing.T) {
	doc := &stubDoc{}
	for i := 0; i < DefaultCacheCapacity+50; i++ {
		doc.lines = append(doc.lines, "line")
	}
	c := NewLayoutCache(doc, Wrapper{Width: 10})

	for i := 0; i < len(doc.lines); i++ {
		c.LineLayoutFor(i)
	}
	if c.Len() > DefaultCacheCapacity {
		t.Errorf("cache size = %d, want <= %d", c.Len(), DefaultCacheCapacity)
	}
}

func TestCacheSetWrapperMarksDirty(t *testing.T) {
	c, _ := newTestCache("a line that wraps onto several rows")

	before := c.LineLayoutFor(0).ViewLineCount()
	c.SetWrapper(Wrapper{Width: 80, TabWidth: 4})
	after := c.LineLayoutFor(0).ViewLineCount()

	if before < 2 || after != 1 {
		t.Errorf("view lines = %d before, %d after widening", before, after)
	}
}

func TestCacheFoldView(t *testing.T) {
	c, _ := newTestCache("zero", "one", "two", "three")
	c.SetFoldView(&stubFolds{hidden: map[int]bool{1: true, 2: true}})

	if got := c.LineLayoutFor(3).VirtualLine(); got != 1 {
		t.Errorf("virtual line of 3 = %d, want 1", got)
	}
	if got := c.LineLayoutFor(0).VirtualLine(); got != 0 {
		t.Errorf("virtual line of 0 = %d, want 0", got)
	}
	if vl := c.LineLayoutFor(3); vl.VirtualLine() > vl.Line() {
		t.Error("virtual line exceeds logical line")
	}
	if got := c.ViewLineCount(1); got != 0 {
		t.Errorf("hidden line view count = %d, want 0", got)
	}
}
