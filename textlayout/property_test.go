package textlayout

import (
	"testing"

	"pgregory.net/rapid"
)

func genWrapper(t *rapid.T) Wrapper {
	return Wrapper{
		Width:     rapid.IntRange(1, 60).Draw(t, "width"),
		TabWidth:  rapid.IntRange(1, 8).Draw(t, "tabWidth"),
		MaxIndent: rapid.IntRange(0, 12).Draw(t, "maxIndent"),
	}
}

// lineGen mixes ASCII, whitespace, tabs, punctuation and wide runes to
// exercise measurement and segmentation.
var lineGen = rapid.StringMatching("[\ta-z0-9 ._世界-]{0,80}")

func TestWrapCoversEveryRune(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := genWrapper(t)
		text := lineGen.Draw(t, "text")

		runs, _ := w.Layout(text)
		if len(runs) < 1 {
			t.Fatalf("run count = %d, want >= 1", len(runs))
		}
		col := 0
		rebuilt := ""
		for i, r := range runs {
			if r.StartCol() != col {
				t.Fatalf("run %d StartCol = %d, want %d", i, r.StartCol(), col)
			}
			col += r.Length()
			rebuilt += r.Text()
		}
		if rebuilt != text {
			t.Fatalf("runs reassemble to %q, want %q", rebuilt, text)
		}
	})
}

func TestTextLayoutQueryInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := genWrapper(t)
		text := lineGen.Draw(t, "text")
		line := rapid.IntRange(0, 1000).Draw(t, "line")

		runs, shiftX := w.Layout(text)
		l := NewLineLayout(line, line)
		l.SetRuns(runs, shiftX)

		for view := 0; view < l.ViewLineCount(); view++ {
			tl := NewTextLayout(l, view)
			if !tl.IsValid() {
				t.Fatalf("view %d invalid on a realized line", view)
			}
			if view == 0 && tl.StartX() != 0 {
				t.Fatalf("first view line StartX = %d, want 0", tl.StartX())
			}
			first, second := tl.StartX(), tl.StartX()
			if first != second {
				t.Fatalf("StartX not idempotent: %d then %d", first, second)
			}
			if tl.EndX() != tl.StartX()+tl.Width() {
				t.Fatalf("EndX = %d, want StartX+Width = %d", tl.EndX(), tl.StartX()+tl.Width())
			}
			if tl.EndCol() != tl.StartCol()+tl.Length() {
				t.Fatalf("EndCol = %d, want StartCol+Length = %d", tl.EndCol(), tl.StartCol()+tl.Length())
			}
			if wantWrap := view < l.ViewLineCount()-1; tl.Wrap() != wantWrap {
				t.Fatalf("view %d Wrap = %v, want %v", view, tl.Wrap(), wantWrap)
			}
		}

		// Every column of the line is hit-testable to exactly one view line.
		length := l.Length()
		for col := 0; col <= length; col++ {
			cur := Cursor{Line: line, Column: col}
			hits := 0
			for view := 0; view < l.ViewLineCount(); view++ {
				if NewTextLayout(l, view).IncludesCursor(cur) {
					hits++
				}
			}
			if hits != 1 {
				t.Fatalf("column %d included by %d view lines, want 1", col, hits)
			}
		}
	})
}

func TestOrderingConsistentWithIncludes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := genWrapper(t)
		text := lineGen.Draw(t, "text")

		runs, shiftX := w.Layout(text)
		l := NewLineLayout(0, 0)
		l.SetRuns(runs, shiftX)

		col := rapid.IntRange(0, l.Length()).Draw(t, "col")
		cur := Cursor{Line: 0, Column: col}

		for view := 0; view < l.ViewLineCount(); view++ {
			tl := NewTextLayout(l, view)
			if tl.IncludesCursor(cur) {
				// The containing view line starts at or before the cursor and
				// ends at or after it.
				if !tl.LessEqual(cur) {
					t.Fatalf("containing view %d not LessEqual cursor %d", view, col)
				}
				if !tl.GreaterEqual(cur) {
					t.Fatalf("containing view %d not GreaterEqual cursor %d", view, col)
				}
			}
		}
	})
}
