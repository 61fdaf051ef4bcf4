package editor

import (
	"testing"

	"github.com/loomtext/loom/textlayout"
)

func cur(line, col int) textlayout.Cursor {
	return textlayout.Cursor{Line: line, Column: col}
}

func TestSelectionActive(t *testing.T) {
	s := Selection{}
	if s.Active() {
		t.Error("empty selection should not be active")
	}

	s.Cursor = cur(0, 5)
	if !s.Active() {
		t.Error("selection with different anchor and cursor should be active")
	}
}

func TestSelectionOrdered(t *testing.T) {
	// Forward selection
	s := Selection{Anchor: cur(0, 2), Cursor: cur(0, 8)}
	start, end := s.Ordered()
	if start != cur(0, 2) || end != cur(0, 8) {
		t.Errorf("Ordered() = (%+v, %+v)", start, end)
	}

	// Backward selection across lines
	s = Selection{Anchor: cur(3, 0), Cursor: cur(1, 4)}
	start, end = s.Ordered()
	if start != cur(1, 4) || end != cur(3, 0) {
		t.Errorf("Ordered() = (%+v, %+v)", start, end)
	}

	// Same line, backward
	s = Selection{Anchor: cur(2, 9), Cursor: cur(2, 3)}
	start, end = s.Ordered()
	if start != cur(2, 3) || end != cur(2, 9) {
		t.Errorf("Ordered() = (%+v, %+v)", start, end)
	}
}

func TestSelectionContains(t *testing.T) {
	s := Selection{Anchor: cur(1, 2), Cursor: cur(2, 4)}

	tests := []struct {
		pos  textlayout.Cursor
		want bool
	}{
		{cur(1, 2), true},  // start inclusive
		{cur(1, 99), true}, // rest of first line
		{cur(2, 0), true},
		{cur(2, 4), false}, // end exclusive
		{cur(0, 5), false},
		{cur(3, 0), false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.pos); got != tt.want {
			t.Errorf("Contains(%+v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestSelectionText(t *testing.T) {
	b := NewBuffer()
	b.SetText("one\ntwo\nthree")

	s := Selection{Anchor: cur(0, 1), Cursor: cur(1, 2)}
	if got := s.Text(b); got != "ne\ntw" {
		t.Errorf("Text = %q, want %q", got, "ne\ntw")
	}

	// Backward selection extracts the same text.
	s = Selection{Anchor: cur(1, 2), Cursor: cur(0, 1)}
	if got := s.Text(b); got != "ne\ntw" {
		t.Errorf("backward Text = %q, want %q", got, "ne\ntw")
	}

	// Collapsed selection has no text.
	s = Selection{Anchor: cur(1, 1), Cursor: cur(1, 1)}
	if got := s.Text(b); got != "" {
		t.Errorf("collapsed Text = %q, want empty", got)
	}
}

func TestSelectionByteRange(t *testing.T) {
	b := NewBuffer()
	b.SetText("one\ntwo")

	s := Selection{Anchor: cur(1, 0), Cursor: cur(1, 3)}
	r := s.ByteRange(b)
	if r.Start != 4 || r.End != 7 {
		t.Errorf("ByteRange = %+v, want {4 7}", r)
	}
}

func TestSelectionClear(t *testing.T) {
	s := Selection{Anchor: cur(0, 0), Cursor: cur(2, 3)}
	s.Clear()
	if s.Active() {
		t.Error("selection should be inactive after Clear")
	}
	if s.Anchor != cur(2, 3) {
		t.Errorf("Anchor = %+v, want collapsed to cursor", s.Anchor)
	}
}

func TestSelectionSelectAll(t *testing.T) {
	b := NewBuffer()
	b.SetText("one\ntwo\nthree")

	var s Selection
	s.SelectAll(b)
	if s.Anchor != cur(0, 0) {
		t.Errorf("Anchor = %+v, want start of document", s.Anchor)
	}
	if s.Cursor != cur(2, 5) {
		t.Errorf("Cursor = %+v, want end of document", s.Cursor)
	}
	if got := s.Text(b); got != "one\ntwo\nthree" {
		t.Errorf("Text = %q, want full document", got)
	}
}

func TestSelectionSelectAllEmpty(t *testing.T) {
	b := NewBuffer()

	var s Selection
	s.SelectAll(b)
	if s.Active() {
		t.Error("select-all on an empty buffer should stay collapsed")
	}
}
