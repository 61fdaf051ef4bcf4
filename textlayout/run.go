package textlayout

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Run is one shaped wrap segment of a logical line: the text of a single view
// line together with its measured geometry. Runs are produced by the Wrapper
// and stored on a LineLayout; they are immutable once created.
type Run struct {
	startCol int    // rune offset of the segment within the logical line
	text     string // segment text, tabs not expanded
	width    int    // natural width in terminal cells
}

// NewRun measures text with the given tab width and returns the shaped run.
func NewRun(startCol int, text string, tabWidth int) Run {
	return Run{
		startCol: startCol,
		text:     text,
		width:    MeasureText(text, tabWidth),
	}
}

// StartCol returns the rune offset of this run within its logical line.
func (r Run) StartCol() int { return r.startCol }

// Text returns the segment text.
func (r Run) Text() string { return r.text }

// Width returns the natural (unclamped) cell width of the run.
func (r Run) Width() int { return r.width }

// Length returns the run text length in runes.
func (r Run) Length() int {
	n := 0
	for range r.text {
		n++
	}
	return n
}

// MeasureText returns the display width of text in terminal cells. Width is
// accumulated per grapheme cluster so combining sequences and emoji measure as
// the user perceives them; tabs count as tabWidth cells.
func MeasureText(text string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 1
	}
	width := 0
	state := -1
	for len(text) > 0 {
		cluster, rest, _, newState := uniseg.StepString(text, state)
		if cluster == "\t" {
			width += tabWidth
		} else {
			width += runewidth.StringWidth(cluster)
		}
		text = rest
		state = newState
	}
	return width
}
