package textlayout

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/rivo/uniseg"
)

// Wrapper soft-wraps logical lines into shaped runs. The break strategy is
// greedy: word tokens (UAX #29 segmentation) are packed onto a view line
// until the next token would exceed the available width, then a new view line
// starts. A token wider than the whole view line is split between grapheme
// clusters. Every rune of the line lands in exactly one run, so run column
// spans are contiguous.
type Wrapper struct {
	// Width is the available width in cells. Zero or negative disables
	// soft wrap: every line becomes a single run.
	Width int

	// TabWidth is the cell width of a tab, defaulting to 1 when <= 0.
	TabWidth int

	// MaxIndent caps the dynamic continuation indent. Zero disables the
	// indent entirely.
	MaxIndent int
}

// Layout wraps one logical line of text and returns its shaped runs together
// with the continuation indent (shiftX) the layout should carry. The result
// always contains at least one run, an empty one for an empty line.
func (w Wrapper) Layout(text string) ([]Run, int) {
	if w.Width <= 0 || MeasureText(text, w.TabWidth) <= w.Width {
		return []Run{NewRun(0, text, w.TabWidth)}, 0
	}

	shiftX := w.continuationIndent(text)

	var runs []Run
	var cur strings.Builder
	curStart := 0 // rune offset of the current segment
	curWidth := 0
	offset := 0 // rune offset of the next token

	avail := func() int {
		if len(runs) == 0 {
			return w.Width
		}
		return w.Width - shiftX
	}

	flush := func() {
		runs = append(runs, NewRun(curStart, cur.String(), w.TabWidth))
		curStart = offset
		cur.Reset()
		curWidth = 0
	}

	appendPiece := func(piece string, width int) {
		cur.WriteString(piece)
		curWidth += width
		offset += runeLen(piece)
	}

	tokens := words.FromString(text)
	for tokens.Next() {
		tok := tokens.Value()
		tw := MeasureText(tok, w.TabWidth)

		if isSpace(tok) {
			// Trailing whitespace stays on the current view line even when
			// it overflows; a view line never begins with the break space.
			appendPiece(tok, tw)
			continue
		}

		if curWidth+tw > avail() && cur.Len() > 0 {
			flush()
		}

		if tw <= avail() {
			appendPiece(tok, tw)
			continue
		}

		// Token alone exceeds the view line: fill by grapheme cluster.
		state := -1
		rest := tok
		for len(rest) > 0 {
			var cluster string
			cluster, rest, _, state = uniseg.StepString(rest, state)
			cw := MeasureText(cluster, w.TabWidth)
			if curWidth+cw > avail() && cur.Len() > 0 {
				flush()
			}
			appendPiece(cluster, cw)
		}
	}
	if cur.Len() > 0 || len(runs) == 0 {
		flush()
	}

	return runs, shiftX
}

// continuationIndent derives the wrap indent from the line's leading
// whitespace, capped by MaxIndent. An indent that would leave less than a
// quarter of the width for text is dropped to keep continuations readable.
func (w Wrapper) continuationIndent(text string) int {
	if w.MaxIndent <= 0 {
		return 0
	}
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	indent := MeasureText(text[:i], w.TabWidth)
	if indent > w.MaxIndent {
		indent = w.MaxIndent
	}
	if indent > w.Width*3/4 {
		return 0
	}
	return indent
}

func isSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return len(s) > 0
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
