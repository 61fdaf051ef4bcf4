package lsp

import (
	"strings"

	"github.com/loomtext/loom/textlayout"
)

// Tooltip geometry constants, in cells. The tip is anchored just below and to
// the right of the hovered cell; when it would overflow the view it flips to
// the other side of the anchor.
const (
	tooltipOffsetX = 2
	tooltipOffsetY = 1
	tooltipPadding = 1 // border column/row on each side
)

// NormalizeHover converts hover markdown into plain display lines. Code fence
// markers are dropped (their contents stay), trailing hard-break spaces are
// trimmed, and runs of more than one blank line collapse. Returns nil for
// content that is empty after normalization.
func NormalizeHover(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			continue
		}
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return out
}

// TooltipSize computes the tip's outer size in cells for the given display
// lines, bounded by the view: at most 2/5 of the view width and 1/3 of its
// height, mirroring the proportions hover popups conventionally use. Returns
// zero size when there is nothing to show.
func TooltipSize(lines []string, viewWidth, viewHeight int) (w, h int) {
	if len(lines) == 0 || viewWidth <= 0 || viewHeight <= 0 {
		return 0, 0
	}

	maxW := viewWidth * 2 / 5
	maxH := viewHeight / 3
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}

	for _, line := range lines {
		lw := textlayout.MeasureText(line, 4)
		if lw > w {
			w = lw
		}
	}
	if w > maxW {
		w = maxW
	}
	h = len(lines)
	if h > maxH {
		h = maxH
	}
	return w + 2*tooltipPadding, h + 2*tooltipPadding
}

// PlaceTooltip positions a tip of size (w, h) near the anchor cell inside a
// view of the given size. The preferred spot is below-right of the anchor;
// when that overflows, the tip flips left of or above the anchor, and is then
// clamped so the result never has negative coordinates.
func PlaceTooltip(anchorX, anchorY, w, h, viewWidth, viewHeight int) (x, y int) {
	x = anchorX + tooltipOffsetX
	y = anchorY + tooltipOffsetY

	if x+w > viewWidth {
		x = anchorX - tooltipOffsetX - w
	}
	if y+h > viewHeight {
		y = anchorY - tooltipOffsetY - h
	}

	if x+w > viewWidth {
		x = viewWidth - w
	}
	if y+h > viewHeight {
		y = viewHeight - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
