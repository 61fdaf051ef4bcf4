package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalizeHoverStripsFences(t *testing.T) {
	got := NormalizeHover("```go\nfunc Foo()\n```\n\nFoo does a thing.")
	require.Equal(t, []string{"func Foo()", "", "Foo does a thing."}, got)
}

func TestNormalizeHoverCollapsesBlankRuns(t *testing.T) {
	got := NormalizeHover("a\n\n\n\nb")
	assert.Equal(t, []string{"a", "", "b"}, got)
}

func TestNormalizeHoverTrimsTrailingBreakSpaces(t *testing.T) {
	got := NormalizeHover("soft  \nbreak\r")
	assert.Equal(t, []string{"soft", "break"}, got)
}

func TestNormalizeHoverEmpty(t *testing.T) {
	assert.Nil(t, NormalizeHover(""))
	assert.Nil(t, NormalizeHover("  \n\t\n"))
	assert.Nil(t, NormalizeHover("```\n```"))
}

func TestTooltipSizeBounds(t *testing.T) {
	lines := []string{
		"short",
		"a much much much much much much longer line of hover text",
	}
	w, h := TooltipSize(lines, 100, 30)

	// Content is capped at 2/5 of the width and 1/3 of the height,
	// plus one border cell on each side.
	assert.LessOrEqual(t, w, 100*2/5+2)
	assert.LessOrEqual(t, h, 30/3+2)
	assert.Greater(t, w, 2)
	assert.Greater(t, h, 2)
}

func TestTooltipSizeFitsSmallContent(t *testing.T) {
	w, h := TooltipSize([]string{"hi"}, 100, 30)
	assert.Equal(t, 2+2, w)
	assert.Equal(t, 1+2, h)
}

func TestTooltipSizeEmpty(t *testing.T) {
	w, h := TooltipSize(nil, 100, 30)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestPlaceTooltipPrefersBelowRight(t *testing.T) {
	x, y := PlaceTooltip(10, 5, 20, 6, 100, 40)
	assert.Equal(t, 12, x)
	assert.Equal(t, 6, y)
}

func TestPlaceTooltipFlipsLeftAtRightEdge(t *testing.T) {
	x, _ := PlaceTooltip(95, 5, 20, 6, 100, 40)
	assert.Equal(t, 95-2-20, x)
}

func TestPlaceTooltipFlipsAboveAtBottomEdge(t *testing.T) {
	_, y := PlaceTooltip(10, 38, 20, 6, 100, 40)
	assert.Equal(t, 38-1-6, y)
}

func TestPlaceTooltipNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		viewW := rapid.IntRange(1, 200).Draw(t, "viewW")
		viewH := rapid.IntRange(1, 80).Draw(t, "viewH")
		w := rapid.IntRange(1, 220).Draw(t, "w")
		h := rapid.IntRange(1, 100).Draw(t, "h")
		ax := rapid.IntRange(0, viewW-1).Draw(t, "ax")
		ay := rapid.IntRange(0, viewH-1).Draw(t, "ay")

		x, y := PlaceTooltip(ax, ay, w, h, viewW, viewH)
		if x < 0 || y < 0 {
			t.Fatalf("placement (%d, %d) is negative", x, y)
		}
		if w <= viewW && x+w > viewW {
			t.Fatalf("tip [%d, %d) overflows view width %d", x, x+w, viewW)
		}
		if h <= viewH && y+h > viewH {
			t.Fatalf("tip [%d, %d) overflows view height %d", y, y+h, viewH)
		}
	})
}
