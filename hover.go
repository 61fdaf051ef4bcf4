package main

import (
	"github.com/odvcencio/fluffyui/backend"
	"github.com/odvcencio/fluffyui/runtime"
	"github.com/odvcencio/fluffyui/widgets"

	"github.com/loomtext/loom/lsp"
)

// tooltipWidget draws hover documentation in a floating box near the cursor.
// Size and position come from the lsp tooltip arithmetic; any key dismisses
// it.
type tooltipWidget struct {
	widgets.Base

	lines   []string
	anchorX int
	anchorY int
	visible bool

	boxStyle  backend.Style
	textStyle backend.Style
}

func newTooltipWidget() *tooltipWidget {
	return &tooltipWidget{
		boxStyle:  backend.DefaultStyle().Background(backend.ColorRGB(0x2a, 0x2a, 0x2a)),
		textStyle: backend.DefaultStyle().Background(backend.ColorRGB(0x2a, 0x2a, 0x2a)),
	}
}

// ShowAt displays the given display lines anchored at a screen cell.
func (w *tooltipWidget) ShowAt(lines []string, anchorX, anchorY int) {
	w.lines = lines
	w.anchorX = anchorX
	w.anchorY = anchorY
	w.visible = len(lines) > 0
}

func (w *tooltipWidget) Hide() {
	w.visible = false
	w.lines = nil
}

func (w *tooltipWidget) Visible() bool {
	return w.visible
}

func (w *tooltipWidget) Measure(constraints runtime.Constraints) runtime.Size {
	return runtime.Size{Width: constraints.MaxWidth, Height: constraints.MaxHeight}
}

// Layout sizes the box against the full view and places it so it never
// crosses the view edges.
func (w *tooltipWidget) Layout(bounds runtime.Rect) {
	if !w.visible {
		w.Base.Layout(runtime.Rect{})
		return
	}
	tw, th := lsp.TooltipSize(w.lines, bounds.Width, bounds.Height)
	x, y := lsp.PlaceTooltip(w.anchorX, w.anchorY, tw, th, bounds.Width, bounds.Height)
	w.Base.Layout(runtime.Rect{X: bounds.X + x, Y: bounds.Y + y, Width: tw, Height: th})
}

func (w *tooltipWidget) Render(ctx runtime.RenderContext) {
	if !w.visible {
		return
	}
	b := w.Bounds()
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	buf := ctx.Buffer
	buf.Fill(b, ' ', w.boxStyle)

	// One cell of padding on each side.
	maxLines := b.Height - 2
	for i := 0; i < maxLines && i < len(w.lines); i++ {
		line := w.lines[i]
		runes := []rune(line)
		if len(runes) > b.Width-2 {
			runes = runes[:b.Width-2]
		}
		buf.SetString(b.X+1, b.Y+1+i, string(runes), w.textStyle)
	}
}

// HandleMessage dismisses the tooltip on any key press and lets the event
// continue to the editor.
func (w *tooltipWidget) HandleMessage(msg runtime.Message) runtime.HandleResult {
	if !w.visible {
		return runtime.Unhandled()
	}
	if _, ok := msg.(runtime.KeyMsg); ok {
		w.Hide()
	}
	return runtime.Unhandled()
}
