package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/odvcencio/fluffyui/backend"
	"github.com/odvcencio/fluffyui/runtime"
	"github.com/odvcencio/fluffyui/terminal"
	"github.com/odvcencio/fluffyui/widgets"

	"github.com/loomtext/loom/quickopen"
)

const quickOpenMaxRows = 12

// quickOpenWidget is a centered overlay for fuzzy file opening. Typing
// filters the project file index; a trailing ":<line>" in the query jumps to
// that line after the file opens.
type quickOpenWidget struct {
	widgets.Base

	model    *quickopen.Model
	results  []quickopen.ScoredItem
	query    string
	selected int
	visible  bool
	focused  bool

	onOpen  func(path string, line int)
	onClose func()

	bgStyle     backend.Style
	inputStyle  backend.Style
	itemStyle   backend.Style
	activeStyle backend.Style
	detailStyle backend.Style
	countStyle  backend.Style
}

func newQuickOpenWidget() *quickOpenWidget {
	return &quickOpenWidget{
		model:       quickopen.NewModel(nil),
		bgStyle:     backend.DefaultStyle(),
		inputStyle:  backend.DefaultStyle(),
		itemStyle:   backend.DefaultStyle(),
		activeStyle: backend.DefaultStyle().Reverse(true),
		detailStyle: backend.DefaultStyle().Foreground(backend.ColorRGB(0x88, 0x88, 0x88)),
		countStyle:  backend.DefaultStyle().Foreground(backend.ColorYellow),
	}
}

// SetItems replaces the searchable item set and re-runs the current filter.
func (w *quickOpenWidget) SetItems(items []quickopen.Item) {
	w.model.SetItems(items)
	w.refilter()
}

func (w *quickOpenWidget) Show() {
	w.visible = true
	w.query = ""
	w.selected = 0
	w.refilter()
}

func (w *quickOpenWidget) Hide() {
	w.visible = false
}

func (w *quickOpenWidget) Visible() bool {
	return w.visible
}

func (w *quickOpenWidget) Focus() {
	w.focused = true
}

func (w *quickOpenWidget) Blur() {
	w.focused = false
}

func (w *quickOpenWidget) refilter() {
	target := quickopen.ParseTarget(w.query)
	w.results = w.model.Filter(target.Query)
	if w.selected >= len(w.results) {
		w.selected = 0
	}
}

func (w *quickOpenWidget) Measure(constraints runtime.Constraints) runtime.Size {
	return runtime.Size{Width: constraints.MaxWidth, Height: constraints.MaxHeight}
}

// Layout centers the dialog box in the available space.
func (w *quickOpenWidget) Layout(bounds runtime.Rect) {
	width := bounds.Width - 4
	if width > 72 {
		width = 72
	}
	if width < 20 {
		width = bounds.Width
	}
	height := quickOpenMaxRows + 2
	if height > bounds.Height {
		height = bounds.Height
	}
	w.Base.Layout(runtime.Rect{
		X:      bounds.X + (bounds.Width-width)/2,
		Y:      bounds.Y + 1,
		Width:  width,
		Height: height,
	})
}

func (w *quickOpenWidget) Render(ctx runtime.RenderContext) {
	if w == nil || !w.visible {
		return
	}
	b := w.Bounds()
	if b.Width <= 0 || b.Height < 2 {
		return
	}
	buf := ctx.Buffer
	buf.Fill(b, ' ', w.bgStyle)

	// Query row.
	prefix := "> "
	buf.SetString(b.X, b.Y, prefix, w.detailStyle)
	x := b.X + len(prefix)
	maxQuery := b.Width - len(prefix) - 10
	if maxQuery < 1 {
		maxQuery = 1
	}
	query := w.query
	if utf8.RuneCountInString(query) > maxQuery {
		runes := []rune(query)
		query = string(runes[len(runes)-maxQuery:])
	}
	buf.SetString(x, b.Y, query, w.inputStyle)
	if w.focused {
		cursorX := x + utf8.RuneCountInString(query)
		if cursorX < b.X+b.Width {
			buf.Set(cursorX, b.Y, '█', w.inputStyle)
		}
	}

	// Match count on the right.
	count := fmt.Sprintf("%d/%d", len(w.results), w.model.Len())
	countX := b.X + b.Width - len(count) - 1
	if countX > x {
		buf.SetString(countX, b.Y, count, w.countStyle)
	}

	// Result rows.
	rows := b.Height - 1
	start := 0
	if w.selected >= rows {
		start = w.selected - rows + 1
	}
	for i := 0; i < rows && start+i < len(w.results); i++ {
		item := w.results[start+i]
		s := w.itemStyle
		if start+i == w.selected {
			s = w.activeStyle
			// Highlight the whole row so the selection reads as a bar.
			buf.Fill(runtime.Rect{X: b.X, Y: b.Y + 1 + i, Width: b.Width, Height: 1}, ' ', s)
		}
		label := " " + item.Label
		if utf8.RuneCountInString(label) > b.Width-1 {
			runes := []rune(label)
			label = string(runes[:b.Width-1])
		}
		buf.SetString(b.X, b.Y+1+i, label, s)
	}
}

func (w *quickOpenWidget) HandleMessage(msg runtime.Message) runtime.HandleResult {
	if w == nil || !w.visible || !w.focused {
		return runtime.Unhandled()
	}
	key, ok := msg.(runtime.KeyMsg)
	if !ok {
		return runtime.Unhandled()
	}

	switch key.Key {
	case terminal.KeyEscape:
		w.Hide()
		if w.onClose != nil {
			w.onClose()
		}
		return runtime.Handled()
	case terminal.KeyEnter:
		w.openSelected()
		return runtime.Handled()
	case terminal.KeyUp:
		if w.selected > 0 {
			w.selected--
		}
		return runtime.Handled()
	case terminal.KeyDown:
		if w.selected < len(w.results)-1 {
			w.selected++
		}
		return runtime.Handled()
	case terminal.KeyBackspace:
		if len(w.query) == 0 {
			w.Hide()
			if w.onClose != nil {
				w.onClose()
			}
			return runtime.Handled()
		}
		_, size := utf8.DecodeLastRuneInString(w.query)
		w.query = w.query[:len(w.query)-size]
		w.selected = 0
		w.refilter()
		return runtime.Handled()
	case terminal.KeyRune:
		if key.Ctrl {
			return runtime.Unhandled()
		}
		w.query += string(key.Rune)
		w.selected = 0
		w.refilter()
		return runtime.Handled()
	}
	return runtime.Unhandled()
}

func (w *quickOpenWidget) openSelected() {
	if w.selected < 0 || w.selected >= len(w.results) {
		return
	}
	item := w.results[w.selected]
	target := quickopen.ParseTarget(w.query)
	path := item.Detail
	if path == "" {
		path = item.Label
	}
	w.Hide()
	if w.onOpen != nil {
		w.onOpen(path, target.Line)
	}
}
