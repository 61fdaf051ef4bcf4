package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomtext/loom/textlayout"
)

// Range represents a byte range [Start, End) within buffer text.
type Range struct {
	Start, End int
}

// Change describes one mutation of the buffer text, reported to change
// listeners so layout caches and language servers can invalidate precisely.
type Change struct {
	// FromLine is the first logical line affected by the edit.
	FromLine int

	// LinesDelta is the number of lines added (positive) or removed
	// (negative). Zero means the edit stayed within one line.
	LinesDelta int

	// Full marks a wholesale replacement (file load, SetText): everything
	// derived from the old text is stale regardless of the other fields.
	Full bool
}

// editOp records a single edit for undo/redo support.
type editOp struct {
	offset  int
	oldText string
	newText string
}

// Buffer manages the text content of a single open file. It exposes the
// line-oriented read access the layout engine consumes and notifies
// registered listeners after every mutation.
type Buffer struct {
	path      string // absolute path, or "" if untitled
	text      string // current text content
	savedText string // text at last save/open (for dirty comparison)
	undoStack []editOp
	redoStack []editOp

	lines    []string // lazily split line cache, nil when stale
	onChange []func(Change)
}

// NewBuffer creates a new empty, untitled buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// OnChange registers a listener invoked after every text mutation.
func (b *Buffer) OnChange(fn func(Change)) {
	b.onChange = append(b.onChange, fn)
}

func (b *Buffer) notify(ch Change) {
	b.lines = nil
	for _, fn := range b.onChange {
		fn(ch)
	}
}

// Open reads the file at path into the buffer, replacing any existing content.
// The stored path is converted to an absolute path.
func (b *Buffer) Open(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	b.path = absPath
	b.text = string(data)
	b.savedText = b.text
	b.undoStack = nil
	b.redoStack = nil
	b.notify(Change{Full: true})
	return nil
}

// Save writes the current text to the stored path.
// Returns an error if the buffer has no path (untitled).
func (b *Buffer) Save() error {
	if b.path == "" {
		return errors.New("buffer has no path; use SaveAs")
	}
	if err := os.WriteFile(b.path, []byte(b.text), 0644); err != nil {
		return err
	}
	b.savedText = b.text
	return nil
}

// SaveAs writes the current text to the given path, updates the stored path,
// and marks the buffer as clean.
func (b *Buffer) SaveAs(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := os.WriteFile(absPath, []byte(b.text), 0644); err != nil {
		return err
	}

	b.path = absPath
	b.savedText = b.text
	return nil
}

// Path returns the absolute file path, or "" if the buffer is untitled.
func (b *Buffer) Path() string {
	return b.path
}

// Text returns the current text content of the buffer.
func (b *Buffer) Text() string {
	return b.text
}

// SetText replaces the buffer's text content wholesale. Listeners receive a
// change starting at line 0, which invalidates any derived layout entirely.
func (b *Buffer) SetText(text string) {
	oldLines := LineCount(b.text)
	b.text = text
	b.notify(Change{LinesDelta: LineCount(text) - oldLines, Full: true})
}

// Dirty reports whether the buffer's text differs from the last saved/opened text.
func (b *Buffer) Dirty() bool {
	return b.text != b.savedText
}

// Untitled reports whether the buffer has no associated file path.
func (b *Buffer) Untitled() bool {
	return b.path == ""
}

// Title returns the base filename, or "untitled" if the buffer has no path.
func (b *Buffer) Title() string {
	if b.path == "" {
		return "untitled"
	}
	return filepath.Base(b.path)
}

func (b *Buffer) splitLines() []string {
	if b.lines == nil {
		b.lines = strings.Split(b.text, "\n")
	}
	return b.lines
}

// Line returns the text of the logical line without its trailing newline,
// and whether the line exists. Together with LineCount this satisfies
// textlayout.Document.
func (b *Buffer) Line(i int) (string, bool) {
	lines := b.splitLines()
	if i < 0 || i >= len(lines) {
		return "", false
	}
	return lines[i], true
}

// LineCount returns the number of logical lines; an empty buffer has one.
func (b *Buffer) LineCount() int {
	return len(b.splitLines())
}

// OffsetToCursor converts a byte offset into a (line, rune column) cursor.
// Offsets outside the text clamp to the buffer edges.
func (b *Buffer) OffsetToCursor(offset int) textlayout.Cursor {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.text) {
		offset = len(b.text)
	}
	prefix := b.text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	col := 0
	for range prefix[lineStart:] {
		col++
	}
	return textlayout.Cursor{Line: line, Column: col}
}

// CursorToOffset converts a (line, rune column) cursor back to a byte
// offset. Out-of-range positions clamp to the nearest valid offset.
func (b *Buffer) CursorToOffset(c textlayout.Cursor) int {
	lines := b.splitLines()
	if c.Line < 0 {
		return 0
	}
	if c.Line >= len(lines) {
		return len(b.text)
	}
	offset := 0
	for i := 0; i < c.Line; i++ {
		offset += len(lines[i]) + 1
	}
	col := c.Column
	for _, r := range lines[c.Line] {
		if col <= 0 {
			break
		}
		offset += len(string(r))
		col--
	}
	return offset
}

// ApplyEdit records the edit on the undo stack, clears the redo stack,
// and applies the edit to the buffer text. The edit replaces the text at
// [offset, offset+len(oldText)) with newText.
func (b *Buffer) ApplyEdit(offset int, oldText, newText string) {
	b.undoStack = append(b.undoStack, editOp{
		offset:  offset,
		oldText: oldText,
		newText: newText,
	})
	b.redoStack = nil
	b.applyOp(offset, oldText, newText)
}

func (b *Buffer) applyOp(offset int, oldText, newText string) {
	fromLine := b.OffsetToCursor(offset).Line
	b.text = b.text[:offset] + newText + b.text[offset+len(oldText):]
	b.notify(Change{
		FromLine:   fromLine,
		LinesDelta: strings.Count(newText, "\n") - strings.Count(oldText, "\n"),
	})
}

// Undo reverses the last edit. Returns true if an edit was undone, false if
// the undo stack is empty.
func (b *Buffer) Undo() bool {
	if len(b.undoStack) == 0 {
		return false
	}
	op := b.undoStack[len(b.undoStack)-1]
	b.undoStack = b.undoStack[:len(b.undoStack)-1]
	// Reverse the edit: replace newText back with oldText.
	b.applyOp(op.offset, op.newText, op.oldText)
	b.redoStack = append(b.redoStack, op)
	return true
}

// Redo reapplies the last undone edit. Returns true if an edit was redone,
// false if the redo stack is empty.
func (b *Buffer) Redo() bool {
	if len(b.redoStack) == 0 {
		return false
	}
	op := b.redoStack[len(b.redoStack)-1]
	b.redoStack = b.redoStack[:len(b.redoStack)-1]
	// Reapply the edit.
	b.applyOp(op.offset, op.oldText, op.newText)
	b.undoStack = append(b.undoStack, op)
	return true
}

// Find returns all byte ranges where query appears as a substring in the
// buffer text. Returns nil if query is empty or not found.
func (b *Buffer) Find(query string) []Range {
	if query == "" {
		return nil
	}
	var results []Range
	start := 0
	for {
		idx := strings.Index(b.text[start:], query)
		if idx < 0 {
			break
		}
		absIdx := start + idx
		results = append(results, Range{Start: absIdx, End: absIdx + len(query)})
		start = absIdx + len(query)
	}
	return results
}

// Replace replaces the text at the given range with replacement, recording
// the edit on the undo stack.
func (b *Buffer) Replace(replacement string, r Range) {
	oldText := b.text[r.Start:r.End]
	b.ApplyEdit(r.Start, oldText, replacement)
}

// ReplaceAll replaces all occurrences of query with replacement. Returns the
// number of replacements made. Each replacement is recorded as a single undo
// operation processed from back to front so that offsets remain valid.
func (b *Buffer) ReplaceAll(query, replacement string) int {
	ranges := b.Find(query)
	if len(ranges) == 0 {
		return 0
	}
	// Apply replacements from back to front so earlier offsets stay valid.
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		b.ApplyEdit(r.Start, query, replacement)
	}
	return len(ranges)
}
