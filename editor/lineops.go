package editor

import "strings"

// LineCount returns the number of lines in the text.
// An empty string is considered to have 1 line.
func LineCount(text string) int {
	if text == "" {
		return 1
	}
	return strings.Count(text, "\n") + 1
}

// lineSpan returns the byte range of the line including its trailing
// newline when one exists, otherwise including the preceding one.
func (b *Buffer) lineSpan(line int) (Range, bool) {
	lines := b.splitLines()
	if line < 0 || line >= len(lines) {
		return Range{}, false
	}
	start := 0
	for i := 0; i < line; i++ {
		start += len(lines[i]) + 1
	}
	end := start + len(lines[line])
	if line < len(lines)-1 {
		end++ // own the trailing newline
	} else if line > 0 {
		start-- // last line owns the preceding newline instead
	}
	return Range{Start: start, End: end}, true
}

// DeleteLine removes the line at the given 0-based line number, recording
// the edit on the undo stack. Out-of-range line numbers are a no-op.
func (b *Buffer) DeleteLine(line int) bool {
	span, ok := b.lineSpan(line)
	if !ok {
		return false
	}
	b.ApplyEdit(span.Start, b.text[span.Start:span.End], "")
	return true
}

// MoveLine moves the line at the given 0-based line number by delta
// (+1 = down, -1 = up). Returns false if the target position is out of
// bounds. The swap is recorded as a single undo operation.
func (b *Buffer) MoveLine(line, delta int) bool {
	lines := b.splitLines()
	target := line + delta
	if line < 0 || line >= len(lines) || target < 0 || target >= len(lines) {
		return false
	}

	swapped := make([]string, len(lines))
	copy(swapped, lines)
	swapped[line], swapped[target] = swapped[target], swapped[line]

	lo, hi := line, target
	if lo > hi {
		lo, hi = hi, lo
	}
	start := 0
	for i := 0; i < lo; i++ {
		start += len(lines[i]) + 1
	}
	end := start
	for i := lo; i <= hi; i++ {
		end += len(lines[i]) + 1
	}
	if hi == len(lines)-1 {
		end--
	}
	b.ApplyEdit(start, b.text[start:end], strings.Join(swapped[lo:hi+1], "\n")+suffixNewline(hi, len(lines)))
	return true
}

func suffixNewline(lastLine, total int) string {
	if lastLine == total-1 {
		return ""
	}
	return "\n"
}

// DuplicateLine duplicates the line at the given 0-based line number,
// inserting the copy immediately after it.
func (b *Buffer) DuplicateLine(line int) bool {
	lines := b.splitLines()
	if line < 0 || line >= len(lines) {
		return false
	}
	start := 0
	for i := 0; i <= line; i++ {
		start += len(lines[i]) + 1
	}
	if line == len(lines)-1 {
		// No trailing newline to insert after; append one with the copy.
		b.ApplyEdit(len(b.text), "", "\n"+lines[line])
		return true
	}
	b.ApplyEdit(start, "", lines[line]+"\n")
	return true
}
