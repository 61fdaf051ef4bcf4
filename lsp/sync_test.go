package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// byteOffset resolves a protocol position (line, UTF-16 character) to a byte
// offset in text.
func byteOffset(text string, p Position) int {
	line, col := 0, 0
	for i, r := range text {
		if line == p.Line && col == p.Character {
			return i
		}
		if r == '\n' {
			line++
			col = 0
		} else if r > 0xFFFF {
			col += 2
		} else {
			col++
		}
	}
	return len(text)
}

// applyChanges replays incremental change events the way a server would.
func applyChanges(text string, changes []ContentChange) string {
	for _, ch := range changes {
		if ch.Range == nil {
			text = ch.Text
			continue
		}
		start := byteOffset(text, ch.Range.Start)
		end := byteOffset(text, ch.Range.End)
		text = text[:start] + ch.Text + text[end:]
	}
	return text
}

func TestContentChangesIdentical(t *testing.T) {
	assert.Nil(t, ContentChanges("same", "same"))
}

func TestContentChangesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"insert word", "hello world", "hello brave world"},
		{"delete word", "hello brave world", "hello world"},
		{"replace word", "hello world", "hello there"},
		{"append line", "a\nb", "a\nb\nc"},
		{"remove line", "a\nb\nc", "a\nc"},
		{"edit inside line", "func foo() {}\nreturn\n", "func bar() {}\nreturn\n"},
		{"from empty", "", "fresh"},
		{"to empty", "gone", ""},
		{"multibyte", "日本語のテキスト", "日本語の別のテキスト"},
		{"astral plane", "a𝔸b", "a𝔸𝔹b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := ContentChanges(tt.old, tt.new)
			require.NotNil(t, changes)
			assert.Equal(t, tt.new, applyChanges(tt.old, changes))
		})
	}
}

func TestContentChangesCollapsesReplace(t *testing.T) {
	changes := ContentChanges("hello world", "hello there")
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].Range)
	assert.NotEmpty(t, changes[0].Text)
}

func TestContentChangesPositionsAreUTF16(t *testing.T) {
	// 𝔸 is one astral-plane rune, two UTF-16 code units wide.
	changes := ContentChanges("𝔸x", "𝔸y")
	require.Len(t, changes, 1)
	assert.Equal(t, 2, changes[0].Range.Start.Character)
}

func TestContentChangesRoundTripProperty(t *testing.T) {
	gen := rapid.StringMatching("[a-c\n 𝔸]{0,40}")
	rapid.Check(t, func(t *rapid.T) {
		oldText := gen.Draw(t, "old")
		newText := gen.Draw(t, "new")

		changes := ContentChanges(oldText, newText)
		got := applyChanges(oldText, changes)
		if got != newText {
			t.Fatalf("replaying changes produced %q, want %q", got, newText)
		}
	})
}
