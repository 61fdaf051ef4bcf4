package quickopen

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantQ    string
		wantLine int
	}{
		{"plain query", "buffer", "buffer", 0},
		{"query with line", "buffer:42", "buffer", 42},
		{"line only", ":42", "", 42},
		{"empty", "", "", 0},
		{"trailing colon", "buffer:", "buffer:", 0},
		{"non-numeric suffix", "a:b", "a:b", 0},
		{"zero line", ":0", ":0", 0},
		{"negative line", "x:-3", "x:-3", 0},
		{"windows-ish path keeps earlier colons", "c:dir:12", "c:dir", 12},
		{"surrounding space", "  main.go:7  ", "main.go", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTarget(tt.input)
			if got.Query != tt.wantQ || got.Line != tt.wantLine {
				t.Errorf("ParseTarget(%q) = {%q, %d}, want {%q, %d}",
					tt.input, got.Query, got.Line, tt.wantQ, tt.wantLine)
			}
		})
	}
}

func TestTargetHasLine(t *testing.T) {
	if (Target{}).HasLine() {
		t.Error("zero target should have no line")
	}
	if !(Target{Line: 3}).HasLine() {
		t.Error("target with line 3 should report a line")
	}
}
