package quickopen

import "testing"

func TestMatchSubsequence(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      bool
	}{
		{"empty query", "", "anything", true},
		{"exact", "main", "main", true},
		{"subsequence", "mgo", "main.go", true},
		{"case insensitive", "MAIN", "main.go", true},
		{"not a subsequence", "xyz", "main.go", false},
		{"query longer than candidate", "abcdef", "abc", false},
		{"order matters", "og", "go", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Match(tt.query, tt.candidate); ok != tt.want {
				t.Errorf("Match(%q, %q) matched = %v, want %v", tt.query, tt.candidate, ok, tt.want)
			}
		})
	}
}

func TestMatchBoundaryBonus(t *testing.T) {
	// "fb" hits two word starts in foo_bar but is scattered in aafaab.
	boundary, ok := Match("fb", "foo_bar")
	if !ok {
		t.Fatal("expected foo_bar to match")
	}
	scattered, ok := Match("fb", "aafaabaa")
	if !ok {
		t.Fatal("expected aafaabaa to match")
	}
	if boundary <= scattered {
		t.Errorf("boundary score %d should beat scattered score %d", boundary, scattered)
	}
}

func TestMatchConsecutiveBonus(t *testing.T) {
	consecutive, _ := Match("abc", "xabcx")
	scattered, _ := Match("abc", "xaxbxcx")
	if consecutive <= scattered {
		t.Errorf("consecutive score %d should beat scattered score %d", consecutive, scattered)
	}
}

func TestMatchCamelCaseBoundary(t *testing.T) {
	camel, _ := Match("tl", "TextLayout")
	flat, _ := Match("tl", "uttterly")
	if camel <= flat {
		t.Errorf("camel-case score %d should beat flat score %d", camel, flat)
	}
}

func TestMatchPathBasenameBonus(t *testing.T) {
	base, ok := MatchPath("buffer", "editor/buffer.go")
	if !ok {
		t.Fatal("expected editor/buffer.go to match")
	}
	dir, ok := MatchPath("buffer", "buffer/editor.go")
	if !ok {
		t.Fatal("expected buffer/editor.go to match")
	}
	if base <= dir {
		t.Errorf("basename match %d should beat directory match %d", base, dir)
	}
}

func TestMatchPathNoMatch(t *testing.T) {
	if _, ok := MatchPath("zzz", "editor/buffer.go"); ok {
		t.Error("MatchPath should reject non-subsequence query")
	}
}
