package editor

import "strings"

// FoldRegion represents a foldable region of text.
type FoldRegion struct {
	StartLine int
	EndLine   int
	Folded    bool
}

// FoldState tracks which regions are folded.
type FoldState struct {
	regions []FoldRegion
}

// NewFoldState creates an empty fold state.
func NewFoldState() *FoldState {
	return &FoldState{}
}

// SetRegions replaces the fold regions (e.g. from tree-sitter parse).
// Preserves fold state for regions that match by start line.
func (fs *FoldState) SetRegions(regions []FoldRegion) {
	oldFolded := make(map[int]bool)
	for _, r := range fs.regions {
		if r.Folded {
			oldFolded[r.StartLine] = true
		}
	}
	for i := range regions {
		if oldFolded[regions[i].StartLine] {
			regions[i].Folded = true
		}
	}
	fs.regions = regions
}

// Toggle folds/unfolds the region at the given line.
func (fs *FoldState) Toggle(line int) bool {
	for i, r := range fs.regions {
		if r.StartLine == line {
			fs.regions[i].Folded = !fs.regions[i].Folded
			return true
		}
	}
	return false
}

// FoldAll folds all regions.
func (fs *FoldState) FoldAll() {
	for i := range fs.regions {
		fs.regions[i].Folded = true
	}
}

// UnfoldAll unfolds all regions.
func (fs *FoldState) UnfoldAll() {
	for i := range fs.regions {
		fs.regions[i].Folded = false
	}
}

// LineHidden returns true if the given line is inside a folded region
// (not the start line, which remains visible). Together with VirtualLine
// this satisfies textlayout.FoldView.
func (fs *FoldState) LineHidden(line int) bool {
	for _, r := range fs.regions {
		if r.Folded && line > r.StartLine && line <= r.EndLine {
			return true
		}
	}
	return false
}

// VirtualLine returns the post-folding index of a logical line: the number
// of visible lines above it. Hidden lines map to the virtual line of the
// fold they collapsed into.
func (fs *FoldState) VirtualLine(line int) int {
	v := 0
	for i := 0; i < line; i++ {
		if !fs.LineHidden(i) {
			v++
		}
	}
	return v
}

// LineForVirtual returns the logical line rendered at the given virtual
// index, or -1 when the index is past the visible line count.
func (fs *FoldState) LineForVirtual(virtual, totalLines int) int {
	v := 0
	for line := 0; line < totalLines; line++ {
		if fs.LineHidden(line) {
			continue
		}
		if v == virtual {
			return line
		}
		v++
	}
	return -1
}

// Regions returns all fold regions.
func (fs *FoldState) Regions() []FoldRegion {
	return fs.regions
}

// FoldAtLine finds and folds the innermost region starting at or containing
// the given line.
func (fs *FoldState) FoldAtLine(line int) bool {
	best := -1
	for i, r := range fs.regions {
		if r.Folded {
			continue
		}
		if r.StartLine == line {
			fs.regions[i].Folded = true
			return true
		}
		if line >= r.StartLine && line <= r.EndLine {
			if best < 0 || (r.EndLine-r.StartLine) < (fs.regions[best].EndLine-fs.regions[best].StartLine) {
				best = i
			}
		}
	}
	if best >= 0 {
		fs.regions[best].Folded = true
		return true
	}
	return false
}

// UnfoldAtLine unfolds the region at or containing the given line.
func (fs *FoldState) UnfoldAtLine(line int) bool {
	for i, r := range fs.regions {
		if !r.Folded {
			continue
		}
		if line >= r.StartLine && line <= r.EndLine {
			fs.regions[i].Folded = false
			return true
		}
	}
	return false
}

// VisibleLines returns which original line indices are visible after folding.
func (fs *FoldState) VisibleLines(totalLines int) []int {
	visible := make([]int, 0, totalLines)
	for i := 0; i < totalLines; i++ {
		if !fs.LineHidden(i) {
			visible = append(visible, i)
		}
	}
	return visible
}

// DetectFoldRegions scans text for brace-delimited blocks and returns fold
// regions. This is a simple heuristic for when tree-sitter data is unavailable.
func DetectFoldRegions(text string) []FoldRegion {
	lines := strings.Split(text, "\n")
	var regions []FoldRegion
	var stack []int // stack of opening brace line indices

	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		for _, ch := range trimmed {
			if ch == '{' {
				stack = append(stack, i)
			} else if ch == '}' {
				if len(stack) > 0 {
					start := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					if i-start >= 2 { // at least 2 lines between braces
						regions = append(regions, FoldRegion{
							StartLine: start,
							EndLine:   i,
						})
					}
				}
			}
		}
	}

	return regions
}
