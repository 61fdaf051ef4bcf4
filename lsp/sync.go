package lsp

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContentChange is one incremental textDocument/didChange event: replace the
// text in Range with Text. A nil Range means full-document replacement.
type ContentChange struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// ContentChanges diffs two document snapshots into incremental change events,
// in document order. Adjacent delete+insert pairs collapse into a single
// replacement. Returns nil when the texts are identical.
func ContentChanges(oldText, newText string) []ContentChange {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var out []ContentChange
	pos := Position{}
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos = advance(pos, d.Text)

		case diffmatchpatch.DiffDelete:
			end := advance(pos, d.Text)
			text := ""
			// Fold a directly following insert into a replacement.
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				text = diffs[i+1].Text
				i++
			}
			r := Range{Start: pos, End: end}
			out = append(out, ContentChange{Range: &r, Text: text})
			// Positions are relative to the document as already edited, so
			// the cursor moves past the inserted text, not the deleted one.
			pos = advance(pos, text)

		case diffmatchpatch.DiffInsert:
			r := Range{Start: pos, End: pos}
			out = append(out, ContentChange{Range: &r, Text: d.Text})
			pos = advance(pos, d.Text)
		}
	}
	return out
}

// advance moves a position forward over text, counting characters in UTF-16
// code units as the wire protocol requires.
func advance(p Position, text string) Position {
	for _, r := range text {
		if r == '\n' {
			p.Line++
			p.Character = 0
			continue
		}
		if r > 0xFFFF {
			p.Character += 2
		} else {
			p.Character++
		}
	}
	return p
}

// DidChangeIncremental sends a didChange notification carrying incremental
// changes computed from the previous and current document text. Identical
// snapshots send nothing.
func (c *Client) DidChangeIncremental(uri string, version int, oldText, newText string) error {
	changes := ContentChanges(oldText, newText)
	if changes == nil {
		return nil
	}
	return c.Notify("textDocument/didChange", map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri":     uri,
			"version": version,
		},
		"contentChanges": changes,
	})
}
