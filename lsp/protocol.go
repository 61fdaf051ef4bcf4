package lsp

import (
	"encoding/json"
	"strings"
)

// Position in a text document (0-based line and character).
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range in a text document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location links a range in a document to a URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentItem represents a text document transferred from client to server.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// CompletionItem represents a completion suggestion.
type CompletionItem struct {
	Label         string `json:"label"`
	Kind          int    `json:"kind"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	InsertText    string `json:"insertText,omitempty"`

	// InsertTextFormat is 1 for plain text, 2 for snippet syntax.
	InsertTextFormat int `json:"insertTextFormat,omitempty"`
}

// CompletionList represents LSP completion results.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	ItemDefaults map[string]any   `json:"itemDefaults,omitempty"`
	Items        []CompletionItem `json:"items"`
}

// Diagnostic represents a compiler error or warning.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
}

// WorkspaceEdit is a set of textual edits to apply across documents.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes,omitempty"`
}

// CodeAction represents a code action suggestion.
type CodeAction struct {
	Title       string         `json:"title"`
	Kind        string         `json:"kind,omitempty"`
	Edit        *WorkspaceEdit `json:"edit,omitempty"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// TextEdit represents a change to a text document.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// Hover result. Contents is flattened to the markdown/plaintext value no
// matter which of the protocol's shapes the server picked.
type Hover struct {
	Contents HoverContents `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// HoverContents accepts every wire shape hover contents come in: a bare
// string, a MarkupContent object, a MarkedString object, or an array of
// either. Array elements are joined with blank lines.
type HoverContents string

func (h *HoverContents) UnmarshalJSON(data []byte) error {
	if s, ok := decodeHoverPart(data); ok {
		*h = HoverContents(s)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	var texts []string
	for _, part := range parts {
		if s, ok := decodeHoverPart(part); ok && s != "" {
			texts = append(texts, s)
		}
	}
	*h = HoverContents(strings.Join(texts, "\n\n"))
	return nil
}

func decodeHoverPart(data []byte) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, true
	}
	var obj struct {
		Kind     string `json:"kind"`
		Value    string `json:"value"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && (obj.Value != "" || obj.Kind != "") {
		return obj.Value, true
	}
	return "", false
}
