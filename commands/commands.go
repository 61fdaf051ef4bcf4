// Package commands declares the palette command set and its action bindings.
package commands

import "github.com/odvcencio/fluffyui/widgets"

// Actions holds callbacks for all editor commands.
type Actions struct {
	SaveFile       func()
	NewFile        func()
	CloseTab       func()
	ToggleSidebar  func()
	ToggleWordWrap func()
	SaveSettings   func()
	Quit           func()
	Undo           func()
	Redo           func()
	Find           func()
	Replace        func()
	GotoLine       func()
	QuickOpen      func()
	DeleteLine     func()
	MoveLineUp     func()
	MoveLineDown   func()
	DuplicateLine  func()
	FoldAtCursor   func()
	UnfoldAtCursor func()
	FoldAll        func()
	UnfoldAll      func()
	LspComplete    func()
	LspDefinition  func()
	LspReferences  func()
	LspHover       func()
	LspDiagnostics func()
	LspRename      func()
	LspCodeAction  func()
}

// AllCommands returns the full command list for the palette.
func AllCommands(a Actions) []widgets.PaletteCommand {
	return []widgets.PaletteCommand{
		{ID: "file.save", Label: "Save File", Shortcut: "Ctrl+S", Category: "File", OnExecute: a.SaveFile},
		{ID: "file.new", Label: "New File", Shortcut: "Ctrl+N", Category: "File", OnExecute: a.NewFile},
		{ID: "file.close", Label: "Close Tab", Shortcut: "Ctrl+W", Category: "File", OnExecute: a.CloseTab},
		{ID: "file.quickopen", Label: "Quick Open File", Shortcut: "Ctrl+P", Category: "File", OnExecute: a.QuickOpen},
		{ID: "view.sidebar", Label: "Toggle Sidebar", Shortcut: "Ctrl+B", Category: "View", OnExecute: a.ToggleSidebar},
		{ID: "view.wordwrap", Label: "Toggle Word Wrap", Shortcut: "Ctrl+Alt+W", Category: "View", OnExecute: a.ToggleWordWrap},
		{ID: "view.savesettings", Label: "Save Settings", Category: "View", OnExecute: a.SaveSettings},
		{ID: "app.quit", Label: "Quit", Shortcut: "Ctrl+Q", Category: "App", OnExecute: a.Quit},
		{ID: "edit.undo", Label: "Undo", Shortcut: "Ctrl+Z", Category: "Edit", OnExecute: a.Undo},
		{ID: "edit.redo", Label: "Redo", Shortcut: "Ctrl+Shift+Z", Category: "Edit", OnExecute: a.Redo},
		{ID: "edit.find", Label: "Find", Shortcut: "Ctrl+F", Category: "Edit", OnExecute: a.Find},
		{ID: "edit.replace", Label: "Replace", Shortcut: "Ctrl+H", Category: "Edit", OnExecute: a.Replace},
		{ID: "edit.goto", Label: "Go to Line", Shortcut: "Ctrl+G", Category: "Edit", OnExecute: a.GotoLine},
		{ID: "edit.deleteline", Label: "Delete Line", Shortcut: "Ctrl+Shift+K", Category: "Edit", OnExecute: a.DeleteLine},
		{ID: "edit.movelineup", Label: "Move Line Up", Shortcut: "Alt+Up", Category: "Edit", OnExecute: a.MoveLineUp},
		{ID: "edit.movelinedown", Label: "Move Line Down", Shortcut: "Alt+Down", Category: "Edit", OnExecute: a.MoveLineDown},
		{ID: "edit.duplicateline", Label: "Duplicate Line", Shortcut: "Ctrl+Shift+D", Category: "Edit", OnExecute: a.DuplicateLine},
		{ID: "fold.at", Label: "Fold Region", Shortcut: "Ctrl+Shift+{", Category: "Fold", OnExecute: a.FoldAtCursor},
		{ID: "fold.unfold", Label: "Unfold Region", Shortcut: "Ctrl+Shift+}", Category: "Fold", OnExecute: a.UnfoldAtCursor},
		{ID: "fold.all", Label: "Fold All", Category: "Fold", OnExecute: a.FoldAll},
		{ID: "fold.none", Label: "Unfold All", Category: "Fold", OnExecute: a.UnfoldAll},
		{ID: "lsp.complete", Label: "Trigger Completion", Shortcut: "Ctrl+Space", Category: "LSP", OnExecute: a.LspComplete},
		{ID: "lsp.definition", Label: "Go to Definition", Shortcut: "F12", Category: "LSP", OnExecute: a.LspDefinition},
		{ID: "lsp.references", Label: "Find References", Shortcut: "Shift+F12", Category: "LSP", OnExecute: a.LspReferences},
		{ID: "lsp.hover", Label: "Show Hover Documentation", Shortcut: "F1", Category: "LSP", OnExecute: a.LspHover},
		{ID: "lsp.diagnostics", Label: "Show Diagnostics", Shortcut: "F8", Category: "LSP", OnExecute: a.LspDiagnostics},
		{ID: "lsp.rename", Label: "Rename Symbol", Shortcut: "F2", Category: "LSP", OnExecute: a.LspRename},
		{ID: "lsp.codeaction", Label: "Code Action", Shortcut: "Ctrl+.", Category: "LSP", OnExecute: a.LspCodeAction},
	}
}
