package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/odvcencio/fluffyui/backend"
	"github.com/odvcencio/fluffyui/fluffy"
	"github.com/odvcencio/fluffyui/runtime"
	"github.com/odvcencio/fluffyui/state"
	"github.com/odvcencio/fluffyui/terminal"
	"github.com/odvcencio/fluffyui/widgets"

	"github.com/odvcencio/gotreesitter"
	"github.com/odvcencio/gotreesitter/grammars"

	"github.com/loomtext/loom/commands"
	"github.com/loomtext/loom/config"
	"github.com/loomtext/loom/editor"
	"github.com/loomtext/loom/internal/log"
	"github.com/loomtext/loom/lsp"
	"github.com/loomtext/loom/project"
	"github.com/loomtext/loom/quickopen"
	"github.com/loomtext/loom/textlayout"
	"github.com/loomtext/loom/web"
)

// themePalette maps tree-sitter capture names to terminal styles. Captures
// resolve by longest dotted prefix, so "function.builtin" falls back to
// "function".
type themePalette map[string]backend.Style

func (p themePalette) styleFor(capture string) (backend.Style, bool) {
	for {
		if s, ok := p[capture]; ok {
			return s, true
		}
		idx := strings.LastIndexByte(capture, '.')
		if idx < 0 {
			return backend.Style{}, false
		}
		capture = capture[:idx]
	}
}

// builtinTheme returns the named color palette, falling back to "default".
func builtinTheme(name string) themePalette {
	if p, ok := builtinThemes[name]; ok {
		return p
	}
	return builtinThemes["default"]
}

var builtinThemes = map[string]themePalette{
	"default": {
		"keyword":  backend.DefaultStyle().Foreground(backend.ColorRGB(0xc5, 0x86, 0xc0)),
		"string":   backend.DefaultStyle().Foreground(backend.ColorRGB(0xce, 0x91, 0x78)),
		"comment":  backend.DefaultStyle().Foreground(backend.ColorRGB(0x6a, 0x99, 0x55)),
		"function": backend.DefaultStyle().Foreground(backend.ColorRGB(0xdc, 0xdc, 0xaa)),
		"type":     backend.DefaultStyle().Foreground(backend.ColorRGB(0x4e, 0xc9, 0xb0)),
		"number":   backend.DefaultStyle().Foreground(backend.ColorRGB(0xb5, 0xce, 0xa8)),
		"constant": backend.DefaultStyle().Foreground(backend.ColorRGB(0x56, 0x9c, 0xd6)),
		"variable": backend.DefaultStyle().Foreground(backend.ColorRGB(0x9c, 0xdc, 0xfe)),
		"operator": backend.DefaultStyle().Foreground(backend.ColorRGB(0xd4, 0xd4, 0xd4)),
		"property": backend.DefaultStyle().Foreground(backend.ColorRGB(0x9c, 0xdc, 0xfe)),
	},
	"light": {
		"keyword":  backend.DefaultStyle().Foreground(backend.ColorRGB(0xaf, 0x00, 0xdb)),
		"string":   backend.DefaultStyle().Foreground(backend.ColorRGB(0xa3, 0x15, 0x15)),
		"comment":  backend.DefaultStyle().Foreground(backend.ColorRGB(0x00, 0x80, 0x00)),
		"function": backend.DefaultStyle().Foreground(backend.ColorRGB(0x79, 0x5e, 0x26)),
		"type":     backend.DefaultStyle().Foreground(backend.ColorRGB(0x26, 0x7f, 0x99)),
		"number":   backend.DefaultStyle().Foreground(backend.ColorRGB(0x09, 0x86, 0x58)),
		"constant": backend.DefaultStyle().Foreground(backend.ColorRGB(0x00, 0x00, 0xff)),
		"variable": backend.DefaultStyle().Foreground(backend.ColorRGB(0x00, 0x10, 0x80)),
	},
}

// highlightState holds the syntax highlighting state for the active buffer.
// It manages the highlighter, parse tree, and debounced re-highlighting.
type highlightState struct {
	mu          sync.Mutex
	highlighter *gotreesitter.Highlighter
	tree        *gotreesitter.Tree
	ranges      []gotreesitter.HighlightRange
	lang        *gotreesitter.Language
	timer       *time.Timer
	debounceMs  int
}

func newHighlightState() *highlightState {
	return &highlightState{debounceMs: 50}
}

// setup initializes the highlighter for a given file name. Returns true if a
// language was found and highlighting is available.
func (hs *highlightState) setup(filename string) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	entry := grammars.DetectLanguage(filename)
	if entry == nil {
		hs.highlighter = nil
		hs.tree = nil
		hs.ranges = nil
		hs.lang = nil
		return false
	}

	lang := entry.Language()
	support := grammars.EvaluateParseSupport(*entry, lang)
	if support.Backend == grammars.ParseBackendUnsupported {
		hs.highlighter = nil
		hs.tree = nil
		hs.ranges = nil
		hs.lang = lang
		return false
	}
	hs.lang = lang

	var opts []gotreesitter.HighlighterOption
	if entry.TokenSourceFactory != nil {
		factory := entry.TokenSourceFactory
		opts = append(opts, gotreesitter.WithTokenSourceFactory(func(src []byte) gotreesitter.TokenSource {
			return factory(src, lang)
		}))
	}

	h, err := gotreesitter.NewHighlighter(lang, entry.HighlightQuery, opts...)
	if err != nil {
		log.ErrorErr(log.CatUI, "highlighter setup failed", err, "file", filename)
		hs.highlighter = nil
		return false
	}
	hs.highlighter = h
	hs.tree = nil
	hs.ranges = nil
	return true
}

// highlight runs a full highlight pass on the given source.
func (hs *highlightState) highlight(source []byte) []gotreesitter.HighlightRange {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.highlighter == nil {
		return nil
	}
	hs.ranges, hs.tree = hs.highlighter.HighlightIncremental(source, hs.tree)
	return hs.ranges
}

// scheduleHighlight debounces highlight requests. The callback is invoked
// after debounceMs of inactivity with the latest source.
func (hs *highlightState) scheduleHighlight(source []byte, callback func([]gotreesitter.HighlightRange)) {
	hs.mu.Lock()
	if hs.timer != nil {
		hs.timer.Stop()
	}
	hs.timer = time.AfterFunc(time.Duration(hs.debounceMs)*time.Millisecond, func() {
		ranges := hs.highlight(source)
		callback(ranges)
	})
	hs.mu.Unlock()
}

// detectFoldRegions returns fold regions from the current parse tree when
// available, falling back to brace heuristics for unsupported languages.
func (hs *highlightState) detectFoldRegions(source string) []editor.FoldRegion {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.tree != nil && hs.lang != nil {
		regions := foldRegionsFromTree(hs.tree.RootNode(), hs.lang)
		if len(regions) > 0 {
			return regions
		}
	}
	return editor.DetectFoldRegions(source)
}

// foldRegionsFromTree extracts fold regions from named multiline nodes.
func foldRegionsFromTree(root *gotreesitter.Node, lang *gotreesitter.Language) []editor.FoldRegion {
	if root == nil || lang == nil {
		return nil
	}

	seen := make(map[[2]int]struct{})
	regions := make([]editor.FoldRegion, 0, 64)
	var walk func(node *gotreesitter.Node, isRoot bool)

	walk = func(node *gotreesitter.Node, isRoot bool) {
		if node == nil {
			return
		}

		if !isRoot && node.IsNamed() {
			start := int(node.StartPoint().Row)
			end := int(node.EndPoint().Row)
			if end > start && shouldFoldNode(node, lang) {
				key := [2]int{start, end}
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					regions = append(regions, editor.FoldRegion{
						StartLine: start,
						EndLine:   end,
					})
				}
			}
		}

		n := node.NamedChildCount()
		for i := 0; i < n; i++ {
			walk(node.NamedChild(i), false)
		}
	}

	walk(root, true)
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].StartLine == regions[j].StartLine {
			return regions[i].EndLine < regions[j].EndLine
		}
		return regions[i].StartLine < regions[j].StartLine
	})
	return regions
}

func shouldFoldNode(node *gotreesitter.Node, lang *gotreesitter.Language) bool {
	if node == nil || node.NamedChildCount() == 0 {
		return false
	}

	nodeType := strings.ToLower(node.Type(lang))
	switch nodeType {
	case "source_file", "program", "translation_unit", "module":
		return false
	}

	// Common structural node kinds across languages.
	keywords := []string{
		"block", "body", "declaration", "statement", "function", "method",
		"class", "struct", "interface", "enum", "object", "array", "map",
		"list", "switch", "case", "if", "else", "for", "while", "loop",
		"try", "catch", "finally", "impl", "namespace", "comment",
	}
	for _, kw := range keywords {
		if strings.Contains(nodeType, kw) {
			return true
		}
	}

	// Multiline nodes with multiple named children are usually foldable
	// containers even when the grammar names them something else.
	return node.NamedChildCount() >= 2
}

// contentSlot is a simple wrapper widget whose child can be swapped at runtime.
type contentSlot struct {
	widgets.Base
	child runtime.Widget
}

func (c *contentSlot) setChild(w runtime.Widget) {
	c.child = w
}

func (c *contentSlot) Measure(constraints runtime.Constraints) runtime.Size {
	if c.child != nil {
		return c.child.Measure(constraints)
	}
	return runtime.Size{}
}

func (c *contentSlot) Layout(bounds runtime.Rect) {
	c.Base.Layout(bounds)
	if c.child != nil {
		c.child.Layout(bounds)
	}
}

func (c *contentSlot) Render(ctx runtime.RenderContext) {
	if c.child != nil {
		c.child.Render(ctx)
	}
}

func (c *contentSlot) HandleMessage(msg runtime.Message) runtime.HandleResult {
	if c.child != nil {
		return c.child.HandleMessage(msg)
	}
	return runtime.Unhandled()
}

func (c *contentSlot) ChildWidgets() []runtime.Widget {
	if c.child != nil {
		return []runtime.Widget{c.child}
	}
	return nil
}

// globalKeys is an invisible widget that intercepts global key shortcuts.
type globalKeys struct {
	widgets.Base
	onKey   func(key runtime.KeyMsg) runtime.HandleResult
	onPaste func(paste runtime.PasteMsg) runtime.HandleResult
}

func (g *globalKeys) Measure(runtime.Constraints) runtime.Size { return runtime.Size{} }
func (g *globalKeys) Render(runtime.RenderContext)             {}

func (g *globalKeys) HandleMessage(msg runtime.Message) runtime.HandleResult {
	if paste, ok := msg.(runtime.PasteMsg); ok && g.onPaste != nil {
		if result := g.onPaste(paste); result.Handled {
			return result
		}
	}
	if key, ok := msg.(runtime.KeyMsg); ok && g.onKey != nil {
		return g.onKey(key)
	}
	return runtime.Unhandled()
}

// loomApp holds the core state for the editor application.
type loomApp struct {
	cfg       config.Config
	tabs      *editor.TabManager
	projects  *project.Manager
	textArea  *widgets.TextArea
	fileTree  *widgets.DirectoryTree
	treeRoot  string
	tabBar    *tabBar
	status    *state.Signal[string]
	palette   *widgets.CommandPalette
	search    *widgets.SearchWidget
	replaceW  *replaceWidget
	gotoW     *promptWidget
	renameW   *promptWidget
	finder    *quickOpenWidget
	tooltip   *tooltipWidget
	cancel    context.CancelFunc // for quit command
	highlight *highlightState
	theme     themePalette

	// Sidebar toggle.
	sidebarVisible bool
	splitter       *widgets.Splitter
	slot           *contentSlot

	// Layout engine for the active buffer: drives the status bar view-line
	// readout and tooltip anchoring.
	layout   *textlayout.LayoutCache
	viewport *textlayout.Viewport
	observed map[*editor.Buffer]bool

	// Marker watchers, keyed by project base dir.
	watchers map[string]*project.Watcher

	// Search state.
	searchMatches     []editor.Range
	searchCurrent     int
	syntaxHighlights  []widgets.TextAreaHighlight
	bracketHighlights []widgets.TextAreaHighlight

	suppressChange bool
	wordWrap       bool
	foldState      *editor.FoldState

	webServer *web.Server

	// LSP integration.
	lspClients     map[string]*lsp.Client
	lspDocVersions map[string]int
	lspDocTexts    map[string]string // last text synced to the server, per URI
	lspServers     map[string]lsp.ServerConfig
	lspDiagnostics map[string][]lsp.Diagnostic
	hoverCaches    map[string]*lsp.HoverCache
	diagnostics    []widgets.TextAreaHighlight
	lspPalette     *widgets.CommandPalette // reused for completion/references/code-action UI

	lspCtx    context.Context
	lspCancel context.CancelFunc
	lspMu     sync.Mutex
}

// newLoomApp creates a loomApp with the given root directory for the file tree.
func newLoomApp(cfg config.Config, treeRoot string) *loomApp {
	servers := lsp.DefaultServers()
	applyLSPServerOverrides(servers, treeRoot)

	app := &loomApp{
		cfg:            cfg,
		tabs:           editor.NewTabManager(),
		projects:       project.NewManager(project.DefaultOptions()),
		textArea:       widgets.NewTextArea(),
		status:         state.NewSignal[string](" untitled"),
		highlight:      newHighlightState(),
		theme:          builtinTheme(cfg.Theme),
		treeRoot:       treeRoot,
		sidebarVisible: true,
		observed:       make(map[*editor.Buffer]bool),
		watchers:       make(map[string]*project.Watcher),
		wordWrap:       cfg.Editor.WordWrap,
		foldState:      editor.NewFoldState(),
		lspClients:     make(map[string]*lsp.Client),
		lspDocVersions: make(map[string]int),
		lspDocTexts:    make(map[string]string),
		lspServers:     servers,
		lspDiagnostics: make(map[string][]lsp.Diagnostic),
		hoverCaches:    make(map[string]*lsp.HoverCache),
	}

	app.tabBar = newTabBar()
	app.tabBar.onClick = func(index int) {
		app.switchTab(index)
	}
	app.tabs.OnActiveChange(func(int) {
		app.rebuildLayout()
	})

	app.textArea.SetLabel("Editor")
	app.textArea.SetShowLineNumbers(cfg.Editor.LineNumbers)
	app.textArea.SetTabMode(true) // literal tabs for code editing
	app.textArea.SetWordWrap(app.wordWrap)
	app.textArea.SetGutterStyle(backend.DefaultStyle().Foreground(backend.ColorRGB(0x6a, 0x6a, 0x6a)))

	app.fileTree = widgets.NewDirectoryTree(treeRoot,
		widgets.WithLazyLoad(true),
		widgets.WithOnSelect(func(path string) {
			_ = app.openFile(path)
		}),
	)

	app.textArea.SetOnChange(func(text string) {
		if app.suppressChange {
			return
		}
		buf := app.tabs.ActiveBuffer()
		if buf == nil {
			return
		}
		app.applyBufferEdit(buf, text)
		app.updateStatus()

		// Auto-indent: detect if a newline was just inserted.
		offset := app.textArea.CursorOffset()
		runes := []rune(text)
		if offset > 0 && offset <= len(runes) && runes[offset-1] == '\n' {
			byteOffset := len(string(runes[:offset-1]))
			lineStart := strings.LastIndex(text[:byteOffset], "\n")
			if lineStart < 0 {
				lineStart = 0
			} else {
				lineStart++
			}
			lineAbove := text[lineStart:byteOffset]
			indent := editor.ComputeIndent(lineAbove)
			if indent != "" {
				insertAt := len(string(runes[:offset]))
				buf.ApplyEdit(insertAt, "", indent)
				newText := buf.Text()
				app.suppressChange = true
				app.textArea.SetText(newText)
				app.textArea.SetCursorOffset(offset + utf8.RuneCountInString(indent))
				app.suppressChange = false
				text = newText // use new text for highlighting
			}
		}

		app.highlight.scheduleHighlight([]byte(text), func(ranges []gotreesitter.HighlightRange) {
			app.applyHighlights(text, ranges)
			app.updateFoldRegions(text)
		})

		app.scheduleLspDidChange(buf, text)
		app.updateBracketMatch()
	})

	return app
}

// applyBufferEdit reconciles the buffer with the TextArea's new text as a
// single minimal edit, so layout invalidation and undo stay line-precise
// instead of treating every keystroke as a wholesale replacement.
func (a *loomApp) applyBufferEdit(buf *editor.Buffer, newText string) {
	oldText := buf.Text()
	if oldText == newText {
		return
	}
	start := commonPrefixLen(oldText, newText)
	oldEnd, newEnd := len(oldText), len(newText)
	for oldEnd > start && newEnd > start && oldText[oldEnd-1] == newText[newEnd-1] {
		oldEnd--
		newEnd--
	}
	// Keep the boundaries on rune starts.
	for start > 0 && !utf8.RuneStart(oldText[start]) {
		start--
	}
	buf.ApplyEdit(start, oldText[start:oldEnd], newText[start:newEnd])
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// observeBuffer registers the layout/web change listener for a buffer once.
func (a *loomApp) observeBuffer(buf *editor.Buffer) {
	if buf == nil || a.observed[buf] {
		return
	}
	a.observed[buf] = true
	buf.OnChange(func(ch editor.Change) {
		a.onBufferChange(buf, ch)
	})
}

func (a *loomApp) onBufferChange(buf *editor.Buffer, ch editor.Change) {
	if a.layout != nil && buf == a.tabs.ActiveBuffer() {
		switch {
		case ch.Full:
			a.layout.Clear()
		case ch.LinesDelta != 0:
			a.layout.LinesShifted(ch.FromLine)
		default:
			a.layout.LineChanged(ch.FromLine)
		}
	}
	if a.webServer != nil && buf.Path() != "" {
		if rel, err := filepath.Rel(a.treeRoot, buf.Path()); err == nil {
			a.webServer.Broadcast("bufferChanged", map[string]string{"path": rel})
		}
	}
}

// rebuildLayout points the layout cache and viewport at the active buffer.
func (a *loomApp) rebuildLayout() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		a.layout = nil
		a.viewport = nil
		return
	}
	a.observeBuffer(buf)
	a.layout = textlayout.NewLayoutCache(buf, a.currentWrapper())
	a.layout.SetFoldView(a.foldState)
	a.viewport = textlayout.NewViewport(a.layout, a.viewHeight())
}

func (a *loomApp) currentWrapper() textlayout.Wrapper {
	e := a.cfg.Editor
	e.WordWrap = a.wordWrap
	return e.Wrapper(a.viewWidth())
}

func (a *loomApp) viewWidth() int {
	if w := a.textArea.Bounds().Width; w > 0 {
		return w
	}
	return 80
}

func (a *loomApp) viewHeight() int {
	if h := a.textArea.Bounds().Height; h > 0 {
		return h
	}
	return 24
}

// syncLayoutGeometry re-checks the wrap geometry against the widget bounds.
// Called from status updates since the terminal can resize at any time.
func (a *loomApp) syncLayoutGeometry() {
	if a.layout == nil {
		return
	}
	if w := a.currentWrapper(); w != a.layout.Wrapper() {
		a.layout.SetWrapper(w)
	}
	if a.viewport != nil {
		a.viewport.SetHeight(a.viewHeight())
	}
}

// byteOffsetToRuneOffset builds a byte-to-rune offset lookup for the given text.
func byteOffsetToRuneOffset(text string) []int {
	mapping := make([]int, len(text)+1)
	runeIdx := 0
	for byteIdx := 0; byteIdx < len(text); {
		mapping[byteIdx] = runeIdx
		_, size := utf8.DecodeRuneInString(text[byteIdx:])
		for j := 1; j < size && byteIdx+j <= len(text); j++ {
			mapping[byteIdx+j] = runeIdx
		}
		byteIdx += size
		runeIdx++
	}
	mapping[len(text)] = runeIdx
	return mapping
}

func fileURI(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	uriPath := filepath.ToSlash(abs)
	if !strings.HasPrefix(uriPath, "/") {
		uriPath = "/" + uriPath
	}
	u := &url.URL{
		Scheme: "file",
		Path:   uriPath,
	}
	return u.String()
}

func languageIDFromPath(path string) string {
	entry := grammars.DetectLanguage(filepath.Base(path))
	if entry == nil {
		return ""
	}
	return strings.ToLower(entry.Name)
}

func lspConfigSearchPaths(treeRoot string) []string {
	paths := make([]string, 0, 3)
	if envPath := strings.TrimSpace(os.Getenv("LOOM_LSP_CONFIG")); envPath != "" {
		paths = append(paths, envPath)
	}
	if treeRoot != "" {
		paths = append(paths, filepath.Join(treeRoot, ".loom-lsp.json"))
	}
	if cfgRoot, err := os.UserConfigDir(); err == nil && cfgRoot != "" {
		paths = append(paths, filepath.Join(cfgRoot, "loom", "lsp.json"))
	}
	return paths
}

func applyLSPServerOverrides(servers map[string]lsp.ServerConfig, treeRoot string) {
	if len(servers) == 0 {
		return
	}

	for _, configPath := range lspConfigSearchPaths(treeRoot) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			continue
		}

		overrides := make(map[string]lsp.ServerConfig)
		if err := json.Unmarshal(data, &overrides); err != nil {
			log.ErrorErr(log.CatLSP, "bad server override file", err, "path", configPath)
			continue
		}

		for langID, cfg := range overrides {
			langID = strings.ToLower(strings.TrimSpace(langID))
			cfg.Command = strings.TrimSpace(cfg.Command)
			if langID == "" || cfg.Command == "" {
				continue
			}
			servers[langID] = cfg
		}
		break
	}
}

func filePathFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if u.Scheme != "file" {
		return uri
	}
	path := u.Path
	if path == "" {
		return ""
	}
	path, err = url.PathUnescape(path)
	if err != nil {
		path = u.Path
	}
	if strings.HasPrefix(path, "/") && len(path) >= 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// lspOffsetFromPosition converts an LSP position to a byte offset.
func lspOffsetFromPosition(text string, pos lsp.Position) int {
	lines := strings.Split(text, "\n")
	lineIdx := pos.Line
	if lineIdx < 0 {
		return 0
	}
	if lineIdx >= len(lines) {
		return len(text)
	}
	runeCol := pos.Character
	if runeCol < 0 {
		runeCol = 0
	}
	lineText := []rune(lines[lineIdx])
	if runeCol > len(lineText) {
		runeCol = len(lineText)
	}
	colBytes := len(string(lineText[:runeCol]))

	prefixLen := 0
	for i := 0; i < lineIdx; i++ {
		prefixLen += len(lines[i]) + 1
	}
	offset := prefixLen + colBytes
	if offset > len(text) {
		return len(text)
	}
	return offset
}

// runeOffsetToByteOffset converts a rune offset to a byte offset.
func runeOffsetToByteOffset(text string, runeOffset int) int {
	if runeOffset <= 0 {
		return 0
	}
	total := utf8.RuneCountInString(text)
	if runeOffset >= total {
		return len(text)
	}
	runeIndex := 0
	for byteIndex := range text {
		if runeIndex == runeOffset {
			return byteIndex
		}
		runeIndex++
	}
	return len(text)
}

// lspPositionFromByteOffset converts a byte offset to an LSP position.
func lspPositionFromByteOffset(text string, byteOffset int) lsp.Position {
	if byteOffset <= 0 {
		return lsp.Position{}
	}
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	prefix := text[:byteOffset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndex(prefix, "\n")
	if lineStart < 0 {
		lineStart = 0
	} else {
		lineStart++
	}
	return lsp.Position{
		Line:      line,
		Character: utf8.RuneCountInString(prefix[lineStart:byteOffset]),
	}
}

func lspRangeToByteOffsets(text string, rng lsp.Range) (int, int) {
	start := lspOffsetFromPosition(text, rng.Start)
	end := lspOffsetFromPosition(text, rng.End)
	if end < start {
		end = start
	}
	if start < 0 {
		start = 0
	}
	if start > len(text) {
		start = len(text)
	}
	if end > len(text) {
		end = len(text)
	}
	return start, end
}

func (a *loomApp) activeLSPSession() (*editor.Buffer, string, string, *lsp.Client, error) {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return nil, "", "", nil, fmt.Errorf("no active buffer")
	}
	if buf.Path() == "" {
		return nil, "", "", nil, fmt.Errorf("buffer has no file path")
	}
	uri := fileURI(buf.Path())
	if uri == "" {
		return nil, "", "", nil, fmt.Errorf("cannot build LSP URI")
	}
	langID := languageIDFromPath(buf.Path())
	if langID == "" {
		return nil, "", "", nil, fmt.Errorf("no language server mapping for %s", filepath.Base(buf.Path()))
	}
	client, err := a.lspClientForLanguage(langID)
	if err != nil {
		return nil, "", "", nil, err
	}
	return buf, uri, langID, client, nil
}

func (a *loomApp) activeCursorPosition(buf *editor.Buffer) (lsp.Position, error) {
	if buf == nil {
		return lsp.Position{}, fmt.Errorf("no active buffer")
	}
	text := buf.Text()
	cursorOffset := a.textArea.CursorOffset()
	byteOffset := runeOffsetToByteOffset(text, cursorOffset)
	return lspPositionFromByteOffset(text, byteOffset), nil
}

func (a *loomApp) setCursorFromLSPPosition(uri string, pos lsp.Position) error {
	path := filePathFromURI(uri)
	if path != "" && (a.tabs.ActiveBuffer() == nil || a.tabs.ActiveBuffer().Path() != path) {
		if err := a.openFile(path); err != nil {
			return err
		}
	}
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return fmt.Errorf("no active buffer")
	}
	text := buf.Text()
	byteOffset := lspOffsetFromPosition(text, pos)
	mapping := byteOffsetToRuneOffset(text)
	runeOffset := mapping[byteOffset]
	a.ensureLineVisible(pos.Line)
	a.textArea.SetCursorOffset(runeOffset)
	a.updateStatus()
	return nil
}

func (a *loomApp) lspDiagnosticsForActive() []lsp.Diagnostic {
	uri := ""
	if buf := a.tabs.ActiveBuffer(); buf != nil {
		uri = fileURI(buf.Path())
	}
	if uri == "" {
		return nil
	}
	a.lspMu.Lock()
	defer a.lspMu.Unlock()
	out := make([]lsp.Diagnostic, 0, len(a.lspDiagnostics[uri]))
	out = append(out, a.lspDiagnostics[uri]...)
	return out
}

// applyHighlights converts gotreesitter.HighlightRange values to
// TextAreaHighlight using the active palette and sets them on the TextArea.
func (a *loomApp) applyHighlights(text string, ranges []gotreesitter.HighlightRange) {
	if len(ranges) == 0 || a.theme == nil {
		a.syntaxHighlights = nil
		a.mergeAllHighlights()
		return
	}

	mapping := byteOffsetToRuneOffset(text)

	highlights := make([]widgets.TextAreaHighlight, 0, len(ranges))
	for _, r := range ranges {
		startByte := int(r.StartByte)
		endByte := int(r.EndByte)
		if startByte > len(text) {
			startByte = len(text)
		}
		if endByte > len(text) {
			endByte = len(text)
		}

		s, ok := a.theme.styleFor(r.Capture)
		if !ok {
			continue
		}

		highlights = append(highlights, widgets.TextAreaHighlight{
			Start: mapping[startByte],
			End:   mapping[endByte],
			Style: s,
		})
	}

	a.syntaxHighlights = highlights
	a.mergeAllHighlights()
}

// openFile opens a file by path through the TabManager and loads its content
// into the TextArea.
func (a *loomApp) openFile(path string) error {
	_, err := a.tabs.OpenFile(path)
	if err != nil {
		a.status.Set(fmt.Sprintf(" error: %v", err))
		log.ErrorErr(log.CatEditor, "open failed", err, "path", path)
		return err
	}

	a.highlight.setup(filepath.Base(path))
	a.syncTextArea()
	a.syncTabBar()
	a.updateStatus()

	buf := a.tabs.ActiveBuffer()
	if buf != nil {
		a.registerDocument(buf.Path())
		text := buf.Text()
		ranges := a.highlight.highlight([]byte(text))
		a.applyHighlights(text, ranges)
		a.openLSPDocument(buf)
		a.applyDiagnosticsForActiveBuffer()
		a.updateFoldRegions(text)
		a.updateStatus()
		log.Info(log.CatEditor, "opened file", "path", buf.Path(), "tab", a.tabs.Active())
	}
	return nil
}

// openFileAt opens a file and jumps to a 1-based line when line > 0.
func (a *loomApp) openFileAt(path string, line int) error {
	if err := a.openFile(path); err != nil {
		return err
	}
	if line > 0 {
		a.gotoLine(line)
	}
	return nil
}

// registerDocument associates an opened document with its project, starting
// a marker watcher the first time a project appears.
func (a *loomApp) registerDocument(path string) {
	if path == "" {
		return
	}
	p, err := a.projects.DocumentOpened(path)
	if err != nil {
		log.ErrorErr(log.CatProject, "project discovery failed", err, "path", path)
		return
	}
	if p == nil {
		return
	}
	log.Debug(log.CatProject, "document mapped", "path", path, "project", p.Name())
	a.watchProject(p)
}

// watchProject starts a reload watcher on the project marker file. A change
// to the marker re-indexes the project file list.
func (a *loomApp) watchProject(p *project.Project) {
	marker := p.MarkerPath()
	if marker == "" {
		return
	}
	if _, ok := a.watchers[p.BaseDir()]; ok {
		return
	}
	w, err := project.NewWatcher(project.DefaultWatchConfig(marker))
	if err != nil {
		log.ErrorErr(log.CatProject, "watcher create failed", err, "marker", marker)
		return
	}
	reload, err := w.Start()
	if err != nil {
		log.ErrorErr(log.CatProject, "watcher start failed", err, "marker", marker)
		return
	}
	a.watchers[p.BaseDir()] = w
	go func() {
		for range reload {
			log.Info(log.CatProject, "project file changed, reindexing", "project", p.Name())
			p.Refresh()
		}
	}()
}

func (a *loomApp) stopWatchers() {
	for _, w := range a.watchers {
		_ = w.Stop()
	}
	a.watchers = make(map[string]*project.Watcher)
}

// syncTextArea loads the active buffer's text into the TextArea widget.
func (a *loomApp) syncTextArea() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		a.textArea.SetText("")
		a.bracketHighlights = nil
		a.foldState.SetRegions(nil)
		a.textArea.SetVisibleLines(nil)
		a.applyDiagnosticsForActiveBuffer()
		return
	}
	a.suppressChange = true
	a.textArea.SetText(buf.Text())
	a.suppressChange = false
	a.applyDiagnosticsForActiveBuffer()
}

func (a *loomApp) applyPaste(text string) {
	if text == "" {
		return
	}
	a.textArea.ClipboardPaste(text)
}

// updateStatus refreshes the status bar from the active buffer and the
// layout engine.
func (a *loomApp) updateStatus() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		a.status.Set(" untitled")
		return
	}
	a.syncLayoutGeometry()

	dirty := ""
	if buf.Dirty() {
		dirty = " [modified]"
	}

	langName := ""
	if entry := grammars.DetectLanguage(filepath.Base(buf.Path())); entry != nil {
		langName = "  " + strings.ToUpper(entry.Name)
	}

	lineEnding := detectLineEnding(buf.Text())
	indent := detectIndentMode(buf.Text())
	wrap := "off"
	if a.wordWrap {
		wrap = "on"
	}

	col, row := a.textArea.CursorPosition()
	status := fmt.Sprintf(
		" %s%s%s  Ln %d, Col %d%s  UTF-8  %s  %s  wrap:%s",
		buf.Title(),
		dirty,
		langName,
		row+1,
		col+1,
		a.viewLineInfo(row, col),
		lineEnding,
		indent,
		wrap,
	)
	if p := a.projects.ProjectForDocument(buf.Path()); p != nil {
		status += fmt.Sprintf("  [%s:%s]", p.Kind(), p.Name())
	}
	if diagSummary := a.diagnosticSummary(); diagSummary != "" {
		status += "  " + diagSummary
	}
	a.status.Set(status)
}

// viewLineInfo reports which wrapped view line the cursor sits on, when the
// logical line occupies more than one.
func (a *loomApp) viewLineInfo(row, col int) string {
	if a.layout == nil {
		return ""
	}
	total := a.layout.ViewLineCount(row)
	if total <= 1 {
		return ""
	}
	tl := a.layout.TextLayoutForCursor(textlayout.Cursor{Line: row, Column: col})
	if tl == nil || !tl.IsValid() {
		return ""
	}
	return fmt.Sprintf(" (seg %d/%d)", tl.ViewLine()+1, total)
}

// cursorAnchor returns the approximate screen cell of the text cursor for
// tooltip placement.
func (a *loomApp) cursorAnchor() (x, y int) {
	b := a.textArea.Bounds()
	col, row := a.textArea.CursorPosition()
	if a.viewport != nil {
		cur := textlayout.Cursor{Line: row, Column: col}
		a.viewport.ScrollToCursor(cur)
		if px, prow, ok := a.viewport.CursorToPoint(cur); ok {
			return b.X + px, b.Y + prow
		}
	}
	return b.X + col, b.Y
}

// cmdFind opens the search widget as an overlay.
func (a *loomApp) cmdFind() runtime.HandleResult {
	a.search.Focus()
	return runtime.WithCommand(runtime.PushOverlay{Widget: a.search})
}

// onSearch handles search query changes from the SearchWidget.
func (a *loomApp) onSearch(query string) {
	if query == "" {
		a.searchMatches = nil
		a.searchCurrent = 0
		a.search.SetMatchInfo(0, 0)
		a.textArea.SetHighlights(a.syntaxHighlights)
		return
	}

	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}

	a.searchMatches = buf.Find(query)
	a.searchCurrent = 0

	if len(a.searchMatches) > 0 {
		a.search.SetMatchInfo(0, len(a.searchMatches))
		a.jumpToMatch(0)
	} else {
		a.search.SetMatchInfo(0, 0)
	}

	a.mergeAllHighlights()
}

// onSearchNext moves to the next search match.
func (a *loomApp) onSearchNext() {
	if len(a.searchMatches) == 0 {
		return
	}
	a.searchCurrent = (a.searchCurrent + 1) % len(a.searchMatches)
	a.search.SetMatchInfo(a.searchCurrent, len(a.searchMatches))
	a.jumpToMatch(a.searchCurrent)
	a.mergeAllHighlights()
}

// onSearchPrev moves to the previous search match.
func (a *loomApp) onSearchPrev() {
	if len(a.searchMatches) == 0 {
		return
	}
	a.searchCurrent--
	if a.searchCurrent < 0 {
		a.searchCurrent = len(a.searchMatches) - 1
	}
	a.search.SetMatchInfo(a.searchCurrent, len(a.searchMatches))
	a.jumpToMatch(a.searchCurrent)
	a.mergeAllHighlights()
}

// onSearchClose clears search state when the search widget is dismissed.
func (a *loomApp) onSearchClose() {
	a.searchMatches = nil
	a.searchCurrent = 0
	a.textArea.SetHighlights(a.syntaxHighlights)
}

// cmdReplace opens the replace widget as an overlay.
func (a *loomApp) cmdReplace() runtime.HandleResult {
	a.replaceW.Focus()
	return runtime.WithCommand(runtime.PushOverlay{Widget: a.replaceW})
}

// onReplaceSearch handles search query changes from the replace widget. It
// reuses the same search state as cmdFind so highlights stay consistent.
func (a *loomApp) onReplaceSearch(query string) {
	if query == "" {
		a.searchMatches = nil
		a.searchCurrent = 0
		a.replaceW.SetMatchInfo(0, 0)
		a.textArea.SetHighlights(a.syntaxHighlights)
		return
	}

	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}

	a.searchMatches = buf.Find(query)
	a.searchCurrent = 0

	if len(a.searchMatches) > 0 {
		a.replaceW.SetMatchInfo(0, len(a.searchMatches))
		a.jumpToMatch(0)
	} else {
		a.replaceW.SetMatchInfo(0, 0)
	}

	a.mergeAllHighlights()
}

// onReplaceNext moves to the next search match (from replace widget).
func (a *loomApp) onReplaceNext() {
	if len(a.searchMatches) == 0 {
		return
	}
	a.searchCurrent = (a.searchCurrent + 1) % len(a.searchMatches)
	a.replaceW.SetMatchInfo(a.searchCurrent, len(a.searchMatches))
	a.jumpToMatch(a.searchCurrent)
	a.mergeAllHighlights()
}

// onReplacePrev moves to the previous search match (from replace widget).
func (a *loomApp) onReplacePrev() {
	if len(a.searchMatches) == 0 {
		return
	}
	a.searchCurrent--
	if a.searchCurrent < 0 {
		a.searchCurrent = len(a.searchMatches) - 1
	}
	a.replaceW.SetMatchInfo(a.searchCurrent, len(a.searchMatches))
	a.jumpToMatch(a.searchCurrent)
	a.mergeAllHighlights()
}

// onReplace replaces the current search match and advances to the next one.
func (a *loomApp) onReplace(search, replace string) {
	if search == "" || len(a.searchMatches) == 0 {
		return
	}
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}

	if a.searchCurrent >= 0 && a.searchCurrent < len(a.searchMatches) {
		r := a.searchMatches[a.searchCurrent]
		buf.Replace(replace, r)
	}

	a.syncTextArea()
	a.updateStatus()

	// Re-run search to refresh matches with updated text.
	a.searchMatches = buf.Find(search)
	if len(a.searchMatches) == 0 {
		a.searchCurrent = 0
		a.replaceW.SetMatchInfo(0, 0)
		a.textArea.SetHighlights(a.syntaxHighlights)
		return
	}

	if a.searchCurrent >= len(a.searchMatches) {
		a.searchCurrent = 0
	}
	a.replaceW.SetMatchInfo(a.searchCurrent, len(a.searchMatches))
	a.jumpToMatch(a.searchCurrent)
	a.mergeAllHighlights()

	text := buf.Text()
	a.scheduleLspDidChange(buf, text)
	a.highlight.scheduleHighlight([]byte(text), func(ranges []gotreesitter.HighlightRange) {
		a.applyHighlights(text, ranges)
		a.updateFoldRegions(text)
	})
}

// onReplaceAll replaces all occurrences and updates the UI.
func (a *loomApp) onReplaceAll(search, replace string) {
	if search == "" {
		return
	}
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}

	count := buf.ReplaceAll(search, replace)

	a.syncTextArea()
	a.updateStatus()

	a.searchMatches = nil
	a.searchCurrent = 0
	a.replaceW.SetMatchInfo(0, 0)
	a.textArea.SetHighlights(a.syntaxHighlights)

	a.status.Set(fmt.Sprintf(" Replaced %d occurrence(s)", count))

	text := buf.Text()
	a.scheduleLspDidChange(buf, text)
	a.highlight.scheduleHighlight([]byte(text), func(ranges []gotreesitter.HighlightRange) {
		a.applyHighlights(text, ranges)
		a.updateFoldRegions(text)
	})
}

// onReplaceClose clears search state when the replace widget is dismissed.
func (a *loomApp) onReplaceClose() {
	a.searchMatches = nil
	a.searchCurrent = 0
	a.textArea.SetHighlights(a.syntaxHighlights)
}

// cmdGotoLine opens the goto input overlay. The input accepts a line number
// or a file:line target.
func (a *loomApp) cmdGotoLine() runtime.HandleResult {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return runtime.Unhandled()
	}
	_, row := a.textArea.CursorPosition()
	a.gotoW.SetQuery(strconv.Itoa(row + 1))
	a.gotoW.Focus()
	return runtime.WithCommand(runtime.PushOverlay{Widget: a.gotoW})
}

// onGoto handles the submitted goto target: "42", "path:42" or "path".
func (a *loomApp) onGoto(input string) {
	if input == "" {
		return
	}
	if n, err := strconv.Atoi(input); err == nil {
		a.gotoLine(n)
		return
	}
	target := quickopen.ParseTarget(input)
	if target.Query == "" {
		a.gotoLine(target.Line)
		return
	}
	path := target.Query
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.treeRoot, path)
	}
	if err := a.openFileAt(path, target.Line); err != nil {
		a.status.Set(fmt.Sprintf(" goto failed: %v", err))
	}
}

// gotoLine moves the cursor to a 1-based line in the active buffer, clamped
// to the document.
func (a *loomApp) gotoLine(line int) {
	if line <= 0 {
		a.status.Set(" Invalid line number")
		return
	}
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	maxLine := buf.LineCount()
	if maxLine == 0 {
		maxLine = 1
	}
	if line > maxLine {
		line = maxLine
	}
	a.ensureLineVisible(line - 1)
	a.textArea.SetCursorPosition(0, line-1)
	a.updateStatus()
}

// cmdQuickOpen opens the fuzzy file finder overlay over the project index.
func (a *loomApp) cmdQuickOpen() runtime.HandleResult {
	items, err := a.quickOpenItems()
	if err != nil {
		a.status.Set(fmt.Sprintf(" quick open error: %v", err))
		return runtime.Handled()
	}
	a.finder.SetItems(items)
	a.finder.Show()
	a.finder.Focus()
	return runtime.Handled()
}

// quickOpenItems builds the searchable file set from the active project, or
// from the tree root when no project is open.
func (a *loomApp) quickOpenItems() ([]quickopen.Item, error) {
	var files []project.File
	var err error
	if buf := a.tabs.ActiveBuffer(); buf != nil && buf.Path() != "" {
		if p := a.projects.ProjectForDocument(buf.Path()); p != nil {
			files, err = p.Files()
		}
	}
	if files == nil && err == nil {
		files, err = project.IndexFiles(a.treeRoot)
	}
	if err != nil {
		return nil, err
	}
	items := make([]quickopen.Item, 0, len(files))
	for _, f := range files {
		items = append(items, quickopen.Item{Label: f.Rel, Detail: f.Abs})
	}
	return items, nil
}

// cmdShowPalette opens the command palette.
func (a *loomApp) cmdShowPalette() {
	a.palette.Toggle()
}

// jumpToMatch moves the cursor to the given match index.
func (a *loomApp) jumpToMatch(idx int) {
	if idx < 0 || idx >= len(a.searchMatches) {
		return
	}
	m := a.searchMatches[idx]
	text := a.textArea.Text()
	mapping := byteOffsetToRuneOffset(text)
	start := m.Start
	if start > len(text) {
		start = len(text)
	}
	pos := lspPositionFromByteOffset(text, start)
	a.ensureLineVisible(pos.Line)
	a.textArea.SetCursorOffset(mapping[start])
}

func (a *loomApp) ensureLSPPalette() {
	if a.lspPalette == nil {
		a.lspPalette = widgets.NewCommandPalette()
	}
}

func (a *loomApp) showLSPPalette(cmds []widgets.PaletteCommand, status string) {
	a.ensureLSPPalette()
	if len(cmds) == 0 {
		a.lspPalette.Hide()
		a.status.Set(" " + status)
		return
	}
	a.lspPalette.SetCommands(cmds)
	a.lspPalette.Show()
	a.lspPalette.Focus()
	a.status.Set(" " + status)
}

// hoverCacheFor returns the TTL hover cache in front of a language's client.
func (a *loomApp) hoverCacheFor(langID string, client *lsp.Client) *lsp.HoverCache {
	a.lspMu.Lock()
	defer a.lspMu.Unlock()
	if hc, ok := a.hoverCaches[langID]; ok {
		return hc
	}
	hc := lsp.NewHoverCache(client)
	a.hoverCaches[langID] = hc
	return hc
}

// cmdLspHover shows hover documentation in a tooltip near the cursor.
func (a *loomApp) cmdLspHover() runtime.HandleResult {
	buf, uri, langID, client, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return runtime.Handled()
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return runtime.Handled()
	}

	hover, err := a.hoverCacheFor(langID, client).Hover(a.lspCtx, uri, pos)
	if err != nil {
		a.status.Set(fmt.Sprintf(" hover failed: %v", err))
		return runtime.Handled()
	}
	if hover == nil {
		a.status.Set(" no hover info")
		return runtime.Handled()
	}
	lines := lsp.NormalizeHover(string(hover.Contents))
	if len(lines) == 0 {
		a.status.Set(" no hover info")
		return runtime.Handled()
	}

	anchorX, anchorY := a.cursorAnchor()
	a.tooltip.ShowAt(lines, anchorX, anchorY)
	return runtime.Handled()
}

func (a *loomApp) cmdLspComplete() {
	buf, uri, langID, _, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}

	var items []lsp.CompletionItem
	err = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		var callErr error
		items, callErr = client.Completion(a.lspCtx, uri, pos)
		return callErr
	})
	if err != nil {
		a.status.Set(fmt.Sprintf(" completion failed: %v", err))
		return
	}
	if len(items) == 0 {
		a.status.Set(" no completion suggestions")
		return
	}

	cmds := make([]widgets.PaletteCommand, 0, len(items))
	for i, item := range items {
		insert := item.InsertText
		if insert == "" {
			insert = item.Label
		}
		if insert == "" {
			continue
		}
		itemCopy := item
		cmds = append(cmds, widgets.PaletteCommand{
			ID:          fmt.Sprintf("lsp.complete.%d", i),
			Label:       item.Label,
			Description: item.Detail,
			OnExecute: func(item lsp.CompletionItem) func() {
				return func() {
					a.applyLSPCompletion(item)
					a.lspPalette.Hide()
				}
			}(itemCopy),
		})
	}
	if len(cmds) == 0 {
		a.status.Set(" no completion suggestions")
		return
	}
	a.showLSPPalette(cmds, fmt.Sprintf("Completion: %d items", len(cmds)))
}

func parseSnippetPlaceholder(token string) (index int, text string, ok bool) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) == 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		return n, parts[1], true
	}
	return n, "", true
}

// expandSnippetInsert flattens an LSP snippet to plain text and returns the
// rune offset of the first tab stop.
func expandSnippetInsert(snippet string) (string, int) {
	var out strings.Builder
	runeLen := 0
	firstTabStop := -1
	finalTabStop := -1

	appendText := func(s string) {
		if s == "" {
			return
		}
		out.WriteString(s)
		runeLen += utf8.RuneCountInString(s)
	}

	for i := 0; i < len(snippet); {
		if snippet[i] == '\\' && i+1 < len(snippet) {
			next := snippet[i+1]
			if next == '$' || next == '{' || next == '}' || next == '\\' {
				appendText(snippet[i+1 : i+2])
				i += 2
				continue
			}
		}

		if snippet[i] != '$' {
			_, size := utf8.DecodeRuneInString(snippet[i:])
			if size <= 0 {
				size = 1
			}
			appendText(snippet[i : i+size])
			i += size
			continue
		}

		// Braced placeholder: ${1:name}, ${2}, ${0}
		if i+1 < len(snippet) && snippet[i+1] == '{' {
			end := i + 2
			for end < len(snippet) && snippet[end] != '}' {
				end++
			}
			if end >= len(snippet) {
				appendText(snippet[i : i+1])
				i++
				continue
			}

			idx, placeholderText, ok := parseSnippetPlaceholder(snippet[i+2 : end])
			if !ok {
				appendText(snippet[i : end+1])
				i = end + 1
				continue
			}
			if idx == 0 {
				if finalTabStop < 0 {
					finalTabStop = runeLen
				}
			} else if firstTabStop < 0 {
				firstTabStop = runeLen
			}
			appendText(placeholderText)
			i = end + 1
			continue
		}

		// Numeric tab stop: $1, $0.
		if i+1 < len(snippet) && snippet[i+1] >= '0' && snippet[i+1] <= '9' {
			j := i + 1
			for j < len(snippet) && snippet[j] >= '0' && snippet[j] <= '9' {
				j++
			}
			idx, _ := strconv.Atoi(snippet[i+1 : j])
			if idx == 0 {
				if finalTabStop < 0 {
					finalTabStop = runeLen
				}
			} else if firstTabStop < 0 {
				firstTabStop = runeLen
			}
			i = j
			continue
		}

		appendText(snippet[i : i+1])
		i++
	}

	text := out.String()
	switch {
	case firstTabStop >= 0:
		return text, firstTabStop
	case finalTabStop >= 0:
		return text, finalTabStop
	default:
		return text, runeLen
	}
}

func (a *loomApp) applyLSPCompletion(item lsp.CompletionItem) {
	insert := item.InsertText
	if insert == "" {
		insert = item.Label
	}
	if insert == "" {
		return
	}

	cursorDelta := utf8.RuneCountInString(insert)
	if item.InsertTextFormat == 2 {
		insert, cursorDelta = expandSnippetInsert(insert)
	}

	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	text := buf.Text()
	offsetRunes := a.textArea.CursorOffset()
	offsetBytes := runeOffsetToByteOffset(text, offsetRunes)

	buf.ApplyEdit(offsetBytes, "", insert)
	newText := buf.Text()

	a.suppressChange = true
	a.textArea.SetText(newText)
	a.suppressChange = false
	a.textArea.SetCursorOffset(offsetRunes + cursorDelta)
	a.textArea.SetSelection(widgets.Selection{})
	a.rehighlight(newText)
	a.scheduleLspDidChange(buf, newText)
	a.applyDiagnosticsForActiveBuffer()
	a.status.Set(fmt.Sprintf(" inserted: %s", item.Label))
	a.updateStatus()
}

func (a *loomApp) cmdLspDefinition() {
	buf, uri, langID, _, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}

	var locations []lsp.Location
	err = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		var callErr error
		locations, callErr = client.Definition(a.lspCtx, uri, pos)
		return callErr
	})
	if err != nil {
		a.status.Set(fmt.Sprintf(" definition lookup failed: %v", err))
		return
	}
	if len(locations) == 0 {
		a.status.Set(" no definition")
		return
	}

	if err := a.openLSPLocation(locations[0].URI, locations[0].Range.Start); err != nil {
		a.status.Set(fmt.Sprintf(" definition failed: %v", err))
	}
}

func (a *loomApp) cmdLspReferences() {
	buf, uri, langID, _, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}

	var locations []lsp.Location
	err = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		var callErr error
		locations, callErr = client.References(a.lspCtx, uri, pos)
		return callErr
	})
	if err != nil {
		a.status.Set(fmt.Sprintf(" references lookup failed: %v", err))
		return
	}
	if len(locations) == 0 {
		a.status.Set(" no references")
		return
	}

	cmds := make([]widgets.PaletteCommand, 0, len(locations))
	for i, loc := range locations {
		path := filePathFromURI(loc.URI)
		displayPath := path
		if path == "" {
			displayPath = loc.URI
		}
		title := fmt.Sprintf("%s:%d:%d", filepath.Base(displayPath), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
		cmds = append(cmds, widgets.PaletteCommand{
			ID:          fmt.Sprintf("lsp.ref.%d", i),
			Label:       title,
			Description: displayPath,
			OnExecute: func(uri string, pos lsp.Position) func() {
				return func() {
					if err := a.openLSPLocation(uri, pos); err != nil {
						a.status.Set(fmt.Sprintf(" reference open failed: %v", err))
					}
				}
			}(loc.URI, loc.Range.Start),
		})
	}

	a.showLSPPalette(cmds, fmt.Sprintf("References: %d", len(cmds)))
}

func (a *loomApp) cmdLspDiagnostics() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		a.status.Set(" no active buffer")
		return
	}

	diags := a.lspDiagnosticsForActive()
	if len(diags) == 0 {
		a.status.Set(" no diagnostics")
		return
	}

	cmds := make([]widgets.PaletteCommand, 0, len(diags))
	for i, diag := range diags {
		sev := "I"
		switch diag.Severity {
		case 1:
			sev = "E"
		case 2:
			sev = "W"
		case 4:
			sev = "H"
		}

		msg := strings.ReplaceAll(strings.TrimSpace(diag.Message), "\n", " ")
		if len(msg) > 90 {
			msg = msg[:87] + "..."
		}
		source := strings.TrimSpace(diag.Source)
		if source == "" {
			source = filepath.Base(buf.Path())
		}

		start := diag.Range.Start
		cmds = append(cmds, widgets.PaletteCommand{
			ID:          fmt.Sprintf("lsp.diag.%d", i),
			Label:       fmt.Sprintf("[%s] Ln %d, Col %d", sev, start.Line+1, start.Character+1),
			Description: fmt.Sprintf("%s: %s", source, msg),
			OnExecute: func(pos lsp.Position) func() {
				return func() {
					a.ensureLineVisible(pos.Line)
					a.textArea.SetCursorPosition(pos.Character, pos.Line)
					a.lspPalette.Hide()
					a.updateStatus()
				}
			}(start),
		})
	}

	a.showLSPPalette(cmds, fmt.Sprintf("Diagnostics: %d", len(cmds)))
}

func (a *loomApp) cmdLspCodeAction() {
	buf, uri, langID, _, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	diags := a.lspDiagnosticsForActive()
	var actions []lsp.CodeAction
	err = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		var callErr error
		actions, callErr = client.CodeAction(a.lspCtx, uri, lsp.Range{Start: pos, End: pos}, diags)
		return callErr
	})
	if err != nil {
		a.status.Set(fmt.Sprintf(" code action failed: %v", err))
		return
	}
	if len(actions) == 0 {
		a.status.Set(" no code actions")
		return
	}

	cmds := make([]widgets.PaletteCommand, 0, len(actions))
	for i, action := range actions {
		title := action.Title
		if title == "" {
			title = "Code Action"
		}
		actionCopy := action
		cmds = append(cmds, widgets.PaletteCommand{
			ID:    fmt.Sprintf("lsp.action.%d", i),
			Label: title,
			OnExecute: func(action lsp.CodeAction) func() {
				return func() {
					if action.Edit == nil || len(action.Edit.Changes) == 0 {
						a.status.Set(" selected code action has no edits")
						return
					}
					if err := a.applyWorkspaceEdits(action.Edit.Changes); err != nil {
						a.status.Set(fmt.Sprintf(" apply code action failed: %v", err))
					} else {
						a.status.Set(" applied code action")
					}
				}
			}(actionCopy),
		})
	}
	a.showLSPPalette(cmds, fmt.Sprintf("Code actions: %d", len(cmds)))
}

func (a *loomApp) cmdLspRename() runtime.HandleResult {
	if _, _, _, _, err := a.activeLSPSession(); err != nil {
		a.status.Set(" " + err.Error())
		return runtime.Handled()
	}
	a.renameW.SetQuery(a.currentSymbolAtCursor())
	a.renameW.Focus()
	return runtime.WithCommand(runtime.PushOverlay{Widget: a.renameW})
}

func (a *loomApp) cmdRenameSubmit(name string) {
	if name == "" {
		a.status.Set(" rename cancelled")
		return
	}
	buf, uri, langID, _, err := a.activeLSPSession()
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}
	pos, err := a.activeCursorPosition(buf)
	if err != nil {
		a.status.Set(" " + err.Error())
		return
	}

	var changes map[string][]lsp.TextEdit
	err = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		var callErr error
		changes, callErr = client.Rename(a.lspCtx, uri, pos, name)
		return callErr
	})
	if err != nil {
		a.status.Set(fmt.Sprintf(" rename failed: %v", err))
		return
	}
	if err := a.applyWorkspaceEdits(changes); err != nil {
		a.status.Set(fmt.Sprintf(" rename failed: %v", err))
		return
	}
	a.status.Set(fmt.Sprintf(" renamed to %q", name))
	a.updateStatus()
}

func (a *loomApp) openLSPLocation(uri string, pos lsp.Position) error {
	path := filePathFromURI(uri)
	if path == "" {
		return fmt.Errorf("invalid URI: %s", uri)
	}
	if err := a.openFile(path); err != nil {
		return err
	}
	return a.setCursorFromLSPPosition(uri, pos)
}

func (a *loomApp) findBufferByPath(path string) *editor.Buffer {
	if path == "" {
		return nil
	}
	normalized, err := filepath.Abs(path)
	if err != nil {
		normalized = filepath.Clean(path)
	}

	for _, buf := range a.tabs.Buffers() {
		if buf == nil || buf.Path() == "" {
			continue
		}
		bufferPath, err := filepath.Abs(buf.Path())
		if err != nil {
			bufferPath = filepath.Clean(buf.Path())
		}
		if filepath.Clean(bufferPath) == filepath.Clean(normalized) {
			return buf
		}
	}
	return nil
}

func (a *loomApp) restoreActiveBuffer(index int, cursorOffset int) {
	count := a.tabs.Count()
	if count == 0 {
		a.syncTextArea()
		a.syncTabBar()
		a.applyDiagnosticsForActiveBuffer()
		return
	}
	if index < 0 {
		return
	}
	if index >= count {
		index = count - 1
	}
	a.tabs.SetActive(index)
	a.syncTextArea()
	a.syncTabBar()
	maxOffset := utf8.RuneCountInString(a.textArea.Text())
	if cursorOffset < 0 {
		cursorOffset = 0
	}
	if cursorOffset > maxOffset {
		cursorOffset = maxOffset
	}
	a.textArea.SetCursorOffset(cursorOffset)
	a.applyDiagnosticsForActiveBuffer()
	a.updateStatus()
}

func (a *loomApp) applyWorkspaceEdits(changes map[string][]lsp.TextEdit) error {
	if len(changes) == 0 {
		return fmt.Errorf("no edits to apply")
	}

	originalActiveIndex := a.tabs.Active()
	originalBuffer := a.tabs.ActiveBuffer()
	originalCursorOffset := a.textArea.CursorOffset()

	changed := false
	skipped := 0
	editedBuffers := 0

	for uri, edits := range changes {
		if len(edits) == 0 {
			continue
		}

		path := filePathFromURI(uri)
		if path == "" {
			skipped++
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		buf := a.findBufferByPath(path)
		if buf == nil {
			// Open non-active file to apply cross-file workspace edits.
			if _, err := a.tabs.OpenFile(path); err != nil {
				skipped++
				continue
			}
			buf = a.tabs.ActiveBuffer()
			if buf == nil {
				skipped++
				continue
			}
			a.openLSPDocument(buf)
		}
		if buf.Path() == "" {
			skipped++
			continue
		}

		text := buf.Text()
		type replacement struct {
			Start int
			End   int
			Text  string
		}
		ranges := make([]replacement, 0, len(edits))
		for _, edit := range edits {
			start, end := lspRangeToByteOffsets(text, edit.Range)
			ranges = append(ranges, replacement{
				Start: start,
				End:   end,
				Text:  edit.NewText,
			})
		}
		sort.Slice(ranges, func(i, j int) bool {
			if ranges[i].Start == ranges[j].Start {
				return ranges[i].End > ranges[j].End
			}
			return ranges[i].Start > ranges[j].Start
		})

		// Apply back to front through the buffer so earlier offsets stay
		// valid and each edit lands on the undo stack.
		for _, r := range ranges {
			curLen := len(buf.Text())
			if r.Start < 0 || r.End < r.Start || r.Start > curLen {
				continue
			}
			end := r.End
			if end > curLen {
				end = curLen
			}
			buf.Replace(r.Text, editor.Range{Start: r.Start, End: end})
		}
		newText := buf.Text()

		a.scheduleLspDidChange(buf, newText)
		if buf == originalBuffer {
			a.suppressChange = true
			a.textArea.SetText(newText)
			a.suppressChange = false
			a.rehighlight(newText)
		}
		changed = true
		editedBuffers++
	}

	a.restoreActiveBuffer(originalActiveIndex, originalCursorOffset)

	if !changed {
		if skipped > 0 {
			return fmt.Errorf("no edits applied (%d skipped)", skipped)
		}
		return fmt.Errorf("no edits to apply")
	}
	if skipped > 0 {
		a.status.Set(fmt.Sprintf(" applied edits in %d file(s); %d file(s) skipped", editedBuffers, skipped))
	}
	return nil
}

func (a *loomApp) currentSymbolAtCursor() string {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return ""
	}
	text := []rune(buf.Text())
	if len(text) == 0 {
		return ""
	}

	offset := a.textArea.CursorOffset()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(text) {
		offset = len(text) - 1
	}
	if offset < 0 {
		return ""
	}

	isWord := func(r rune) bool {
		return r == '_' || r == '$' || ('0' <= r && r <= '9') || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z')
	}
	if !isWord(text[offset]) {
		return ""
	}

	start := offset
	for start > 0 && isWord(text[start-1]) {
		start--
	}
	end := offset + 1
	for end < len(text) && isWord(text[end]) {
		end++
	}
	return string(text[start:end])
}

// updateBracketMatch updates bracket highlight state based on the current
// cursor position. It checks the character at the cursor and the character
// before the cursor for bracket characters.
func (a *loomApp) updateBracketMatch() {
	text := a.textArea.Text()
	offset := a.textArea.CursorOffset()

	a.bracketHighlights = nil

	bracketStyle := backend.DefaultStyle().Background(backend.ColorRGB(0x44, 0x44, 0x44))

	runes := []rune(text)
	for _, pos := range []int{offset, offset - 1} {
		if pos < 0 || pos >= len(runes) {
			continue
		}
		matchPos, ok := editor.FindMatchingBracket(text, pos)
		if ok {
			a.bracketHighlights = []widgets.TextAreaHighlight{
				{Start: pos, End: pos + 1, Style: bracketStyle},
				{Start: matchPos, End: matchPos + 1, Style: bracketStyle},
			}
			break
		}
	}

	a.mergeAllHighlights()
}

// mergeAllHighlights combines all highlight layers (syntax, brackets,
// diagnostics, search) and sets the merged result on the TextArea.
func (a *loomApp) mergeAllHighlights() {
	var merged []widgets.TextAreaHighlight
	merged = append(merged, a.syntaxHighlights...)
	merged = append(merged, a.bracketHighlights...)
	merged = append(merged, a.diagnostics...)
	if len(a.searchMatches) > 0 {
		text := a.textArea.Text()
		mapping := byteOffsetToRuneOffset(text)
		matchStyle := backend.DefaultStyle().Background(backend.ColorYellow).Foreground(backend.ColorBlack)
		currentStyle := backend.DefaultStyle().Background(backend.ColorRGB(0xFF, 0x88, 0x00)).Foreground(backend.ColorBlack)
		for i, m := range a.searchMatches {
			start := m.Start
			end := m.End
			if start > len(text) {
				start = len(text)
			}
			if end > len(text) {
				end = len(text)
			}
			s := matchStyle
			if i == a.searchCurrent {
				s = currentStyle
			}
			merged = append(merged, widgets.TextAreaHighlight{
				Start: mapping[start],
				End:   mapping[end],
				Style: s,
			})
		}
	}
	a.textArea.SetHighlights(merged)
}

func (a *loomApp) applyDiagnosticsForActiveBuffer() {
	text := a.textArea.Text()
	uri := ""
	if buf := a.tabs.ActiveBuffer(); buf != nil {
		uri = fileURI(buf.Path())
	}
	if uri == "" {
		a.lspMu.Lock()
		a.diagnostics = nil
		a.lspMu.Unlock()
		a.mergeAllHighlights()
		return
	}

	a.lspMu.Lock()
	diagnostics := append([]lsp.Diagnostic(nil), a.lspDiagnostics[uri]...)
	a.lspMu.Unlock()

	mapping := byteOffsetToRuneOffset(text)
	rendered := make([]widgets.TextAreaHighlight, 0, len(diagnostics))
	for _, diag := range diagnostics {
		start := lspOffsetFromPosition(text, diag.Range.Start)
		end := lspOffsetFromPosition(text, diag.Range.End)
		if start < 0 {
			start = 0
		}
		if end < start {
			end = start
		}
		if start > len(text) {
			start = len(text)
		}
		if end > len(text) {
			end = len(text)
		}

		style := backend.DefaultStyle().Underline(true)
		switch diag.Severity {
		case 1:
			style = style.Foreground(backend.ColorRed)
		case 2:
			style = style.Foreground(backend.ColorYellow)
		default:
			style = style.Foreground(backend.ColorCyan)
		}
		rendered = append(rendered, widgets.TextAreaHighlight{
			Start: mapping[start],
			End:   mapping[end],
			Style: style,
		})
	}

	a.lspMu.Lock()
	a.diagnostics = rendered
	a.lspMu.Unlock()
	a.mergeAllHighlights()
}

func (a *loomApp) diagnosticSummary() string {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return ""
	}
	uri := fileURI(buf.Path())
	if uri == "" {
		return ""
	}

	a.lspMu.Lock()
	diags := a.lspDiagnostics[uri]
	a.lspMu.Unlock()

	errorCount := 0
	warningCount := 0
	for _, d := range diags {
		switch d.Severity {
		case 1:
			errorCount++
		case 2:
			warningCount++
		}
	}
	if errorCount == 0 && warningCount == 0 {
		return ""
	}

	if warningCount == 0 {
		return fmt.Sprintf("Diag: %d errors", errorCount)
	}
	if errorCount == 0 {
		return fmt.Sprintf("Diag: %d warnings", warningCount)
	}
	return fmt.Sprintf("Diag: %d errors, %d warnings", errorCount, warningCount)
}

func (a *loomApp) shutdownLSP() {
	a.lspMu.Lock()
	clients := make([]*lsp.Client, 0, len(a.lspClients))
	for _, client := range a.lspClients {
		clients = append(clients, client)
	}
	a.lspClients = make(map[string]*lsp.Client)
	a.lspDocVersions = make(map[string]int)
	a.lspDocTexts = make(map[string]string)
	a.lspDiagnostics = make(map[string][]lsp.Diagnostic)
	a.hoverCaches = make(map[string]*lsp.HoverCache)
	a.lspMu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
}

func (a *loomApp) lspClientForLanguage(langID string) (*lsp.Client, error) {
	if langID == "" {
		return nil, fmt.Errorf("missing language id")
	}
	config, ok := a.lspServers[langID]
	if !ok || config.Command == "" {
		return nil, fmt.Errorf("no LSP server config for %s", langID)
	}

	a.lspMu.Lock()
	existing := a.lspClients[langID]
	a.lspMu.Unlock()
	if existing != nil {
		return existing, nil
	}

	client, err := lsp.NewClient(a.lspCtx, config.Command, config.Args...)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatLSP, "starting language server", "lang", langID, "command", config.Command)

	client.SetNotifyHandler(func(method string, params json.RawMessage) {
		if method != "textDocument/publishDiagnostics" {
			return
		}
		var payload struct {
			URI         string           `json:"uri"`
			Diagnostics []lsp.Diagnostic `json:"diagnostics"`
		}
		if err := json.Unmarshal(params, &payload); err != nil {
			return
		}
		a.lspMu.Lock()
		a.lspDiagnostics[payload.URI] = payload.Diagnostics
		a.lspMu.Unlock()
	})

	if err := client.Initialize(a.lspCtx, fileURI(a.treeRoot)); err != nil {
		_ = client.Close()
		return nil, err
	}

	a.lspMu.Lock()
	existing = a.lspClients[langID]
	if existing != nil {
		// A concurrent initialization won the race.
		a.lspMu.Unlock()
		_ = client.Close()
		return existing, nil
	}
	a.lspClients[langID] = client
	a.lspMu.Unlock()
	return client, nil
}

func isLSPTransportError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"client closed",
		"client is closed",
		"broken pipe",
		"connection reset",
		"eof",
		"read/write on closed pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (a *loomApp) resetLSPClient(langID string) {
	if langID == "" {
		return
	}
	a.lspMu.Lock()
	client := a.lspClients[langID]
	delete(a.lspClients, langID)
	delete(a.hoverCaches, langID)
	// Force DidOpen re-sync for docs in this language.
	for _, buf := range a.tabs.Buffers() {
		if buf == nil || buf.Path() == "" {
			continue
		}
		if languageIDFromPath(buf.Path()) != langID {
			continue
		}
		uri := fileURI(buf.Path())
		delete(a.lspDocVersions, uri)
		delete(a.lspDocTexts, uri)
	}
	a.lspMu.Unlock()
	if client != nil {
		_ = client.Close()
	}
	log.Warn(log.CatLSP, "language server reset", "lang", langID)
}

func (a *loomApp) withRetryingLSPClient(langID string, op func(*lsp.Client) error) error {
	client, err := a.lspClientForLanguage(langID)
	if err != nil {
		return err
	}
	if err := op(client); err == nil {
		return nil
	} else if !isLSPTransportError(err) {
		return err
	}

	a.resetLSPClient(langID)
	client, err = a.lspClientForLanguage(langID)
	if err != nil {
		return err
	}
	return op(client)
}

func (a *loomApp) openLSPDocument(buf *editor.Buffer) {
	if buf == nil || buf.Path() == "" || a.lspCtx == nil {
		return
	}
	uri := fileURI(buf.Path())
	langID := languageIDFromPath(buf.Path())
	if uri == "" || langID == "" {
		return
	}

	a.lspMu.Lock()
	_, exists := a.lspDocVersions[uri]
	a.lspMu.Unlock()
	if exists {
		return
	}

	_ = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		text := buf.Text()
		if err := client.DidOpen(uri, langID, 1, text); err != nil {
			return err
		}
		a.lspMu.Lock()
		a.lspDocVersions[uri] = 1
		a.lspDocTexts[uri] = text
		a.lspMu.Unlock()
		return nil
	})
}

// scheduleLspDidChange syncs the document to the server as incremental
// range edits diffed against the last synced snapshot.
func (a *loomApp) scheduleLspDidChange(buf *editor.Buffer, text string) {
	if buf == nil || buf.Path() == "" || a.lspCtx == nil {
		return
	}

	uri := fileURI(buf.Path())
	langID := languageIDFromPath(buf.Path())
	if uri == "" || langID == "" {
		return
	}

	_ = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		a.lspMu.Lock()
		version := a.lspDocVersions[uri]
		if version == 0 {
			a.lspDocVersions[uri] = 1
			a.lspDocTexts[uri] = text
			hc := a.hoverCaches[langID]
			a.lspMu.Unlock()
			if hc != nil {
				hc.InvalidateDocument(uri)
			}
			return client.DidOpen(uri, langID, 1, text)
		}
		oldText := a.lspDocTexts[uri]
		version++
		a.lspDocVersions[uri] = version
		a.lspDocTexts[uri] = text
		hc := a.hoverCaches[langID]
		a.lspMu.Unlock()

		if hc != nil {
			hc.InvalidateDocument(uri)
		}
		return client.DidChangeIncremental(uri, version, oldText, text)
	})
}

func (a *loomApp) notifyLSPDidSave(buf *editor.Buffer) {
	if buf == nil || buf.Path() == "" || a.lspCtx == nil {
		return
	}
	uri := fileURI(buf.Path())
	langID := languageIDFromPath(buf.Path())
	if uri == "" || langID == "" {
		return
	}
	_ = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		return client.DidSave(uri)
	})
}

func (a *loomApp) notifyLSPDidClose(buf *editor.Buffer) {
	if buf == nil || buf.Path() == "" || a.lspCtx == nil {
		return
	}
	uri := fileURI(buf.Path())
	langID := languageIDFromPath(buf.Path())
	if uri == "" || langID == "" {
		return
	}
	a.lspMu.Lock()
	delete(a.lspDocVersions, uri)
	delete(a.lspDocTexts, uri)
	delete(a.lspDiagnostics, uri)
	hc := a.hoverCaches[langID]
	a.lspMu.Unlock()
	if hc != nil {
		hc.InvalidateDocument(uri)
	}
	_ = a.withRetryingLSPClient(langID, func(client *lsp.Client) error {
		return client.DidClose(uri)
	})
}

// syncTabBar rebuilds the tab bar from the current TabManager state.
func (a *loomApp) syncTabBar() {
	buffers := a.tabs.Buffers()
	tabs := make([]tabInfo, len(buffers))
	for i, buf := range buffers {
		tabs[i] = tabInfo{
			title: buf.Title(),
			dirty: buf.Dirty(),
		}
	}
	a.tabBar.setTabs(tabs, a.tabs.Active())
}

// switchTab switches to the tab at the given index and reloads the TextArea.
func (a *loomApp) switchTab(index int) {
	a.tabs.SetActive(index)
	a.loadActiveBuffer()
}

// loadActiveBuffer refreshes every view surface from the active buffer.
func (a *loomApp) loadActiveBuffer() {
	buf := a.tabs.ActiveBuffer()
	if buf != nil {
		text := buf.Text()
		a.suppressChange = true
		a.textArea.SetText(text)
		a.suppressChange = false
		a.highlight.setup(filepath.Base(buf.Path()))
		ranges := a.highlight.highlight([]byte(text))
		a.applyHighlights(text, ranges)
		a.updateFoldRegions(text)
		a.openLSPDocument(buf)
		a.applyDiagnosticsForActiveBuffer()
	} else {
		a.textArea.SetText("")
		a.highlight.setup("")
		a.foldState.SetRegions(nil)
		a.textArea.SetVisibleLines(nil)
		a.lspMu.Lock()
		a.diagnostics = nil
		a.lspMu.Unlock()
		a.mergeAllHighlights()
	}
	a.syncTabBar()
	a.updateStatus()
}

// prevTab switches to the previous tab (wrapping around).
func (a *loomApp) prevTab() {
	if a.tabs.Count() <= 1 {
		return
	}
	idx := a.tabs.Active() - 1
	if idx < 0 {
		idx = a.tabs.Count() - 1
	}
	a.switchTab(idx)
}

// nextTab switches to the next tab (wrapping around).
func (a *loomApp) nextTab() {
	if a.tabs.Count() <= 1 {
		return
	}
	idx := (a.tabs.Active() + 1) % a.tabs.Count()
	a.switchTab(idx)
}

// cmdSaveFile saves the active buffer to disk.
func (a *loomApp) cmdSaveFile() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	if buf.Untitled() {
		a.status.Set(" Cannot save untitled file")
		return
	}
	a.applyBufferEdit(buf, a.textArea.Text())
	if err := buf.Save(); err != nil {
		a.status.Set(fmt.Sprintf(" Save error: %v", err))
		log.ErrorErr(log.CatEditor, "save failed", err, "path", buf.Path())
		return
	}
	a.notifyLSPDidSave(buf)
	a.status.Set(fmt.Sprintf(" Saved %s", buf.Title()))
	a.updateStatus()
}

// cmdNewFile creates a new untitled buffer and switches to it.
func (a *loomApp) cmdNewFile() {
	a.tabs.NewUntitled()
	a.textArea.SetText("")
	a.highlight.setup("") // no language for untitled
	a.foldState.SetRegions(nil)
	a.textArea.SetVisibleLines(nil)
	a.syncTabBar()
	a.updateStatus()
}

// cmdCloseTab closes the active tab and switches to the next buffer.
func (a *loomApp) cmdCloseTab() {
	if a.tabs.Count() == 0 {
		return
	}
	closingBuf := a.tabs.ActiveBuffer()
	a.notifyLSPDidClose(closingBuf)
	if closingBuf != nil {
		a.projects.DocumentClosed(closingBuf.Path())
		delete(a.observed, closingBuf)
	}
	a.tabs.Close(a.tabs.Active())
	a.loadActiveBuffer()
}

// cmdUndo undoes the last edit via the TextArea's built-in undo.
func (a *loomApp) cmdUndo() {
	a.textArea.Undo()
}

// cmdRedo redoes the last undone edit via the TextArea's built-in redo.
func (a *loomApp) cmdRedo() {
	a.textArea.Redo()
}

// cmdToggleWordWrap toggles the editor word-wrap mode.
func (a *loomApp) cmdToggleWordWrap() {
	a.wordWrap = !a.wordWrap
	a.textArea.SetWordWrap(a.wordWrap)
	a.syncLayoutGeometry()
	a.updateStatus()
}

// cmdSaveConfig persists the current editor view settings.
func (a *loomApp) cmdSaveConfig() {
	e := a.cfg.Editor
	e.WordWrap = a.wordWrap
	path := config.DefaultPath()
	if path == "" {
		a.status.Set(" cannot locate config directory")
		return
	}
	if err := config.SaveEditor(path, e); err != nil {
		a.status.Set(fmt.Sprintf(" config save failed: %v", err))
		log.ErrorErr(log.CatConfig, "config save failed", err, "path", path)
		return
	}
	a.cfg.Editor = e
	a.status.Set(" Settings saved")
	log.Info(log.CatConfig, "settings saved", "path", path)
}

func closestVisibleLine(visible []int, line int) int {
	if len(visible) == 0 {
		return 0
	}
	closest := visible[0]
	for _, candidate := range visible {
		if candidate > line {
			break
		}
		closest = candidate
	}
	return closest
}

func (a *loomApp) applyFoldVisibility() {
	text := a.textArea.Text()
	totalLines := editor.LineCount(text)
	if totalLines <= 0 {
		a.textArea.SetVisibleLines(nil)
		return
	}

	visible := a.foldState.VisibleLines(totalLines)
	if len(visible) == 0 || len(visible) == totalLines {
		a.textArea.SetVisibleLines(nil)
		return
	}

	a.textArea.SetVisibleLines(visible)
	col, row := a.textArea.CursorPosition()
	if a.foldState.LineHidden(row) {
		a.textArea.SetCursorPosition(col, closestVisibleLine(visible, row))
	}
}

func (a *loomApp) ensureLineVisible(line int) {
	if line < 0 {
		return
	}
	changed := false
	for a.foldState.LineHidden(line) {
		if !a.foldState.UnfoldAtLine(line) {
			break
		}
		changed = true
	}
	if changed {
		a.applyFoldVisibility()
	}
}

// cmdFoldAtCursor folds the region at the current cursor line.
func (a *loomApp) cmdFoldAtCursor() {
	_, row := a.textArea.CursorPosition()
	if a.foldState.FoldAtLine(row) {
		a.applyFoldVisibility()
		a.updateStatus()
	}
}

// cmdUnfoldAtCursor unfolds the region at the current cursor line.
func (a *loomApp) cmdUnfoldAtCursor() {
	_, row := a.textArea.CursorPosition()
	if a.foldState.UnfoldAtLine(row) {
		a.applyFoldVisibility()
		a.updateStatus()
	}
}

// cmdFoldAll folds all foldable regions.
func (a *loomApp) cmdFoldAll() {
	a.foldState.FoldAll()
	a.applyFoldVisibility()
	a.updateStatus()
}

// cmdUnfoldAll unfolds all regions.
func (a *loomApp) cmdUnfoldAll() {
	a.foldState.UnfoldAll()
	a.applyFoldVisibility()
	a.updateStatus()
}

// updateFoldRegions updates fold regions from tree-sitter when available.
func (a *loomApp) updateFoldRegions(text string) {
	a.foldState.SetRegions(a.highlight.detectFoldRegions(text))
	a.applyFoldVisibility()
}

// rehighlight runs a synchronous highlight pass and applies the results.
func (a *loomApp) rehighlight(text string) {
	ranges := a.highlight.highlight([]byte(text))
	a.applyHighlights(text, ranges)
	a.updateFoldRegions(text)
}

// syncAfterLineOp refreshes the view after a buffer-level line operation.
func (a *loomApp) syncAfterLineOp(col, row int) {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	text := buf.Text()
	a.suppressChange = true
	a.textArea.SetText(text)
	a.suppressChange = false
	maxRow := buf.LineCount() - 1
	if row > maxRow {
		row = maxRow
	}
	if row < 0 {
		row = 0
	}
	a.textArea.SetCursorPosition(col, row)
	a.rehighlight(text)
	a.scheduleLspDidChange(buf, text)
	a.updateStatus()
}

// cmdDeleteLine deletes the line at the current cursor position.
func (a *loomApp) cmdDeleteLine() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	col, row := a.textArea.CursorPosition()
	if !buf.DeleteLine(row) {
		return
	}
	a.syncAfterLineOp(col, row)
}

// cmdMoveLineUp moves the current line up by one position.
func (a *loomApp) cmdMoveLineUp() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	col, row := a.textArea.CursorPosition()
	if !buf.MoveLine(row, -1) {
		return
	}
	a.syncAfterLineOp(col, row-1)
}

// cmdMoveLineDown moves the current line down by one position.
func (a *loomApp) cmdMoveLineDown() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	col, row := a.textArea.CursorPosition()
	if !buf.MoveLine(row, 1) {
		return
	}
	a.syncAfterLineOp(col, row+1)
}

// cmdDuplicateLine duplicates the current line below the cursor.
func (a *loomApp) cmdDuplicateLine() {
	buf := a.tabs.ActiveBuffer()
	if buf == nil {
		return
	}
	col, row := a.textArea.CursorPosition()
	if !buf.DuplicateLine(row) {
		return
	}
	a.syncAfterLineOp(col, row+1)
}

// cmdGotoMatchingBracket jumps the cursor to the matching bracket if one is
// nearby the cursor position.
func (a *loomApp) cmdGotoMatchingBracket() {
	text := a.textArea.Text()
	offset := a.textArea.CursorOffset()
	for _, pos := range []int{offset, offset - 1} {
		if match, ok := editor.FindMatchingBracket(text, pos); ok {
			a.textArea.SetCursorOffset(match)
			a.updateStatus()
			return
		}
	}
}

func (a *loomApp) toggleSidebar() {
	a.sidebarVisible = !a.sidebarVisible
	if a.sidebarVisible {
		a.slot.setChild(a.splitter)
	} else {
		a.slot.setChild(a.textArea)
	}
}

// run constructs the editor layout and starts the FluffyUI app.
func run(ctx context.Context, cfg config.Config, paths []string, opts ...fluffy.AppOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Classify args into directories and files. Use the first directory
	// (or the parent of the first file, or cwd) as the tree root.
	var filesToOpen []string
	treeRoot := ""
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if treeRoot == "" {
				treeRoot = abs
			}
		} else {
			filesToOpen = append(filesToOpen, abs)
			if treeRoot == "" {
				treeRoot = filepath.Dir(abs)
			}
		}
	}

	if treeRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			treeRoot = "."
		} else {
			treeRoot = cwd
		}
	}

	app := newLoomApp(cfg, treeRoot)
	app.lspCtx = ctx
	app.lspCancel = cancel
	app.cancel = func() {
		cancel()
		app.shutdownLSP()
	}
	defer app.shutdownLSP()
	defer app.stopWatchers()

	// Search widget.
	app.search = widgets.NewSearchWidget()
	app.search.SetOnSearch(app.onSearch)
	app.search.SetOnNavigate(app.onSearchNext, app.onSearchPrev)
	app.search.SetOnClose(app.onSearchClose)

	// Replace widget.
	app.replaceW = newReplaceWidget()
	app.replaceW.onSearch = app.onReplaceSearch
	app.replaceW.onNext = app.onReplaceNext
	app.replaceW.onPrev = app.onReplacePrev
	app.replaceW.onReplace = app.onReplace
	app.replaceW.onReplaceAll = app.onReplaceAll
	app.replaceW.onClose = app.onReplaceClose

	// Goto and rename prompts.
	app.gotoW = newPromptWidget("Go to: ", "line, file:line, or file")
	app.gotoW.onSubmit = app.onGoto
	app.renameW = newPromptWidget("Rename symbol: ", "Enter new symbol name")
	app.renameW.onSubmit = app.cmdRenameSubmit

	// Quick-open finder.
	app.finder = newQuickOpenWidget()
	app.finder.onOpen = func(path string, line int) {
		if err := app.openFileAt(path, line); err == nil {
			app.updateStatus()
		}
	}

	// Hover tooltip.
	app.tooltip = newTooltipWidget()

	// LSP helper palette for completion, references, and code actions.
	app.lspPalette = widgets.NewCommandPalette()

	// Build the command palette with editor actions.
	app.palette = widgets.NewCommandPalette(commands.AllCommands(commands.Actions{
		SaveFile:       app.cmdSaveFile,
		NewFile:        app.cmdNewFile,
		CloseTab:       app.cmdCloseTab,
		ToggleSidebar:  app.toggleSidebar,
		ToggleWordWrap: app.cmdToggleWordWrap,
		SaveSettings:   app.cmdSaveConfig,
		Quit:           func() { app.cancel() },
		Undo:           app.cmdUndo,
		Redo:           app.cmdRedo,
		Find:           func() { app.cmdFind() },
		Replace:        func() { app.cmdReplace() },
		GotoLine:       func() { app.cmdGotoLine() },
		QuickOpen:      func() { app.cmdQuickOpen() },
		DeleteLine:     app.cmdDeleteLine,
		MoveLineUp:     app.cmdMoveLineUp,
		MoveLineDown:   app.cmdMoveLineDown,
		DuplicateLine:  app.cmdDuplicateLine,
		FoldAtCursor:   app.cmdFoldAtCursor,
		UnfoldAtCursor: app.cmdUnfoldAtCursor,
		FoldAll:        app.cmdFoldAll,
		UnfoldAll:      app.cmdUnfoldAll,
		LspComplete:    app.cmdLspComplete,
		LspDefinition:  app.cmdLspDefinition,
		LspReferences:  app.cmdLspReferences,
		LspHover:       func() { app.cmdLspHover() },
		LspDiagnostics: app.cmdLspDiagnostics,
		LspRename:      func() { app.cmdLspRename() },
		LspCodeAction:  app.cmdLspCodeAction,
	})...)

	// Web preview server.
	if cfg.Web.Enabled {
		srv := web.NewServer(&webEditorState{tabs: app.tabs, root: treeRoot}, treeRoot)
		app.webServer = srv
		httpServer := &http.Server{Addr: cfg.Web.Addr, Handler: srv}
		go func() {
			<-ctx.Done()
			_ = httpServer.Close()
		}()
		go func() {
			log.Info(log.CatWeb, "web preview listening", "addr", cfg.Web.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.ErrorErr(log.CatWeb, "web server stopped", err)
			}
		}()
	}

	// Open files from CLI args, or create an untitled buffer if none.
	for _, f := range filesToOpen {
		_ = app.openFile(f)
	}
	if app.tabs.Count() == 0 {
		app.tabs.NewUntitled()
		app.syncTextArea()
		app.syncTabBar()
		app.updateStatus()
	}

	// Status bar: reactive label driven by the status signal.
	statusBar := fluffy.ReactiveText(func() string {
		return app.status.Get()
	}, app.status)

	// Horizontal split: file tree (22%) | editor (78%).
	app.splitter = widgets.NewSplitter(app.fileTree, app.textArea)
	app.splitter.Ratio = 0.22

	// Content slot: swappable between splitter (sidebar visible) and textArea only.
	app.slot = &contentSlot{child: app.splitter}

	// Vertical layout: tab bar, content fills space, status bar fixed at bottom.
	layout := fluffy.VFlex(
		fluffy.Fixed(app.tabBar),
		fluffy.Expanded(app.slot),
		fluffy.Fixed(statusBar),
	)

	// Global key interceptor for shortcuts that need to work regardless of focus.
	keys := &globalKeys{
		onPaste: app.handleGlobalPaste,
		onKey:   app.handleGlobalKey,
	}

	// Stack: layout at bottom, overlays in the middle, global keys on top
	// (gets events first).
	rootWidget := widgets.NewStack(layout, app.palette, app.finder, app.lspPalette, app.tooltip, keys)

	log.Info(log.CatUI, "starting editor", "root", treeRoot, "files", len(filesToOpen))
	return fluffy.RunContext(ctx, rootWidget, opts...)
}

func (a *loomApp) handleGlobalPaste(paste runtime.PasteMsg) runtime.HandleResult {
	a.applyPaste(paste.Text)
	return runtime.Handled()
}

func (a *loomApp) handleGlobalKey(key runtime.KeyMsg) runtime.HandleResult {
	if a.tooltip != nil && a.tooltip.Visible() {
		a.tooltip.Hide()
	}

	switch key.Key {
	case terminal.KeyCtrlP:
		return a.cmdQuickOpen()
	case terminal.KeyRune:
		if key.Ctrl && key.Shift && (key.Rune == 'P' || key.Rune == 'p') {
			a.cmdShowPalette()
			return runtime.Handled()
		}
		if key.Ctrl && !key.Shift && (key.Rune == 'P' || key.Rune == 'p') {
			return a.cmdQuickOpen()
		}
		if key.Ctrl && (key.Rune == 'h' || key.Rune == 'H') {
			return a.cmdReplace()
		}
		if key.Ctrl && key.Shift && key.Rune == '{' {
			a.cmdFoldAtCursor()
			return runtime.Handled()
		}
		if key.Ctrl && key.Shift && key.Rune == '}' {
			a.cmdUnfoldAtCursor()
			return runtime.Handled()
		}
		if key.Ctrl && key.Rune == ']' {
			a.cmdGotoMatchingBracket()
			return runtime.Handled()
		}
		if key.Ctrl && key.Shift && key.Rune == 'K' {
			a.cmdDeleteLine()
			return runtime.Handled()
		}
		if key.Ctrl && key.Shift && key.Rune == 'D' {
			a.cmdDuplicateLine()
			return runtime.Handled()
		}
		if key.Ctrl && key.Rune == ' ' {
			a.cmdLspComplete()
			return runtime.Handled()
		}
		if key.Ctrl && key.Rune == '.' {
			a.cmdLspCodeAction()
			return runtime.Handled()
		}
		if key.Ctrl && key.Alt && (key.Rune == 'w' || key.Rune == 'W') {
			a.cmdToggleWordWrap()
			return runtime.Handled()
		}
	case terminal.KeyCtrlF:
		return a.cmdFind()
	case terminal.KeyCtrlG:
		return a.cmdGotoLine()
	case terminal.KeyF1:
		return a.cmdLspHover()
	case terminal.KeyF2:
		return a.cmdLspRename()
	case terminal.KeyF8:
		a.cmdLspDiagnostics()
		return runtime.Handled()
	case terminal.KeyF12:
		if key.Shift {
			a.cmdLspReferences()
		} else {
			a.cmdLspDefinition()
		}
		return runtime.Handled()
	case terminal.KeyCtrlB:
		a.toggleSidebar()
		return runtime.Handled()
	case terminal.KeyCtrlS:
		a.cmdSaveFile()
		return runtime.Handled()
	case terminal.KeyCtrlN:
		a.cmdNewFile()
		return runtime.Handled()
	case terminal.KeyCtrlW:
		a.cmdCloseTab()
		return runtime.Handled()
	case terminal.KeyCtrlQ:
		a.cancel()
		return runtime.Handled()
	case terminal.KeyUp:
		if key.Alt && !key.Shift {
			a.cmdMoveLineUp()
			return runtime.Handled()
		}
	case terminal.KeyDown:
		if key.Alt && !key.Shift {
			a.cmdMoveLineDown()
			return runtime.Handled()
		}
	case terminal.KeyPageUp:
		if key.Ctrl {
			a.prevTab()
			return runtime.Handled()
		}
	case terminal.KeyPageDown:
		if key.Ctrl {
			a.nextTab()
			return runtime.Handled()
		}
	}
	return runtime.Unhandled()
}

// detectLineEnding returns the dominant line ending string.
func detectLineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "CRLF"
	}
	return "LF"
}

// detectIndentMode returns the current indent style string for status reporting.
func detectIndentMode(text string) string {
	indent := editor.DetectIndentStyle(text)
	if indent == "\t" {
		return "tabs"
	}
	return "spaces(" + strconv.Itoa(len(indent)) + ")"
}
