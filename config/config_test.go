package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
theme: nord
editor:
  tab_width: 2
  word_wrap: false
web:
  enabled: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nord", cfg.Theme)
	assert.Equal(t, 2, cfg.Editor.TabWidth)
	assert.False(t, cfg.Editor.WordWrap)
	// Unset keys keep their defaults.
	assert.Equal(t, Default().Editor.WrapIndent, cfg.Editor.WrapIndent)
	assert.True(t, cfg.Editor.LineNumbers)
	assert.True(t, cfg.Web.Enabled)
	assert.Equal(t, Default().Web.Addr, cfg.Web.Addr)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("editor: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEditorWrapper(t *testing.T) {
	e := EditorConfig{TabWidth: 4, WordWrap: true, WrapIndent: 8}
	w := e.Wrapper(80)
	assert.Equal(t, 80, w.Width)
	assert.Equal(t, 4, w.TabWidth)
	assert.Equal(t, 8, w.MaxIndent)

	e.WordWrap = false
	assert.Zero(t, e.Wrapper(80).Width, "wrap off maps to width 0")
}

func TestSaveEditorCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, SaveEditor(path, EditorConfig{TabWidth: 3, WordWrap: true}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Editor.TabWidth)
	assert.True(t, cfg.Editor.WordWrap)
}

func TestSaveEditorPreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`# loom configuration
theme: dracula
editor:
  tab_width: 8
`), 0o644))

	require.NoError(t, SaveEditor(path, EditorConfig{TabWidth: 2, WordWrap: true, WrapIndent: 4, LineNumbers: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "# loom configuration"), "comments survive a save")
	assert.Contains(t, out, "theme: dracula")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Editor.TabWidth)
	assert.Equal(t, "dracula", cfg.Theme)
}
