package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomtext/loom/project"
)

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
}

func TestDiscoverDirMarker(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, project.MarkerFile))
	mkdir(t, filepath.Join(dir, "src", "deep"))

	p, err := project.DiscoverDir(filepath.Join(dir, "src", "deep"), project.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, project.KindMarker, p.Kind())
	assert.Equal(t, dir, p.BaseDir())
	assert.Equal(t, filepath.Join(dir, project.MarkerFile), p.MarkerPath())
	assert.Equal(t, filepath.Base(dir), p.Name())
}

func TestDiscoverDirMarkerWinsOverGit(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, ".git"))
	touch(t, filepath.Join(dir, project.MarkerFile))

	p, err := project.DiscoverDir(dir, project.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, project.KindMarker, p.Kind())
}

func TestDiscoverDirVersionControl(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, dir string)
		want   project.Kind
		marker string
	}{
		{"git dir", func(t *testing.T, dir string) { mkdir(t, filepath.Join(dir, ".git")) }, project.KindGit, ""},
		{"git worktree file", func(t *testing.T, dir string) { touch(t, filepath.Join(dir, ".git")) }, project.KindGit, ""},
		{"subversion", func(t *testing.T, dir string) { mkdir(t, filepath.Join(dir, ".svn")) }, project.KindSubversion, ""},
		{"mercurial", func(t *testing.T, dir string) { mkdir(t, filepath.Join(dir, ".hg")) }, project.KindMercurial, ""},
		{"fossil checkout", func(t *testing.T, dir string) { touch(t, filepath.Join(dir, ".fslckout")) }, project.KindFossil, ""},
		{"fossil underscore", func(t *testing.T, dir string) { touch(t, filepath.Join(dir, "_FOSSIL_")) }, project.KindFossil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			mkdir(t, filepath.Join(dir, "nested"))

			p, err := project.DiscoverDir(filepath.Join(dir, "nested"), project.DefaultOptions())
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Kind())
			assert.Equal(t, dir, p.BaseDir())
			assert.Empty(t, p.MarkerPath())
		})
	}
}

func TestDiscoverDirDisabledDetection(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, ".git"))

	opts := project.DefaultOptions()
	opts.AutoGit = false
	p, err := project.DiscoverDir(dir, opts)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, ".git"))
	mkdir(t, filepath.Join(dir, "pkg"))
	touch(t, filepath.Join(dir, "pkg", "main.go"))

	p, err := project.DiscoverFile(filepath.Join(dir, "pkg", "main.go"), project.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, dir, p.BaseDir())
}

func TestProjectContains(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, project.MarkerFile))

	p, err := project.DiscoverDir(dir, project.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.Contains(filepath.Join(dir, "a.go")))
	assert.True(t, p.Contains(filepath.Join(dir, "sub", "b.go")))
	assert.False(t, p.Contains(filepath.Dir(dir)))
	assert.False(t, p.Contains(filepath.Join(filepath.Dir(dir), "sibling", "c.go")))
}

func TestProjectFilesRefresh(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, project.MarkerFile))
	touch(t, filepath.Join(dir, "a.go"))

	p, err := project.DiscoverDir(dir, project.DefaultOptions())
	require.NoError(t, err)

	files, err := p.Files()
	require.NoError(t, err)
	require.Len(t, files, 2) // marker + a.go

	// Index is cached until refreshed.
	touch(t, filepath.Join(dir, "b.go"))
	files, err = p.Files()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	p.Refresh()
	files, err = p.Files()
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
