package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomtext/loom/project"
)

func TestIndexFilesSkipsMetadataDirs(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		"main.go",
		filepath.Join("nested", "lib.go"),
		filepath.Join(".git", "HEAD"),
		filepath.Join(".svn", "entries"),
		filepath.Join(".hg", "dirstate"),
		filepath.Join("node_modules", "dep", "index.js"),
		filepath.Join("vendor", "mod", "mod.go"),
	} {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := project.IndexFiles(dir)
	require.NoError(t, err)

	rels := make([]string, len(files))
	for i, f := range files {
		rels[i] = f.Rel
	}
	assert.Equal(t, []string{"main.go", "nested/lib.go"}, rels)
}

func TestIndexFilesSortedCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Zeta.go", "alpha.go", "Beta.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := project.IndexFiles(dir)
	require.NoError(t, err)

	rels := make([]string, len(files))
	for i, f := range files {
		rels[i] = f.Rel
	}
	assert.Equal(t, []string{"alpha.go", "Beta.go", "Zeta.go"}, rels)
}

func TestIndexFilesAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))

	files, err := project.IndexFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "a.go"), files[0].Abs)
	assert.True(t, filepath.IsAbs(files[0].Abs))
}
