package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is one indexed project file with both the path relative to the project
// root (always slash-separated) and the absolute path.
type File struct {
	Rel string
	Abs string
}

func shouldSkipDir(name string) bool {
	switch name {
	case ".git", ".svn", ".hg", "node_modules", "vendor":
		return true
	default:
		return false
	}
}

// IndexFiles walks root and returns every regular file beneath it, skipping
// version-control metadata and dependency directories. The result is sorted
// case-insensitively by relative path. Unreadable entries are skipped rather
// than failing the whole walk.
func IndexFiles(root string) ([]File, error) {
	clean := filepath.Clean(root)
	var out []File
	err := filepath.WalkDir(clean, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(clean, path)
		if err != nil {
			rel = path
		}

		out = append(out, File{
			Rel: filepath.ToSlash(rel),
			Abs: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Rel) < strings.ToLower(out[j].Rel)
	})
	return out, nil
}
