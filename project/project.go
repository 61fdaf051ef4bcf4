// Package project implements project discovery and file indexing. A project
// is rooted either at a directory containing a .loomproject marker file or at
// the top of a version-control checkout found by walking upward from an open
// file.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// MarkerFile is the explicit project marker. A directory containing this file
// is always a project root, taking precedence over version-control detection.
const MarkerFile = ".loomproject"

// Kind describes how a project root was identified.
type Kind int

const (
	KindNone Kind = iota
	KindMarker
	KindGit
	KindSubversion
	KindMercurial
	KindFossil
)

func (k Kind) String() string {
	switch k {
	case KindMarker:
		return "marker"
	case KindGit:
		return "git"
	case KindSubversion:
		return "svn"
	case KindMercurial:
		return "hg"
	case KindFossil:
		return "fossil"
	default:
		return "none"
	}
}

// Project is a discovered project: a base directory, how it was recognized,
// and a lazily built index of its files.
type Project struct {
	baseDir string
	kind    Kind
	files   []File
	indexed bool
}

// BaseDir returns the canonical project root directory.
func (p *Project) BaseDir() string { return p.baseDir }

// Kind returns how the project root was identified.
func (p *Project) Kind() Kind { return p.kind }

// Name returns the display name of the project, the base directory name.
func (p *Project) Name() string { return filepath.Base(p.baseDir) }

// MarkerPath returns the path of the marker file, or "" for auto-detected
// version-control projects.
func (p *Project) MarkerPath() string {
	if p.kind != KindMarker {
		return ""
	}
	return filepath.Join(p.baseDir, MarkerFile)
}

// Contains reports whether the given absolute path lies inside the project.
func (p *Project) Contains(path string) bool {
	rel, err := filepath.Rel(p.baseDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

// Files returns the project file index, building it on first use.
func (p *Project) Files() ([]File, error) {
	if !p.indexed {
		files, err := IndexFiles(p.baseDir)
		if err != nil {
			return nil, err
		}
		p.files = files
		p.indexed = true
	}
	return p.files, nil
}

// Refresh discards the file index so the next Files call rebuilds it.
func (p *Project) Refresh() {
	p.files = nil
	p.indexed = false
}

// Options controls which version-control systems are auto-detected during
// discovery. All are on by default.
type Options struct {
	AutoGit        bool
	AutoSubversion bool
	AutoMercurial  bool
	AutoFossil     bool
}

// DefaultOptions enables every supported version-control system.
func DefaultOptions() Options {
	return Options{
		AutoGit:        true,
		AutoSubversion: true,
		AutoMercurial:  true,
		AutoFossil:     true,
	}
}

// DiscoverDir finds the project containing dir. It walks upward toward the
// filesystem root; at each level the .loomproject marker wins over
// version-control markers. Returns nil when no project is found.
func DiscoverDir(dir string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	for cur := abs; ; {
		if fileExists(filepath.Join(cur, MarkerFile)) {
			return &Project{baseDir: cur, kind: KindMarker}, nil
		}
		if kind := detectRepository(cur, opts); kind != KindNone {
			return &Project{baseDir: cur, kind: kind}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, nil
		}
		cur = parent
	}
}

// DiscoverFile finds the project containing the given file.
func DiscoverFile(path string, opts Options) (*Project, error) {
	return DiscoverDir(filepath.Dir(path), opts)
}

func detectRepository(dir string, opts Options) Kind {
	// .git may be a directory or, for worktrees and submodules, a file.
	if opts.AutoGit && pathExists(filepath.Join(dir, ".git")) {
		return KindGit
	}
	if opts.AutoSubversion && dirExists(filepath.Join(dir, ".svn")) {
		return KindSubversion
	}
	if opts.AutoMercurial && dirExists(filepath.Join(dir, ".hg")) {
		return KindMercurial
	}
	if opts.AutoFossil {
		if fileExists(filepath.Join(dir, ".fslckout")) || fileExists(filepath.Join(dir, "_FOSSIL_")) {
			return KindFossil
		}
	}
	return KindNone
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
