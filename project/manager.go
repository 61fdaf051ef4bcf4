package project

import (
	"path/filepath"
	"sync"
)

// Manager tracks open projects and maps open documents to the project that
// contains them. Discovery for the same root is done once; later lookups
// reuse the open project.
type Manager struct {
	mu       sync.Mutex
	opts     Options
	projects []*Project
	byDoc    map[string]*Project
}

// NewManager creates a Manager using the given discovery options.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:  opts,
		byDoc: make(map[string]*Project),
	}
}

// Projects returns all open projects in open order.
func (m *Manager) Projects() []*Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Project, len(m.projects))
	copy(out, m.projects)
	return out
}

// ProjectForDir returns the open project rooted at or containing dir, opening
// it via discovery when needed. Returns nil when dir belongs to no project.
func (m *Manager) ProjectForDir(dir string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projectForDirLocked(dir)
}

func (m *Manager) projectForDirLocked(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for _, p := range m.projects {
		if p.baseDir == abs || p.Contains(abs) {
			return p, nil
		}
	}

	p, err := DiscoverDir(abs, m.opts)
	if err != nil || p == nil {
		return nil, err
	}
	// Discovery may land on a root another lookup already opened.
	for _, open := range m.projects {
		if open.baseDir == p.baseDir {
			return open, nil
		}
	}
	m.projects = append(m.projects, p)
	return p, nil
}

// DocumentOpened associates a document path with its containing project,
// opening the project if necessary. Returns the project, or nil when the
// document is outside any project.
func (m *Manager) DocumentOpened(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.projectForDirLocked(filepath.Dir(abs))
	if err != nil || p == nil {
		return nil, err
	}
	m.byDoc[abs] = p
	return p, nil
}

// DocumentClosed drops the document to project association.
func (m *Manager) DocumentClosed(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.byDoc, abs)
	m.mu.Unlock()
}

// ProjectForDocument returns the project an open document belongs to, or nil
// when the document was never registered or sits outside every project.
func (m *Manager) ProjectForDocument(path string) *Project {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byDoc[abs]
}

// Close removes a project from the manager along with every document
// association pointing at it. Reports whether the project was open.
func (m *Manager) Close(p *Project) bool {
	if p == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, open := range m.projects {
		if open != p {
			continue
		}
		m.projects = append(m.projects[:i], m.projects[i+1:]...)
		for doc, owner := range m.byDoc {
			if owner == p {
				delete(m.byDoc, doc)
			}
		}
		return true
	}
	return false
}
