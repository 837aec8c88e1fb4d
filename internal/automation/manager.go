// Package automation runs user Lua scripts that react to decoded actions.
// Each script gets its own sandboxed VM; Lua access is serialized through a
// per-VM command channel so event dispatch never races script execution.
package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Script is a single Lua automation loaded from disk. Files whose name
// starts with "_" are treated as disabled.
type Script struct {
	ID     string // filename stem
	Path   string
	Source string
}

// Manager loads scripts from a directory.
type Manager struct {
	dir string
	mu  sync.RWMutex
}

// NewManager creates a script manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scripts dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// List returns all enabled scripts in the directory.
func (m *Manager) List() ([]*Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}

	var scripts []*Script
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".lua") || strings.HasPrefix(name, "_") {
			continue
		}
		path := filepath.Join(m.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		scripts = append(scripts, &Script{
			ID:     strings.TrimSuffix(name, ".lua"),
			Path:   path,
			Source: string(data),
		})
	}
	return scripts, nil
}

// Get returns one script by ID.
func (m *Manager) Get(id string) (*Script, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid script id: %q", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	path := filepath.Join(m.dir, id+".lua")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return &Script{ID: id, Path: path, Source: string(data)}, nil
}
