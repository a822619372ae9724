package handle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Manager implements domain.HandleManager. Acquiring a handle materialises
// the blob to a scratch file and returns a file:// URI the playback engine
// can open; releasing revokes the URI by removing the file. Handles are
// memoized per asset id so repeated playback of the same asset never grows
// the scratch area.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	live map[string]*entry
}

type entry struct {
	uri  string
	path string
}

// NewManager creates a Manager writing scratch files under dir.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create handle directory: %w", err)
	}
	return &Manager{
		dir:    dir,
		logger: logger,
		live:   make(map[string]*entry),
	}, nil
}

// Acquire returns a URI serving blob's bytes for assetID. If a live handle
// already exists for the id the same URI is returned and blob is ignored.
func (m *Manager) Acquire(assetID string, blob []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.live[assetID]; ok {
		m.logger.Debug("reusing live handle", "assetID", assetID)
		return e.uri, nil
	}

	f, err := os.CreateTemp(m.dir, assetID+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create handle file: %w", err)
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write handle file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close handle file: %w", err)
	}

	path := f.Name()
	e := &entry{uri: "file://" + filepath.ToSlash(path), path: path}
	m.live[assetID] = e

	m.logger.Debug("acquired handle", "assetID", assetID, "bytes", len(blob))
	return e.uri, nil
}

// Release revokes the handle for assetID. Releasing twice, or an id with no
// live handle, is a no-op.
func (m *Manager) Release(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(assetID)
}

// ReleaseAll revokes every live handle. Used before a full library wipe.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.live {
		m.release(id)
	}
}

// Live returns the number of concurrently live handles.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// release must be called with m.mu held.
func (m *Manager) release(assetID string) {
	e, ok := m.live[assetID]
	if !ok {
		return
	}
	delete(m.live, assetID)
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove handle file", "assetID", assetID, "error", err)
	}
	m.logger.Debug("released handle", "assetID", assetID)
}
