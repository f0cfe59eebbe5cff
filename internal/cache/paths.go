package cache

import (
	"os"
	"path/filepath"

	"github.com/blackwell-systems/shelfview/internal/util"
)

// Manager stores downloaded files (spreadsheet templates, catalog exports)
// under a single directory.
type Manager struct {
	baseDir string
}

// New creates a Manager rooted at baseDir.
func New(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Dir returns the download directory.
func (m *Manager) Dir() string { return m.baseDir }

// Path returns the full path for a file name.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.baseDir, filepath.Base(name))
}

// Exists reports whether the file exists.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// EnsureDir creates the download directory.
func (m *Manager) EnsureDir() error {
	return util.EnsureDir(m.baseDir)
}

// Remove deletes the file if it exists.
func (m *Manager) Remove(name string) error {
	err := os.Remove(m.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
