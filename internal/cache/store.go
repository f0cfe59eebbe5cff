package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/shelfview/internal/util"
)

// Saved describes a stored file.
type Saved struct {
	Path   string
	Size   int64
	SHA256 string
}

// Store writes r to a new file in the download directory. An existing file
// is never overwritten: the name gets a " (n)" suffix instead. The data is
// written to a temp file and renamed into place, so a failed download leaves
// nothing behind. If expectedSHA256 is non-empty it is checked before the
// rename.
func (m *Manager) Store(name string, r io.Reader, expectedSHA256 string) (Saved, error) {
	if err := m.EnsureDir(); err != nil {
		return Saved{}, fmt.Errorf("create download dir: %w", err)
	}

	destPath := m.Path(util.UniqueName(m.baseDir, m.baseName(name)))
	tmpPath := destPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return Saved{}, fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return Saved{}, fmt.Errorf("writing download: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return Saved{}, fmt.Errorf("closing temp file: %w", err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if expectedSHA256 != "" && sum != expectedSHA256 {
		_ = os.Remove(tmpPath)
		return Saved{}, fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSHA256, sum)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return Saved{}, err
	}
	return Saved{Path: destPath, Size: n, SHA256: sum}, nil
}

func (m *Manager) baseName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "download"
	}
	return base
}
