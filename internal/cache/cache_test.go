package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/shelfview/internal/cache"
	"github.com/blackwell-systems/shelfview/internal/util"
)

func TestPath_Layout(t *testing.T) {
	m := cache.New("/base")
	if got, want := m.Path("books.xlsx"), filepath.Join("/base", "books.xlsx"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	// Server-supplied names never escape the directory.
	if got, want := m.Path("../../etc/passwd"), filepath.Join("/base", "passwd"); got != want {
		t.Errorf("Path(traversal) = %q, want %q", got, want)
	}
}

func TestExists_False(t *testing.T) {
	m := cache.New("/no/such/base")
	if m.Exists("file.xlsx") {
		t.Error("Exists() should be false for missing file")
	}
}

func TestStore_WritesAndHashes(t *testing.T) {
	m := cache.New(filepath.Join(t.TempDir(), "downloads"))

	saved, err := m.Store("template.xlsx", strings.NewReader("hello world"), "")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	const sha = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if saved.SHA256 != sha {
		t.Errorf("SHA256 = %q, want %q", saved.SHA256, sha)
	}
	if saved.Size != 11 {
		t.Errorf("Size = %d, want 11", saved.Size)
	}
	if !m.Exists("template.xlsx") {
		t.Error("Exists() false after successful Store")
	}
	if got, _ := util.SHA256File(saved.Path); got != sha {
		t.Errorf("file sha256 = %q, want %q", got, sha)
	}
}

func TestStore_NeverOverwrites(t *testing.T) {
	m := cache.New(t.TempDir())
	first, err := m.Store("export.xlsx", strings.NewReader("one"), "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Store("export.xlsx", strings.NewReader("two"), "")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(second.Path) != "export (1).xlsx" {
		t.Errorf("second path = %q, want export (1).xlsx", second.Path)
	}
	raw, _ := os.ReadFile(first.Path)
	if string(raw) != "one" {
		t.Errorf("first file = %q, want one", raw)
	}
}

func TestStore_WrongChecksumLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	m := cache.New(dir)

	_, err := m.Store("f.xlsx", strings.NewReader("some data"),
		"0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("Store with wrong checksum should fail, got nil")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("left files behind: %v", entries)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_ReadErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	m := cache.New(dir)
	if _, err := m.Store("f.xlsx", failingReader{}, ""); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("left files behind: %v", entries)
	}
}

func TestRemove_Missing(t *testing.T) {
	m := cache.New(t.TempDir())
	if err := m.Remove("nope.xlsx"); err != nil {
		t.Errorf("Remove(missing) = %v, want nil", err)
	}
}

func TestRemove_Existing(t *testing.T) {
	m := cache.New(t.TempDir())
	if _, err := m.Store("old.xlsx", strings.NewReader("x"), ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove("old.xlsx"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.Exists("old.xlsx") {
		t.Error("file still exists after Remove")
	}
}
