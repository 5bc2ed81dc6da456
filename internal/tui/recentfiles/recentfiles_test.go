// ABOUTME: Tests for recent CV files
// ABOUTME: Validates persistence, max limit, deduplication and missing-file pruning

package recentfiles

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmpty(t *testing.T) {
	rf := New(t.TempDir())

	files, err := rf.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list, got %d files", len(files))
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	rf := New(dir)
	paths := []string{touch(t, dir, "a.pdf"), touch(t, dir, "b.pdf")}

	if err := rf.Save(paths); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := New(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != paths[0] {
		t.Errorf("expected %v, got %v", paths, loaded)
	}
}

func TestAddMovesToFront(t *testing.T) {
	dir := t.TempDir()
	rf := New(dir)
	a, b := touch(t, dir, "a.pdf"), touch(t, dir, "b.pdf")

	_ = rf.Add(a)
	_ = rf.Add(b)
	_ = rf.Add(a)

	files := rf.List()
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if files[0] != a {
		t.Errorf("expected %s first, got %s", a, files[0])
	}
}

func TestMaxRecentFiles(t *testing.T) {
	dir := t.TempDir()
	rf := New(dir)
	for i := 0; i < MaxRecentFiles+2; i++ {
		_ = rf.Add(touch(t, dir, string(rune('a'+i))+".pdf"))
	}

	if got := len(rf.List()); got != MaxRecentFiles {
		t.Errorf("expected %d files, got %d", MaxRecentFiles, got)
	}
}

func TestLoadDropsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	rf := New(dir)
	keep := touch(t, dir, "keep.pdf")
	gone := touch(t, dir, "gone.pdf")
	_ = rf.Save([]string{keep, gone})
	os.Remove(gone)

	files, _ := New(dir).Load()
	if len(files) != 1 || files[0] != keep {
		t.Errorf("expected only %s, got %v", keep, files)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "recent_cvs.json"), []byte("{not json"), 0o600)

	files, err := New(dir).Load()
	if err != nil || len(files) != 0 {
		t.Errorf("expected empty list for corrupt file, got %v, %v", files, err)
	}
}

func TestAddMakesPathAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	touch(t, dir, "cv.pdf")
	rf := New(filepath.Join(dir, "cfg"))

	if err := rf.Add("cv.pdf"); err != nil {
		t.Fatal(err)
	}
	if files := rf.List(); len(files) != 1 || !filepath.IsAbs(files[0]) {
		t.Errorf("expected an absolute path, got %v", files)
	}
}
