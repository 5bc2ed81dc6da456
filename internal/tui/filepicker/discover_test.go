// ABOUTME: Tests for PDF discovery
// ABOUTME: Validates filtering, ordering and missing directories

package filepicker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	os.WriteFile(filepath.Join(tmpDir, "b-cv.pdf"), []byte("%PDF"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "a-cv.PDF"), []byte("%PDF"), 0644)
	os.WriteFile(filepath.Join(tmpDir, ".hidden.pdf"), []byte("%PDF"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignore"), 0644)
	os.Mkdir(filepath.Join(tmpDir, "dir.pdf"), 0755)

	files, err := Discover(tmpDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 PDF files, got %d", len(files))
	}
	if files[0].Name != "a-cv.PDF" || files[1].Name != "b-cv.pdf" {
		t.Errorf("expected sorted names, got %s, %s", files[0].Name, files[1].Name)
	}
	if files[1].Path != filepath.Join(tmpDir, "b-cv.pdf") {
		t.Errorf("expected full path, got %s", files[1].Path)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	files, err := Discover("/nonexistent/path")
	if err != nil {
		t.Fatalf("Discover() should not error for missing dir, got: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list for missing dir, got %d", len(files))
	}
}

func TestDiscoverEmptyDir(t *testing.T) {
	files, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty list for empty dir, got %d", len(files))
	}
}
