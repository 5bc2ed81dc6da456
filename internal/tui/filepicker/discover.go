// ABOUTME: Finds PDF files in a directory for the CV picker
// ABOUTME: Non-recursive; hidden files are skipped

package filepicker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is a PDF found on disk.
type Candidate struct {
	Name string // Filename (e.g., "cv-2026.pdf")
	Path string // Full path to the file
}

// Discover lists PDF files in dir, sorted by name. A missing directory yields
// an empty list.
func Discover(dir string) ([]Candidate, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []Candidate{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []Candidate
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".pdf" {
			continue
		}
		files = append(files, Candidate{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}
