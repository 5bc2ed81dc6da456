// ABOUTME: Remembers the CV files an intern uploaded most recently
// ABOUTME: Stores absolute PDF paths in recent_cvs.json under the config directory

package recentfiles

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// MaxRecentFiles is the maximum number of recent files to keep
const MaxRecentFiles = 5

// RecentFiles manages the list of recently uploaded CVs.
type RecentFiles struct {
	configDir string
	files     []string
}

type recentData struct {
	Files []string `json:"files"`
}

// New creates a RecentFiles manager rooted at configDir.
func New(configDir string) *RecentFiles {
	return &RecentFiles{configDir: configDir}
}

func (rf *RecentFiles) configFile() string {
	return filepath.Join(rf.configDir, "recent_cvs.json")
}

// Load reads the list from disk, dropping files that no longer exist. A
// corrupt list is treated as empty.
func (rf *RecentFiles) Load() ([]string, error) {
	data, err := os.ReadFile(rf.configFile())
	if errors.Is(err, fs.ErrNotExist) {
		rf.files = []string{}
		return rf.files, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		rf.files = []string{}
		return rf.files, nil
	}

	rf.files = make([]string, 0, len(recent.Files))
	for _, path := range recent.Files {
		if _, err := os.Stat(path); err == nil {
			rf.files = append(rf.files, path)
		}
	}
	return rf.files, nil
}

// Save writes files, trimmed to MaxRecentFiles.
func (rf *RecentFiles) Save(files []string) error {
	if err := os.MkdirAll(rf.configDir, 0o700); err != nil {
		return err
	}
	if len(files) > MaxRecentFiles {
		files = files[:MaxRecentFiles]
	}
	rf.files = files

	data, err := json.MarshalIndent(recentData{Files: files}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rf.configFile(), data, 0o600)
}

// Add moves path to the front of the list. Relative paths are made absolute.
func (rf *RecentFiles) Add(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if rf.files == nil {
		if _, err := rf.Load(); err != nil {
			rf.files = []string{}
		}
	}

	files := make([]string, 0, len(rf.files)+1)
	files = append(files, path)
	for _, f := range rf.files {
		if f != path {
			files = append(files, f)
		}
	}
	return rf.Save(files)
}

// List returns the current list, loading it on first use.
func (rf *RecentFiles) List() []string {
	if rf.files == nil {
		_, _ = rf.Load()
	}
	return rf.files
}
