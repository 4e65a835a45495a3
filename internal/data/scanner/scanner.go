package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/d1j/facebook-stats/internal/util"
)

// FileScanner lists archive fragments in a directory
type FileScanner struct {
	baseDir string
	suffix  string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir: baseDir,
		suffix:  ".json",
	}
}

// Scan returns the .json files directly inside the base directory sorted by
// path. Subdirectories are not descended into.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory %s: %w", s.baseDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), s.suffix) {
			files = append(files, filepath.Join(s.baseDir, entry.Name()))
		}
	}
	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, %d entries, found %d fragments",
		time.Since(start), len(entries), len(files)))

	return files, nil
}
