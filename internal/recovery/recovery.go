// Package recovery removes the leftovers of output writes that were
// interrupted before their rename.
package recovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ttgen/internal/storage"
)

// Result contains the outcome of a cleanup pass.
type Result struct {
	// TmpFilesRemoved lists the abandoned temp files that were deleted.
	TmpFilesRemoved []string

	// Skipped counts temp files younger than Options.MinAge.
	Skipped int
}

// CleanTargets scans the directory of every target path for temp files left
// by an interrupted atomic write and removes the ones older than MinAge.
// Directories that do not exist yet are ignored. Failing to remove one file
// does not stop the scan; the first such error is returned with the result.
func CleanTargets(paths []string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &Result{}
	cutoff := time.Now().Add(-opts.MinAge)
	var firstErr error

	for _, dir := range targetDirs(paths) {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("scan %s: %w", dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasPrefix(e.Name(), storage.TempPrefix) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				// Renamed or removed since ReadDir.
				continue
			}
			if info.ModTime().After(cutoff) {
				result.Skipped++
				continue
			}

			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Error("failed to remove abandoned temp file", "path", path, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			logger.Debug("removed abandoned temp file", "path", path)
			result.TmpFilesRemoved = append(result.TmpFilesRemoved, path)
		}
	}

	if len(result.TmpFilesRemoved) > 0 {
		logger.Info("cleaned abandoned temp files", "removed", len(result.TmpFilesRemoved))
	}
	return result, firstErr
}

// targetDirs returns the distinct parent directories of paths, sorted.
func targetDirs(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var dirs []string
	for _, p := range paths {
		dir := filepath.Dir(filepath.Clean(p))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}
