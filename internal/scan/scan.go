// Package scan discovers Fortran source files under a directory.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	freeFormExts = []string{".f90", ".f95"}
	legacyExts   = []string{".f", ".for"}
)

// IsSource reports whether path has a Fortran source extension. Extensions
// are matched case-insensitively; legacy fixed-form extensions only when legacy is set.
func IsSource(path string, legacy bool) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(freeFormExts, ext) || (legacy && slices.Contains(legacyExts, ext))
}

// Files returns the sorted paths of the Fortran sources found by walking root.
// A root that does not exist yields an error matching fs.ErrNotExist.
func Files(root string, legacy bool) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && IsSource(path, legacy) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}
