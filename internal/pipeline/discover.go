// Package pipeline orchestrates file discovery, the sequential per-file
// conversion loop, and the aggregate counters the reporter consumes.
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotDirectory is returned by Discover when the root does not exist or is
// not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Discover walks root recursively and returns the absolute paths of all
// files with an .avi extension (case-insensitive), sorted lexicographically
// for deterministic processing order.
func Discover(root string) ([]string, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, fmt.Errorf("%q: %w", root, ErrNotDirectory)
	}
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%q: %w", root, ErrNotDirectory)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".avi") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
