// Package scanner finds email files under a directory tree.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// emailExtensions are the file extensions the scanner picks up.
var emailExtensions = map[string]bool{
	".eml": true,
	".msg": true,
}

// Scanner scans directories for .eml and .msg files
type Scanner struct {
	rootPath string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// Scan recursively scans for email files and returns paths relative to
// the root, in walk order. Relative paths keep batch output reproducible
// when the tree moves between systems.
func (s *Scanner) Scan() ([]string, error) {
	var files []string

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			return nil
		}

		if emailExtensions[strings.ToLower(filepath.Ext(path))] {
			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return fmt.Errorf("failed to get relative path for %s: %w", path, err)
			}
			// Normalize to forward slashes for cross-platform compatibility
			files = append(files, filepath.ToSlash(relPath))
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return files, nil
}

// Count counts matching files without collecting their paths.
func (s *Scanner) Count() (int, error) {
	count := 0

	err := filepath.Walk(s.rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && emailExtensions[strings.ToLower(filepath.Ext(path))] {
			count++
		}

		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}
