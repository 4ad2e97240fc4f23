// Package security holds input checks for user supplied paths.
package security

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrInvalidPath   = errors.New("invalid file path")
)

// ValidateFilePath rejects empty paths and paths escaping baseDir (or the
// working directory tree when baseDir is empty) through "..".
func ValidateFilePath(path, baseDir string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}

	cleanPath := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return ErrPathTraversal
		}
	}

	if baseDir != "" {
		absBase, err := filepath.Abs(baseDir)
		if err != nil {
			return err
		}
		absPath, err := filepath.Abs(cleanPath)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absBase, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return ErrPathTraversal
		}
	}

	return nil
}
