// Package store is the on-disk artifact tree holding originals and
// thumbnails, addressed by opaque path strings.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when an artifact path does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store is rooted at a base directory (UPLOAD_DIR) and keeps originals
// directly under it, thumbnails under a thumbs/ subdirectory.
type Store struct {
	baseDir  string
	thumbDir string
}

// New creates a Store rooted at baseDir, creating baseDir and its
// thumbs/ subdirectory if they don't already exist.
func New(baseDir string) (*Store, error) {
	thumbDir := filepath.Join(baseDir, "thumbs")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{baseDir: baseDir, thumbDir: thumbDir}, nil
}

// BaseDir returns the root of the artifact tree.
func (s *Store) BaseDir() string { return s.baseDir }

// ThumbDir returns the directory thumbnails are written under.
func (s *Store) ThumbDir() string { return s.thumbDir }

// OriginalPath returns the path an original with the given filename
// would live at.
func (s *Store) OriginalPath(filename string) string {
	return filepath.Join(s.baseDir, filename)
}

// SaveOriginal writes body to a new file named filename under the base
// directory and returns its path. The caller is responsible for
// deleting the file if a later step in the same logical operation
// fails.
func (s *Store) SaveOriginal(filename string, body io.Reader) (string, error) {
	path := s.OriginalPath(filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create original: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write original: %w", err)
	}
	return path, nil
}

// Open opens the artifact at path for reading.
func (s *Store) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes the artifact at path, tolerating an already-missing
// file.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether path currently resolves to a file.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
