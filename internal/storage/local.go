package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutsideRoot is returned for paths escaping the storage root
var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStorage keeps uploaded receipt files on the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Save writes data under subDir/YYYY/MM with a random name keeping the
// original extension, and returns the path relative to the storage root.
func (s *LocalStorage) Save(data []byte, filename, subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir, s.now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	filePath := filepath.Join(dir, name)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, err := filepath.Rel(s.basePath, filePath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relPath), nil
}

// Open returns a stored file for reading
func (s *LocalStorage) Open(relativePath string) (io.ReadCloser, error) {
	full, err := s.resolve(relativePath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *LocalStorage) Delete(relativePath string) error {
	full, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", relativePath, err)
	}
	return nil
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	full, err := s.resolve(relativePath)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *LocalStorage) resolve(relativePath string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(relativePath))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// ValidContentTypes returns allowed MIME types for receipt uploads
func ValidContentTypes() map[string]bool {
	return map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
	}
}

// MaxFileSize returns the maximum allowed file size (10MB)
func MaxFileSize() int64 {
	return 10 * 1024 * 1024
}

// IsValidContentType checks if the content type is allowed
func IsValidContentType(contentType string) bool {
	return ValidContentTypes()[contentType]
}
