// Package storage manages the on-disk video store: the directory videos live
// in, the generated file names, and the small set of filesystem operations
// the services need.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Generated file names carry a millisecond timestamp plus a short random
// segment. The timestamp alone is not collision-free under concurrent
// requests, hence the random part.
var generatedPrefix = regexp.MustCompile(`^\d+-(?:[0-9a-f]{8}-)?`)

// Store is the local disk namespace holding video files. The directory is
// created lazily; callers invoke EnsureDir before writing into it.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory itself is not touched.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the storage directory if it is absent. Two requests
// racing to create it is not an error; only genuine creation failures
// (permissions, the path being a file) are.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating storage directory %s: %w", s.dir, err)
	}
	return nil
}

// Exists reports whether a file is present at path.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileSize returns the size in bytes of the file at path.
func (s *Store) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes the file at path.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}

// PathFor returns the store path for a generated file name.
func (s *Store) PathFor(name string) string {
	return filepath.Join(s.dir, name)
}

// UploadName generates the stored name for a fresh upload.
func UploadName(originalName string) string {
	return generatedName(filepath.Base(originalName))
}

// DerivedName generates the stored name for an asset derived from source.
// The source's generated prefix is stripped first, so deriving from a derived
// asset keeps reusing the original display name.
func DerivedName(sourceName string) string {
	return generatedName(generatedPrefix.ReplaceAllString(sourceName, ""))
}

// MergedName generates the stored name for a merge output.
func MergedName() string {
	return generatedName("merged.mp4")
}

func generatedName(base string) string {
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], base)
}
