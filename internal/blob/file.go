// Package blob stores uploaded reports and generated compliance reports on disk.
package blob

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"riskScope/internal/apperr"
)

// FileStore writes blobs under a root directory. Keys are slash-separated
// relative paths such as "reports/cust-1_20260101_120000.txt".
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) *FileStore {
	if root == "" {
		root = "data"
	}
	return &FileStore{root: root}
}

// Put writes data under key, replacing any existing blob, and returns its location.
func (s *FileStore) Put(key string, data []byte) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open blob file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(data); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("flush blob: %w", err)
	}

	return s.URL(key), nil
}

// Get reads the blob stored under key.
func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("blob", key)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// URL is the location reported to callers for key.
func (s *FileStore) URL(key string) string {
	return "file://" + filepath.ToSlash(filepath.Join(s.root, filepath.FromSlash(key)))
}

func (s *FileStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", apperr.Validation(fmt.Sprintf("invalid blob key %q", key))
	}
	return filepath.Join(s.root, clean), nil
}
