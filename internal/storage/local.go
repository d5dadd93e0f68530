package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalPrefix is the URL prefix under which the server exposes the upload directory.
const LocalPrefix = "/uploads/"

// LocalStore writes files into a directory served under LocalPrefix.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and returns a store writing into it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes r to dir/name through a temp file and returns /uploads/<name>.
func (s *LocalStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("storage: store %s: %w", name, err)
	}
	return LocalPrefix + name, nil
}
