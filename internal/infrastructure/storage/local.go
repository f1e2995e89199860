// Package storage implements attachment file storage on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore writes attachment files under root/defects/<defect_id>/. Stored
// names are random UUIDs with the original extension, so uploads can never
// collide or traverse outside the tree; the original name lives in the
// database only.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(_ context.Context, defectID int64, fileName string, content io.Reader) (string, error) {
	dir := filepath.Join(s.root, "defects", fmt.Sprintf("%d", defectID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create defect dir: %w", err)
	}

	stored := uuid.NewString() + filepath.Ext(fileName)
	path := filepath.Join(dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write attachment file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close attachment file: %w", err)
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return rel, nil
}

func (s *LocalStore) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, storedPath))
	if err != nil {
		return nil, fmt.Errorf("open attachment file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Remove(_ context.Context, storedPath string) error {
	return os.Remove(filepath.Join(s.root, storedPath))
}
