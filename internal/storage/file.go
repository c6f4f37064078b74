package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps each slot as <root>/<key>.json. Writes go to a temp file
// in the same directory and are renamed into place.
type FileStore struct {
	root string
}

// NewFileStore returns a file-backed store rooted at root, creating it if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "./portaldata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating slot directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.root, key+".json"), nil
}

func (s *FileStore) GetSlot(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *FileStore) SetSlot(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Close() error { return nil }
