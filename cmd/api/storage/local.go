package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes the covers under a directory of the local disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	err := os.MkdirAll(root, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Store(ctx context.Context, ownerID int64, r io.Reader, size int64, contentType string) (string, error) {
	ref := newRef(ownerID, contentType)
	target := filepath.Join(s.root, filepath.FromSlash(ref))

	err := os.MkdirAll(filepath.Dir(target), 0o755)
	if err != nil {
		return "", fmt.Errorf("creating cover dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating cover file: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(f, io.LimitReader(r, size))
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("writing cover file: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Read(ctx context.Context, ref string) (io.ReadCloser, error) {
	err := validRef(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil {
		return nil, fmt.Errorf("opening cover file: %w", err)
	}
	return f, nil
}
