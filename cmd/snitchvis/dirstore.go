package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"snitchvis/internal/storage"
)

var _ storage.Storage = (*dirStore)(nil)

// dirStore implements storage.Storage on a local directory, keys
// mapping onto file paths. It backs the CLI's tile cache so the tile
// service works without an object store.
type dirStore struct {
	root string
}

func (d *dirStore) path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *dirStore) Put(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) (storage.ObjectInfo, error) {
	path := d.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return storage.ObjectInfo{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	return storage.ObjectInfo{Key: key, Size: n, LastModified: time.Now()}, nil
}

func (d *dirStore) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	f, err := os.Open(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ObjectInfo{}, fmt.Errorf("local object %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	info := storage.ObjectInfo{Key: key}
	if st, serr := f.Stat(); serr == nil {
		info.Size = st.Size()
		info.LastModified = st.ModTime()
	}
	return f, info, nil
}

func (d *dirStore) Delete(_ context.Context, key string) error {
	err := os.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *dirStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	abs, err := filepath.Abs(d.path(key))
	if err != nil {
		return "", err
	}
	return "file://" + abs, nil
}
