package kv

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore keeps one file per key under dir. Writes go to a temp file that
// is renamed over the target, so readers never observe a partial value.
type FileStore struct {
	dir string
}

var _ Store = &FileStore{}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file kv store: empty dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "file kv store: create dir")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "file kv store: read %q", key)
	}
	return b, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".kv-*")
	if err != nil {
		return errors.Wrap(err, "file kv store: create temp")
	}
	name := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errors.Wrapf(err, "file kv store: write %q", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "file kv store: close %q", key)
	}
	if err := os.Rename(name, s.path(key)); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "file kv store: rename %q", key)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "file kv store: delete %q", key)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
