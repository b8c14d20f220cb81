// Package filestore implements storage.DurableStore on the local filesystem,
// one file per key under a base directory.
package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/oakmall/cartengine/internal/storage"
)

var _ storage.DurableStore = (*Store)(nil)

// Store persists records as files under dir. Writes go through a temp file
// and rename so a crashed write never leaves a truncated record behind.
type Store struct {
	dir string
}

// New creates the base directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Get reads the record for key. Returns storage.ErrNotFound when absent.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "read record %q", key)
	}
	return data, nil
}

// Set writes the record for key atomically.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp for record %q", key)
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "write record %q", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "close record %q", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "commit record %q", key)
	}
	return nil
}

// Delete removes the record for key. Deleting an absent record is a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete record %q", key)
	}
	return nil
}

// path maps a key to a file name, replacing separators so keys cannot escape
// the base directory.
func (s *Store) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe)
}
