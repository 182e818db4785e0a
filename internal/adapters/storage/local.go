// Package storage provides object storage adapters for layer assets.
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// LocalStorage implements ObjectStorage for local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage adapter.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// List returns all layer asset files in the local directory. Keys use
// forward slashes.
func (s *LocalStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() || !domain.IsLayerAsset(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		objects = append(objects, output.StorageObject{
			Key:          filepath.ToSlash(relPath),
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})

		return nil
	})

	if err != nil {
		return nil, &domain.StorageError{Operation: "list", Key: s.basePath, Err: err}
	}

	return objects, nil
}

// Download copies a file to the destination.
func (s *LocalStorage) Download(_ context.Context, key string, dest string) error {
	srcPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	// If source and dest are the same, nothing to do
	if srcPath == dest {
		return nil
	}

	src, err := os.Open(srcPath) //#nosec G304 -- path confined to basePath
	if err != nil {
		return wrapFSError("download", key, err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}

	dst, err := os.Create(dest) //#nosec G304 -- dest is a controlled local path
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	_, err = io.Copy(dst, src)
	return err
}

// GetReader returns a reader for the given object.
func (s *LocalStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //#nosec G304 -- path confined to basePath
	if err != nil {
		return nil, wrapFSError("get", key, err)
	}
	return f, nil
}

// Exists checks if a file exists.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// FullPath returns the full path for a key.
func (s *LocalStorage) FullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// BasePath returns the storage root directory.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// resolve maps a key to a path below basePath.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &domain.StorageError{
			Operation: "resolve",
			Key:       key,
			Err:       domain.ErrInvalidInput,
		}
	}
	return filepath.Join(s.basePath, clean), nil
}

func wrapFSError(op, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.StorageError{Operation: op, Key: key, Err: domain.ErrNotFound}
	}
	return &domain.StorageError{Operation: op, Key: key, Err: err}
}
