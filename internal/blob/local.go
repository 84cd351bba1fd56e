package blob

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a single upload directory. It is the
// default backend; small deployments do not need object storage.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}

	err := os.MkdirAll(dir, 0o755)

	if err != nil {
		return nil, err
	}

	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.pathFor(key)

	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.pathFor(key)

	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

func (s *LocalStore) URLFor(key string) string {
	return "/files/" + key
}

// pathFor rejects keys that would escape the upload dir.
func (s *LocalStore) pathFor(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", errors.New("invalid storage key")
	}

	return filepath.Join(s.dir, key), nil
}
