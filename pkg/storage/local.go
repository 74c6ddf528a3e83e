package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores attachments on disk, served read-only under a URL prefix
type LocalStorage struct {
	dir    string
	prefix string
}

// NewLocalStorage creates the upload directory if needed
func NewLocalStorage(dir, publicPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

// Dir returns the upload directory
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes body to a new file
func (s *LocalStorage) Save(_ context.Context, filename string, body io.Reader, contentType string, _ int64) (*Object, error) {
	key := GenerateKey(filename)
	dst, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(dst, body)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(s.path(key))
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &Object{
		Key:         key,
		URL:         s.prefix + "/" + key,
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Open opens a stored file
func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

// Delete removes a stored file
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path confines key to the upload directory
func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}
