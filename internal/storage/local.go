package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultLocalRoot = "./uploads"

// LocalStorage - файлы на диске, раздаются роутером из BasePath
type LocalStorage struct {
	root    string
	urlBase string
}

func NewLocalStorage(cfg Config) (*LocalStorage, error) {
	root := cfg.BasePath
	if root == "" {
		root = defaultLocalRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", root, err)
	}

	urlBase := strings.TrimRight(cfg.BaseURL, "/")
	if urlBase == "" {
		urlBase = "/uploads"
	}
	return &LocalStorage{root: root, urlBase: urlBase}, nil
}

func (s *LocalStorage) BasePath() string { return s.root }

// fullPath: ключ с ".." не выходит за пределы root
func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("storage: empty key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Save пишет во временный файл и переименовывает, читатели не видят половину файла
func (s *LocalStorage) Save(_ context.Context, key string, body io.Reader, _ string) error {
	dst, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: flush %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("storage: commit %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, notFound(err, key)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage: stat %s: %w", key, err)
	}
}

func (s *LocalStorage) GetURL(_ context.Context, key string) (string, error) {
	return s.urlBase + "/" + strings.TrimLeft(key, "/"), nil
}

// GetSignedURL: локальные файлы подписать нечем, отдаем обычную ссылку
func (s *LocalStorage) GetSignedURL(ctx context.Context, key string, _ time.Duration) (string, error) {
	if ok, err := s.Exists(ctx, key); err != nil {
		return "", err
	} else if !ok {
		return "", ErrObjectNotFound
	}
	return s.GetURL(ctx, key)
}

func notFound(err error, key string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("storage: open %s: %w", key, err)
}
