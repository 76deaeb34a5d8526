package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore хранит объекты в файловой системе: <root>/<bucket>/<key>.
// Файлы раздаются сервером по publicBaseURL.
type LocalStore struct {
	rootPath      string
	publicBaseURL string
}

// NewLocalStore создаёт файловое хранилище.
func NewLocalStore(rootPath, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &LocalStore{
		rootPath:      rootPath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Root возвращает корневой каталог для раздачи статики.
func (s *LocalStore) Root() string {
	return s.rootPath
}

// Put атомарно записывает объект через временный файл, существующий объект перезаписывается.
func (s *LocalStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	tempPath := f.Name()

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if size >= 0 && written != size {
		_ = os.Remove(tempPath)
		return fmt.Errorf("storage: записано %d байт из %d", written, size)
	}

	if err := os.Rename(tempPath, target); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}
	return nil
}

// Delete удаляет файл из хранилища.
func (s *LocalStore) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.objectPath(bucket, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// URL возвращает публичную ссылку на объект.
func (s *LocalStore) URL(_ context.Context, bucket, key string) (string, error) {
	return s.publicBaseURL + "/" + bucket + "/" + escapeKey(key), nil
}

func (s *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(s.rootPath, bucket, filepath.FromSlash(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
