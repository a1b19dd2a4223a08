package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileStorage is a directory tree addressed by slash-free relative paths.
type FileStorage interface {
	Save(path string, data io.Reader) error
	WriteAtomic(path string, data []byte) error
	Get(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
	Stat(path string) (fs.FileInfo, error)
	Chtimes(path string, mtime time.Time) error
	EnsureDir(path string) error
	FullPath(path string) string
}

type DiskStorage struct {
	basePath string
}

func NewFileStorage(basePath string) *DiskStorage {
	return &DiskStorage{basePath: basePath}
}

func (s *DiskStorage) FullPath(path string) string {
	return filepath.Join(s.basePath, path)
}

func (s *DiskStorage) Save(path string, data io.Reader) error {
	fullPath := s.FullPath(path)

	// Создаем директорию если нужно
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old file or the complete new one.
func (s *DiskStorage) WriteAtomic(path string, data []byte) error {
	fullPath := s.FullPath(path)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

func (s *DiskStorage) Get(path string) (io.ReadCloser, error) {
	return os.Open(s.FullPath(path))
}

func (s *DiskStorage) Delete(path string) error {
	return os.Remove(s.FullPath(path))
}

func (s *DiskStorage) Exists(path string) bool {
	_, err := os.Stat(s.FullPath(path))
	return !os.IsNotExist(err)
}

func (s *DiskStorage) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(s.FullPath(path))
}

func (s *DiskStorage) Chtimes(path string, mtime time.Time) error {
	return os.Chtimes(s.FullPath(path), mtime, mtime)
}

// EnsureDir creates path and its parents. An existing directory is not an
// error; anything else is.
func (s *DiskStorage) EnsureDir(path string) error {
	return os.MkdirAll(s.FullPath(path), 0755)
}
