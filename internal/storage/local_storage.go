package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStorage keeps media in a directory tree. Paths handed to the
// filesystem are rooted at "/" of a BasePathFs, so nothing escapes the root.
type LocalStorage struct {
	fs afero.Fs
}

func NewLocalStorage(config *BackendConfig) (*LocalStorage, error) {
	basePath := config.LocalPath
	if basePath == "" {
		basePath = config.MediaRoot
	}
	if basePath == "" {
		basePath = "./content/uploads"
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return NewLocalStorageWithFs(afero.NewBasePathFs(osFs, absPath)), nil
}

func NewLocalStorageWithFs(fs afero.Fs) *LocalStorage {
	return &LocalStorage{fs: fs}
}

func (s *LocalStorage) List(ctx context.Context, folder string) ([]MediaEntry, error) {
	infos, err := afero.ReadDir(s.fs, fsPath(folder))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]MediaEntry, 0, len(infos))
	for _, info := range infos {
		entry := MediaEntry{
			IsFile:   !info.IsDir(),
			Filename: info.Name(),
		}
		if entry.IsFile {
			entry.Size = uint64(info.Size())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Upload streams reader into the destination file. It returns only after the
// file has been synced and closed; a failed copy removes the partial file.
func (s *LocalStorage) Upload(ctx context.Context, filePath string, reader io.Reader) error {
	fullPath := fsPath(filePath)

	if err := s.fs.MkdirAll(path.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := s.fs.Create(fullPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		s.fs.Remove(fullPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *LocalStorage) Mkdir(ctx context.Context, folder string) error {
	return s.fs.MkdirAll(fsPath(folder), 0755)
}

func (s *LocalStorage) Delete(ctx context.Context, filePath string) error {
	fullPath := fsPath(filePath)

	if _, err := s.fs.Stat(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return err
	}

	return s.fs.Remove(fullPath)
}

func fsPath(p string) string {
	return "/" + p
}
