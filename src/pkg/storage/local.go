package storage

import (
	"fmt"
	"os"
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
LocalStorage keeps artifacts under a base directory, one subdirectory per
run. Directories are created on demand.
*/
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local storage needs a base path")
	}

	if mkdirErr := os.MkdirAll(basePath, 0o755); mkdirErr != nil {
		return nil, fmt.Errorf("create storage directory '%s': %w", basePath, mkdirErr)
	}

	tl.Log(tl.Debug, palette.GreenDim, "%s local artifact storage at '%s'", "Using", basePath)

	return &LocalStorage{basePath: basePath}, nil
}

func (store *LocalStorage) Save(name string, data []byte) (string, error) {
	fullPath := filepath.Join(store.basePath, name)

	if mkdirErr := os.MkdirAll(filepath.Dir(fullPath), 0o755); mkdirErr != nil {
		return "", fmt.Errorf("create artifact directory: %w", mkdirErr)
	}

	if writeErr := os.WriteFile(fullPath, data, 0o644); writeErr != nil {
		return "", fmt.Errorf("write artifact '%s': %w", name, writeErr)
	}

	tl.Log(tl.Verbose, palette.GreenDim, "%s '%s' ('%d' bytes)", "Stored", fullPath, len(data))

	return fullPath, nil
}

func (store *LocalStorage) Get(name string) ([]byte, error) {
	data, readErr := os.ReadFile(filepath.Join(store.basePath, name))
	if readErr != nil {
		return nil, fmt.Errorf("read artifact '%s': %w", name, readErr)
	}

	return data, nil
}

func (store *LocalStorage) Delete(name string) error {
	if removeErr := os.Remove(filepath.Join(store.basePath, name)); removeErr != nil {
		return fmt.Errorf("delete artifact '%s': %w", name, removeErr)
	}

	return nil
}
