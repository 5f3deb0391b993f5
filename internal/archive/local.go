package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalArchive writes records as JSON files below a base directory.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the base directory if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if basePath == "" {
		return nil, fmt.Errorf("archive: local path is empty")
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("archive: create base directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Store writes rec atomically through a temp file and rename.
func (a *LocalArchive) Store(_ context.Context, rec Record) (string, error) {
	data, err := encode(rec)
	if err != nil {
		return "", err
	}
	key := recordKey(rec)
	finalPath := filepath.Join(a.basePath, filepath.FromSlash(key))
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("archive: create day directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+rec.MessageID+"-*")
	if err != nil {
		return "", fmt.Errorf("archive: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("archive: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("archive: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("archive: rename temp file: %w", err)
	}
	return key, nil
}

// Load reads the record stored under key.
func (a *LocalArchive) Load(_ context.Context, key string) (*Record, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	data, err := os.ReadFile(filepath.Join(a.basePath, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("archive: read file: %w", err)
	}
	return decode(data)
}
