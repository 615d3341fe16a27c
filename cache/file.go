package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/juho05/log"

	"github.com/juho05/melodeon"
)

const fileName = "scan-cache.json"

type FileStore struct {
	path string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	err := os.MkdirAll(dataDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("new file store: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dataDir, fileName),
	}, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load scan cache: %w", err)
	}
	snapshot, err := decode(data)
	if err != nil {
		return nil, err
	}
	log.Tracef("loaded scan cache from %s (%d songs, %d playlists)", f.path, len(snapshot.Songs), len(snapshot.Playlists))
	return snapshot, nil
}

// Save replaces the cache file atomically.
func (f *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := encode(snapshot)
	if err != nil {
		return err
	}
	tmpPath := melodeon.TempName(f.path)
	err = os.WriteFile(tmpPath, data, 0644)
	if err != nil {
		return fmt.Errorf("save scan cache: %w", err)
	}
	err = os.Rename(tmpPath, f.path)
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("save scan cache: %w", err)
	}
	return nil
}
