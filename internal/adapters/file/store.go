package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"areascope/internal/core/domain"
)

// AreaStore implements ports.AreaStore on a single JSON file. It is the
// zero-dependency fallback for local development when no Valkey is running.
type AreaStore struct {
	path string
}

// NewAreaStore creates a store writing to path. The parent directory is
// created on first save.
func NewAreaStore(path string) *AreaStore {
	return &AreaStore{path: path}
}

// Load reads and decodes the file. A missing file yields an empty list.
func (s *AreaStore) Load(ctx context.Context) ([]domain.Area, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read area file: %w", err)
	}

	var areas []domain.Area
	if err := json.Unmarshal(data, &areas); err != nil {
		return nil, fmt.Errorf("decode area file: %w", err)
	}
	return areas, nil
}

// Save replaces the file with the full list. The write goes through a temp
// file and a rename so a crash never leaves a half-written slot behind.
func (s *AreaStore) Save(ctx context.Context, areas []domain.Area) error {
	if areas == nil {
		areas = []domain.Area{}
	}
	data, err := json.Marshal(areas)
	if err != nil {
		return fmt.Errorf("encode area file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create area dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp area file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp area file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp area file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace area file: %w", err)
	}
	return nil
}
