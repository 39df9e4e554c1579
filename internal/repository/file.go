package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"shortly/internal/entities"
)

// FileRepository stores the table as a JSON document on disk. Every save
// rewrites the whole document through a temporary file and a rename, so a
// crash leaves either the old or the new table, never a partial one.
//
// The mutex only serializes writers inside this process.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository creates a repository backed by the file at path,
// creating its directory if needed.
func NewFileRepository(path string) (*FileRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileRepository{path: path}, nil
}

// Load reads the table from disk. A missing file is an empty table.
func (r *FileRepository) Load(ctx context.Context) (entities.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

// Save atomically replaces the file with the given table.
func (r *FileRepository) Save(ctx context.Context, table entities.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(table)
}

// Update reads, modifies and rewrites the table under the lock.
func (r *FileRepository) Update(ctx context.Context, fn func(entities.Table) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.read()
	if err != nil {
		return err
	}

	if err := fn(table); err != nil {
		return err
	}

	return r.write(table)
}

// Close is a no-op.
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) read() (entities.Table, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(entities.Table), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read url mappings: %w", err)
	}

	return decodeTable(data)
}

func (r *FileRepository) write(table entities.Table) error {
	data, err := encodeTable(table)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write url mappings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync url mappings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace url mappings: %w", err)
	}
	return nil
}
