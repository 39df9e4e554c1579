package repository

import (
	"context"
	"sync"

	"shortly/internal/entities"
)

// MemoryRepository keeps the table in process memory.
type MemoryRepository struct {
	mu    sync.Mutex
	table entities.Table
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		table: make(entities.Table),
	}
}

// Load returns a deep copy of the table.
func (r *MemoryRepository) Load(ctx context.Context) (entities.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.table.Clone(), nil
}

// Save stores a deep copy of the table.
func (r *MemoryRepository) Save(ctx context.Context, table entities.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.table = table.Clone()
	return nil
}

// Update runs fn on a copy of the table under the lock and keeps the copy
// only when fn succeeds.
func (r *MemoryRepository) Update(ctx context.Context, fn func(entities.Table) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	working := r.table.Clone()
	if err := fn(working); err != nil {
		return err
	}

	r.table = working
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error {
	return nil
}
