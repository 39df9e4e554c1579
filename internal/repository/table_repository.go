package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"shortly/internal/entities"
)

// TableRepository persists the whole mappings table as one unit.
// Implementations must apply Update as a single read-modify-write with no
// other writer interleaved between the load and the save.
type TableRepository interface {
	// Load returns a private copy of the table. A missing table is empty.
	Load(ctx context.Context) (entities.Table, error)

	// Save replaces the stored table atomically.
	Save(ctx context.Context, table entities.Table) error

	// Update loads the table, passes it to fn and saves the result.
	// Nothing is written when fn returns an error, and the error is
	// returned unchanged. fn may be called more than once when the
	// implementation retries after a conflicting write.
	Update(ctx context.Context, fn func(entities.Table) error) error

	// Close releases the underlying connection, if any.
	Close() error
}

func decodeTable(data []byte) (entities.Table, error) {
	table := make(entities.Table)
	if len(data) == 0 {
		return table, nil
	}

	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode url mappings: %w", err)
	}
	if table == nil {
		table = make(entities.Table)
	}

	for code, link := range table {
		if link == nil {
			delete(table, code)
		}
	}
	return table, nil
}

func encodeTable(table entities.Table) ([]byte, error) {
	if table == nil {
		table = make(entities.Table)
	}
	data, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode url mappings: %w", err)
	}
	return data, nil
}
