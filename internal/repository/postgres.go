package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shortly/internal/entities"
)

const (
	selectTableQuery = `SELECT data FROM url_mappings WHERE id = 1`

	selectTableForUpdateQuery = `SELECT data FROM url_mappings WHERE id = 1 FOR UPDATE`

	upsertTableQuery = `
		INSERT INTO url_mappings (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
)

// PostgresRepository stores the table as a single jsonb row. Update locks
// the row with SELECT ... FOR UPDATE for the duration of the transaction.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repository on an open connection. The
// url_mappings schema must already be migrated.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Load reads the table.
func (r *PostgresRepository) Load(ctx context.Context) (entities.Table, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, selectTableQuery).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return make(entities.Table), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load url mappings: %w", err)
	}

	return decodeTable(data)
}

// Save overwrites the table row.
func (r *PostgresRepository) Save(ctx context.Context, table entities.Table) error {
	data, err := encodeTable(table)
	if err != nil {
		return err
	}

	// jsonb must be sent as text; lib/pq would encode []byte as bytea
	if _, err := r.db.ExecContext(ctx, upsertTableQuery, string(data)); err != nil {
		return fmt.Errorf("failed to save url mappings: %w", err)
	}
	return nil
}

// Update reads the locked row, applies fn and writes it back in one
// transaction.
func (r *PostgresRepository) Update(ctx context.Context, fn func(entities.Table) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var data []byte
	err = tx.QueryRowContext(ctx, selectTableForUpdateQuery).Scan(&data)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to lock url mappings: %w", err)
	}

	table, err := decodeTable(data)
	if err != nil {
		return err
	}

	if err := fn(table); err != nil {
		return err
	}

	encoded, err := encodeTable(table)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, upsertTableQuery, string(encoded)); err != nil {
		return fmt.Errorf("failed to save url mappings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit url mappings: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
