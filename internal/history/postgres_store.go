package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each history as one row of the history_blobs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Read(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM history_blobs WHERE key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select history blob: %w", err)
	}
	return payload, nil
}

func (s *PostgresStore) Write(ctx context.Context, key string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO history_blobs (key, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = NOW()`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("upsert history blob: %w", err)
	}
	return nil
}
