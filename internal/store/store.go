package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS transcript_exports (
	id              uuid PRIMARY KEY,
	run_id          uuid NOT NULL,
	conversation_id text NOT NULL,
	contact_name    text NOT NULL,
	file_path       text NOT NULL DEFAULT '',
	drive_file_id   text NOT NULL DEFAULT '',
	status          text NOT NULL,
	error           text NOT NULL DEFAULT '',
	exported_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transcript_exports_conversation_idx ON transcript_exports (conversation_id);
CREATE INDEX IF NOT EXISTS transcript_exports_run_idx ON transcript_exports (run_id);`

// EnsureSchema creates the ledger table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
