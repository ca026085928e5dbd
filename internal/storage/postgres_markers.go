package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

const postgresMarkerSchema = `
CREATE TABLE IF NOT EXISTS notification_markers (
    key        TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresMarkerStore keeps reminder markers in PostgreSQL so several
// daemons sharing one household calendar agree on what was announced.
// A pgx connection is not safe for concurrent use; mu serializes access.
type PostgresMarkerStore struct {
	mu   sync.Mutex
	conn *pgx.Conn
}

// ConnectPostgresMarkers dials connStr, checks the link and ensures the
// marker table exists.
func ConnectPostgresMarkers(ctx context.Context, connStr string) (*PostgresMarkerStore, error) {
	cfg, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgx connect: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	if _, err := conn.Exec(ctx, postgresMarkerSchema); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("create marker table: %w", err)
	}
	return &PostgresMarkerStore{conn: conn}, nil
}

func (s *PostgresMarkerStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close(ctx)
}

func (s *PostgresMarkerStore) Has(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exists bool
	err := s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM notification_markers WHERE key = $1)`, key).Scan(&exists)
	return exists, err
}

func (s *PostgresMarkerStore) Set(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, `INSERT INTO notification_markers (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, key)
	return err
}

func (s *PostgresMarkerStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(ctx, `DELETE FROM notification_markers WHERE key = $1`, key)
	return err
}

func (s *PostgresMarkerStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.conn.Query(ctx, `
SELECT key FROM notification_markers
WHERE key LIKE $1 ESCAPE '\'
ORDER BY key`, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}
