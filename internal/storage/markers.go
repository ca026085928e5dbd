package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// SQLiteMarkerStore persists reminder markers in the notification_markers
// table so a restart on the same day does not announce reminders twice.
type SQLiteMarkerStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteMarkerStore(db *sql.DB) (*SQLiteMarkerStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteMarkerStore{db: db, now: time.Now}, nil
}

// Markers returns a marker store sharing the repository's database.
func (r *SQLiteRepository) Markers() *SQLiteMarkerStore {
	return &SQLiteMarkerStore{db: r.db, now: r.now}
}

func (s *SQLiteMarkerStore) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notification_markers WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteMarkerStore) Set(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notification_markers (key, created_at) VALUES (?, ?)`,
		key, mustTime(s.now()),
	)
	return err
}

func (s *SQLiteMarkerStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notification_markers WHERE key = ?`, key)
	return err
}

func (s *SQLiteMarkerStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM notification_markers WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		likePrefix(prefix),
	)
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

// likePrefix escapes LIKE wildcards; marker prefixes end in '_'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
