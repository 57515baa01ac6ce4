package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// kvRow holds journal bookkeeping such as the last prune time.
type kvRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetKV returns "" for a missing key.
func (s *sqliteClient) GetKV(ctx context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var row kvRow
	err := s.db.GetContext(ctx, &row, `SELECT key, value FROM kv_store WHERE key = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", errors.Wrapf(err, "get kv %q", key)
	}
	return row.Value, nil
}

func (s *sqliteClient) SetKV(ctx context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row := kvRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, row)
	return errors.Wrapf(err, "set kv %q", key)
}
