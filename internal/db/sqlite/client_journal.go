package sqlite

import (
	"context"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/iamwavecut/groupguard/internal/db"
)

type modActionRow struct {
	db.ModAction
	CreatedAtUnix int64 `db:"created_at"`
}

func (s *sqliteClient) AddAction(ctx context.Context, action *db.ModAction) error {
	if action == nil {
		return errors.New("nil action")
	}
	if action.ID == "" {
		action.ID = uuid.New()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	row := modActionRow{ModAction: *action, CreatedAtUnix: action.CreatedAt.Unix()}
	query := `
		INSERT INTO mod_actions (id, chat_id, actor_id, target_id, action, detail, failed, created_at)
		VALUES (:id, :chat_id, :actor_id, :target_id, :action, :detail, :failed, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "insert mod action")
	}
	return nil
}

// RecentActions returns up to limit entries of a chat, newest first.
func (s *sqliteClient) RecentActions(ctx context.Context, chatID int64, limit int) ([]*db.ModAction, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var rows []modActionRow
	query := `
		SELECT id, chat_id, actor_id, target_id, action, detail, failed, created_at
		FROM mod_actions
		WHERE chat_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &rows, query, chatID, limit); err != nil {
		return nil, errors.Wrap(err, "select mod actions")
	}

	actions := make([]*db.ModAction, 0, len(rows))
	for _, row := range rows {
		action := row.ModAction
		action.CreatedAt = time.Unix(row.CreatedAtUnix, 0)
		actions = append(actions, &action)
	}
	return actions, nil
}

func (s *sqliteClient) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM mod_actions WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "prune mod actions")
	}
	return res.RowsAffected()
}
