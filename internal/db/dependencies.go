package db

import (
	"context"
	"time"
)

// Journal is the append-only audit log of moderation actions. It is never read back into the
// in-memory moderation state.
type Journal interface {
	AddAction(ctx context.Context, action *ModAction) error
	RecentActions(ctx context.Context, chatID int64, limit int) ([]*ModAction, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)

	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error

	Close() error
}
