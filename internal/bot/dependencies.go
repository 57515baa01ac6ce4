package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/groupguard/internal/db"
)

// Service is what handlers get from the process: the API client, the journal and reply language.
type Service interface {
	GetBot() *api.BotAPI
	// GetJournal returns nil when the journal is disabled.
	GetJournal() db.Journal
	GetLanguage(ctx context.Context, chatID int64, user *api.User) string
}

// Handler is one link of the update chain. Returning proceed=false stops the chain.
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	return f(ctx, u, chat, user)
}
