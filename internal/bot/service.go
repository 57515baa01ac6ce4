package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/i18n"
)

type service struct {
	bot             *api.BotAPI
	journal         db.Journal
	defaultLanguage string
}

func NewService(bot *api.BotAPI, journal db.Journal, defaultLanguage string) *service {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &service{
		bot:             bot,
		journal:         journal,
		defaultLanguage: defaultLanguage,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetJournal() db.Journal {
	return s.journal
}

// GetLanguage picks the user's client language when replies exist for it, the configured default
// otherwise.
func (s *service) GetLanguage(_ context.Context, _ int64, user *api.User) string {
	if user != nil && tool.In(user.LanguageCode, i18n.GetLanguagesList()...) {
		return user.LanguageCode
	}
	return s.defaultLanguage
}
