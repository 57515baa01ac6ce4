package telegram

import (
	"context"
	"strings"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iamwavecut/groupguard/internal/moderation"
)

const defaultSeenUsersSize = 50000

// SeenUsers remembers users observed in inbound updates so handles can be resolved without a
// user directory, which the Bot API lacks.
type SeenUsers struct {
	mu       sync.Mutex
	byID     *lru.Cache[int64, moderation.User]
	byHandle *lru.Cache[string, int64]
}

func NewSeenUsers(size int) *SeenUsers {
	if size <= 0 {
		size = defaultSeenUsersSize
	}
	byID, _ := lru.New[int64, moderation.User](size)
	byHandle, _ := lru.New[string, int64](size)
	return &SeenUsers{byID: byID, byHandle: byHandle}
}

// Remember stores a Bot API user. Nil users are ignored.
func (c *SeenUsers) Remember(u *api.User) {
	if c == nil || u == nil || u.ID == 0 {
		return
	}
	c.Add(toUser(u))
}

func (c *SeenUsers) Add(user moderation.User) {
	if c == nil || user.ID == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.byID.Peek(user.ID); ok && prev.UserName != "" && !strings.EqualFold(prev.UserName, user.UserName) {
		c.byHandle.Remove(strings.ToLower(prev.UserName))
	}
	c.byID.Add(user.ID, user)
	if user.UserName != "" {
		c.byHandle.Add(strings.ToLower(user.UserName), user.ID)
	}
}

// RememberUpdate ingests every user an update carries.
func (c *SeenUsers) RememberUpdate(u *api.Update) {
	if c == nil || u == nil {
		return
	}
	if msg := u.Message; msg != nil {
		c.Remember(msg.From)
		if msg.ReplyToMessage != nil {
			c.Remember(msg.ReplyToMessage.From)
		}
		for i := range msg.NewChatMembers {
			c.Remember(&msg.NewChatMembers[i])
		}
	}
	if msg := u.EditedMessage; msg != nil {
		c.Remember(msg.From)
	}
	if cq := u.CallbackQuery; cq != nil {
		c.Remember(cq.From)
	}
	if cm := u.ChatMember; cm != nil {
		c.Remember(&cm.From)
		c.Remember(cm.NewChatMember.User)
	}
}

func (c *SeenUsers) ByID(userID int64) (*moderation.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.byID.Get(userID)
	if !ok {
		return nil, false
	}
	return &user, true
}

// ByHandle matches handles case-insensitively, the way Telegram does.
func (c *SeenUsers) ByHandle(handle string) (*moderation.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	userID, ok := c.byHandle.Get(strings.ToLower(strings.TrimPrefix(handle, "@")))
	if !ok {
		return nil, false
	}
	user, ok := c.byID.Get(userID)
	if !ok {
		return nil, false
	}
	return &user, true
}

func (c *SeenUsers) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byID.Len()
}

// Handle records the users of an update and lets the chain proceed.
func (c *SeenUsers) Handle(_ context.Context, u *api.Update, _ *api.Chat, _ *api.User) (bool, error) {
	c.RememberUpdate(u)
	return true, nil
}
