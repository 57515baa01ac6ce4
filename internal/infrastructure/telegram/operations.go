package telegram

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/iamwavecut/groupguard/internal/moderation"
)

// Client is the part of *api.BotAPI the adapter calls.
type Client interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
	MakeRequest(endpoint string, params api.Params) (*api.APIResponse, error)
}

// Operations implements moderation.Platform on top of the Bot API.
type Operations struct {
	bot  Client
	seen *SeenUsers
}

var _ moderation.Platform = (*Operations)(nil)

func NewOperations(bot Client, seen *SeenUsers) *Operations {
	if seen == nil {
		seen = NewSeenUsers(0)
	}
	return &Operations{bot: bot, seen: seen}
}

func (o *Operations) Seen() *SeenUsers {
	return o.seen
}

func (o *Operations) MemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	if err != nil {
		return "", moderation.Remote("getChatMember", err)
	}
	if member.User != nil {
		o.seen.Remember(member.User)
	}
	return member.Status, nil
}

func (o *Operations) Administrators(ctx context.Context, chatID int64) ([]moderation.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := o.bot.MakeRequest("getChatAdministrators", api.Params{
		"chat_id": strconv.FormatInt(chatID, 10),
	})
	if err != nil {
		return nil, moderation.Remote("getChatAdministrators", err)
	}

	var members []api.ChatMember
	if err := json.Unmarshal(resp.Result, &members); err != nil {
		return nil, errors.Wrap(err, "decode administrators")
	}
	out := make([]moderation.Member, 0, len(members))
	for _, member := range members {
		if member.User == nil {
			continue
		}
		o.seen.Remember(member.User)
		out = append(out, moderation.Member{User: toUser(member.User), Status: member.Status})
	}
	return out, nil
}

// UserByID asks Telegram for the private chat of a user, which only works for users the bot has
// met. The seen users cache is consulted first.
func (o *Operations) UserByID(ctx context.Context, userID int64) (*moderation.User, error) {
	if user, ok := o.seen.ByID(userID); ok {
		return user, nil
	}
	return o.getChatUser(ctx, strconv.FormatInt(userID, 10))
}

// UserByHandle resolves a handle through users seen in updates, then through getChat.
// getChat only resolves handles of users known to the bot, so unseen users are usually not found.
func (o *Operations) UserByHandle(ctx context.Context, handle string) (*moderation.User, error) {
	if user, ok := o.seen.ByHandle(handle); ok {
		return user, nil
	}
	return o.getChatUser(ctx, "@"+handle)
}

type chatInfo struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserName  string `json:"username"`
}

func (o *Operations) getChatUser(ctx context.Context, ref string) (*moderation.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := o.bot.MakeRequest("getChat", api.Params{"chat_id": ref})
	if err != nil {
		return nil, moderation.Remote("getChat", err)
	}
	var info chatInfo
	if err := json.Unmarshal(resp.Result, &info); err != nil {
		return nil, errors.Wrap(err, "decode chat")
	}
	if info.Type != "private" {
		return nil, errors.Errorf("%s is a %s chat, not a user", ref, info.Type)
	}
	user := &moderation.User{
		ID:        info.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		UserName:  info.UserName,
	}
	o.seen.Add(*user)
	return user, nil
}

// HistoryPage returns the candidate ids right below beforeID. The Bot API cannot list chat history,
// so every id in the window is offered and deleteMessages skips the ones that no longer exist.
func (o *Operations) HistoryPage(ctx context.Context, _ int64, beforeID int, limit int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > moderation.MaxBatchSize {
		limit = moderation.MaxBatchSize
	}
	ids := make([]int, 0, limit)
	for id := beforeID - 1; id > 0 && len(ids) < limit; id-- {
		ids = append(ids, id)
	}
	return ids, nil
}

func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID)); err != nil {
		return moderation.Remote("deleteMessage", err)
	}
	return nil
}

func (o *Operations) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if len(messageIDs) > moderation.MaxBatchSize {
		return errors.Wrapf(moderation.ErrInvalidRequest, "%d ids in one deleteMessages call", len(messageIDs))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := json.Marshal(messageIDs)
	if err != nil {
		return errors.Wrap(err, "encode message ids")
	}
	if _, err := o.bot.MakeRequest("deleteMessages", api.Params{
		"chat_id":     strconv.FormatInt(chatID, 10),
		"message_ids": string(encoded),
	}); err != nil {
		return moderation.Remote("deleteMessages", err)
	}
	return nil
}

func (o *Operations) Send(ctx context.Context, reply moderation.Reply) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := api.NewMessage(reply.ChatID, reply.Text)
	if reply.ReplyToMessageID != 0 {
		msg.ReplyParameters.MessageID = reply.ReplyToMessageID
	}
	if reply.Markdown {
		msg.ParseMode = api.ModeMarkdown
	}
	msg.LinkPreviewOptions.IsDisabled = reply.DisableLinkPreview

	sent, err := o.bot.Send(msg)
	if err != nil {
		return 0, moderation.Remote("sendMessage", err)
	}
	return sent.MessageID, nil
}

func (o *Operations) Pin(ctx context.Context, chatID int64, messageID int) error {
	return o.call(ctx, "pinChatMessage", api.Params{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.Itoa(messageID),
	})
}

// Unpin removes the most recent pinned message.
func (o *Operations) Unpin(ctx context.Context, chatID int64) error {
	return o.call(ctx, "unpinChatMessage", api.Params{
		"chat_id": strconv.FormatInt(chatID, 10),
	})
}

func (o *Operations) Restrict(ctx context.Context, chatID, userID int64, permissions moderation.Permissions, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		Permissions: toChatPermissions(permissions),
		UntilDate:   unixOrZero(until),

		UseIndependentChatPermissions: true,
	}
	if _, err := o.bot.Request(config); err != nil {
		return moderation.Remote("restrictChatMember", err)
	}
	return nil
}

func (o *Operations) Ban(ctx context.Context, chatID, userID int64, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config := api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		UntilDate: unixOrZero(until),
	}
	if _, err := o.bot.Request(config); err != nil {
		return moderation.Remote("banChatMember", err)
	}
	return nil
}

func (o *Operations) Unban(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config := api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		OnlyIfBanned: true,
	}
	if _, err := o.bot.Request(config); err != nil {
		return moderation.Remote("unbanChatMember", err)
	}
	return nil
}

var moderatorRights = []string{
	"can_delete_messages",
	"can_restrict_members",
	"can_pin_messages",
	"can_invite_users",
	"can_manage_video_chats",
}

func (o *Operations) Promote(ctx context.Context, chatID, userID int64) error {
	return o.promote(ctx, "promote", chatID, userID, true)
}

func (o *Operations) Demote(ctx context.Context, chatID, userID int64) error {
	return o.promote(ctx, "demote", chatID, userID, false)
}

func (o *Operations) promote(ctx context.Context, op string, chatID, userID int64, grant bool) error {
	params := api.Params{
		"chat_id": strconv.FormatInt(chatID, 10),
		"user_id": strconv.FormatInt(userID, 10),
	}
	for _, right := range moderatorRights {
		params[right] = strconv.FormatBool(grant)
	}
	if err := o.call(ctx, "promoteChatMember", params); err != nil {
		return errors.WithMessage(err, op)
	}
	return nil
}

func (o *Operations) SetTitle(ctx context.Context, chatID int64, title string) error {
	return o.call(ctx, "setChatTitle", api.Params{
		"chat_id": strconv.FormatInt(chatID, 10),
		"title":   title,
	})
}

func (o *Operations) SetDescription(ctx context.Context, chatID int64, description string) error {
	return o.call(ctx, "setChatDescription", api.Params{
		"chat_id":     strconv.FormatInt(chatID, 10),
		"description": description,
	})
}

func (o *Operations) call(ctx context.Context, endpoint string, params api.Params) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := o.bot.MakeRequest(endpoint, params); err != nil {
		return moderation.Remote(endpoint, err)
	}
	return nil
}

func toChatPermissions(p moderation.Permissions) *api.ChatPermissions {
	return &api.ChatPermissions{
		CanSendMessages:       p.CanSendMessages,
		CanSendAudios:         p.CanSendMedia,
		CanSendDocuments:      p.CanSendMedia,
		CanSendPhotos:         p.CanSendMedia,
		CanSendVideos:         p.CanSendMedia,
		CanSendVideoNotes:     p.CanSendMedia,
		CanSendVoiceNotes:     p.CanSendMedia,
		CanSendPolls:          p.CanSendOtherMessages,
		CanSendOtherMessages:  p.CanSendOtherMessages,
		CanAddWebPagePreviews: p.CanAddWebPagePreviews,
	}
}

func toUser(u *api.User) moderation.User {
	return moderation.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UserName:  u.UserName,
		IsBot:     u.IsBot,
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
