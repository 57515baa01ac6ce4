package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/i18n"
	"github.com/iamwavecut/groupguard/internal/moderation"
	"github.com/iamwavecut/groupguard/internal/policy/permissions"
)

const translateTarget = "en"

const helpText = `🛠 Group Management Bot

👮 Admin Tools:
/ban [user] - Ban a user
/unban [user] - Unban a user
/kick [user] - Kick a user
/mute [user] [minutes] - Mute a user
/unmute [user] - Unmute a user
/warn [user] - Warn a user
/unwarn [user] - Remove warning
/warns [user] - Check warnings
/purge [reply] - Bulk delete messages
/pin [reply] - Pin a message
/unpin - Unpin current message
/settitle [text] - Change group title
/setdescription [text] - Set group description
/promote [user] - Promote to admin
/demote [user] - Demote admin
/modlog - Recent moderation actions

📝 Group Features:
/setrules [text] - Set group rules
/rules - Show rules
/setwelcome [text] - Set welcome message
/welcome - Show welcome
/report [reply] - Report to admins
/staff - Show admins

💾 Utilities:
/setnote [name] [text] - Save note
/getnote [name] - Get note
/id - Get user/chat ID
/info [user] - Get user info
/translate [lang] [text] - Translate, English by default`

const modlogLine = `{{ .time }} {{ .action }}{{ if .failed }} (failed){{ end }} by {{ .actor }}{{ if .target }} on {{ .target }}{{ end }}{{ if .detail }}: {{ .detail }}{{ end }}`

func (m *Moderator) startCommand(ctx context.Context, cmd *command) error {
	m.reply(ctx, cmd, i18n.Get("👋 Hello! I'm an advanced group management bot. Add me to a group and make me admin!", cmd.lang))
	return nil
}

func (m *Moderator) helpCommand(ctx context.Context, cmd *command) error {
	m.reply(ctx, cmd, i18n.Get(helpText, cmd.lang))
	return nil
}

func (m *Moderator) pingCommand(ctx context.Context, cmd *command) error {
	latency := m.now().Sub(time.Unix(int64(cmd.msg.Date), 0))
	if latency < 0 {
		latency = 0
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🏓 Pong! %s", cmd.lang), latency.Round(time.Millisecond)))
	return nil
}

// staff lists the human administrators of the chat.
func (m *Moderator) staff(ctx context.Context, chatID int64) ([]string, error) {
	admins, err := m.deps.Platform.Administrators(ctx, chatID)
	if err != nil {
		return nil, err
	}
	mentions := make([]string, 0, len(admins))
	for _, admin := range admins {
		if permissions.IsStaff(admin.Status, admin.User.IsBot) {
			mentions = append(mentions, admin.User.Mention())
		}
	}
	return mentions, nil
}

func (m *Moderator) staffCommand(ctx context.Context, cmd *command) error {
	mentions, err := m.staff(ctx, cmd.chat.ID)
	if err != nil {
		return failed("❌ Staff lookup failed: %s", err)
	}
	if len(mentions) == 0 {
		m.reply(ctx, cmd, i18n.Get("ℹ️ No admins found.", cmd.lang))
		return nil
	}
	m.reply(ctx, cmd, i18n.Get("👮 Group Admins:", cmd.lang)+"\n"+strings.Join(mentions, "\n"))
	return nil
}

func (m *Moderator) reportCommand(ctx context.Context, cmd *command) error {
	reported := cmd.msg.ReplyToMessage
	if reported == nil {
		m.reply(ctx, cmd, i18n.Get("⚠️ Reply to a message to report.", cmd.lang))
		return nil
	}
	mentions, err := m.staff(ctx, cmd.chat.ID)
	if err != nil {
		return failed("❌ Report failed: %s", err)
	}
	if len(mentions) == 0 {
		m.reply(ctx, cmd, i18n.Get("ℹ️ No admins available to notify.", cmd.lang))
		return nil
	}

	var target *moderation.User
	if reported.From != nil {
		author := toModerationUser(reported.From)
		target = &author
	}
	m.record(ctx, cmd, db.ActionReport, target, fmt.Sprintf("message=%d", reported.MessageID), nil)
	m.reply(ctx, cmd, fmt.Sprintf(
		i18n.Get("🚨 Report\n👤 Reporter: %s\n⚠️ Reported message: %s\n🛡 Admins notified:\n%s", cmd.lang),
		toModerationUser(cmd.user).Mention(),
		messageLink(cmd.chat.ID, cmd.chat.UserName, reported.MessageID),
		strings.Join(mentions, "\n"),
	))
	return nil
}

// messageLink builds a t.me link. Private supergroup ids lose their -100 prefix.
func messageLink(chatID int64, chatUserName string, messageID int) string {
	if chatUserName != "" {
		return fmt.Sprintf("https://t.me/%s/%d", chatUserName, messageID)
	}
	id := strconv.FormatInt(chatID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

func (m *Moderator) idCommand(ctx context.Context, cmd *command) error {
	switch {
	case cmd.chat.Type == "private":
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🆔 Your ID: %d", cmd.lang), cmd.user.ID))
	case cmd.msg.ReplyToMessage != nil && cmd.msg.ReplyToMessage.From != nil:
		author := toModerationUser(cmd.msg.ReplyToMessage.From)
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("👤 %s's ID: %d", cmd.lang), author.Mention(), author.ID))
	default:
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("👤 Your ID: %d\n💬 Chat ID: %d", cmd.lang), cmd.user.ID, cmd.chat.ID))
	}
	return nil
}

func (m *Moderator) infoCommand(ctx context.Context, cmd *command) error {
	target, err := m.deps.Resolver.Resolve(ctx, m.invocation(cmd))
	if err != nil {
		return err
	}
	if target == nil {
		self := toModerationUser(cmd.user)
		target = &self
	}
	status, err := m.deps.Platform.MemberStatus(ctx, cmd.chat.ID, target.ID)
	if err != nil {
		return failed("❌ Error: %s", err)
	}

	userName := i18n.Get("N/A", cmd.lang)
	if target.UserName != "" {
		userName = "@" + target.UserName
	}
	inGroup := i18n.Get("Yes", cmd.lang)
	if tool.In(status, moderation.StatusLeft, moderation.StatusKicked) {
		inGroup = i18n.Get("No", cmd.lang)
	}
	m.reply(ctx, cmd, fmt.Sprintf(
		i18n.Get("👤 User Information\n🆔 ID: %d\n👤 Name: %s\n📛 Username: %s\n👥 In Group: %s\n🛡 Status: %s", cmd.lang),
		target.ID, target.FullName(), userName, inGroup, status,
	))
	return nil
}

// translateCommand accepts "/translate [lang] <text>". Without text it translates the replied message.
func (m *Moderator) translateCommand(ctx context.Context, cmd *command) error {
	lang, text := translateTarget, cmd.rawArgs
	if len(cmd.args) > 1 && i18n.IsTranslationTarget(cmd.args[0]) {
		lang = strings.ToLower(cmd.args[0])
		text = strings.TrimSpace(strings.TrimPrefix(cmd.rawArgs, cmd.args[0]))
	}
	if text == "" && cmd.msg.ReplyToMessage != nil {
		text = cmd.msg.ReplyToMessage.Text
	}
	if text == "" {
		return usageError{usage: "/translate [lang] <text>"}
	}
	if m.deps.Translator == nil {
		m.reply(ctx, cmd, i18n.Get("ℹ️ Translation is not configured.", cmd.lang))
		return nil
	}
	translated, err := m.deps.Translator.Translate(ctx, text, lang)
	if err != nil {
		return failed("❌ Translation failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🌐 Translation: %s", cmd.lang), translated))
	return nil
}

func (m *Moderator) modlogCommand(ctx context.Context, cmd *command) error {
	journal := m.s.GetJournal()
	if journal == nil {
		m.reply(ctx, cmd, i18n.Get("ℹ️ Moderation journal is disabled.", cmd.lang))
		return nil
	}
	actions, err := journal.RecentActions(ctx, cmd.chat.ID, m.config.ModlogSize)
	if err != nil {
		return failed("❌ Journal lookup failed: %s", err)
	}
	if len(actions) == 0 {
		m.reply(ctx, cmd, i18n.Get("ℹ️ No moderation actions recorded yet.", cmd.lang))
		return nil
	}

	lines := make([]string, 0, len(actions)+1)
	lines = append(lines, i18n.Get("🗒 Recent moderation actions:", cmd.lang))
	for _, action := range actions {
		var target any
		if action.TargetID != 0 {
			target = action.TargetID
		}
		lines = append(lines, tool.ExecTemplate(modlogLine, map[string]any{
			"time":   action.CreatedAt.UTC().Format("2006-01-02 15:04"),
			"action": action.Action,
			"failed": action.Failed,
			"actor":  action.ActorID,
			"target": target,
			"detail": action.Detail,
		}))
	}
	m.reply(ctx, cmd, strings.Join(lines, "\n"))
	return nil
}
