package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/i18n"
	"github.com/iamwavecut/groupguard/internal/moderation"
)

func (m *Moderator) purgeCommand(ctx context.Context, cmd *command) error {
	anchorID := 0
	if cmd.msg.ReplyToMessage != nil {
		anchorID = cmd.msg.ReplyToMessage.MessageID
	}
	res, err := m.deps.Purge.Purge(ctx, cmd.chat.ID, anchorID, cmd.msg.MessageID)
	if errors.Is(err, moderation.ErrNoAnchor) {
		return err
	}
	detail := fmt.Sprintf("run=%s count=%d failed_batches=%d", res.RunID, res.Count, res.Failed)
	m.record(ctx, cmd, db.ActionPurge, nil, detail, err)
	if err != nil {
		return failed("❌ Purge failed: %s", err)
	}
	m.deps.Metrics.ObservePurge(res.Count, res.Failed)
	if res.Empty() {
		m.reply(ctx, cmd, i18n.Get("❌ No messages found to delete.", cmd.lang))
		return nil
	}

	// Count is the width of the id window; the Bot API cannot tell which ids still exist.
	// The trigger is usually gone by now, so the confirmation is not sent as a reply.
	confirmID, err := m.deps.Platform.Send(ctx, moderation.Reply{
		ChatID: cmd.chat.ID,
		Text:   fmt.Sprintf(i18n.Get("🧹 Deleted up to %d messages.", cmd.lang), res.Count),
	})
	if err != nil {
		cmd.entry.WithField("error", err.Error()).Warn("cant send purge confirmation")
		return nil
	}
	m.deps.Purge.ScheduleCleanup(cmd.chat.ID, confirmID)
	return nil
}

func (m *Moderator) pinCommand(ctx context.Context, cmd *command) error {
	reply := cmd.msg.ReplyToMessage
	if reply == nil {
		m.reply(ctx, cmd, i18n.Get("⚠️ Reply to a message to pin.", cmd.lang))
		return nil
	}
	err := m.deps.Platform.Pin(ctx, cmd.chat.ID, reply.MessageID)
	m.record(ctx, cmd, db.ActionPin, nil, fmt.Sprintf("message=%d", reply.MessageID), err)
	if err != nil {
		return failed("❌ Pin failed: %s", err)
	}
	m.reply(ctx, cmd, i18n.Get("📌 Message pinned.", cmd.lang))
	return nil
}

func (m *Moderator) unpinCommand(ctx context.Context, cmd *command) error {
	err := m.deps.Platform.Unpin(ctx, cmd.chat.ID)
	m.record(ctx, cmd, db.ActionUnpin, nil, "", err)
	if err != nil {
		return failed("❌ Unpin failed: %s", err)
	}
	m.reply(ctx, cmd, i18n.Get("📌 Message unpinned.", cmd.lang))
	return nil
}

func (m *Moderator) setTitleCommand(ctx context.Context, cmd *command) error {
	title := strings.Join(cmd.args, " ")
	if title == "" {
		return usageError{usage: "/settitle <new title>"}
	}
	err := m.deps.Platform.SetTitle(ctx, cmd.chat.ID, title)
	m.record(ctx, cmd, db.ActionSetTitle, nil, title, err)
	if err != nil {
		return failed("❌ Title change failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("✅ Title updated to: %s", cmd.lang), title))
	return nil
}

func (m *Moderator) setDescriptionCommand(ctx context.Context, cmd *command) error {
	description := strings.Join(cmd.args, " ")
	if description == "" {
		return usageError{usage: "/setdescription <text>"}
	}
	err := m.deps.Platform.SetDescription(ctx, cmd.chat.ID, description)
	m.record(ctx, cmd, db.ActionSetDescription, nil, description, err)
	if err != nil {
		return failed("❌ Failed to set description: %s", err)
	}
	m.reply(ctx, cmd, i18n.Get("✅ Group description updated!", cmd.lang))
	return nil
}

func (m *Moderator) setRulesCommand(ctx context.Context, cmd *command) error {
	if len(cmd.args) == 0 {
		return usageError{usage: "/setrules <text>"}
	}
	rules := strings.Join(cmd.args, " ")
	m.deps.Settings.SetRules(rules)
	m.record(ctx, cmd, db.ActionSetRules, nil, rules, nil)
	m.reply(ctx, cmd, i18n.Get("✅ Rules updated!", cmd.lang))
	return nil
}

func (m *Moderator) rulesCommand(ctx context.Context, cmd *command) error {
	m.reply(ctx, cmd, m.deps.Settings.Rules())
	return nil
}

func (m *Moderator) setWelcomeCommand(ctx context.Context, cmd *command) error {
	if len(cmd.args) == 0 {
		m.reply(ctx, cmd, i18n.Get("⚠️ Usage: /setwelcome <message>\nUse {mention} and {title} as placeholders.", cmd.lang))
		return nil
	}
	template := strings.Join(cmd.args, " ")
	m.deps.Settings.SetWelcome(template)
	m.record(ctx, cmd, db.ActionSetWelcome, nil, template, nil)
	m.reply(ctx, cmd, i18n.Get("✅ Welcome message updated!", cmd.lang))
	return nil
}

func (m *Moderator) welcomeCommand(ctx context.Context, cmd *command) error {
	m.reply(ctx, cmd, m.deps.Settings.RenderWelcome("USER", cmd.chat.Title))
	return nil
}

func (m *Moderator) setNoteCommand(ctx context.Context, cmd *command) error {
	if len(cmd.args) < 2 {
		return usageError{usage: "/setnote <name> <text>"}
	}
	name := cmd.args[0]
	m.deps.Notes.SetNote(cmd.chat.ID, name, strings.Join(cmd.args[1:], " "))
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("📝 Note `%s` saved!", cmd.lang), name))
	return nil
}

func (m *Moderator) getNoteCommand(ctx context.Context, cmd *command) error {
	if len(cmd.args) == 0 {
		return usageError{usage: "/getnote <name>"}
	}
	name := cmd.args[0]
	text, err := m.deps.Notes.Note(cmd.chat.ID, name)
	if errors.Is(err, moderation.ErrNoteNotFound) {
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("⚠️ Note `%s` not found.", cmd.lang), name))
		return nil
	}
	if err != nil {
		return err
	}
	m.reply(ctx, cmd, text)
	return nil
}
