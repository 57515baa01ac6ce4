package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/i18n"
	"github.com/iamwavecut/groupguard/internal/moderation"
)

func (m *Moderator) warnCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}

	res := m.deps.Warnings.Warn(cmd.chat.ID, target.ID)
	limit := m.deps.Warnings.Limit()
	detail := fmt.Sprintf("%d/%d", res.Count, limit)
	m.record(ctx, cmd, db.ActionWarn, target, detail, nil)
	if !res.Escalate {
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("⚠️ Warned %s (Warnings: %d/%d)", cmd.lang), target.Mention(), res.Count, limit))
		return nil
	}

	m.deps.Metrics.ObserveEscalation()
	until := m.now().Add(m.config.WarnMuteDuration)
	muteErr := m.deps.Platform.Restrict(ctx, cmd.chat.ID, target.ID, moderation.Muted(), until)
	m.record(ctx, cmd, db.ActionWarnEscalation, target, "", muteErr)
	if muteErr != nil {
		// the warning stays consumed
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("⚠️ Warning added but mute failed: %s", cmd.lang), remoteCause(muteErr)))
		return nil
	}
	m.reply(ctx, cmd, fmt.Sprintf(
		i18n.Get("🔇 Muted %s for %d hours due to %d warnings.", cmd.lang),
		target.Mention(), hours(m.config.WarnMuteDuration), limit,
	))
	return nil
}

func (m *Moderator) unwarnCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	count, removed := m.deps.Warnings.Unwarn(cmd.chat.ID, target.ID)
	if !removed {
		m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("ℹ️ %s has no warnings.", cmd.lang), target.Mention()))
		return nil
	}
	m.record(ctx, cmd, db.ActionUnwarn, target, fmt.Sprintf("%d/%d", count, m.deps.Warnings.Limit()), nil)
	m.reply(ctx, cmd, fmt.Sprintf(
		i18n.Get("✅ Removed warning from %s (Now: %d/%d)", cmd.lang),
		target.Mention(), count, m.deps.Warnings.Limit(),
	))
	return nil
}

func (m *Moderator) warnsCommand(ctx context.Context, cmd *command) error {
	target, err := m.deps.Resolver.Resolve(ctx, m.invocation(cmd))
	if err != nil {
		return err
	}
	if target == nil {
		self := toModerationUser(cmd.user)
		target = &self
	}
	m.reply(ctx, cmd, fmt.Sprintf(
		i18n.Get("⚠️ %s has %d/%d warnings.", cmd.lang),
		target.Mention(), m.deps.Warnings.Count(cmd.chat.ID, target.ID), m.deps.Warnings.Limit(),
	))
	return nil
}

func (m *Moderator) muteCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	minutes := m.muteMinutes(cmd)
	until := m.now().Add(time.Duration(minutes) * time.Minute)
	err = m.deps.Platform.Restrict(ctx, cmd.chat.ID, target.ID, moderation.Muted(), until)
	m.record(ctx, cmd, db.ActionMute, target, strconv.Itoa(minutes)+"m", err)
	if err != nil {
		return failed("❌ Mute failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🔇 Muted %s for %d minutes", cmd.lang), target.Mention(), minutes))
	return nil
}

// muteMinutes reads the duration token that follows the target. With a reply the target takes no
// token, so the duration is the first argument.
func (m *Moderator) muteMinutes(cmd *command) int {
	pos := 1
	if cmd.msg.ReplyToMessage != nil && cmd.msg.ReplyToMessage.From != nil {
		pos = 0
	}
	if len(cmd.args) <= pos {
		return m.config.MuteDefaultMinutes
	}
	if !isDigits(cmd.args[pos]) {
		return m.config.MuteDefaultMinutes
	}
	minutes, err := strconv.Atoi(cmd.args[pos])
	if err != nil || minutes <= 0 {
		return m.config.MuteDefaultMinutes
	}
	return minutes
}

func (m *Moderator) unmuteCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Restrict(ctx, cmd.chat.ID, target.ID, moderation.Unmuted(), time.Time{})
	m.record(ctx, cmd, db.ActionUnmute, target, "", err)
	if err != nil {
		return failed("❌ Unmute failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🔊 Unmuted %s", cmd.lang), target.Mention()))
	return nil
}

func (m *Moderator) banCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Ban(ctx, cmd.chat.ID, target.ID, time.Time{})
	m.record(ctx, cmd, db.ActionBan, target, "", err)
	if err != nil {
		return failed("❌ Ban failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("🔨 Banned %s", cmd.lang), target.Mention()))
	return nil
}

func (m *Moderator) unbanCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Unban(ctx, cmd.chat.ID, target.ID)
	m.record(ctx, cmd, db.ActionUnban, target, "", err)
	if err != nil {
		return failed("❌ Unban failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("✅ Unbanned %s", cmd.lang), target.Mention()))
	return nil
}

// kickCommand bans briefly and lifts the ban right away so the user may rejoin.
func (m *Moderator) kickCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Ban(ctx, cmd.chat.ID, target.ID, m.now().Add(m.config.KickBanDuration))
	if err == nil {
		err = m.deps.Platform.Unban(ctx, cmd.chat.ID, target.ID)
	}
	m.record(ctx, cmd, db.ActionKick, target, "", err)
	if err != nil {
		return failed("❌ Kick failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("👢 Kicked %s", cmd.lang), target.Mention()))
	return nil
}

func (m *Moderator) promoteCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Promote(ctx, cmd.chat.ID, target.ID)
	m.record(ctx, cmd, db.ActionPromote, target, "", err)
	if err != nil {
		return failed("❌ Promote failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("👑 Promoted %s to admin!", cmd.lang), target.Mention()))
	return nil
}

func (m *Moderator) demoteCommand(ctx context.Context, cmd *command) error {
	target, err := m.target(ctx, cmd)
	if err != nil {
		return err
	}
	err = m.deps.Platform.Demote(ctx, cmd.chat.ID, target.ID)
	m.record(ctx, cmd, db.ActionDemote, target, "", err)
	if err != nil {
		return failed("❌ Demote failed: %s", err)
	}
	m.reply(ctx, cmd, fmt.Sprintf(i18n.Get("👑 Demoted %s from admin!", cmd.lang), target.Mention()))
	return nil
}

func hours(d time.Duration) int {
	if h := int(d / time.Hour); h > 0 {
		return h
	}
	return 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
