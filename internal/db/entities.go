package db

import "time"

// Moderation actions recorded in the journal.
const (
	ActionWarn           = "warn"
	ActionUnwarn         = "unwarn"
	ActionWarnEscalation = "warn_escalation"
	ActionMute           = "mute"
	ActionUnmute         = "unmute"
	ActionBan            = "ban"
	ActionUnban          = "unban"
	ActionKick           = "kick"
	ActionPurge          = "purge"
	ActionPin            = "pin"
	ActionUnpin          = "unpin"
	ActionPromote        = "promote"
	ActionDemote         = "demote"
	ActionSetRules       = "set_rules"
	ActionSetWelcome     = "set_welcome"
	ActionSetTitle       = "set_title"
	ActionSetDescription = "set_description"
	ActionReport         = "report"
)

// ModAction is one journal entry. TargetID is zero for actions without a target user.
type ModAction struct {
	ID        string    `db:"id"`
	ChatID    int64     `db:"chat_id"`
	ActorID   int64     `db:"actor_id"`
	TargetID  int64     `db:"target_id"`
	Action    string    `db:"action"`
	Detail    string    `db:"detail"`
	Failed    bool      `db:"failed"`
	CreatedAt time.Time `db:"-"`
}
