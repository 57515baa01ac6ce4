package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iamwavecut/groupguard/internal/bot"
	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/i18n"
	"github.com/iamwavecut/groupguard/internal/moderation"
	"github.com/iamwavecut/groupguard/internal/observability"
)

// Translator translates free text into the language with the given code.
type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

type ModeratorConfig struct {
	WarnMuteDuration   time.Duration
	MuteDefaultMinutes int
	KickBanDuration    time.Duration
	ModlogSize         int
}

// ModeratorDeps are the collaborators of a Moderator. Translator and Metrics are optional.
type ModeratorDeps struct {
	Platform   moderation.Platform
	Admins     *moderation.AdminStatusCache
	Resolver   *moderation.UserResolver
	Warnings   *moderation.WarningStore
	Notes      *moderation.NoteStore
	Settings   *moderation.ConfigStore
	Purge      *moderation.PurgeEngine
	Translator Translator
	Metrics    *observability.Metrics
}

type commandFunc func(ctx context.Context, cmd *command) error

type route struct {
	gated  bool
	handle commandFunc
}

// command is one parsed command invocation.
type command struct {
	name    string
	msg     *api.Message
	chat    *api.Chat
	user    *api.User
	args    []string
	rawArgs string
	lang    string
	entry   *log.Entry
}

// Moderator dispatches group management commands and greets new members.
type Moderator struct {
	s      bot.Service
	deps   ModeratorDeps
	config ModeratorConfig
	routes map[string]route
	now    func() time.Time
}

func NewModerator(s bot.Service, deps ModeratorDeps, config ModeratorConfig) *Moderator {
	if config.WarnMuteDuration <= 0 {
		config.WarnMuteDuration = 24 * time.Hour
	}
	if config.MuteDefaultMinutes <= 0 {
		config.MuteDefaultMinutes = 60
	}
	if config.KickBanDuration <= 0 {
		config.KickBanDuration = 30 * time.Second
	}
	if config.ModlogSize <= 0 {
		config.ModlogSize = 10
	}

	m := &Moderator{
		s:      s,
		deps:   deps,
		config: config,
		now:    time.Now,
	}
	m.routes = map[string]route{
		"start": {handle: m.startCommand},
		"help":  {handle: m.helpCommand},
		"ping":  {handle: m.pingCommand},

		"warn":    {gated: true, handle: m.warnCommand},
		"unwarn":  {gated: true, handle: m.unwarnCommand},
		"warns":   {handle: m.warnsCommand},
		"mute":    {gated: true, handle: m.muteCommand},
		"unmute":  {gated: true, handle: m.unmuteCommand},
		"ban":     {gated: true, handle: m.banCommand},
		"unban":   {gated: true, handle: m.unbanCommand},
		"kick":    {gated: true, handle: m.kickCommand},
		"promote": {gated: true, handle: m.promoteCommand},
		"demote":  {gated: true, handle: m.demoteCommand},

		"purge": {gated: true, handle: m.purgeCommand},
		"pin":   {gated: true, handle: m.pinCommand},
		"unpin": {gated: true, handle: m.unpinCommand},

		"settitle":       {gated: true, handle: m.setTitleCommand},
		"setdescription": {gated: true, handle: m.setDescriptionCommand},
		"setrules":       {gated: true, handle: m.setRulesCommand},
		"rules":          {handle: m.rulesCommand},
		"setwelcome":     {gated: true, handle: m.setWelcomeCommand},
		"welcome":        {handle: m.welcomeCommand},
		"setnote":        {handle: m.setNoteCommand},
		"getnote":        {handle: m.getNoteCommand},

		"report":    {handle: m.reportCommand},
		"staff":     {handle: m.staffCommand},
		"id":        {handle: m.idCommand},
		"info":      {handle: m.infoCommand},
		"translate": {handle: m.translateCommand},
		"modlog":    {gated: true, handle: m.modlogCommand},
	}
	m.getLogEntry().Debug("created new moderator")
	return m
}

func (m *Moderator) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u == nil || u.Message == nil || chat == nil {
		return true, nil
	}
	msg := u.Message

	if len(msg.NewChatMembers) > 0 {
		m.greet(ctx, msg, chat)
		return true, nil
	}
	if user == nil || !msg.IsCommand() {
		return true, nil
	}

	name := strings.ToLower(msg.Command())
	r, ok := m.routes[name]
	if !ok {
		return true, nil
	}
	if name == "start" && chat.Type != "private" {
		return true, nil
	}

	rawArgs := msg.CommandArguments()
	cmd := &command{
		name:    name,
		msg:     msg,
		chat:    chat,
		user:    user,
		args:    strings.Fields(rawArgs),
		rawArgs: strings.TrimSpace(rawArgs),
		lang:    m.s.GetLanguage(ctx, chat.ID, user),
		entry: m.getLogEntry().WithFields(log.Fields{
			"method":  name,
			"chat_id": chat.ID,
			"user_id": user.ID,
		}),
	}
	m.dispatch(ctx, r, cmd)
	return false, nil
}

// dispatch runs one command. Failures become replies; nothing escapes to the update loop.
func (m *Moderator) dispatch(ctx context.Context, r route, cmd *command) {
	done := m.deps.Metrics.StartCommand(cmd.name)
	ctx, span := otel.Tracer("moderator").Start(ctx, "command."+cmd.name, trace.WithAttributes(
		attribute.Int64("chat_id", cmd.chat.ID),
		attribute.Int64("user_id", cmd.user.ID),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			cmd.entry.WithField("panic", fmt.Sprint(rec)).Error("command panicked")
			span.SetStatus(codes.Error, "panic")
			done(observability.OutcomePanic)
			m.reply(ctx, cmd, i18n.Get("❌ Something went wrong.", cmd.lang))
		}
	}()

	if r.gated && !m.deps.Admins.IsAdmin(ctx, cmd.chat.ID, cmd.user.ID) {
		done(observability.OutcomeForbidden)
		m.replyError(ctx, cmd, moderation.ErrForbidden)
		return
	}

	err := r.handle(ctx, cmd)
	if err == nil {
		done(observability.OutcomeOK)
		return
	}
	span.SetStatus(codes.Error, err.Error())
	if moderation.IsRemote(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		done(observability.OutcomeFailed)
	} else {
		done(observability.OutcomeUserError)
	}
	m.replyError(ctx, cmd, err)
}

var (
	errNoTarget = errors.New("no target")
	errNoReply  = errors.New("reply required")
)

// usageError asks the invoker to call the command with the shown arguments.
type usageError struct {
	usage string
}

func (e usageError) Error() string {
	return "usage: " + e.usage
}

// actionError is a failed platform call. format is the reply key, its verb takes the cause.
type actionError struct {
	format string
	err    error
}

func (e actionError) Error() string {
	return e.err.Error()
}

func (e actionError) Unwrap() error {
	return e.err
}

func failed(format string, err error) error {
	if err == nil {
		return nil
	}
	return actionError{format: format, err: err}
}

func (m *Moderator) replyError(ctx context.Context, cmd *command, err error) {
	var (
		usage  usageError
		action actionError
		text   string
	)
	switch {
	case errors.Is(err, moderation.ErrForbidden):
		text = i18n.Get("⛔️ You need admin permissions!", cmd.lang)
	case errors.Is(err, errNoTarget):
		text = i18n.Get("⚠️ Reply to a user, or provide a valid username/ID.", cmd.lang)
	case errors.Is(err, moderation.ErrUserNotFound):
		cause := strings.TrimSuffix(err.Error(), ": "+moderation.ErrUserNotFound.Error())
		text = fmt.Sprintf(i18n.Get("❌ User not found: %s", cmd.lang), cause)
	case errors.Is(err, moderation.ErrNoAnchor):
		text = i18n.Get("⚠️ Reply to the first message to purge from.", cmd.lang)
	case errors.As(err, &usage):
		text = fmt.Sprintf(i18n.Get("⚠️ Usage: %s", cmd.lang), usage.usage)
	case errors.Is(err, moderation.ErrNoPrivileges):
		text = i18n.Get("❌ I don't have enough rights to do that.", cmd.lang)
	case errors.As(err, &action):
		text = fmt.Sprintf(i18n.Get(action.format, cmd.lang), remoteCause(action.err))
	default:
		cmd.entry.WithField("error", err.Error()).Error("command failed")
		text = i18n.Get("❌ Something went wrong.", cmd.lang)
	}
	if !errors.Is(err, moderation.ErrForbidden) {
		cmd.entry.WithField("error", err.Error()).Debug("command rejected")
	}
	m.reply(ctx, cmd, text)
}

func remoteCause(err error) string {
	var remote *moderation.RemoteError
	if errors.As(err, &remote) && remote.Err != nil {
		return remote.Err.Error()
	}
	return err.Error()
}

// reply answers the command message. Send failures are logged only.
func (m *Moderator) reply(ctx context.Context, cmd *command, text string) int {
	id, err := m.deps.Platform.Send(ctx, moderation.Reply{
		ChatID:             cmd.chat.ID,
		Text:               text,
		ReplyToMessageID:   cmd.msg.MessageID,
		DisableLinkPreview: true,
	})
	if err != nil {
		cmd.entry.WithField("error", err.Error()).Warn("cant send reply")
		return 0
	}
	return id
}

// record appends an entry to the moderation journal when it is enabled.
func (m *Moderator) record(ctx context.Context, cmd *command, action string, target *moderation.User, detail string, actionErr error) {
	journal := m.s.GetJournal()
	if journal == nil {
		return
	}
	entry := &db.ModAction{
		ChatID:    cmd.chat.ID,
		ActorID:   cmd.user.ID,
		Action:    action,
		Detail:    detail,
		Failed:    actionErr != nil,
		CreatedAt: m.now(),
	}
	if target != nil {
		entry.TargetID = target.ID
	}
	if actionErr != nil && entry.Detail == "" {
		entry.Detail = actionErr.Error()
	}
	if err := journal.AddAction(ctx, entry); err != nil {
		cmd.entry.WithField("error", err.Error()).Warn("cant record moderation action")
	}
}

// target resolves the user a command acts on. errNoTarget is returned when the invocation names
// nobody.
func (m *Moderator) target(ctx context.Context, cmd *command) (*moderation.User, error) {
	user, err := m.deps.Resolver.Resolve(ctx, m.invocation(cmd))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errNoTarget
	}
	return user, nil
}

func (m *Moderator) invocation(cmd *command) moderation.Invocation {
	inv := moderation.Invocation{ChatID: cmd.chat.ID, Args: cmd.args}
	if reply := cmd.msg.ReplyToMessage; reply != nil && reply.From != nil {
		author := toModerationUser(reply.From)
		inv.ReplyAuthor = &author
	}
	return inv
}

func (m *Moderator) greet(ctx context.Context, msg *api.Message, chat *api.Chat) {
	entry := m.getLogEntry().WithFields(log.Fields{"method": "greet", "chat_id": chat.ID})
	for i := range msg.NewChatMembers {
		member := msg.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		text := m.deps.Settings.RenderWelcome(toModerationUser(&member).Mention(), chat.Title)
		if _, err := m.deps.Platform.Send(ctx, moderation.Reply{
			ChatID:             chat.ID,
			Text:               text,
			ReplyToMessageID:   msg.MessageID,
			DisableLinkPreview: true,
		}); err != nil {
			entry.WithField("error", err.Error()).Warn("cant send welcome")
			continue
		}
		m.deps.Metrics.ObserveWelcome()
	}
}

func toModerationUser(u *api.User) moderation.User {
	return moderation.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UserName:  u.UserName,
		IsBot:     u.IsBot,
	}
}

func (m *Moderator) getLogEntry() *log.Entry {
	return log.WithField("object", "Moderator")
}
