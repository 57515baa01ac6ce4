package moderation

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Member statuses as reported by the Telegram Bot API.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// MaxBatchSize is the upper bound Telegram accepts for deleteMessages and the page size used for history.
const MaxBatchSize = 100

type User struct {
	ID        int64
	FirstName string
	LastName  string
	UserName  string
	IsBot     bool
}

// Mention is the @handle when the user has one, the full name otherwise.
func (u User) Mention() string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return u.FullName()
}

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return strconv.FormatInt(u.ID, 10)
	}
	return name
}

// Member is a user together with its status in one chat.
type Member struct {
	User   User
	Status string
}

// Permissions is the chat permission set applied by Restrict.
type Permissions struct {
	CanSendMessages       bool
	CanSendMedia          bool
	CanSendOtherMessages  bool
	CanAddWebPagePreviews bool
}

// Muted revokes everything Restrict can revoke.
func Muted() Permissions {
	return Permissions{}
}

// Unmuted grants back what Muted revoked.
func Unmuted() Permissions {
	return Permissions{
		CanSendMessages:       true,
		CanSendMedia:          true,
		CanSendOtherMessages:  true,
		CanAddWebPagePreviews: true,
	}
}

// Reply is an outbound text message.
type Reply struct {
	ChatID             int64
	Text               string
	ReplyToMessageID   int
	DisableLinkPreview bool
	Markdown           bool
}

// MemberDirectory answers membership questions about one chat.
type MemberDirectory interface {
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
	Administrators(ctx context.Context, chatID int64) ([]Member, error)
}

// UserDirectory looks users up outside of any chat context.
type UserDirectory interface {
	UserByID(ctx context.Context, userID int64) (*User, error)
	UserByHandle(ctx context.Context, handle string) (*User, error)
}

// History pages through a chat backwards. HistoryPage returns at most limit ids lower than beforeID.
type History interface {
	HistoryPage(ctx context.Context, chatID int64, beforeID int, limit int) ([]int, error)
}

// MessageDeleter removes messages; DeleteMessages accepts at most MaxBatchSize ids.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error
}

// Messenger posts and pins messages.
type Messenger interface {
	Send(ctx context.Context, reply Reply) (int, error)
	Pin(ctx context.Context, chatID int64, messageID int) error
	Unpin(ctx context.Context, chatID int64) error
}

// MemberAdmin applies punitive and privilege changes to chat members.
// A zero until means no expiry.
type MemberAdmin interface {
	Restrict(ctx context.Context, chatID, userID int64, permissions Permissions, until time.Time) error
	Ban(ctx context.Context, chatID, userID int64, until time.Time) error
	Unban(ctx context.Context, chatID, userID int64) error
	Promote(ctx context.Context, chatID, userID int64) error
	Demote(ctx context.Context, chatID, userID int64) error
}

// ChatAdmin edits chat metadata.
type ChatAdmin interface {
	SetTitle(ctx context.Context, chatID int64, title string) error
	SetDescription(ctx context.Context, chatID int64, description string) error
}

// Platform is everything the moderation core and its dispatcher consume from the messaging service.
type Platform interface {
	MemberDirectory
	UserDirectory
	History
	MessageDeleter
	Messenger
	MemberAdmin
	ChatAdmin
}
