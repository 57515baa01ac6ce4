package moderation

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Invocation is the addressing part of a command message.
type Invocation struct {
	ChatID int64
	// ReplyAuthor is the author of the message the command replies to, if any.
	ReplyAuthor *User
	// Args are the command tokens following the command itself.
	Args []string
}

// UserResolver turns command addressing into a concrete user. It does not cache.
type UserResolver struct {
	users UserDirectory
}

func NewUserResolver(users UserDirectory) *UserResolver {
	return &UserResolver{users: users}
}

// Resolve returns the target user of an invocation. A nil user with a nil error means the
// invocation names no target and the caller picks its own fallback. Lookup failures are
// reported as ErrUserNotFound.
func (r *UserResolver) Resolve(ctx context.Context, inv Invocation) (*User, error) {
	if inv.ReplyAuthor != nil {
		return inv.ReplyAuthor, nil
	}
	if len(inv.Args) == 0 {
		return nil, nil
	}

	ref := inv.Args[0]
	switch {
	case isDigits(ref):
		userID, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrUserNotFound, err.Error())
		}
		user, err := r.users.UserByID(ctx, userID)
		if err != nil {
			return nil, errors.Wrapf(ErrUserNotFound, "id %d: %v", userID, err)
		}
		if user == nil {
			return nil, errors.Wrapf(ErrUserNotFound, "id %d", userID)
		}
		return user, nil
	case strings.HasPrefix(ref, "@"):
		handle := strings.TrimPrefix(ref, "@")
		if handle == "" {
			return nil, errors.Wrap(ErrUserNotFound, "empty handle")
		}
		user, err := r.users.UserByHandle(ctx, handle)
		if err != nil {
			return nil, errors.Wrapf(ErrUserNotFound, "@%s: %v", handle, err)
		}
		if user == nil {
			return nil, errors.Wrapf(ErrUserNotFound, "@%s", handle)
		}
		return user, nil
	}
	return nil, nil
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
