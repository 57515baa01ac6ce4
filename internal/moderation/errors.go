package moderation

import (
	"errors"
	"fmt"
	"strings"
)

const msgNoPrivileges = "not enough rights"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrForbidden      = errors.New("admin rights required")
	ErrNoAnchor       = errors.New("purge needs a reply to the starting message")
	ErrNoteNotFound   = errors.New("note not found")
	ErrNoPrivileges   = errors.New("no privileges")
	ErrInvalidRequest = errors.New("invalid request")
)

// RemoteError is a failure of one mutating platform call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Remote wraps a platform error for op, classifying missing bot rights as ErrNoPrivileges.
// An error that is already a RemoteError is returned as is.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return err
	}
	if strings.Contains(err.Error(), msgNoPrivileges) {
		err = fmt.Errorf("%w: %v", ErrNoPrivileges, err)
	}
	return &RemoteError{Op: op, Err: err}
}

// IsRemote reports whether err came from a platform call.
func IsRemote(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}
