package moderation

import (
	"errors"
	"testing"
)

func TestRemoteClassifiesPrivileges(t *testing.T) {
	t.Parallel()

	err := Remote("ban", errors.New("Bad Request: not enough rights to restrict/unrestrict chat member"))
	if !errors.Is(err, ErrNoPrivileges) || !IsRemote(err) {
		t.Fatalf("err = %v", err)
	}
	if Remote("ban", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestRemoteDoesNotWrapTwice(t *testing.T) {
	t.Parallel()

	inner := Remote("history", errors.New("Too Many Requests: retry after 5"))
	outer := Remote("purge", inner)

	var remote *RemoteError
	if !errors.As(outer, &remote) || remote.Op != "history" {
		t.Fatalf("outer = %v", outer)
	}
	if remote.Err.Error() != "Too Many Requests: retry after 5" {
		t.Fatalf("cause = %q", remote.Err)
	}
}
