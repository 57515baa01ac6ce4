package telegram

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestSeenUsersFromUpdate(t *testing.T) {
	t.Parallel()

	seen := NewSeenUsers(0)
	seen.RememberUpdate(&api.Update{Message: &api.Message{
		From:           &api.User{ID: 1, UserName: "author"},
		ReplyToMessage: &api.Message{From: &api.User{ID: 2, UserName: "replied"}},
		NewChatMembers: []api.User{{ID: 3, UserName: "Newbie"}},
	}})

	for _, handle := range []string{"author", "@replied", "newbie"} {
		if _, ok := seen.ByHandle(handle); !ok {
			t.Fatalf("handle %q not remembered", handle)
		}
	}
	if seen.Len() != 3 {
		t.Fatalf("len = %d, want 3", seen.Len())
	}
}

func TestSeenUsersHandleChange(t *testing.T) {
	t.Parallel()

	seen := NewSeenUsers(0)
	seen.Remember(&api.User{ID: 1, UserName: "old"})
	seen.Remember(&api.User{ID: 1, UserName: "new"})

	if _, ok := seen.ByHandle("old"); ok {
		t.Fatalf("stale handle still resolves")
	}
	user, ok := seen.ByHandle("new")
	if !ok || user.ID != 1 {
		t.Fatalf("new handle not resolved: %+v", user)
	}
}

func TestSeenUsersHandleProceeds(t *testing.T) {
	t.Parallel()

	seen := NewSeenUsers(0)
	proceed, err := seen.Handle(context.Background(), &api.Update{Message: &api.Message{
		From: &api.User{ID: 5, UserName: "gopher"},
	}}, nil, nil)
	if err != nil || !proceed {
		t.Fatalf("Handle() = %v, %v; want true, nil", proceed, err)
	}
	if u, ok := seen.ByID(5); !ok || u.UserName != "gopher" {
		t.Fatalf("ByID(5) = %+v, %v", u, ok)
	}
}
