package moderation

import (
	"context"
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	alice := &User{ID: 1, FirstName: "Alice", UserName: "alice"}
	bob := &User{ID: 2, FirstName: "Bob"}
	users := &fakeUsers{
		byID:     map[int64]*User{2: bob},
		byHandle: map[string]*User{"alice": alice},
	}
	resolver := NewUserResolver(users)

	tests := []struct {
		name    string
		inv     Invocation
		want    *User
		wantErr error
	}{
		{name: "reply wins over args", inv: Invocation{ReplyAuthor: bob, Args: []string{"@alice"}}, want: bob},
		{name: "numeric id", inv: Invocation{Args: []string{"2"}}, want: bob},
		{name: "handle", inv: Invocation{Args: []string{"@alice"}}, want: alice},
		{name: "unknown id", inv: Invocation{Args: []string{"99"}}, wantErr: ErrUserNotFound},
		{name: "unknown handle", inv: Invocation{Args: []string{"@nobody"}}, wantErr: ErrUserNotFound},
		{name: "bare at", inv: Invocation{Args: []string{"@"}}, wantErr: ErrUserNotFound},
		{name: "no args", inv: Invocation{}},
		{name: "free text", inv: Invocation{Args: []string{"spam"}}},
		{name: "negative number is not an id", inv: Invocation{Args: []string{"-5"}}},
	}

	for _, tt := range tests {
		got, err := resolver.Resolve(context.Background(), tt.inv)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestResolveReplySkipsRemoteCalls(t *testing.T) {
	t.Parallel()

	users := &fakeUsers{}
	resolver := NewUserResolver(users)
	author := &User{ID: 5}

	if _, err := resolver.Resolve(context.Background(), Invocation{ReplyAuthor: author, Args: []string{"7"}}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if users.calls != 0 {
		t.Fatalf("remote calls = %d, want 0", users.calls)
	}
}
