package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
)

type recordingHandler struct {
	calls   int
	proceed bool
	err     error
	chat    *api.Chat
	user    *api.User
}

func (h *recordingHandler) Handle(_ context.Context, _ *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	h.calls++
	h.chat, h.user = chat, user
	return h.proceed, h.err
}

func freshMessage(now time.Time) *api.Update {
	return &api.Update{
		UpdateID: 1,
		Message: &api.Message{
			Date: int(now.Unix()),
			Chat: api.Chat{ID: -100},
			From: &api.User{ID: 42},
		},
	}
}

func TestProcessStopsWhenHandlerDeclines(t *testing.T) {
	t.Parallel()

	first := &recordingHandler{proceed: false}
	second := &recordingHandler{proceed: true}
	up := NewUpdateProcessor(nil, first, nil, second)

	if err := up.Process(context.Background(), freshMessage(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if first.calls != 1 || second.calls != 0 {
		t.Fatalf("calls = %d, %d", first.calls, second.calls)
	}
	if first.chat == nil || first.chat.ID != -100 || first.user == nil || first.user.ID != 42 {
		t.Fatalf("chat or user not derived: %+v %+v", first.chat, first.user)
	}
}

func TestProcessSkipsOutdatedUpdates(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{proceed: true}
	up := NewUpdateProcessor(nil, handler)

	if err := up.Process(context.Background(), freshMessage(time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if handler.calls != 0 {
		t.Fatalf("outdated update reached the handler")
	}
}

func TestProcessWrapsHandlerErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	up := NewUpdateProcessor(nil, HandlerFunc(func(context.Context, *api.Update, *api.Chat, *api.User) (bool, error) {
		return true, boom
	}))

	err := up.Process(context.Background(), freshMessage(time.Now()))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if err := up.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil update must fail")
	}
}

type fakeSource struct {
	batches [][]api.Update
	offsets []int
}

func (s *fakeSource) GetUpdates(config api.UpdateConfig) ([]api.Update, error) {
	s.offsets = append(s.offsets, config.Offset)
	if len(s.batches) == 0 {
		return nil, errors.New("drained")
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestGetUpdatesChansAdvancesOffset(t *testing.T) {
	t.Parallel()

	source := &fakeSource{batches: [][]api.Update{
		{{UpdateID: 5}, {UpdateID: 6}},
		{{UpdateID: 6}, {UpdateID: 7}},
	}}
	updates, errs := GetUpdatesChans(context.Background(), source, api.NewUpdate(0), 10)

	var got []int
	for u := range updates {
		got = append(got, u.UpdateID)
	}
	if err := <-errs; err == nil || err.Error() != "drained" {
		t.Fatalf("err = %v", err)
	}
	if len(got) != 3 || got[0] != 5 || got[2] != 7 {
		t.Fatalf("updates = %v", got)
	}
	if source.offsets[1] != 7 || source.offsets[2] != 8 {
		t.Fatalf("offsets = %v", source.offsets)
	}
}
