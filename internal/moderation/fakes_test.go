package moderation

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type fakeMembers struct {
	mu       sync.Mutex
	statuses map[int64]string
	err      error
	calls    int
}

func (f *fakeMembers) MemberStatus(ctx context.Context, _ int64, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return f.statuses[userID], nil
}

func (f *fakeMembers) Administrators(context.Context, int64) ([]Member, error) {
	return nil, nil
}

type fakeUsers struct {
	byID     map[int64]*User
	byHandle map[string]*User
	calls    int
}

func (f *fakeUsers) UserByID(_ context.Context, userID int64) (*User, error) {
	f.calls++
	if user, ok := f.byID[userID]; ok {
		return user, nil
	}
	return nil, errors.New("Bad Request: chat not found")
}

func (f *fakeUsers) UserByHandle(_ context.Context, handle string) (*User, error) {
	f.calls++
	if user, ok := f.byHandle[handle]; ok {
		return user, nil
	}
	return nil, errors.New("Bad Request: chat not found")
}

// fakeHistory serves pages from a fixed set of message ids.
type fakeHistory struct {
	ids   []int
	pages int
	// failOnPage makes the n-th page request fail; zero never fails.
	failOnPage int
}

func newFakeHistory(from, to int) *fakeHistory {
	h := &fakeHistory{}
	for id := from; id <= to; id++ {
		h.ids = append(h.ids, id)
	}
	return h
}

func (h *fakeHistory) HistoryPage(_ context.Context, _ int64, beforeID int, limit int) ([]int, error) {
	h.pages++
	if h.pages == h.failOnPage {
		return nil, errors.New("Too Many Requests: retry after 5")
	}
	var page []int
	for i := len(h.ids) - 1; i >= 0 && len(page) < limit; i-- {
		if h.ids[i] < beforeID {
			page = append(page, h.ids[i])
		}
	}
	// oldest first, the way a client would render a fetched page
	sort.Ints(page)
	return page, nil
}

type fakeDeleter struct {
	mu      sync.Mutex
	batches [][]int
	single  []int
	failOn  map[int]bool
	deleted chan int
}

func (d *fakeDeleter) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	d.mu.Lock()
	d.single = append(d.single, messageID)
	d.mu.Unlock()
	if d.deleted != nil {
		d.deleted <- messageID
	}
	return nil
}

func (d *fakeDeleter) DeleteMessages(_ context.Context, _ int64, messageIDs []int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, append([]int(nil), messageIDs...))
	if d.failOn[len(d.batches)] {
		return errors.New("Bad Request: message can't be deleted")
	}
	return nil
}

type fakeTimer struct {
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}
