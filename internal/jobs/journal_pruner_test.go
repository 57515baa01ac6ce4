package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iamwavecut/groupguard/internal/db"
)

type fakeJournal struct {
	mu       sync.Mutex
	kv       map[string]string
	cutoffs  []time.Time
	pruneErr error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{kv: map[string]string{}}
}

func (j *fakeJournal) AddAction(context.Context, *db.ModAction) error { return nil }

func (j *fakeJournal) RecentActions(context.Context, int64, int) ([]*db.ModAction, error) {
	return nil, nil
}

func (j *fakeJournal) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.pruneErr != nil {
		return 0, j.pruneErr
	}
	j.cutoffs = append(j.cutoffs, before)
	return 4, nil
}

func (j *fakeJournal) GetKV(_ context.Context, key string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.kv[key], nil
}

func (j *fakeJournal) SetKV(_ context.Context, key, value string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.kv[key] = value
	return nil
}

func (j *fakeJournal) Close() error { return nil }

func (j *fakeJournal) prunes() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cutoffs)
}

var now = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

func TestPruneOnce(t *testing.T) {
	t.Parallel()

	journal := newFakeJournal()
	p := NewJournalPruner(journal, 72*time.Hour, "")
	p.now = func() time.Time { return now }

	removed, err := p.PruneOnce(context.Background())
	if err != nil {
		t.Fatalf("PruneOnce() error = %v", err)
	}
	if removed != 4 {
		t.Fatalf("removed = %d, want 4", removed)
	}
	if !journal.cutoffs[0].Equal(now.Add(-72 * time.Hour)) {
		t.Fatalf("cutoff = %v", journal.cutoffs[0])
	}
	if got := journal.kv[lastPruneKey]; got != "2026-05-10T08:00:00Z" {
		t.Fatalf("last prune = %q", got)
	}
}

func TestPruneOnceError(t *testing.T) {
	t.Parallel()

	journal := newFakeJournal()
	journal.pruneErr = errors.New("disk full")
	p := NewJournalPruner(journal, time.Hour, "")

	if _, err := p.PruneOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := journal.kv[lastPruneKey]; ok {
		t.Fatalf("failed prune must not be remembered")
	}
}

func TestStartCatchUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		last string
		want int
	}{
		{name: "never pruned", last: "", want: 1},
		{name: "stale", last: now.Add(-25 * time.Hour).Format(time.RFC3339), want: 1},
		{name: "recent", last: now.Add(-time.Hour).Format(time.RFC3339), want: 0},
		{name: "garbage", last: "yesterday", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			journal := newFakeJournal()
			if tt.last != "" {
				journal.kv[lastPruneKey] = tt.last
			}
			p := NewJournalPruner(journal, time.Hour, "@monthly")
			p.now = func() time.Time { return now }

			if err := p.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if err := p.Stop(context.Background()); err != nil {
				t.Fatalf("Stop() error = %v", err)
			}
			if got := journal.prunes(); got != tt.want {
				t.Fatalf("prunes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	p := NewJournalPruner(newFakeJournal(), time.Hour, "every tuesday")
	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected schedule error")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() on unstarted pruner = %v", err)
	}
}
