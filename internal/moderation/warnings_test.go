package moderation

import (
	"sync"
	"testing"
)

func TestWarnEscalatesOnThirdWarning(t *testing.T) {
	t.Parallel()

	store := NewWarningStore(0)
	const chatID, userID = int64(-100), int64(42)

	escalations := 0
	for i := 1; i <= 3; i++ {
		res := store.Warn(chatID, userID)
		if res.Count != i {
			t.Fatalf("warn #%d: count = %d", i, res.Count)
		}
		if res.Escalate {
			escalations++
		}
	}

	if escalations != 1 {
		t.Fatalf("expected exactly one escalation, got %d", escalations)
	}
	if got := store.Count(chatID, userID); got != 0 {
		t.Fatalf("counter after escalation = %d, want 0", got)
	}
}

func TestWarnIsScopedPerChat(t *testing.T) {
	t.Parallel()

	store := NewWarningStore(3)
	store.Warn(1, 42)
	store.Warn(1, 42)

	if res := store.Warn(2, 42); res.Count != 1 || res.Escalate {
		t.Fatalf("other chat affected: %+v", res)
	}
	if got := store.Count(1, 42); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestUnwarnNeverGoesNegative(t *testing.T) {
	t.Parallel()

	store := NewWarningStore(3)

	count, removed := store.Unwarn(1, 42)
	if removed || count != 0 {
		t.Fatalf("unwarn on absent entry = (%d, %v)", count, removed)
	}

	store.Warn(1, 42)
	if count, removed := store.Unwarn(1, 42); !removed || count != 0 {
		t.Fatalf("unwarn after warn = (%d, %v)", count, removed)
	}
	if count, removed := store.Unwarn(1, 42); removed || count != 0 {
		t.Fatalf("unwarn at zero = (%d, %v)", count, removed)
	}
	if got := store.Count(1, 42); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestCountDoesNotCreateEntries(t *testing.T) {
	t.Parallel()

	store := NewWarningStore(3)
	first := store.Count(7, 9)
	second := store.Count(7, 9)

	if first != 0 || second != 0 {
		t.Fatalf("counts = %d, %d", first, second)
	}
	if store.hasEntry(7, 9) {
		t.Fatalf("Count created an entry")
	}
}

func TestConcurrentWarnAtLimitEscalatesOnce(t *testing.T) {
	t.Parallel()

	for round := 0; round < 50; round++ {
		store := NewWarningStore(3)
		store.Warn(1, 42)
		store.Warn(1, 42)

		var (
			wg          sync.WaitGroup
			mu          sync.Mutex
			escalations int
			counts      []int
		)
		start := make(chan struct{})
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				res := store.Warn(1, 42)
				mu.Lock()
				defer mu.Unlock()
				counts = append(counts, res.Count)
				if res.Escalate {
					escalations++
				}
			}()
		}
		close(start)
		wg.Wait()

		// starting at 2, one warn escalates and the other lands on the reset counter
		if escalations != 1 {
			t.Fatalf("round %d: escalations = %d, counts = %v", round, escalations, counts)
		}
		if got := store.Count(1, 42); got != 1 {
			t.Fatalf("round %d: counter = %d, want 1", round, got)
		}
	}
}

// hasEntry reports whether the store holds an entry for the user, even a zero one.
func (s *WarningStore) hasEntry(chatID, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.rooms[chatID]
	if !ok {
		return false
	}
	_, ok = users[userID]
	return ok
}
