package moderation

import "sync"

const DefaultWarnLimit = 3

// WarnResult is the outcome of one Warn call.
type WarnResult struct {
	// Count is the counter right after the increment, before any reset.
	Count int
	// Escalate is set when Count reached the limit; the stored counter is already zero.
	Escalate bool
}

// WarningStore keeps per-chat, per-user warning counters.
type WarningStore struct {
	mu    sync.Mutex
	limit int
	rooms map[int64]map[int64]int
}

func NewWarningStore(limit int) *WarningStore {
	if limit <= 0 {
		limit = DefaultWarnLimit
	}
	return &WarningStore{
		limit: limit,
		rooms: make(map[int64]map[int64]int),
	}
}

func (s *WarningStore) Limit() int {
	return s.limit
}

// Warn increments the counter. Reaching the limit resets it to zero under the same lock,
// so no reader ever sees a counter at or above the limit.
func (s *WarningStore) Warn(chatID, userID int64) WarnResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.rooms[chatID]
	if !ok {
		users = make(map[int64]int)
		s.rooms[chatID] = users
	}
	count := users[userID] + 1
	if count >= s.limit {
		users[userID] = 0
		return WarnResult{Count: count, Escalate: true}
	}
	users[userID] = count
	return WarnResult{Count: count}
}

// Unwarn removes one warning. removed is false when there was nothing to remove.
func (s *WarningStore) Unwarn(chatID, userID int64) (count int, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.rooms[chatID]
	if !ok || users[userID] <= 0 {
		return 0, false
	}
	users[userID]--
	return users[userID], true
}

// Count never creates entries.
func (s *WarningStore) Count(chatID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.rooms[chatID]
	if !ok {
		return 0
	}
	return users[userID]
}
