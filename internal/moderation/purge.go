package moderation

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCleanupDelay = 5 * time.Second

	cleanupTimeout = 10 * time.Second
)

// PurgeResult describes one purge run. Count is the number of ids submitted for deletion,
// not the number Telegram actually removed.
type PurgeResult struct {
	RunID   string
	Count   int
	Batches int
	Failed  int
}

// Empty reports the "nothing to delete" outcome.
func (r PurgeResult) Empty() bool {
	return r.Count == 0
}

type PurgeConfig struct {
	BatchSize    int
	CleanupDelay time.Duration
}

type timer interface {
	Stop() bool
}

type pendingCleanup struct {
	chatID    int64
	messageID int
	timer     timer
}

// PurgeEngine deletes a reply-anchored range of messages and removes its own confirmation later.
type PurgeEngine struct {
	history History
	deleter MessageDeleter

	batchSize    int
	cleanupDelay time.Duration
	afterFunc    func(time.Duration, func()) timer

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]pendingCleanup
	stopped bool
}

func NewPurgeEngine(history History, deleter MessageDeleter, cfg PurgeConfig) *PurgeEngine {
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = DefaultCleanupDelay
	}
	return &PurgeEngine{
		history:      history,
		deleter:      deleter,
		batchSize:    cfg.BatchSize,
		cleanupDelay: cfg.CleanupDelay,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		pending: make(map[uint64]pendingCleanup),
	}
}

// Purge deletes every message in [anchorID, triggerID]. A missing anchor, or an anchor newer than
// the trigger, fails with ErrNoAnchor before any remote call.
func (e *PurgeEngine) Purge(ctx context.Context, chatID int64, anchorID, triggerID int) (PurgeResult, error) {
	if anchorID <= 0 || anchorID > triggerID {
		return PurgeResult{}, ErrNoAnchor
	}

	result := PurgeResult{RunID: uuid.New()}
	entry := log.WithFields(log.Fields{
		"object":  "PurgeEngine",
		"method":  "Purge",
		"run_id":  result.RunID,
		"chat_id": chatID,
		"anchor":  anchorID,
		"trigger": triggerID,
	})

	ctx, span := otel.Tracer("moderation").Start(ctx, "PurgeEngine.Purge", trace.WithAttributes(
		attribute.Int64("chat_id", chatID),
		attribute.Int("anchor_id", anchorID),
		attribute.Int("trigger_id", triggerID),
	))
	defer span.End()

	ids, err := e.collect(ctx, chatID, anchorID, triggerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return PurgeResult{}, err
	}

	result.Count = len(ids)
	for start := 0; start < len(ids); start += e.batchSize {
		end := min(start+e.batchSize, len(ids))
		result.Batches++
		if err := e.deleter.DeleteMessages(ctx, chatID, ids[start:end]); err != nil {
			result.Failed++
			entry.WithField("error", err.Error()).
				WithField("batch", result.Batches).
				Warn("batch delete failed")
		}
	}

	span.SetAttributes(
		attribute.Int("count", result.Count),
		attribute.Int("batches", result.Batches),
		attribute.Int("failed_batches", result.Failed),
	)
	entry.WithField("count", result.Count).Debug("purge done")
	return result, nil
}

// collect walks history pages backward from triggerID+1. Within a page ids are taken newest
// first; enumeration ends at the first id below anchorID. The result is ascending and unique.
func (e *PurgeEngine) collect(ctx context.Context, chatID int64, anchorID, triggerID int) ([]int, error) {
	seen := make(map[int]struct{})
	ids := make([]int, 0, triggerID-anchorID+1)
	cursor := triggerID + 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page, err := e.history.HistoryPage(ctx, chatID, cursor, MaxBatchSize)
		if err != nil {
			return nil, Remote("history", err)
		}
		if len(page) == 0 {
			break
		}

		page = slices.Clone(page)
		slices.SortFunc(page, func(a, b int) int { return b - a })

		passed := false
		oldest := cursor
		for _, id := range page {
			oldest = min(oldest, id)
			if id > triggerID {
				continue
			}
			if id < anchorID {
				passed = true
				break
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		if passed || len(page) < MaxBatchSize || oldest >= cursor {
			break
		}
		cursor = oldest
	}

	slices.Sort(ids)
	return ids, nil
}

// ScheduleCleanup deletes a message after the cleanup delay. It never blocks and its outcome is
// discarded.
func (e *PurgeEngine) ScheduleCleanup(chatID int64, messageID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	e.nextID++
	id := e.nextID
	e.pending[id] = pendingCleanup{
		chatID:    chatID,
		messageID: messageID,
		timer: e.afterFunc(e.cleanupDelay, func() {
			if !e.take(id) {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
			defer cancel()
			_ = e.deleter.DeleteMessage(ctx, chatID, messageID)
		}),
	}
}

func (e *PurgeEngine) take(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pending[id]; !ok {
		return false
	}
	delete(e.pending, id)
	return true
}

// Pending is the number of scheduled cleanups that have not fired yet.
func (e *PurgeEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *PurgeEngine) Start(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = false
	return nil
}

// Stop cancels outstanding timers and deletes their messages right away, so confirmations do not
// outlive the process.
func (e *PurgeEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	pending := e.pending
	e.pending = make(map[uint64]pendingCleanup)
	e.stopped = true
	e.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_ = e.deleter.DeleteMessage(ctx, p.chatID, p.messageID)
	}
	return nil
}
