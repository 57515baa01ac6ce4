// Package jobs runs scheduled maintenance of the moderation journal.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/groupguard/internal/db"
)

const (
	lastPruneKey     = "journal_last_prune"
	catchUpThreshold = 24 * time.Hour
)

// JournalPruner drops journal entries older than the retention period on a cron schedule.
type JournalPruner struct {
	journal   db.Journal
	retention time.Duration
	schedule  string
	now       func() time.Time

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewJournalPruner(journal db.Journal, retention time.Duration, schedule string) *JournalPruner {
	if schedule == "" {
		schedule = "@daily"
	}
	return &JournalPruner{
		journal:   journal,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
	}
}

// Start registers the schedule and prunes right away when the last run is older than a day.
func (p *JournalPruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return nil
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(p.schedule, func() {
		if _, err := p.PruneOnce(jobCtx); err != nil {
			p.getLogEntry().WithError(err).Error("scheduled prune failed")
		}
	}); err != nil {
		cancel()
		return errors.Wrapf(err, "schedule %q", p.schedule)
	}

	if p.due(ctx) {
		if _, err := p.PruneOnce(ctx); err != nil {
			p.getLogEntry().WithError(err).Warn("catch-up prune failed")
		}
	}

	c.Start()
	p.cron = c
	p.cancel = cancel
	p.getLogEntry().WithField("schedule", p.schedule).Info("journal pruner started")
	return nil
}

func (p *JournalPruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// PruneOnce removes entries older than the retention period and remembers when it ran.
func (p *JournalPruner) PruneOnce(ctx context.Context) (int64, error) {
	now := p.now()
	removed, err := p.journal.PruneBefore(ctx, now.Add(-p.retention))
	if err != nil {
		return 0, errors.WithMessage(err, "prune journal")
	}
	if err := p.journal.SetKV(ctx, lastPruneKey, now.UTC().Format(time.RFC3339)); err != nil {
		p.getLogEntry().WithError(err).Warn("cant store last prune time")
	}
	p.getLogEntry().WithField("removed", removed).Debug("journal pruned")
	return removed, nil
}

func (p *JournalPruner) due(ctx context.Context) bool {
	value, err := p.journal.GetKV(ctx, lastPruneKey)
	if err != nil || value == "" {
		return true
	}
	last, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return p.now().Sub(last) >= catchUpThreshold
}

func (p *JournalPruner) getLogEntry() *log.Entry {
	return log.WithField("object", "JournalPruner")
}
