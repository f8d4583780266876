// Package sweep runs the periodic deletion of expired bug reports.
package sweep

import (
	"context"
	"time"

	"snipstream/internal/middleware"
	"snipstream/internal/repository"

	"github.com/robfig/cron/v3"
)

const defaultSchedule = "@hourly"

// Sweeper deletes expired bug rows on a cron schedule. The sweep is
// best-effort housekeeping: every read path filters on expiry independently,
// so a lagging or missed run is never visible to users.
type Sweeper struct {
	bugRepo  repository.BugRepository
	cron     *cron.Cron
	schedule string
	now      func() time.Time
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSweeper constructs a Sweeper with the default hourly schedule.
func NewSweeper(bugRepo repository.BugRepository, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		bugRepo:  bugRepo,
		schedule: defaultSchedule,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return sweeper
}

// Start registers the sweep job and launches the scheduler.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			middleware.Logger.Error("bug sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	deleted, err := s.bugRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		middleware.Logger.Info("bug sweep completed", "deleted", deleted)
	}
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
