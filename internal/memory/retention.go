package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"toolchat/internal/domain"

	"github.com/robfig/cron/v3"
)

// Retention deletes conversations older than a fixed number of days on a
// cron schedule.
type Retention struct {
	store  domain.ConversationStore
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

func NewRetention(store domain.ConversationStore, days int, logger *slog.Logger) *Retention {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{
		store:  store,
		maxAge: time.Duration(days) * 24 * time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether a retention period is configured.
func (r *Retention) Enabled() bool { return r.maxAge > 0 }

// Purge runs one retention pass.
func (r *Retention) Purge(ctx context.Context) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	cutoff := r.now().Add(-r.maxAge)
	n, err := r.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		r.logger.Info("purged old conversations", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Start schedules Purge with a standard cron expression or descriptor
// such as "@daily". It does nothing when retention is disabled.
func (r *Retention) Start(schedule string) error {
	if !r.Enabled() {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.Purge(ctx); err != nil {
			r.logger.Error("retention purge failed", "err", err)
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("retention scheduled", "schedule", schedule, "max_age", r.maxAge)
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (r *Retention) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
