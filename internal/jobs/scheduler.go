package jobs

import (
	"context"
	"fmt"
	"time"

	"alcyxob/gym-saas/internal/config"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const expiryRunTimeout = 2 * time.Minute

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler registers the subscription expiry sweep on cfg's schedule.
// Overlapping runs are skipped.
func NewScheduler(cfg config.JobsConfig, subs service.SubscriptionService, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	s := &Scheduler{cron: c, log: log}

	if _, err := c.AddFunc(cfg.SubscriptionExpirySpec, func() {
		s.expireSubscriptions(subs)
	}); err != nil {
		return nil, fmt.Errorf("schedule subscription expiry %q: %w", cfg.SubscriptionExpirySpec, err)
	}
	return s, nil
}

func (s *Scheduler) expireSubscriptions(subs service.SubscriptionService) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryRunTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, s.log.With(zap.String("job", "subscription_expiry")))

	n, err := subs.ExpireEnded(ctx)
	if err != nil {
		s.log.Error("subscription expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired member subscriptions", zap.Int("count", n))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("job scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
