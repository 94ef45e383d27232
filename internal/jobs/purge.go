package jobs

import (
	"context"
	"time"

	"redeemr/rewards-service/internal/metrics"
	"redeemr/rewards-service/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron   *cron.Cron
	logger logrus.FieldLogger
}

// NewScheduler registers the expired reset token purge on schedule, a cron
// expression such as "@every 1h" or "0 * * * *".
func NewScheduler(tokens store.ResetTokenStore, schedule string, logger logrus.FieldLogger) (*Scheduler, error) {
	c := cron.New()
	purge := PurgeExpiredResetTokens(tokens, logger, time.Now)
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		purge(ctx)
	}); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running purge to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func PurgeExpiredResetTokens(tokens store.ResetTokenStore, logger logrus.FieldLogger, now func() time.Time) func(context.Context) {
	return func(ctx context.Context) {
		purged, err := tokens.PurgeExpiredResetTokens(ctx, now())
		if err != nil {
			logger.WithError(err).Error("purge expired reset tokens failed")
			return
		}
		metrics.AddPurgedResetTokens(purged)
		if purged > 0 {
			logger.WithField("purged", purged).Info("expired reset tokens purged")
		}
	}
}
