package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the janitor every minute.
const DefaultSweepSchedule = "@every 1m"

// IdleSweeper discards sessions that saw no activity for longer than ttl.
type IdleSweeper interface {
	SweepIdle(now time.Time, ttl time.Duration) []int64
	Len() int
}

// SessionJanitor periodically abandons idle sessions. Abandoned sessions
// never reach progression.
type SessionJanitor struct {
	sessions IdleSweeper
	ttl      time.Duration
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionJanitor creates a new SessionJanitor.
func NewSessionJanitor(sessions IdleSweeper, ttl time.Duration, schedule string, logger *zap.Logger) *SessionJanitor {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionJanitor{
		sessions: sessions,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep on schedule until ctx is done.
func (j *SessionJanitor) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(j.schedule, func() { j.Sweep() }); err != nil {
		return fmt.Errorf("add sweep job: %w", err)
	}

	c.Start()
	j.logger.Info("session janitor started",
		zap.String("schedule", j.schedule),
		zap.Duration("idle_ttl", j.ttl),
	)

	<-ctx.Done()

	<-c.Stop().Done()
	j.logger.Info("session janitor stopped")
	return nil
}

// Sweep abandons idle sessions once and returns how many were removed.
func (j *SessionJanitor) Sweep() int {
	swept := j.sessions.SweepIdle(j.now(), j.ttl)
	if len(swept) > 0 {
		j.logger.Info("idle sessions abandoned",
			zap.Int64s("user_ids", swept),
			zap.Int("remaining", j.sessions.Len()),
		)
	}
	return len(swept)
}
