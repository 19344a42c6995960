package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Expirer is the part of Session a countdown drives.
type Expirer interface {
	ExpireQuestion(index int) error
}

// Countdown is the per-question timer of a session. Attached as an observer,
// it arms on EventQuestion and disarms as soon as the question is answered,
// so it fires at most once per question.
type Countdown struct {
	target Expirer
	logger *zap.Logger

	// afterFunc is time.AfterFunc; tests replace it.
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu    sync.Mutex
	timer *time.Timer
}

// NewCountdown creates a countdown that expires questions on target.
func NewCountdown(target Expirer, logger *zap.Logger) *Countdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Countdown{
		target:    target,
		logger:    logger,
		afterFunc: time.AfterFunc,
	}
}

// Attach subscribes the countdown to session events.
func (c *Countdown) Attach(s *Session) (detach func()) {
	unsubscribe := s.Subscribe(c.Observe)
	return func() {
		unsubscribe()
		c.Stop()
	}
}

// Observe reacts to session events.
func (c *Countdown) Observe(ev Event) {
	switch ev.Type {
	case EventQuestion:
		c.arm(ev.Index, ev.TimeLimit)
	case EventAnswered, EventCompleted, EventCommitted, EventReset:
		c.Stop()
	}
}

func (c *Countdown) arm(index int, limit time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.afterFunc(limit, func() {
		if err := c.target.ExpireQuestion(index); err != nil {
			// The answer won the race.
			c.logger.Debug("countdown expired after answer", zap.Int("index", index), zap.Error(err))
		}
	})
}

// Stop disarms the pending timer, if any.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
