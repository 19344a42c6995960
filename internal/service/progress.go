package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// maxMergeAttempts bounds retries after an optimistic version conflict.
const maxMergeAttempts = 3

// MergeResult describes an applied session merge.
type MergeResult struct {
	Stats         *entities.ProgressionStats
	Unlocked      []string // achievements unlocked by this merge
	PreviousLevel int
}

// LeveledUp reports whether the merge raised the level.
func (r *MergeResult) LeveledUp() bool {
	return r.Stats.CurrentLevel > r.PreviousLevel
}

// ProgressionService owns the durable ProgressionStats of every user.
// All mutations go through MergeSessionResult.
type ProgressionService struct {
	store   StatsStore
	catalog []entities.Achievement
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewProgressionService creates a new ProgressionService.
// A nil catalog means DefaultAchievements.
func NewProgressionService(store StatsStore, catalog []entities.Achievement, logger *zap.Logger) *ProgressionService {
	if catalog == nil {
		catalog = DefaultAchievements
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Catalog returns the achievement catalog in use.
func (s *ProgressionService) Catalog() []entities.Achievement {
	return s.catalog
}

// Stats returns the stored stats of a user, or zero stats.
func (s *ProgressionService) Stats(ctx context.Context, userID int64) (*entities.ProgressionStats, error) {
	stats, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return stats, nil
}

// CurrentLevel derives the level from the stored point total.
func (s *ProgressionService) CurrentLevel(ctx context.Context, userID int64) (int, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return 0, err
	}
	return ComputeLevel(stats.TotalPoints), nil
}

// MergeSessionResult adds a completed session to the user's stats, recomputes
// the level, unlocks achievements and persists everything in one save.
// A summary whose token was already applied returns ErrDuplicateCompletion and
// changes nothing. On a save failure nothing is applied and a *PersistenceError
// is returned; the caller may retry with the same summary.
func (s *ProgressionService) MergeSessionResult(ctx context.Context, summary entities.SessionSummary) (*MergeResult, error) {
	if summary.Token == "" {
		return nil, ErrMissingToken
	}

	unlock := s.lockUser(summary.UserID)
	defer unlock()

	for attempt := 1; attempt <= maxMergeAttempts; attempt++ {
		current, err := s.store.Load(ctx, summary.UserID)
		if err != nil {
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		if current.HasApplied(summary.Token) {
			return nil, ErrDuplicateCompletion
		}

		next := current.Clone()
		next.Apply(summary)
		next.CurrentLevel = ComputeLevel(next.TotalPoints)
		unlocked := EvaluateAchievements(next, s.catalog)
		next.Unlock(unlocked...)
		next.UpdatedAt = s.now()

		err = s.store.Save(ctx, next)
		if errors.Is(err, ErrStatsConflict) {
			s.logger.Warn("stats version conflict, retrying merge",
				zap.Int64("user_id", summary.UserID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, &PersistenceError{Op: "save", Err: err}
		}

		s.logger.Info("session merged",
			zap.Int64("user_id", summary.UserID),
			zap.String("token", summary.Token),
			zap.Int("score", summary.Score),
			zap.Int("level", next.CurrentLevel),
			zap.Strings("unlocked", unlocked),
		)

		return &MergeResult{
			Stats:         next,
			Unlocked:      unlocked,
			PreviousLevel: ComputeLevel(current.TotalPoints),
		}, nil
	}

	return nil, &PersistenceError{Op: "save", Err: ErrStatsConflict}
}

// Achievements returns the catalog entries the user has unlocked, in unlock order.
func (s *ProgressionService) Achievements(ctx context.Context, userID int64) ([]entities.Achievement, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Achievement, 0, len(stats.Achievements))
	for _, id := range stats.Achievements {
		if a, ok := FindAchievement(s.catalog, id); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ProgressionService) lockUser(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
