package service

import (
	"context"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// ErrStatsConflict is returned by a StatsStore when the stored version
// differs from the version the caller loaded.
var ErrStatsConflict = entities.ErrStatsConflict

// QuestionBank is the read-only question pool.
type QuestionBank interface {
	// FetchPool returns every question matching filter, or an empty slice.
	FetchPool(ctx context.Context, filter entities.QuestionFilter) ([]entities.Question, error)
}

// RecentServedStore keeps the bounded history of question ids served to a user.
type RecentServedStore interface {
	// Recent returns served ids, most recently served first.
	Recent(ctx context.Context, userID int64) ([]string, error)
	// Remember records ids served together, in session order.
	Remember(ctx context.Context, userID int64, ids []string) error
}

// StatsStore persists ProgressionStats.
// Stores must round-trip AppliedTokens in order. Merges are idempotent only
// within entities.MaxAppliedTokens later completions of the same user.
type StatsStore interface {
	// Load returns the stored stats or zero stats for an unknown user.
	Load(ctx context.Context, userID int64) (*entities.ProgressionStats, error)
	// Save stores stats atomically if the stored version still equals stats.Version,
	// then increments stats.Version. A mismatch returns ErrStatsConflict.
	Save(ctx context.Context, stats *entities.ProgressionStats) error
}

// LevelSource provides the current level used to weight question difficulty.
type LevelSource interface {
	CurrentLevel(ctx context.Context, userID int64) (int, error)
}

// SessionCommitter merges a completed session into durable progression.
type SessionCommitter interface {
	MergeSessionResult(ctx context.Context, summary entities.SessionSummary) (*MergeResult, error)
}

// Selector produces the question sequence of a new session.
type Selector interface {
	Select(ctx context.Context, userID int64, cfg entities.QuizConfig) ([]entities.Question, error)
}
