package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// QuestionSelector picks the questions of a new session.
// It avoids repeats inside a session, prefers questions the user has not
// seen recently and shifts the difficulty mix towards hard as the level grows.
type QuestionSelector struct {
	bank   QuestionBank
	recent RecentServedStore
	levels LevelSource
	logger *zap.Logger

	window int // recent ids considered; 0 means twice the question count

	mu  sync.Mutex
	rng *rand.Rand
}

// SelectorOption customizes a QuestionSelector.
type SelectorOption func(*QuestionSelector)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(rng *rand.Rand) SelectorOption {
	return func(s *QuestionSelector) { s.rng = rng }
}

// WithRecentWindow sets how many recently served ids are deprioritized.
func WithRecentWindow(n int) SelectorOption {
	return func(s *QuestionSelector) { s.window = n }
}

// NewQuestionSelector creates a new QuestionSelector.
// recent and levels may be nil.
func NewQuestionSelector(
	bank QuestionBank,
	recent RecentServedStore,
	levels LevelSource,
	logger *zap.Logger,
	opts ...SelectorOption,
) *QuestionSelector {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &QuestionSelector{
		bank:   bank,
		recent: recent,
		levels: levels,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns up to cfg.QuestionCount distinct questions.
// A short result is returned together with an *InsufficientPoolError.
func (s *QuestionSelector) Select(ctx context.Context, userID int64, cfg entities.QuizConfig) ([]entities.Question, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	total := cfg.QuestionCount

	pool, err := s.fetch(ctx, cfg.Filter())
	if err != nil {
		return nil, err
	}
	pool = uniqueQuestions(pool)
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	level := s.currentLevel(ctx, userID)
	recentIDs := s.recentIDs(ctx, userID, total)
	fresh, stale := partitionByRecent(pool, recentIDs)

	s.mu.Lock()
	out := s.pickWeighted(fresh, total, DifficultyMix(level))
	s.mu.Unlock()

	out, remaining := appendAndRemaining(out, takeFirst(stale, total-len(out)), total)

	s.remember(ctx, userID, out)

	s.logger.Debug("questions selected",
		zap.Int64("user_id", userID),
		zap.Int("level", level),
		zap.Int("requested", total),
		zap.Int("selected", len(out)),
		zap.Int("fresh_pool", len(fresh)),
		zap.Int("recent_pool", len(stale)),
	)

	if remaining > 0 {
		return out, &InsufficientPoolError{Requested: total, Available: len(out)}
	}
	return out, nil
}

// fetch loads the pool, relaxing the filter when it matches nothing:
// first the difficulty constraint is dropped, then the category.
func (s *QuestionSelector) fetch(ctx context.Context, filter entities.QuestionFilter) ([]entities.Question, error) {
	pool, err := s.bank.FetchPool(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}
	if len(pool) > 0 || filter.IsZero() {
		return pool, nil
	}

	relaxed := filter
	if relaxed.Difficulty != "" {
		relaxed.Difficulty = ""
	} else {
		relaxed.Category = ""
	}

	s.logger.Info("empty pool, relaxing filter",
		zap.String("category", string(filter.Category)),
		zap.String("difficulty", string(filter.Difficulty)),
	)

	return s.fetch(ctx, relaxed)
}

func (s *QuestionSelector) currentLevel(ctx context.Context, userID int64) int {
	if s.levels == nil {
		return 1
	}
	level, err := s.levels.CurrentLevel(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to get level, using 1", zap.Int64("user_id", userID), zap.Error(err))
		return 1
	}
	return level
}

func (s *QuestionSelector) recentIDs(ctx context.Context, userID int64, total int) []string {
	if s.recent == nil {
		return nil
	}

	ids, err := s.recent.Recent(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to get recently served questions", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	window := s.window
	if window <= 0 {
		window = 2 * total
	}
	if len(ids) > window {
		ids = ids[:window]
	}
	return ids
}

func (s *QuestionSelector) remember(ctx context.Context, userID int64, questions []entities.Question) {
	if s.recent == nil || len(questions) == 0 {
		return
	}

	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}

	if err := s.recent.Remember(ctx, userID, ids); err != nil {
		s.logger.Warn("failed to remember served questions", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// pickWeighted draws up to total questions from pool following the
// difficulty mix. Missing questions of one difficulty are made up from the others.
// Callers must hold s.mu.
func (s *QuestionSelector) pickWeighted(pool []entities.Question, total int, mix Mix) []entities.Question {
	buckets := make(map[entities.Difficulty][]entities.Question, len(entities.Difficulties))
	for _, q := range pool {
		buckets[q.Difficulty] = append(buckets[q.Difficulty], q)
	}

	quotas := mix.Quotas(total)
	out := make([]entities.Question, 0, total)
	var leftovers []entities.Question

	for _, d := range entities.Difficulties {
		bucket := s.shuffled(buckets[d])
		n := min(quotas[d], len(bucket))
		out = append(out, bucket[:n]...)
		leftovers = append(leftovers, bucket[n:]...)
	}

	leftovers = s.shuffled(leftovers)
	out, _ = appendAndRemaining(out, takeFirst(leftovers, total-len(out)), total)

	return s.shuffled(out)
}

// shuffled returns a shuffled copy of the input slice. Callers must hold s.mu.
func (s *QuestionSelector) shuffled(in []entities.Question) []entities.Question {
	out := append([]entities.Question(nil), in...)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// partitionByRecent splits pool into questions outside the recent window
// and questions inside it. The recent part is ordered least recently served first.
func partitionByRecent(pool []entities.Question, recentIDs []string) (fresh, recent []entities.Question) {
	position := make(map[string]int, len(recentIDs))
	for i, id := range recentIDs {
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}

	for _, q := range pool {
		if _, ok := position[q.ID]; ok {
			recent = append(recent, q)
			continue
		}
		fresh = append(fresh, q)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return position[recent[i].ID] > position[recent[j].ID]
	})

	return fresh, recent
}

// uniqueQuestions removes duplicate ids while preserving the original order.
func uniqueQuestions(questions []entities.Question) []entities.Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]entities.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// takeFirst returns the first n elements of questions, or the whole slice if it is shorter.
func takeFirst(questions []entities.Question, n int) []entities.Question {
	if n <= 0 {
		return nil
	}
	if len(questions) <= n {
		return questions
	}
	return questions[:n]
}

// appendAndRemaining appends add to out and returns the updated out and remaining capacity up to total.
func appendAndRemaining(out []entities.Question, add []entities.Question, total int) ([]entities.Question, int) {
	out = append(out, add...)
	rem := total - len(out)
	if rem < 0 {
		rem = 0
	}
	return out, rem
}
