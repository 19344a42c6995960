package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

type staticBank struct {
	questions []entities.Question
	err       error
	calls     []entities.QuestionFilter
}

func (b *staticBank) FetchPool(_ context.Context, filter entities.QuestionFilter) ([]entities.Question, error) {
	b.calls = append(b.calls, filter)
	if b.err != nil {
		return nil, b.err
	}
	var out []entities.Question
	for _, q := range b.questions {
		if filter.Match(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func makeQuestions(prefix string, n int, c entities.Category, d entities.Difficulty) []entities.Question {
	out := make([]entities.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entities.Question{
			ID:           fmt.Sprintf("%s-%02d", prefix, i),
			Prompt:       fmt.Sprintf("question %s %d", prefix, i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % entities.OptionsPerQuestion,
			Category:     c,
			Difficulty:   d,
		})
	}
	return out
}

type fixedLevel int

func (l fixedLevel) CurrentLevel(context.Context, int64) (int, error) {
	return int(l), nil
}

type recentStub struct {
	mu  sync.Mutex
	ids map[int64][]string
}

func newRecentStub() *recentStub {
	return &recentStub{ids: make(map[int64][]string)}
}

func (r *recentStub) Recent(_ context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids[userID]...), nil
}

func (r *recentStub) Remember(_ context.Context, userID int64, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var head []string
	for i := len(ids) - 1; i >= 0; i-- {
		head = append(head, ids[i])
	}
	r.ids[userID] = append(head, r.ids[userID]...)
	return nil
}

// statsStub is an in-memory StatsStore that can be told to fail saves.
type statsStub struct {
	mu      sync.Mutex
	stats   map[int64]*entities.ProgressionStats
	saveErr error
	saves   int
}

func newStatsStub() *statsStub {
	return &statsStub{stats: make(map[int64]*entities.ProgressionStats)}
}

func (s *statsStub) Load(_ context.Context, userID int64) (*entities.ProgressionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[userID]; ok {
		return st.Clone(), nil
	}
	return entities.NewProgressionStats(userID), nil
}

func (s *statsStub) Save(_ context.Context, stats *entities.ProgressionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	var version int64
	if st, ok := s.stats[stats.UserID]; ok {
		version = st.Version
	}
	if version != stats.Version {
		return ErrStatsConflict
	}
	stats.Version++
	s.stats[stats.UserID] = stats.Clone()
	s.saves++
	return nil
}

func (s *statsStub) failSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// listSelector returns a fixed question list.
type listSelector struct {
	questions []entities.Question
	err       error
}

func (s listSelector) Select(_ context.Context, _ int64, cfg entities.QuizConfig) ([]entities.Question, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(s.questions) < cfg.QuestionCount {
		return s.questions, &InsufficientPoolError{Requested: cfg.QuestionCount, Available: len(s.questions)}
	}
	return s.questions[:cfg.QuestionCount], s.err
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// blockingCommitter holds every merge until release is closed.
type blockingCommitter struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingCommitter() *blockingCommitter {
	return &blockingCommitter{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (c *blockingCommitter) MergeSessionResult(ctx context.Context, summary entities.SessionSummary) (*MergeResult, error) {
	c.entered <- struct{}{}
	select {
	case <-c.release:
		return &MergeResult{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
