package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

func mixedPool() []entities.Question {
	var pool []entities.Question
	pool = append(pool, makeQuestions("easy", 20, entities.CategoryHistory, entities.DifficultyEasy)...)
	pool = append(pool, makeQuestions("medium", 20, entities.CategoryScience, entities.DifficultyMedium)...)
	pool = append(pool, makeQuestions("hard", 20, entities.CategoryArts, entities.DifficultyHard)...)
	return pool
}

func ids(questions []entities.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestSelectNoRepeats(t *testing.T) {
	sel := NewQuestionSelector(&staticBank{questions: mixedPool()}, newRecentStub(), fixedLevel(3), zaptest.NewLogger(t), WithRand(newTestRand()))

	for i := 0; i < 20; i++ {
		got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(15))
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 15 {
			t.Fatalf("got %d questions, want 15", len(got))
		}
		seen := make(map[string]bool)
		for _, q := range got {
			if seen[q.ID] {
				t.Fatalf("question %s repeated in one session", q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestSelectRemovesDuplicateBankEntries(t *testing.T) {
	pool := makeQuestions("q", 3, entities.CategoryGeneral, entities.DifficultyEasy)
	pool = append(pool, pool...)
	sel := NewQuestionSelector(&staticBank{questions: pool}, nil, nil, zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(5))

	var short *InsufficientPoolError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3 distinct", len(got))
	}
}

func TestSelectPrefersFresh(t *testing.T) {
	pool := makeQuestions("q", 10, entities.CategoryGeneral, entities.DifficultyEasy)
	recent := newRecentStub()
	_ = recent.Remember(context.Background(), 1, ids(pool[:5]))

	sel := NewQuestionSelector(&staticBank{questions: pool}, recent, fixedLevel(1), zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(5))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	served := ids(pool[:5])
	for _, q := range got {
		if slices.Contains(served, q.ID) {
			t.Errorf("recently served question %s selected while fresh ones were available", q.ID)
		}
	}
}

func TestSelectTopsUpLeastRecentlyServedFirst(t *testing.T) {
	pool := makeQuestions("q", 6, entities.CategoryGeneral, entities.DifficultyEasy)
	recent := newRecentStub()
	// Served in order q-00, q-01, q-02, q-03: q-00 is the least recent.
	_ = recent.Remember(context.Background(), 1, ids(pool[:4]))

	sel := NewQuestionSelector(&staticBank{questions: pool}, recent, fixedLevel(1), zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(4))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	fresh := ids(got[:2])
	slices.Sort(fresh)
	if !slices.Equal(fresh, []string{"q-04", "q-05"}) {
		t.Errorf("fresh part = %v, want q-04 and q-05", fresh)
	}
	if got[2].ID != "q-00" || got[3].ID != "q-01" {
		t.Errorf("top-up = %v, want [q-00 q-01]", ids(got[2:]))
	}
}

func TestSelectRecentWindow(t *testing.T) {
	pool := makeQuestions("q", 5, entities.CategoryGeneral, entities.DifficultyEasy)
	recent := newRecentStub()
	_ = recent.Remember(context.Background(), 1, ids(pool[:4]))

	// Only the two most recent ids (q-03, q-02) are deprioritized.
	sel := NewQuestionSelector(&staticBank{questions: pool}, recent, nil, zaptest.NewLogger(t),
		WithRand(newTestRand()), WithRecentWindow(2))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(3))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	gotIDs := ids(got)
	slices.Sort(gotIDs)
	if !slices.Equal(gotIDs, []string{"q-00", "q-01", "q-04"}) {
		t.Errorf("selected %v, want [q-00 q-01 q-04]", gotIDs)
	}
}

func TestSelectRemembersServedQuestions(t *testing.T) {
	recent := newRecentStub()
	sel := NewQuestionSelector(&staticBank{questions: mixedPool()}, recent, nil, zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 7, entities.NewQuizConfig(4))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	remembered, _ := recent.Recent(context.Background(), 7)
	if len(remembered) != 4 {
		t.Fatalf("remembered %d ids, want 4", len(remembered))
	}
	if remembered[0] != got[3].ID {
		t.Errorf("most recent = %s, want last served %s", remembered[0], got[3].ID)
	}
}

func TestSelectInsufficientPool(t *testing.T) {
	pool := makeQuestions("q", 3, entities.CategoryGeneral, entities.DifficultyMedium)
	sel := NewQuestionSelector(&staticBank{questions: pool}, nil, nil, zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(5))
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}

	var short *InsufficientPoolError
	if !errors.As(err, &short) || short.Requested != 5 || short.Available != 3 {
		t.Errorf("unexpected error details: %+v", short)
	}
	if len(got) != 3 {
		t.Errorf("got %d questions, want 3", len(got))
	}
}

func TestSelectEmptyPool(t *testing.T) {
	sel := NewQuestionSelector(&staticBank{}, nil, nil, zaptest.NewLogger(t))

	_, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(5))
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestSelectBankError(t *testing.T) {
	bankErr := errors.New("bank down")
	sel := NewQuestionSelector(&staticBank{err: bankErr}, nil, nil, zaptest.NewLogger(t))

	_, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(5))
	if !errors.Is(err, bankErr) {
		t.Fatalf("expected bank error, got %v", err)
	}
}

func TestSelectRelaxesFilter(t *testing.T) {
	pool := makeQuestions("hist", 5, entities.CategoryHistory, entities.DifficultyEasy)

	tests := []struct {
		name      string
		cfg       entities.QuizConfig
		wantCalls []entities.QuestionFilter
	}{
		{
			name: "difficulty dropped first",
			cfg:  entities.QuizConfig{QuestionCount: 3, TimePerQuestionSeconds: 30, Category: entities.CategoryHistory, Difficulty: entities.DifficultyHard},
			wantCalls: []entities.QuestionFilter{
				{Category: entities.CategoryHistory, Difficulty: entities.DifficultyHard},
				{Category: entities.CategoryHistory},
			},
		},
		{
			name: "then category",
			cfg:  entities.QuizConfig{QuestionCount: 3, TimePerQuestionSeconds: 30, Category: entities.CategoryScience, Difficulty: entities.DifficultyHard},
			wantCalls: []entities.QuestionFilter{
				{Category: entities.CategoryScience, Difficulty: entities.DifficultyHard},
				{Category: entities.CategoryScience},
				{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := &staticBank{questions: pool}
			sel := NewQuestionSelector(bank, nil, nil, zaptest.NewLogger(t), WithRand(newTestRand()))

			got, err := sel.Select(context.Background(), 1, tt.cfg)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if len(got) != 3 {
				t.Errorf("got %d questions, want 3", len(got))
			}
			if !slices.Equal(bank.calls, tt.wantCalls) {
				t.Errorf("fetch calls = %v, want %v", bank.calls, tt.wantCalls)
			}
		})
	}
}

func TestSelectDifficultyFollowsLevel(t *testing.T) {
	tests := []struct {
		level int
		want  map[entities.Difficulty]int
	}{
		{1, map[entities.Difficulty]int{entities.DifficultyEasy: 7, entities.DifficultyMedium: 2, entities.DifficultyHard: 1}},
		{entities.MaxLevel, map[entities.Difficulty]int{entities.DifficultyEasy: 2, entities.DifficultyMedium: 3, entities.DifficultyHard: 5}},
	}

	for _, tt := range tests {
		sel := NewQuestionSelector(&staticBank{questions: mixedPool()}, nil, fixedLevel(tt.level), zaptest.NewLogger(t), WithRand(newTestRand()))

		got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(10))
		if err != nil {
			t.Fatalf("level %d: Select: %v", tt.level, err)
		}

		counts := make(map[entities.Difficulty]int)
		for _, q := range got {
			counts[q.Difficulty]++
		}
		for _, d := range entities.Difficulties {
			if counts[d] != tt.want[d] {
				t.Errorf("level %d: %s = %d, want %d", tt.level, d, counts[d], tt.want[d])
			}
		}
	}
}

func TestSelectFillsShortDifficultyBucket(t *testing.T) {
	// Level 1 wants 7 easy questions but only 2 exist.
	var pool []entities.Question
	pool = append(pool, makeQuestions("easy", 2, entities.CategoryGeneral, entities.DifficultyEasy)...)
	pool = append(pool, makeQuestions("hard", 20, entities.CategoryGeneral, entities.DifficultyHard)...)

	sel := NewQuestionSelector(&staticBank{questions: pool}, nil, fixedLevel(1), zaptest.NewLogger(t), WithRand(newTestRand()))

	got, err := sel.Select(context.Background(), 1, entities.NewQuizConfig(10))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("got %d questions, want 10", len(got))
	}
}

func TestSelectRejectsInvalidConfig(t *testing.T) {
	sel := NewQuestionSelector(&staticBank{questions: mixedPool()}, nil, nil, zaptest.NewLogger(t))

	_, err := sel.Select(context.Background(), 1, entities.QuizConfig{QuestionCount: 0, TimePerQuestionSeconds: 30})

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "question_count" {
		t.Fatalf("expected ConfigurationError on question_count, got %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("expected errors.Is(err, ErrInvalidConfig)")
	}
}
