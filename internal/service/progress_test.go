package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

func summaryOf(token string, userID int64, correct, total int) entities.SessionSummary {
	results := make([]entities.QuestionResult, 0, total)
	for i := 0; i < total; i++ {
		r := entities.QuestionResult{
			QuestionID: "q",
			Category:   entities.CategoryScience,
			Difficulty: entities.DifficultyMedium,
		}
		if i < correct {
			r.IsCorrect = true
			r.PointsAwarded = BasePoints + MaxTimeBonus
		}
		results = append(results, r)
	}

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return entities.NewSessionSummary(token, userID, results, correct, start, start.Add(time.Minute))
}

// conflictStore fails the first n saves with a version conflict.
type conflictStore struct {
	*statsStub
	conflicts int
}

func (s *conflictStore) Save(ctx context.Context, stats *entities.ProgressionStats) error {
	if s.conflicts > 0 {
		s.conflicts--
		return ErrStatsConflict
	}
	return s.statsStub.Save(ctx, stats)
}

func TestMergeSessionResult(t *testing.T) {
	store := newStatsStub()
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	res, err := svc.MergeSessionResult(ctx, summaryOf("t1", 7, 3, 5))
	if err != nil {
		t.Fatalf("MergeSessionResult: %v", err)
	}

	stats := res.Stats
	if stats.TotalGamesPlayed != 1 || stats.TotalQuestionsAnswered != 5 || stats.TotalCorrectAnswers != 3 {
		t.Errorf("counters = %d games, %d answered, %d correct", stats.TotalGamesPlayed, stats.TotalQuestionsAnswered, stats.TotalCorrectAnswers)
	}
	if stats.TotalPoints != 450 {
		t.Errorf("TotalPoints = %d, want 450", stats.TotalPoints)
	}
	if got := stats.Categories[entities.CategoryScience]; got != (entities.Tally{Played: 5, Correct: 3}) {
		t.Errorf("science tally = %+v", got)
	}
	if got := stats.Difficulties[entities.DifficultyMedium]; got != (entities.Tally{Played: 5, Correct: 3}) {
		t.Errorf("medium tally = %+v", got)
	}
	if stats.BestStreakEver != 3 {
		t.Errorf("BestStreakEver = %d, want 3", stats.BestStreakEver)
	}
	if stats.TotalTimeSpentSeconds != 60 {
		t.Errorf("TotalTimeSpentSeconds = %d, want 60", stats.TotalTimeSpentSeconds)
	}
	if !slices.Equal(res.Unlocked, []string{"first_quiz", "streak_3"}) {
		t.Errorf("Unlocked = %v", res.Unlocked)
	}
	if res.LeveledUp() {
		t.Error("450 points should not level up")
	}

	stored, _ := store.Load(ctx, 7)
	if stored.Version != 1 {
		t.Errorf("stored version = %d, want 1", stored.Version)
	}
	if !stored.HasApplied("t1") {
		t.Error("token was not recorded")
	}
}

func TestMergeSessionResultIsIdempotent(t *testing.T) {
	store := newStatsStub()
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	summary := summaryOf("same", 7, 2, 4)
	if _, err := svc.MergeSessionResult(ctx, summary); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if _, err := svc.MergeSessionResult(ctx, summary); !errors.Is(err, ErrDuplicateCompletion) {
		t.Fatalf("second merge: expected ErrDuplicateCompletion, got %v", err)
	}

	stats, _ := svc.Stats(ctx, 7)
	if stats.TotalGamesPlayed != 1 || stats.TotalPoints != 300 {
		t.Errorf("stats after duplicate: games %d, points %d", stats.TotalGamesPlayed, stats.TotalPoints)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

func TestMergeSessionResultIdempotencyHorizon(t *testing.T) {
	store := newStatsStub()
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	old := summaryOf("old", 7, 1, 1)
	if _, err := svc.MergeSessionResult(ctx, old); err != nil {
		t.Fatalf("merge old: %v", err)
	}
	for i := 1; i < entities.MaxAppliedTokens; i++ {
		if _, err := svc.MergeSessionResult(ctx, summaryOf(fmt.Sprintf("later-%d", i), 7, 0, 1)); err != nil {
			t.Fatalf("merge later-%d: %v", i, err)
		}
	}

	if _, err := svc.MergeSessionResult(ctx, old); !errors.Is(err, ErrDuplicateCompletion) {
		t.Fatalf("retry at the horizon edge: expected ErrDuplicateCompletion, got %v", err)
	}
	stats, _ := svc.Stats(ctx, 7)
	if stats.TotalGamesPlayed != entities.MaxAppliedTokens {
		t.Errorf("TotalGamesPlayed = %d, want %d", stats.TotalGamesPlayed, entities.MaxAppliedTokens)
	}
}

func TestMergeSessionResultRequiresToken(t *testing.T) {
	svc := NewProgressionService(newStatsStub(), nil, zaptest.NewLogger(t))

	_, err := svc.MergeSessionResult(context.Background(), summaryOf("", 7, 1, 1))
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestMergeSessionResultSaveFailure(t *testing.T) {
	store := newStatsStub()
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	store.failSaves(errors.New("connection reset"))

	res, err := svc.MergeSessionResult(ctx, summaryOf("t1", 7, 5, 5))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if res != nil {
		t.Errorf("failed merge returned %+v", res)
	}

	stats, _ := svc.Stats(ctx, 7)
	if stats.TotalGamesPlayed != 0 || len(stats.Achievements) != 0 || stats.HasApplied("t1") {
		t.Errorf("failed merge leaked into stats: %+v", stats)
	}

	store.failSaves(nil)
	if _, err := svc.MergeSessionResult(ctx, summaryOf("t1", 7, 5, 5)); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestMergeSessionResultRetriesOnConflict(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		wantErr   bool
	}{
		{name: "one conflict", conflicts: 1},
		{name: "two conflicts", conflicts: maxMergeAttempts - 1},
		{name: "exhausted", conflicts: maxMergeAttempts, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &conflictStore{statsStub: newStatsStub(), conflicts: tt.conflicts}
			svc := NewProgressionService(store, nil, zaptest.NewLogger(t))

			_, err := svc.MergeSessionResult(context.Background(), summaryOf("t1", 7, 1, 1))
			if tt.wantErr {
				if !errors.Is(err, ErrPersistence) || !errors.Is(err, ErrStatsConflict) {
					t.Fatalf("expected persistence conflict, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MergeSessionResult: %v", err)
			}
			if store.saves != 1 {
				t.Errorf("saves = %d, want 1", store.saves)
			}
		})
	}
}

func TestMergeSessionResultLevelUp(t *testing.T) {
	store := newStatsStub()
	store.stats[7] = &entities.ProgressionStats{
		UserID:           7,
		TotalPoints:      900,
		TotalGamesPlayed: 3,
		CurrentLevel:     1,
		Achievements:     []string{"first_quiz"},
	}
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))

	res, err := svc.MergeSessionResult(context.Background(), summaryOf("t1", 7, 1, 1))
	if err != nil {
		t.Fatalf("MergeSessionResult: %v", err)
	}
	if res.PreviousLevel != 1 || res.Stats.CurrentLevel != 2 || !res.LeveledUp() {
		t.Errorf("level %d -> %d", res.PreviousLevel, res.Stats.CurrentLevel)
	}
	if slices.Contains(res.Unlocked, "first_quiz") {
		t.Error("an unlocked achievement was reported again")
	}
}

func TestProgressionQueries(t *testing.T) {
	store := newStatsStub()
	store.stats[7] = &entities.ProgressionStats{
		UserID:       7,
		TotalPoints:  3200,
		Achievements: []string{"streak_3", "unknown", "first_quiz"},
	}
	svc := NewProgressionService(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	level, err := svc.CurrentLevel(ctx, 7)
	if err != nil || level != 3 {
		t.Errorf("CurrentLevel = %d, %v; want 3", level, err)
	}

	unlocked, err := svc.Achievements(ctx, 7)
	if err != nil {
		t.Fatalf("Achievements: %v", err)
	}
	var ids []string
	for _, a := range unlocked {
		ids = append(ids, a.ID)
	}
	if !slices.Equal(ids, []string{"streak_3", "first_quiz"}) {
		t.Errorf("Achievements = %v", ids)
	}

	level, err = svc.CurrentLevel(ctx, 99)
	if err != nil || level != 1 {
		t.Errorf("CurrentLevel(new user) = %d, %v; want 1", level, err)
	}
}
