// Package storagetest holds behaviour checks shared by every stats and
// recent-history backend.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// StatsStore mirrors service.StatsStore.
type StatsStore interface {
	Load(ctx context.Context, userID int64) (*entities.ProgressionStats, error)
	Save(ctx context.Context, stats *entities.ProgressionStats) error
}

// RecentStore mirrors service.RecentServedStore.
type RecentStore interface {
	Recent(ctx context.Context, userID int64) ([]string, error)
	Remember(ctx context.Context, userID int64, ids []string) error
}

// RunStatsStore checks load, versioned save and round-tripping.
// newStore must return an empty store.
func RunStatsStore(t *testing.T, newStore func(t *testing.T) StatsStore) {
	t.Helper()

	t.Run("unknown user", func(t *testing.T) {
		store := newStore(t)

		stats, err := store.Load(context.Background(), 1)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if stats.UserID != 1 || stats.Version != 0 || stats.TotalGamesPlayed != 0 {
			t.Errorf("unexpected zero stats: %+v", stats)
		}
		if stats.CurrentLevel != 1 {
			t.Errorf("CurrentLevel = %d, want 1", stats.CurrentLevel)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		want := sampleStats(2)
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if want.Version != 1 {
			t.Errorf("Version after first save = %d, want 1", want.Version)
		}

		got, err := store.Load(ctx, 2)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		assertStatsEqual(t, got, want)
	})

	t.Run("update", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		stats := sampleStats(3)
		if err := store.Save(ctx, stats); err != nil {
			t.Fatalf("Save: %v", err)
		}

		loaded, err := store.Load(ctx, 3)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		loaded.TotalPoints += 150
		loaded.TotalGamesPlayed++
		loaded.Achievements = append(loaded.Achievements, "quiz_10")
		loaded.AppliedTokens = append(loaded.AppliedTokens, "token-c")
		if err := store.Save(ctx, loaded); err != nil {
			t.Fatalf("second Save: %v", err)
		}
		if loaded.Version != 2 {
			t.Errorf("Version after second save = %d, want 2", loaded.Version)
		}

		got, err := store.Load(ctx, 3)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		assertStatsEqual(t, got, loaded)
	})

	t.Run("stale version", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, _ := store.Load(ctx, 4)
		second, _ := store.Load(ctx, 4)

		first.TotalPoints = 100
		if err := store.Save(ctx, first); err != nil {
			t.Fatalf("Save: %v", err)
		}

		second.TotalPoints = 999
		err := store.Save(ctx, second)
		if !errors.Is(err, entities.ErrStatsConflict) {
			t.Fatalf("stale Save: expected ErrStatsConflict, got %v", err)
		}
		if second.Version != 0 {
			t.Errorf("rejected save changed Version to %d", second.Version)
		}

		got, _ := store.Load(ctx, 4)
		if got.TotalPoints != 100 {
			t.Errorf("TotalPoints = %d, want 100", got.TotalPoints)
		}
	})

	t.Run("isolated copies", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		stats := sampleStats(5)
		if err := store.Save(ctx, stats); err != nil {
			t.Fatalf("Save: %v", err)
		}
		stats.Categories[entities.CategoryArts] = entities.Tally{Played: 99}
		stats.Achievements[0] = "changed"

		got, _ := store.Load(ctx, 5)
		if _, ok := got.Categories[entities.CategoryArts]; ok {
			t.Error("caller mutation reached the store")
		}
		if got.Achievements[0] != "first_quiz" {
			t.Errorf("Achievements[0] = %q", got.Achievements[0])
		}
	})
}

// RunRecentStore checks ordering, deduplication and the capacity bound.
// newStore must return an empty store keeping at most capacity ids.
func RunRecentStore(t *testing.T, capacity int, newStore func(t *testing.T) RecentStore) {
	t.Helper()

	t.Run("empty", func(t *testing.T) {
		store := newStore(t)

		ids, err := store.Recent(context.Background(), 1)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("Recent = %v, want empty", ids)
		}
	})

	t.Run("most recent first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		mustRemember(t, store, 1, "a", "b")
		mustRemember(t, store, 1, "c", "a")

		ids, _ := store.Recent(ctx, 1)
		if want := []string{"a", "c", "b"}; !slices.Equal(ids, want) {
			t.Errorf("Recent = %v, want %v", ids, want)
		}

		other, _ := store.Recent(ctx, 2)
		if len(other) != 0 {
			t.Errorf("history leaked to another user: %v", other)
		}
	})

	t.Run("capacity", func(t *testing.T) {
		store := newStore(t)

		ids := make([]string, 0, capacity+5)
		for i := 0; i < capacity+5; i++ {
			ids = append(ids, string(rune('A'+i%26))+string(rune('a'+i/26)))
		}
		mustRemember(t, store, 1, ids...)

		got, _ := store.Recent(context.Background(), 1)
		if len(got) != capacity {
			t.Fatalf("len(Recent) = %d, want %d", len(got), capacity)
		}
		if got[0] != ids[len(ids)-1] {
			t.Errorf("Recent[0] = %q, want %q", got[0], ids[len(ids)-1])
		}
	})
}

func mustRemember(t *testing.T, store RecentStore, userID int64, ids ...string) {
	t.Helper()
	if err := store.Remember(context.Background(), userID, ids); err != nil {
		t.Fatalf("Remember: %v", err)
	}
}

func sampleStats(userID int64) *entities.ProgressionStats {
	stats := entities.NewProgressionStats(userID)
	stats.TotalPoints = 1250
	stats.TotalGamesPlayed = 3
	stats.TotalQuestionsAnswered = 15
	stats.TotalCorrectAnswers = 11
	stats.BestStreakEver = 6
	stats.CurrentLevel = 2
	stats.TotalTimeSpentSeconds = 420
	stats.Categories[entities.CategoryHistory] = entities.Tally{Played: 10, Correct: 8}
	stats.Categories[entities.CategoryScience] = entities.Tally{Played: 5, Correct: 3}
	stats.Difficulties[entities.DifficultyEasy] = entities.Tally{Played: 9, Correct: 8}
	stats.Difficulties[entities.DifficultyHard] = entities.Tally{Played: 6, Correct: 3}
	stats.Achievements = []string{"first_quiz", "streak_3", "streak_5", "correct_10"}
	stats.AppliedTokens = []string{"token-a", "token-b"}
	stats.UpdatedAt = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return stats
}

func assertStatsEqual(t *testing.T, got, want *entities.ProgressionStats) {
	t.Helper()

	if got.UserID != want.UserID ||
		got.TotalPoints != want.TotalPoints ||
		got.TotalGamesPlayed != want.TotalGamesPlayed ||
		got.TotalQuestionsAnswered != want.TotalQuestionsAnswered ||
		got.TotalCorrectAnswers != want.TotalCorrectAnswers ||
		got.BestStreakEver != want.BestStreakEver ||
		got.CurrentLevel != want.CurrentLevel ||
		got.TotalTimeSpentSeconds != want.TotalTimeSpentSeconds ||
		got.Version != want.Version {
		t.Errorf("counters differ:\n got  %+v\n want %+v", got, want)
	}
	if !mapsEqual(got.Categories, want.Categories) {
		t.Errorf("Categories = %v, want %v", got.Categories, want.Categories)
	}
	if !mapsEqual(got.Difficulties, want.Difficulties) {
		t.Errorf("Difficulties = %v, want %v", got.Difficulties, want.Difficulties)
	}
	if !slices.Equal(got.Achievements, want.Achievements) {
		t.Errorf("Achievements = %v, want %v", got.Achievements, want.Achievements)
	}
	if !slices.Equal(got.AppliedTokens, want.AppliedTokens) {
		t.Errorf("AppliedTokens = %v, want %v", got.AppliedTokens, want.AppliedTokens)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
}

func mapsEqual[K comparable](a, b map[K]entities.Tally) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
