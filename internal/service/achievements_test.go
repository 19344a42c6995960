package service

import (
	"slices"
	"testing"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

func TestEvaluateAchievements(t *testing.T) {
	tests := []struct {
		name  string
		stats func(s *entities.ProgressionStats)
		want  []string
	}{
		{
			name:  "nothing played",
			stats: func(*entities.ProgressionStats) {},
			want:  nil,
		},
		{
			name: "first quiz and short streak",
			stats: func(s *entities.ProgressionStats) {
				s.TotalGamesPlayed = 1
				s.TotalQuestionsAnswered = 10
				s.TotalCorrectAnswers = 4
				s.BestStreakEver = 3
			},
			want: []string{"first_quiz", "streak_3"},
		},
		{
			name: "accuracy below min answered",
			stats: func(s *entities.ProgressionStats) {
				s.TotalGamesPlayed = 2
				s.TotalQuestionsAnswered = 20
				s.TotalCorrectAnswers = 20
				s.BestStreakEver = 10
			},
			want: []string{"first_quiz", "correct_10", "streak_3", "streak_5", "streak_10"},
		},
		{
			name: "accuracy at threshold",
			stats: func(s *entities.ProgressionStats) {
				s.TotalGamesPlayed = 5
				s.TotalQuestionsAnswered = 50
				s.TotalCorrectAnswers = 35
			},
			want: []string{"first_quiz", "correct_10", "accuracy_70"},
		},
		{
			name: "accuracy just below threshold",
			stats: func(s *entities.ProgressionStats) {
				s.TotalGamesPlayed = 5
				s.TotalQuestionsAnswered = 50
				s.TotalCorrectAnswers = 34
			},
			want: []string{"first_quiz", "correct_10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := entities.NewProgressionStats(1)
			tt.stats(stats)

			got := EvaluateAchievements(stats, DefaultAchievements)
			if !slices.Equal(got, tt.want) {
				t.Errorf("EvaluateAchievements() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateAchievementsSkipsUnlocked(t *testing.T) {
	stats := entities.NewProgressionStats(1)
	stats.TotalGamesPlayed = 1
	stats.Unlock("first_quiz")

	if got := EvaluateAchievements(stats, DefaultAchievements); len(got) != 0 {
		t.Errorf("expected no new achievements, got %v", got)
	}
}

func TestEvaluateAchievementsIsPure(t *testing.T) {
	stats := entities.NewProgressionStats(1)
	stats.TotalGamesPlayed = 10
	before := stats.Clone()

	first := EvaluateAchievements(stats, DefaultAchievements)
	second := EvaluateAchievements(stats, DefaultAchievements)

	if !slices.Equal(first, second) {
		t.Errorf("results differ: %v vs %v", first, second)
	}
	if !slices.Equal(stats.Achievements, before.Achievements) {
		t.Errorf("stats were modified: %v", stats.Achievements)
	}
}

func TestFindAchievement(t *testing.T) {
	a, ok := FindAchievement(DefaultAchievements, "streak_5")
	if !ok || a.Value != 5 {
		t.Errorf("FindAchievement(streak_5) = %+v, %v", a, ok)
	}
	if _, ok := FindAchievement(DefaultAchievements, "missing"); ok {
		t.Error("expected missing achievement not to be found")
	}
}
