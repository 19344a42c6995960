package entities

import (
	"fmt"
	"testing"
	"time"
)

func TestProgressionStatsApply(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	summary := NewSessionSummary("t1", 1, []QuestionResult{
		{Category: CategoryHistory, Difficulty: DifficultyEasy, IsCorrect: true, PointsAwarded: 150},
		{Category: CategoryHistory, Difficulty: DifficultyHard, SelectedIndex: NoAnswer},
		{Category: CategoryScience, Difficulty: DifficultyHard, IsCorrect: true, PointsAwarded: 100},
	}, 1, start, start.Add(90*time.Second))

	stats := NewProgressionStats(1)
	stats.Apply(summary)

	if stats.TotalPoints != 250 || stats.TotalGamesPlayed != 1 || stats.TotalQuestionsAnswered != 3 || stats.TotalCorrectAnswers != 2 {
		t.Errorf("counters = %+v", stats)
	}
	if got := stats.Categories[CategoryHistory]; got != (Tally{Played: 2, Correct: 1}) {
		t.Errorf("history = %+v", got)
	}
	if got := stats.Difficulties[DifficultyHard]; got != (Tally{Played: 2, Correct: 1}) {
		t.Errorf("hard = %+v", got)
	}
	if stats.TotalTimeSpentSeconds != 90 {
		t.Errorf("TotalTimeSpentSeconds = %d, want 90", stats.TotalTimeSpentSeconds)
	}
	if !stats.HasApplied("t1") {
		t.Error("token not recorded")
	}
	if acc := stats.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("Accuracy = %f", acc)
	}
}

func TestProgressionStatsAppliedTokensBounded(t *testing.T) {
	stats := NewProgressionStats(1)
	for i := 0; i < MaxAppliedTokens+10; i++ {
		stats.Apply(SessionSummary{Token: fmt.Sprintf("t%d", i)})
	}

	if len(stats.AppliedTokens) != MaxAppliedTokens {
		t.Fatalf("len(AppliedTokens) = %d, want %d", len(stats.AppliedTokens), MaxAppliedTokens)
	}
	if stats.HasApplied("t0") {
		t.Error("oldest token should be forgotten")
	}
	if !stats.HasApplied(fmt.Sprintf("t%d", MaxAppliedTokens+9)) {
		t.Error("newest token missing")
	}
}

func TestProgressionStatsClone(t *testing.T) {
	stats := NewProgressionStats(1)
	stats.Categories[CategoryArts] = Tally{Played: 1}
	stats.Unlock("first_quiz")

	clone := stats.Clone()
	clone.Categories[CategoryArts] = Tally{Played: 5}
	clone.Unlock("streak_3")
	clone.Achievements[0] = "changed"

	if stats.Categories[CategoryArts].Played != 1 {
		t.Error("clone shares the categories map")
	}
	if len(stats.Achievements) != 1 || stats.Achievements[0] != "first_quiz" {
		t.Errorf("clone shares achievements: %v", stats.Achievements)
	}
}

func TestProgressionStatsUnlockKeepsOrder(t *testing.T) {
	stats := NewProgressionStats(1)
	stats.Unlock("b", "a")
	stats.Unlock("a", "c")

	want := []string{"b", "a", "c"}
	if fmt.Sprint(stats.Achievements) != fmt.Sprint(want) {
		t.Errorf("Achievements = %v, want %v", stats.Achievements, want)
	}
}
