package entities

import (
	"errors"
	"slices"
	"time"
)

// ErrStatsConflict reports a save against a stale ProgressionStats version.
var ErrStatsConflict = errors.New("progression stats were modified concurrently")

// MaxAppliedTokens bounds the completion tokens remembered per user.
// It is the idempotency horizon: a summary is rejected as a duplicate only
// while its token is among the last MaxAppliedTokens merged for the user.
const MaxAppliedTokens = 64

// Tally counts played and correctly answered questions.
type Tally struct {
	Played  int `json:"played"`
	Correct int `json:"correct"`
}

// Accuracy returns Correct / Played, or 0 when nothing was played.
func (t Tally) Accuracy() float64 {
	if t.Played == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Played)
}

// ProgressionStats is the durable cross-session record of a user.
type ProgressionStats struct {
	UserID                 int64
	TotalPoints            int
	TotalGamesPlayed       int
	TotalQuestionsAnswered int
	TotalCorrectAnswers    int
	BestStreakEver         int
	CurrentLevel           int
	Categories             map[Category]Tally
	Difficulties           map[Difficulty]Tally
	TotalTimeSpentSeconds  int64
	Achievements           []string // unlocked achievement ids in unlock order
	AppliedTokens          []string // most recent completion tokens, oldest first
	Version                int64    // incremented on every successful save
	UpdatedAt              time.Time
}

// NewProgressionStats returns zero stats for a user who has never played.
func NewProgressionStats(userID int64) *ProgressionStats {
	return &ProgressionStats{
		UserID:       userID,
		CurrentLevel: 1,
		Categories:   make(map[Category]Tally),
		Difficulties: make(map[Difficulty]Tally),
	}
}

// Clone returns a deep copy so a merge can be discarded on failure.
func (s *ProgressionStats) Clone() *ProgressionStats {
	c := *s
	c.Categories = make(map[Category]Tally, len(s.Categories))
	for k, v := range s.Categories {
		c.Categories[k] = v
	}
	c.Difficulties = make(map[Difficulty]Tally, len(s.Difficulties))
	for k, v := range s.Difficulties {
		c.Difficulties[k] = v
	}
	c.Achievements = slices.Clone(s.Achievements)
	c.AppliedTokens = slices.Clone(s.AppliedTokens)
	return &c
}

// Accuracy returns the lifetime ratio of correct answers.
func (s *ProgressionStats) Accuracy() float64 {
	if s.TotalQuestionsAnswered == 0 {
		return 0
	}
	return float64(s.TotalCorrectAnswers) / float64(s.TotalQuestionsAnswered)
}

// HasApplied reports whether a completion token was already merged.
func (s *ProgressionStats) HasApplied(token string) bool {
	return slices.Contains(s.AppliedTokens, token)
}

// HasAchievement reports whether an achievement is already unlocked.
func (s *ProgressionStats) HasAchievement(id string) bool {
	return slices.Contains(s.Achievements, id)
}

// Apply adds the counters of a session summary and records its token.
// The level is derived separately by the caller.
func (s *ProgressionStats) Apply(summary SessionSummary) {
	if s.Categories == nil {
		s.Categories = make(map[Category]Tally)
	}
	if s.Difficulties == nil {
		s.Difficulties = make(map[Difficulty]Tally)
	}

	s.TotalPoints += summary.Score
	s.TotalGamesPlayed++
	s.TotalQuestionsAnswered += len(summary.Results)
	s.BestStreakEver = max(s.BestStreakEver, summary.BestStreak)
	s.TotalTimeSpentSeconds += int64(summary.Duration() / time.Second)

	for _, r := range summary.Results {
		cat := s.Categories[r.Category]
		diff := s.Difficulties[r.Difficulty]
		cat.Played++
		diff.Played++
		if r.IsCorrect {
			s.TotalCorrectAnswers++
			cat.Correct++
			diff.Correct++
		}
		s.Categories[r.Category] = cat
		s.Difficulties[r.Difficulty] = diff
	}

	s.AppliedTokens = append(s.AppliedTokens, summary.Token)
	if n := len(s.AppliedTokens); n > MaxAppliedTokens {
		s.AppliedTokens = slices.Clone(s.AppliedTokens[n-MaxAppliedTokens:])
	}
}

// Unlock appends achievement ids that are not yet unlocked.
func (s *ProgressionStats) Unlock(ids ...string) {
	for _, id := range ids {
		if !s.HasAchievement(id) {
			s.Achievements = append(s.Achievements, id)
		}
	}
}
