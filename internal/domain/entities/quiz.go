package entities

import "time"

// DefaultTimePerQuestion is the per-question countdown used when none is configured.
const DefaultTimePerQuestion = 30

// QuizConfig holds the parameters of a single session.
// It is fixed once the session starts.
type QuizConfig struct {
	QuestionCount          int        // number of questions requested
	TimePerQuestionSeconds int        // countdown length for each question
	Category               Category   // optional category filter
	Difficulty             Difficulty // optional difficulty filter
}

// NewQuizConfig creates a config with the default countdown.
func NewQuizConfig(questionCount int) QuizConfig {
	return QuizConfig{
		QuestionCount:          questionCount,
		TimePerQuestionSeconds: DefaultTimePerQuestion,
	}
}

// Filter returns the pool filter described by the config.
func (c QuizConfig) Filter() QuestionFilter {
	return QuestionFilter{Category: c.Category, Difficulty: c.Difficulty}
}

// TimeLimit returns the per-question countdown as a duration.
func (c QuizConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimePerQuestionSeconds) * time.Second
}

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"      // no session running
	StatusActive    SessionStatus = "active"    // current question accepts an answer
	StatusRevealing SessionStatus = "revealing" // answer locked, result shown
	StatusCompleted SessionStatus = "completed" // all questions answered, not yet committed
)

// QuestionResult records the single accepted answer event of a question.
type QuestionResult struct {
	QuestionID     string
	Category       Category
	Difficulty     Difficulty
	SelectedIndex  int // NoAnswer when the timer expired
	IsCorrect      bool
	PointsAwarded  int
	ElapsedSeconds int // seconds since the question was shown
}

// TimedOut reports whether the question expired without an answer.
func (r QuestionResult) TimedOut() bool {
	return r.SelectedIndex == NoAnswer
}

// SessionSummary is the outcome of a completed session handed to progression.
type SessionSummary struct {
	Token       string // completion token, unique per session
	UserID      int64
	Results     []QuestionResult
	Score       int
	Correct     int
	Total       int
	Accuracy    float64 // Correct / Total, 0 when Total is 0
	BestStreak  int
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewSessionSummary builds a summary from the recorded results.
func NewSessionSummary(token string, userID int64, results []QuestionResult, bestStreak int, startedAt, completedAt time.Time) SessionSummary {
	s := SessionSummary{
		Token:       token,
		UserID:      userID,
		Results:     append([]QuestionResult(nil), results...),
		Total:       len(results),
		BestStreak:  bestStreak,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}

	for _, r := range results {
		s.Score += r.PointsAwarded
		if r.IsCorrect {
			s.Correct++
		}
	}
	if s.Total > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Total)
	}

	return s
}

// Duration returns the wall-clock length of the session.
func (s SessionSummary) Duration() time.Duration {
	if s.CompletedAt.Before(s.StartedAt) {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Progress describes how far a session has advanced.
type Progress struct {
	Current    int     // 1-based number of the current question, 0 when idle
	Total      int     // number of questions in the session
	Percentage float64 // Current / Total * 100
}
