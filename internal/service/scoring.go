package service

import "github.com/aliskhannn/quiz-engine/internal/domain/entities"

const (
	// BasePoints is awarded for every correct answer.
	BasePoints = 100
	// MaxTimeBonus is awarded for a correct answer given with the full countdown left.
	MaxTimeBonus = 50
)

// ComputePoints returns the points for an answer event.
// secondsRemaining is clamped to [0, timeLimitSeconds] to tolerate clock skew.
func ComputePoints(isCorrect bool, secondsRemaining, timeLimitSeconds int) int {
	if !isCorrect {
		return 0
	}
	if timeLimitSeconds <= 0 {
		return BasePoints
	}

	remaining := min(max(secondsRemaining, 0), timeLimitSeconds)

	// Integer arithmetic keeps floor((remaining / limit) * 50) exact.
	bonus := remaining * MaxTimeBonus / timeLimitSeconds

	return BasePoints + min(max(bonus, 0), MaxTimeBonus)
}

// ComputeLevel maps a cumulative point total to its level number.
// The result never decreases as totalPoints grows.
func ComputeLevel(totalPoints int) int {
	level := entities.Levels[0].Number
	for _, l := range entities.Levels {
		if totalPoints < l.MinPoints {
			break
		}
		level = l.Number
	}
	return level
}

// LevelInfo returns the tier for a level number, clamped to the known range.
func LevelInfo(level int) entities.Level {
	for _, l := range entities.Levels {
		if l.Number == level {
			return l
		}
	}
	if level > entities.MaxLevel {
		return entities.Levels[len(entities.Levels)-1]
	}
	return entities.Levels[0]
}

// PointsToNextLevel returns how many points are missing for the next tier.
// It returns 0 at the top tier.
func PointsToNextLevel(totalPoints int) int {
	for _, l := range entities.Levels {
		if totalPoints < l.MinPoints {
			return l.MinPoints - totalPoints
		}
	}
	return 0
}
