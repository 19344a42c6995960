package sqlite

import "github.com/aliskhannn/quiz-engine/internal/domain/entities"

func sampleStats(userID int64) *entities.ProgressionStats {
	stats := entities.NewProgressionStats(userID)
	stats.TotalPoints = 500
	stats.TotalGamesPlayed = 1
	return stats
}
