package service

import "github.com/aliskhannn/quiz-engine/internal/domain/entities"

// DefaultAchievements is the built-in achievement catalog.
var DefaultAchievements = []entities.Achievement{
	{ID: "first_quiz", Title: "First Steps", Description: "Complete your first quiz", Kind: entities.RequirementTotalPlayed, Value: 1},
	{ID: "quiz_10", Title: "Regular", Description: "Complete 10 quizzes", Kind: entities.RequirementTotalPlayed, Value: 10},
	{ID: "quiz_50", Title: "Devoted", Description: "Complete 50 quizzes", Kind: entities.RequirementTotalPlayed, Value: 50},
	{ID: "correct_10", Title: "Getting There", Description: "Answer 10 questions correctly", Kind: entities.RequirementTotalCorrect, Value: 10},
	{ID: "correct_100", Title: "Century", Description: "Answer 100 questions correctly", Kind: entities.RequirementTotalCorrect, Value: 100},
	{ID: "correct_500", Title: "Scholar", Description: "Answer 500 questions correctly", Kind: entities.RequirementTotalCorrect, Value: 500},
	{ID: "streak_3", Title: "On a Roll", Description: "3 correct answers in a row", Kind: entities.RequirementStreak, Value: 3},
	{ID: "streak_5", Title: "Hot Hand", Description: "5 correct answers in a row", Kind: entities.RequirementStreak, Value: 5},
	{ID: "streak_10", Title: "Unstoppable", Description: "10 correct answers in a row", Kind: entities.RequirementStreak, Value: 10},
	{ID: "accuracy_70", Title: "Sharp", Description: "Keep 70% accuracy over 50 answers", Kind: entities.RequirementAccuracy, Value: 70, MinAnswered: 50},
	{ID: "accuracy_90", Title: "Sharpshooter", Description: "Keep 90% accuracy over 100 answers", Kind: entities.RequirementAccuracy, Value: 90, MinAnswered: 100},
}

// EvaluateAchievements returns the catalog ids newly satisfied by stats, in catalog order.
// Already unlocked ids are never returned, so unlocking is monotonic.
func EvaluateAchievements(stats *entities.ProgressionStats, catalog []entities.Achievement) []string {
	var unlocked []string
	for _, a := range catalog {
		if stats.HasAchievement(a.ID) {
			continue
		}
		if achieved(stats, a) {
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}

func achieved(stats *entities.ProgressionStats, a entities.Achievement) bool {
	switch a.Kind {
	case entities.RequirementTotalPlayed:
		return stats.TotalGamesPlayed >= a.Value
	case entities.RequirementTotalCorrect:
		return stats.TotalCorrectAnswers >= a.Value
	case entities.RequirementStreak:
		return stats.BestStreakEver >= a.Value
	case entities.RequirementAccuracy:
		if stats.TotalQuestionsAnswered == 0 || stats.TotalQuestionsAnswered < a.MinAnswered {
			return false
		}
		// Compare in integers: correct/answered >= value/100.
		return stats.TotalCorrectAnswers*100 >= a.Value*stats.TotalQuestionsAnswered
	default:
		return false
	}
}

// FindAchievement looks up a catalog entry by id.
func FindAchievement(catalog []entities.Achievement, id string) (entities.Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return entities.Achievement{}, false
}
