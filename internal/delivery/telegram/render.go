package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/service"
)

// renderStats renders the lifetime stats of a user.
func renderStats(stats *entities.ProgressionStats) string {
	if stats.TotalGamesPlayed == 0 {
		return "📊 You have not finished a quiz yet. Send /quiz to play."
	}

	level := service.LevelInfo(stats.CurrentLevel)

	var b strings.Builder
	b.WriteString("📊 <b>Your stats</b>\n\n")
	fmt.Fprintf(&b, "⭐ Level %d · %s\n", level.Number, level.Title)
	if next := service.PointsToNextLevel(stats.TotalPoints); next > 0 {
		fmt.Fprintf(&b, "%s %d points to the next level\n", buildProgressBar(stats.TotalPoints, stats.TotalPoints+next, 10), next)
	}
	fmt.Fprintf(&b, "\nPoints: %d\n", stats.TotalPoints)
	fmt.Fprintf(&b, "Quizzes: %d\n", stats.TotalGamesPlayed)
	fmt.Fprintf(&b, "Correct: %d/%d (%.1f%%)\n", stats.TotalCorrectAnswers, stats.TotalQuestionsAnswered, stats.Accuracy()*100)
	fmt.Fprintf(&b, "Best streak: %d\n", stats.BestStreakEver)
	fmt.Fprintf(&b, "Time played: %s\n", (time.Duration(stats.TotalTimeSpentSeconds) * time.Second).String())

	var lines []string
	for _, c := range entities.Categories {
		t, ok := stats.Categories[c]
		if !ok || t.Played == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d/%d", categoryTitle(c), t.Correct, t.Played))
	}
	if len(lines) > 0 {
		b.WriteString("\n<b>By category</b>\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	lines = lines[:0]
	for _, d := range entities.Difficulties {
		t, ok := stats.Difficulties[d]
		if !ok || t.Played == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d/%d", d, t.Correct, t.Played))
	}
	if len(lines) > 0 {
		b.WriteString("\n<b>By difficulty</b>\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}

// renderAchievements lists the catalog, unlocked entries first.
func renderAchievements(stats *entities.ProgressionStats, catalog []entities.Achievement) string {
	var unlocked, locked []string
	for _, a := range catalog {
		line := fmt.Sprintf("<b>%s</b> — %s", esc(a.Title), esc(a.Description))
		if stats.HasAchievement(a.ID) {
			unlocked = append(unlocked, "🏆 "+line)
		} else {
			locked = append(locked, "🔒 "+line)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Achievements</b> (%d/%d)\n\n", len(unlocked), len(catalog))
	for _, l := range append(unlocked, locked...) {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// buildProgressBar draws current/total as a bar of width cells.
func buildProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min(max(current*width/total, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
