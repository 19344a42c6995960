// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/service"
)

const (
	msgWelcome = "👋 <b>Welcome to the quiz!</b>\n\n" +
		"Answer multiple-choice questions against the clock. Fast correct answers earn more points, " +
		"streaks and milestones unlock achievements, and your level grows with your total score.\n\n" +
		"Pick a category to begin or send /help."
	msgHelp = "<b>Commands</b>\n\n" +
		"/quiz — start a mixed quiz\n" +
		"/quiz <i>category</i> — quiz on one category\n" +
		"/stop — stop the current quiz (it will not count)\n" +
		"/stats — your stats and level\n" +
		"/achievements — unlocked and locked achievements\n\n" +
		"<b>Scoring</b>: 100 points per correct answer plus up to 50 for speed."
	msgUseCommands     = "Use the buttons or /help to see the commands."
	msgUnknownCommand  = "Unknown command. Send /help for the list of commands."
	msgInternalError   = "Something went wrong. Please try again later."
	msgNoQuestions     = "There are no questions to play right now. Please try again later."
	msgQuizStopped     = "⏹ Quiz stopped. It will not count towards your stats."
	msgNoActiveQuiz    = "You have no quiz running. Send /quiz to start one."
	msgTooLate         = "This question is already closed."
	msgSaveFailed      = "⚠️ Your result could not be saved. Tap the button to try again."
	msgAlreadySaved    = "This quiz is already saved."
	msgSaveInProgress  = "Your result is being saved, please wait."
	msgNothingToSave   = "There is no finished quiz to save."
	msgInvalidCallback = "This button is no longer valid."
)

// newHTMLMessage creates a message with HTML parse mode.
func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

func esc(s string) string {
	return html.EscapeString(s)
}

func categoryTitle(c entities.Category) string {
	switch c {
	case entities.CategoryHistory:
		return "🏛 History"
	case entities.CategoryGeography:
		return "🌍 Geography"
	case entities.CategoryScience:
		return "🔬 Science"
	case entities.CategoryLiterature:
		return "📚 Literature"
	case entities.CategoryArts:
		return "🎨 Arts"
	case entities.CategoryGeneral:
		return "💡 General"
	}
	return string(c)
}

func formatUnknownCategory(arg string) string {
	names := make([]string, 0, len(entities.Categories))
	for _, c := range entities.Categories {
		names = append(names, string(c))
	}
	return fmt.Sprintf("Unknown category %q.\nAvailable: %s", esc(arg), strings.Join(names, ", "))
}

func formatInsufficientPool(err *service.InsufficientPoolError) string {
	return fmt.Sprintf("ℹ️ Only %d of %d questions are available, the quiz is shorter this time.", err.Available, err.Requested)
}

// formatQuestion renders the question shown at ev.Index.
func formatQuestion(ev service.Event) string {
	q := ev.Question
	percent := float64(ev.Index+1) / float64(ev.Total) * 100

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Question %d/%d</b> (%.0f%%)\n", ev.Index+1, ev.Total, percent)
	fmt.Fprintf(&b, "%s · %s · ⏱ %ds\n\n", categoryTitle(q.Category), q.Difficulty, int(ev.TimeLimit/time.Second))
	b.WriteString(esc(q.Prompt))
	return b.String()
}

// formatReveal renders the outcome of an answered or expired question.
func formatReveal(ev service.Event) string {
	q := ev.Question
	r := ev.Result
	correct := fmt.Sprintf("%s. %s", optionLetters[q.CorrectIndex], esc(q.Options[q.CorrectIndex]))

	var b strings.Builder
	switch {
	case r.IsCorrect:
		fmt.Fprintf(&b, "✅ <b>Correct!</b> +%d points", r.PointsAwarded)
	case r.TimedOut():
		fmt.Fprintf(&b, "⌛ <b>Time's up!</b> The answer was %s", correct)
	default:
		fmt.Fprintf(&b, "❌ <b>Wrong.</b> The answer was %s", correct)
	}

	if q.Explanation != "" {
		fmt.Fprintf(&b, "\n\n<i>%s</i>", esc(q.Explanation))
	}
	fmt.Fprintf(&b, "\n\nScore: %d · Streak: %d", ev.Score, ev.Streak)
	return b.String()
}

// formatSummary renders a committed session with its progression changes.
func formatSummary(summary entities.SessionSummary, merge *service.MergeResult, catalog []entities.Achievement) string {
	var b strings.Builder
	b.WriteString("🏁 <b>Quiz finished!</b>\n\n")
	fmt.Fprintf(&b, "Score: <b>%d</b>\n", summary.Score)
	fmt.Fprintf(&b, "Correct: %d/%d (%.0f%%)\n", summary.Correct, summary.Total, summary.Accuracy*100)
	fmt.Fprintf(&b, "Best streak: %d\n", summary.BestStreak)
	fmt.Fprintf(&b, "Time: %s\n", summary.Duration().Round(time.Second))

	if merge == nil {
		return b.String()
	}

	level := service.LevelInfo(merge.Stats.CurrentLevel)
	if merge.LeveledUp() {
		fmt.Fprintf(&b, "\n🎉 <b>Level up!</b> You are now level %d · %s\n", level.Number, level.Title)
	} else {
		fmt.Fprintf(&b, "\n⭐ Level %d · %s\n", level.Number, level.Title)
	}

	if len(merge.Unlocked) > 0 {
		titles := make([]string, 0, len(merge.Unlocked))
		for _, id := range merge.Unlocked {
			if a, ok := service.FindAchievement(catalog, id); ok {
				titles = append(titles, esc(a.Title))
			}
		}
		fmt.Fprintf(&b, "🏆 New achievements: %s\n", strings.Join(titles, ", "))
	}

	return b.String()
}
