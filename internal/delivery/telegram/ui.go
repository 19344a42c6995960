package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

var optionLetters = [entities.OptionsPerQuestion]string{"A", "B", "C", "D"}

// buildAnswerKeyboard builds one button per option of the question at index.
func buildAnswerKeyboard(index int, q entities.Question) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for i, opt := range q.Options {
		text := fmt.Sprintf("%s. %s", optionLetters[i], opt)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, buildAnswerCallback(index, i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildStartKeyboard offers a mixed quiz or a category.
// With sizes set, empty categories are hidden and the others show their size.
func buildStartKeyboard(sizes map[entities.Category]int) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Mixed quiz", buildQuizStartCallback()),
		),
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, c := range entities.Categories {
		title := categoryTitle(c)
		if sizes != nil {
			if sizes[c] == 0 {
				continue
			}
			title = fmt.Sprintf("%s (%d)", title, sizes[c])
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(title, buildQuizCategoryCallback(string(c))))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildQuizResultKeyboard builds keyboard for quiz results screen.
func buildQuizResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 New quiz", buildQuizStartCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 My stats", buildStatsCallback()),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Achievements", buildAchievementsCallback()),
		),
	)
}

// buildRetryKeyboard offers to save a finished quiz again.
func buildRetryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Try again", buildQuizRetryCallback()),
		),
	)
}

// removeKeyboard edits a message so its buttons disappear.
func removeKeyboard(chatID int64, messageID int) tgbotapi.EditMessageReplyMarkupConfig {
	return tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
}
