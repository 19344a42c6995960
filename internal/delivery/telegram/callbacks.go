package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	data := decodeCallback(cb.Data)
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	switch data.Action {
	case actionAnswer:
		h.handleAnswerCallback(cb, data)
		return

	case actionQuiz:
		h.answerCallback(cb.ID, "")
		h.handleQuizCallback(ctx, cb, data)

	case actionStats:
		h.answerCallback(cb.ID, "")
		_ = h.withErrorHandling(h.statsHandler(userID))(ctx, chatID)

	case actionAchievements:
		h.answerCallback(cb.ID, "")
		_ = h.withErrorHandling(h.achievementsHandler(userID))(ctx, chatID)

	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
		h.answerCallback(cb.ID, msgInvalidCallback)
	}
}

// handleAnswerCallback submits the option pressed on a question keyboard.
func (h *Handler) handleAnswerCallback(cb *tgbotapi.CallbackQuery, data callbackData) {
	index, ok1 := data.intParam(0)
	option, ok2 := data.intParam(1)
	if !ok1 || !ok2 {
		h.answerCallback(cb.ID, msgInvalidCallback)
		return
	}

	session, ok := h.sessions.Get(cb.From.ID)
	if !ok {
		h.answerCallback(cb.ID, msgTooLate)
		return
	}

	err := session.SubmitAnswerAt(index, option)
	switch {
	case err == nil:
		h.answerCallback(cb.ID, "")
		h.send(removeKeyboard(cb.Message.Chat.ID, cb.Message.MessageID))
	case errors.Is(err, service.ErrInvalidTransition):
		h.answerCallback(cb.ID, msgTooLate)
	case errors.Is(err, service.ErrInvalidOption):
		h.answerCallback(cb.ID, msgInvalidCallback)
	default:
		h.logger.Error("failed to submit answer", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		h.answerCallback(cb.ID, msgInternalError)
	}
}

func (h *Handler) handleQuizCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) {
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	switch data.param(0) {
	case quizStart:
		_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
			return h.startQuiz(ctx, chatID, userID, "")
		})(ctx, chatID)

	case quizCategory:
		category := entities.Category(data.param(1))
		if !category.Valid() {
			h.send(newHTMLMessage(chatID, formatUnknownCategory(data.param(1))))
			return
		}
		_ = h.withErrorHandling(func(ctx context.Context, chatID int64) error {
			return h.startQuiz(ctx, chatID, userID, category)
		})(ctx, chatID)

	case quizRetry:
		session, ok := h.sessions.Get(userID)
		if !ok {
			h.send(newHTMLMessage(chatID, msgNothingToSave))
			return
		}
		h.send(removeKeyboard(chatID, cb.Message.MessageID))
		h.commit(ctx, chatID, session)

	default:
		h.logger.Debug("unknown quiz callback", zap.String("data", cb.Data))
	}
}
