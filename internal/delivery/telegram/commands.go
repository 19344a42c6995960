package telegram

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/service"
)

// quizHandler starts a quiz. args may name a category.
func (h *Handler) quizHandler(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		category := entities.Category(strings.ToLower(strings.TrimSpace(args)))
		if category != "" && !category.Valid() {
			h.send(newHTMLMessage(chatID, formatUnknownCategory(args)))
			return nil
		}
		return h.startQuiz(ctx, chatID, userID, category)
	}
}

// startQuiz replaces the user's session with a fresh one and shows the first question.
func (h *Handler) startQuiz(ctx context.Context, chatID, userID int64, category entities.Category) error {
	session := service.NewSession(userID, h.selector,
		service.WithCommitter(h.progression),
		service.WithSessionLogger(h.logger),
	)
	countdown := service.NewCountdown(session, h.logger)
	countdown.Attach(session)
	session.Subscribe(h.quizObserver(ctx, chatID, session))

	h.sessions.Store(userID, session)

	cfg := entities.QuizConfig{
		QuestionCount:          h.settings.QuestionCount,
		TimePerQuestionSeconds: h.settings.TimePerQuestion,
		Category:               category,
	}

	err := session.Start(ctx, cfg)

	var short *service.InsufficientPoolError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &short):
		h.send(newHTMLMessage(chatID, formatInsufficientPool(short)))
		return nil
	case errors.Is(err, service.ErrEmptyPool):
		h.sessions.Delete(userID)
		h.send(newHTMLMessage(chatID, msgNoQuestions))
		return nil
	default:
		h.sessions.Delete(userID)
		return err
	}
}

// stopQuiz abandons the running quiz without touching stats.
func (h *Handler) stopQuiz(chatID, userID int64) {
	session, ok := h.sessions.Get(userID)
	if !ok || session.Status() == entities.StatusIdle {
		h.send(newHTMLMessage(chatID, msgNoActiveQuiz))
		return
	}

	h.sessions.Delete(userID)
	h.logger.Info("quiz stopped by user", zap.Int64("user_id", userID))
	h.send(newHTMLMessage(chatID, msgQuizStopped))
}

func (h *Handler) statsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		stats, err := h.progression.Stats(ctx, userID)
		if err != nil {
			return err
		}
		h.send(newHTMLMessage(chatID, renderStats(stats)))
		return nil
	}
}

func (h *Handler) achievementsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		stats, err := h.progression.Stats(ctx, userID)
		if err != nil {
			return err
		}
		h.send(newHTMLMessage(chatID, renderAchievements(stats, h.progression.Catalog())))
		return nil
	}
}
