package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/service"
)

// quizObserver renders the events of a session into chatID.
func (h *Handler) quizObserver(ctx context.Context, chatID int64, session *service.Session) service.Observer {
	return func(ev service.Event) {
		switch ev.Type {
		case service.EventQuestion:
			msg := newHTMLMessage(chatID, formatQuestion(ev))
			msg.ReplyMarkup = buildAnswerKeyboard(ev.Index, ev.Question)
			h.send(msg)

		case service.EventAnswered:
			h.send(newHTMLMessage(chatID, formatReveal(ev)))
			h.scheduleAdvance(session)

		case service.EventCompleted:
			h.commit(ctx, chatID, session)

		case service.EventCommitted:
			msg := newHTMLMessage(chatID, formatSummary(*ev.Summary, ev.Merge, h.progression.Catalog()))
			msg.ReplyMarkup = buildQuizResultKeyboard()
			h.send(msg)
		}
	}
}

// scheduleAdvance shows the next question once the reveal delay has passed.
func (h *Handler) scheduleAdvance(session *service.Session) {
	advance := func() {
		if err := session.Advance(); err != nil {
			// The session was stopped or replaced meanwhile.
			h.logger.Debug("skip advance", zap.Int64("user_id", session.UserID()), zap.Error(err))
		}
	}

	if h.settings.RevealDelay <= 0 {
		advance()
		return
	}
	h.afterFunc(h.settings.RevealDelay, advance)
}

// commit merges a completed session. On failure the user can retry.
func (h *Handler) commit(ctx context.Context, chatID int64, session *service.Session) {
	_, err := session.Complete(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDuplicateCompletion):
		h.send(newHTMLMessage(chatID, msgAlreadySaved))
	case errors.Is(err, service.ErrCommitInProgress):
		h.send(newHTMLMessage(chatID, msgSaveInProgress))
	case errors.Is(err, service.ErrPersistence):
		msg := newHTMLMessage(chatID, msgSaveFailed)
		msg.ReplyMarkup = buildRetryKeyboard()
		h.send(msg)
	case errors.Is(err, service.ErrInvalidTransition):
		h.send(newHTMLMessage(chatID, msgNothingToSave))
	default:
		h.logger.Error("failed to complete quiz",
			zap.Int64("user_id", session.UserID()),
			zap.String("token", session.Token()),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
	}
}
