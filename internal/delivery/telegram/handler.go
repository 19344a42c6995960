package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/service"
)

// Bot is the part of *tgbotapi.BotAPI the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// SessionStore holds the live session of every user.
type SessionStore interface {
	Get(userID int64) (*service.Session, bool)
	Store(userID int64, session *service.Session)
	Delete(userID int64)
}

// ProgressionService merges finished sessions and reports stats.
type ProgressionService interface {
	service.SessionCommitter
	Stats(ctx context.Context, userID int64) (*entities.ProgressionStats, error)
	Catalog() []entities.Achievement
}

// QuizSettings are the defaults of sessions started from the chat.
type QuizSettings struct {
	QuestionCount   int
	TimePerQuestion int // seconds
	RevealDelay     time.Duration
	// CategorySizes is the number of questions per category; nil shows every category.
	CategorySizes   map[entities.Category]int
}

type Handler struct {
	bot         Bot
	logger      *zap.Logger
	selector    service.Selector
	progression ProgressionService
	sessions    SessionStore
	settings    QuizSettings

	// afterFunc schedules the move to the next question; tests replace it.
	afterFunc func(d time.Duration, f func())
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	selector service.Selector,
	progression ProgressionService,
	sessions SessionStore,
	settings QuizSettings,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		selector:    selector,
		progression: progression,
		sessions:    sessions,
		settings:    settings,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Commands lists the bot commands for the Telegram menu.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "quiz", Description: "Start a quiz (usage: /quiz [category])"},
		{Command: "stop", Description: "Stop the current quiz"},
		{Command: "stats", Description: "Show your stats"},
		{Command: "achievements", Description: "Show achievements"},
		{Command: "help", Description: "Help"},
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !update.Message.IsCommand() {
		h.send(newHTMLMessage(chatID, msgUseCommands))
		return
	}

	switch update.Message.Command() {
	case "start":
		msg := newHTMLMessage(chatID, msgWelcome)
		msg.ReplyMarkup = buildStartKeyboard(h.settings.CategorySizes)
		h.send(msg)

	case "help":
		h.send(newHTMLMessage(chatID, msgHelp))

	case "quiz":
		_ = h.withErrorHandling(h.quizHandler(userID, update.Message.CommandArguments()))(ctx, chatID)

	case "stop":
		h.stopQuiz(chatID, userID)

	case "stats":
		_ = h.withErrorHandling(h.statsHandler(userID))(ctx, chatID)

	case "achievements":
		_ = h.withErrorHandling(h.achievementsHandler(userID))(ctx, chatID)

	default:
		h.send(newHTMLMessage(chatID, msgUnknownCommand))
	}
}

func (h *Handler) sendError(chatID int64, err string) {
	h.send(newHTMLMessage(chatID, err))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}

// answerCallback removes the loading indicator, optionally showing text.
func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Debug("failed to answer callback", zap.Error(err))
	}
}
