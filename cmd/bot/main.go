package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/quiz-engine/internal/config"
	"github.com/aliskhannn/quiz-engine/internal/delivery/telegram"
	"github.com/aliskhannn/quiz-engine/internal/infra/cache"
	"github.com/aliskhannn/quiz-engine/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/quiz-engine/internal/infra/postgres/repository"
	"github.com/aliskhannn/quiz-engine/internal/infra/sqlite"
	"github.com/aliskhannn/quiz-engine/internal/logger"
	"github.com/aliskhannn/quiz-engine/internal/repository"
	"github.com/aliskhannn/quiz-engine/internal/service"
	"github.com/aliskhannn/quiz-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}

	lg.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	questions, err := repository.NewQuestionRepository(cfg.QuestionsPath)
	if err != nil {
		return err
	}
	lg.Info("question bank loaded",
		zap.String("path", cfg.QuestionsPath),
		zap.Int("questions", questions.Len()),
	)

	statsStore, closeStats, err := newStatsStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStats()

	recent, closeRecent, err := newRecentStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeRecent()

	progression := service.NewProgressionService(statsStore, service.DefaultAchievements, lg)
	selector := service.NewQuestionSelector(questions, recent, progression, lg,
		service.WithRecentWindow(cfg.Quiz.RecentWindow),
	)

	sessions := storage.NewSessionStorage()
	janitor := service.NewSessionJanitor(sessions, cfg.Quiz.SessionIdleTTL, cfg.Quiz.SweepSchedule, lg)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env == "local"
	lg.Info("authorized on account", zap.String("username", bot.Self.UserName))

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(telegram.Commands()...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	handler := telegram.NewHandler(bot, lg, selector, progression, sessions, telegram.QuizSettings{
		QuestionCount:   cfg.Quiz.QuestionCount,
		TimePerQuestion: cfg.Quiz.TimePerQuestion,
		RevealDelay:     cfg.Quiz.RevealDelay,
		CategorySizes:   questions.CountByCategory(),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return janitor.Start(ctx) })
	g.Go(func() error { return handler.Run(ctx) })

	return g.Wait()
}

// newStatsStore builds the progression stats backend selected in cfg.
func newStatsStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (service.StatsStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, err
		}

		if cfg.DB.Migrate {
			if err := postgres.Migrate(dsn, lg); err != nil {
				return nil, nil, err
			}
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		lg.Info("using postgres stats storage")
		return pgrepo.NewStatsRepository(pool, postgres.NewTransactor(pool)), pool.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.NewStatsStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		lg.Info("using sqlite stats storage", zap.String("path", cfg.Storage.SQLitePath))
		return store, func() { _ = store.Close() }, nil

	default:
		lg.Warn("using in-memory stats storage, progress is lost on restart")
		return storage.NewStatsStorage(), func() {}, nil
	}
}

// newRecentStore builds the recently-served history backend selected in cfg.
func newRecentStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (service.RecentServedStore, func(), error) {
	if cfg.Recent.Driver != config.DriverRedis {
		return storage.NewRecentStorage(cfg.Quiz.RecentCapacity), func() {}, nil
	}

	client, err := cache.NewClient(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	lg.Info("using redis recent storage", zap.String("addr", cfg.Redis.Addr))

	return cache.NewRecentRepository(client, cfg.Quiz.RecentCapacity, cfg.Redis.TTL), func() { _ = client.Close() }, nil
}
