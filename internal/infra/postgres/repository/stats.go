package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
	"github.com/aliskhannn/quiz-engine/internal/infra/postgres"
)

// StatsRepository stores progression stats in PostgreSQL.
type StatsRepository struct {
	db postgres.DBTX
	tx postgres.TxRunner
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db postgres.DBTX, tx postgres.TxRunner) *StatsRepository {
	return &StatsRepository{db: db, tx: tx}
}

// Load returns the stats of a user, or zero stats if none are stored.
// Counters and achievements are read by one statement so they share a snapshot.
func (r *StatsRepository) Load(ctx context.Context, userID int64) (*entities.ProgressionStats, error) {
	query := `
		SELECT s.total_points, s.total_games_played, s.total_questions_answered,
		       s.total_correct_answers, s.best_streak_ever, s.current_level,
		       s.categories, s.difficulties, s.total_time_spent_seconds,
		       s.applied_tokens, s.version, s.updated_at,
		       ARRAY(
		           SELECT a.achievement_id
		           FROM user_achievements a
		           WHERE a.user_id = s.user_id
		           ORDER BY a.position
		       )
		FROM user_stats s
		WHERE s.user_id = $1
	`

	stats := entities.NewProgressionStats(userID)
	var categories, difficulties []byte
	var achievements []string

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalPoints,
		&stats.TotalGamesPlayed,
		&stats.TotalQuestionsAnswered,
		&stats.TotalCorrectAnswers,
		&stats.BestStreakEver,
		&stats.CurrentLevel,
		&categories,
		&difficulties,
		&stats.TotalTimeSpentSeconds,
		&stats.AppliedTokens,
		&stats.Version,
		&stats.UpdatedAt,
		&achievements,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("get stats: %w", err)
	}

	if err := json.Unmarshal(categories, &stats.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if err := json.Unmarshal(difficulties, &stats.Difficulties); err != nil {
		return nil, fmt.Errorf("decode difficulties: %w", err)
	}

	if len(achievements) > 0 {
		stats.Achievements = achievements
	}

	return stats, nil
}

// Save writes stats and their achievements in one transaction.
// It fails with entities.ErrStatsConflict if the stored version moved on.
func (r *StatsRepository) Save(ctx context.Context, stats *entities.ProgressionStats) error {
	categories, err := json.Marshal(stats.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	difficulties, err := json.Marshal(stats.Difficulties)
	if err != nil {
		return fmt.Errorf("encode difficulties: %w", err)
	}

	tokens := stats.AppliedTokens
	if tokens == nil {
		tokens = []string{}
	}

	err = r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var tag pgconn.CommandTag
		var err error

		if stats.Version == 0 {
			tag, err = tx.Exec(ctx, `
				INSERT INTO user_stats (
					user_id, total_points, total_games_played, total_questions_answered,
					total_correct_answers, best_streak_ever, current_level,
					categories, difficulties, total_time_spent_seconds,
					applied_tokens, version, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
				ON CONFLICT (user_id) DO NOTHING
			`,
				stats.UserID,
				stats.TotalPoints,
				stats.TotalGamesPlayed,
				stats.TotalQuestionsAnswered,
				stats.TotalCorrectAnswers,
				stats.BestStreakEver,
				stats.CurrentLevel,
				categories,
				difficulties,
				stats.TotalTimeSpentSeconds,
				tokens,
				stats.UpdatedAt,
			)
		} else {
			tag, err = tx.Exec(ctx, `
				UPDATE user_stats
				SET total_points = $2,
				    total_games_played = $3,
				    total_questions_answered = $4,
				    total_correct_answers = $5,
				    best_streak_ever = $6,
				    current_level = $7,
				    categories = $8,
				    difficulties = $9,
				    total_time_spent_seconds = $10,
				    applied_tokens = $11,
				    updated_at = $12,
				    version = version + 1
				WHERE user_id = $1 AND version = $13
			`,
				stats.UserID,
				stats.TotalPoints,
				stats.TotalGamesPlayed,
				stats.TotalQuestionsAnswered,
				stats.TotalCorrectAnswers,
				stats.BestStreakEver,
				stats.CurrentLevel,
				categories,
				difficulties,
				stats.TotalTimeSpentSeconds,
				tokens,
				stats.UpdatedAt,
				stats.Version,
			)
		}
		if err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return entities.ErrStatsConflict
		}

		if len(stats.Achievements) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, id := range stats.Achievements {
			batch.Queue(`
				INSERT INTO user_achievements (user_id, achievement_id, position, unlocked_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id, achievement_id) DO NOTHING
			`, stats.UserID, id, i, stats.UpdatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save achievements: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	stats.Version++
	return nil
}
