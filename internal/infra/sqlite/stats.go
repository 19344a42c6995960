package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_stats (
    user_id INTEGER PRIMARY KEY,
    total_points INTEGER NOT NULL DEFAULT 0,
    total_games_played INTEGER NOT NULL DEFAULT 0,
    total_questions_answered INTEGER NOT NULL DEFAULT 0,
    total_correct_answers INTEGER NOT NULL DEFAULT 0,
    best_streak_ever INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    categories TEXT NOT NULL DEFAULT '{}',
    difficulties TEXT NOT NULL DEFAULT '{}',
    total_time_spent_seconds INTEGER NOT NULL DEFAULT 0,
    achievements TEXT NOT NULL DEFAULT '[]',
    applied_tokens TEXT NOT NULL DEFAULT '[]',
    version INTEGER NOT NULL DEFAULT 1,
    updated_at_unix INTEGER NOT NULL
);
`

// StatsStore keeps progression stats in a local SQLite database.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore opens the database at path and creates the schema.
// Use ":memory:" for a throwaway database.
func NewStatsStore(path string) (*StatsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &StatsStore{db: db}, nil
}

// Close closes the database.
func (s *StatsStore) Close() error {
	return s.db.Close()
}

type statsRow struct {
	categories    string
	difficulties  string
	achievements  string
	appliedTokens string
	updatedAt     int64
}

// Load returns the stats of a user, or zero stats if none are stored.
func (s *StatsStore) Load(ctx context.Context, userID int64) (*entities.ProgressionStats, error) {
	stats := entities.NewProgressionStats(userID)
	var row statsRow

	err := s.db.QueryRowContext(ctx, `
		SELECT total_points, total_games_played, total_questions_answered,
		       total_correct_answers, best_streak_ever, current_level,
		       categories, difficulties, total_time_spent_seconds,
		       achievements, applied_tokens, version, updated_at_unix
		FROM user_stats WHERE user_id = ?`, userID,
	).Scan(
		&stats.TotalPoints,
		&stats.TotalGamesPlayed,
		&stats.TotalQuestionsAnswered,
		&stats.TotalCorrectAnswers,
		&stats.BestStreakEver,
		&stats.CurrentLevel,
		&row.categories,
		&row.difficulties,
		&stats.TotalTimeSpentSeconds,
		&row.achievements,
		&row.appliedTokens,
		&stats.Version,
		&row.updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	if err := row.decode(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r statsRow) decode(stats *entities.ProgressionStats) error {
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"categories", r.categories, &stats.Categories},
		{"difficulties", r.difficulties, &stats.Difficulties},
		{"achievements", r.achievements, &stats.Achievements},
		{"applied_tokens", r.appliedTokens, &stats.AppliedTokens},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	stats.UpdatedAt = time.Unix(r.updatedAt, 0).UTC()
	return nil
}

func encodeStats(stats *entities.ProgressionStats) (statsRow, error) {
	var row statsRow
	fields := []struct {
		name string
		src  any
		dst  *string
	}{
		{"categories", stats.Categories, &row.categories},
		{"difficulties", stats.Difficulties, &row.difficulties},
		{"achievements", nonNil(stats.Achievements), &row.achievements},
		{"applied_tokens", nonNil(stats.AppliedTokens), &row.appliedTokens},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return statsRow{}, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = string(b)
	}
	row.updatedAt = stats.UpdatedAt.Unix()
	return row, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Save writes stats if the stored version still equals stats.Version.
func (s *StatsStore) Save(ctx context.Context, stats *entities.ProgressionStats) error {
	row, err := encodeStats(stats)
	if err != nil {
		return err
	}

	var res sql.Result
	if stats.Version == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO user_stats (
				user_id, total_points, total_games_played, total_questions_answered,
				total_correct_answers, best_streak_ever, current_level,
				categories, difficulties, total_time_spent_seconds,
				achievements, applied_tokens, version, updated_at_unix
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
			ON CONFLICT (user_id) DO NOTHING`,
			stats.UserID,
			stats.TotalPoints,
			stats.TotalGamesPlayed,
			stats.TotalQuestionsAnswered,
			stats.TotalCorrectAnswers,
			stats.BestStreakEver,
			stats.CurrentLevel,
			row.categories,
			row.difficulties,
			stats.TotalTimeSpentSeconds,
			row.achievements,
			row.appliedTokens,
			row.updatedAt,
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE user_stats SET
				total_points = ?, total_games_played = ?, total_questions_answered = ?,
				total_correct_answers = ?, best_streak_ever = ?, current_level = ?,
				categories = ?, difficulties = ?, total_time_spent_seconds = ?,
				achievements = ?, applied_tokens = ?, updated_at_unix = ?,
				version = version + 1
			WHERE user_id = ? AND version = ?`,
			stats.TotalPoints,
			stats.TotalGamesPlayed,
			stats.TotalQuestionsAnswered,
			stats.TotalCorrectAnswers,
			stats.BestStreakEver,
			stats.CurrentLevel,
			row.categories,
			row.difficulties,
			stats.TotalTimeSpentSeconds,
			row.achievements,
			row.appliedTokens,
			row.updatedAt,
			stats.UserID,
			stats.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if affected == 0 {
		return entities.ErrStatsConflict
	}

	stats.Version++
	return nil
}
