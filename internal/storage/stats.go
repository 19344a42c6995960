package storage

import (
	"context"
	"sync"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// StatsStorage keeps progression stats in memory.
type StatsStorage struct {
	mu    sync.RWMutex
	stats map[int64]*entities.ProgressionStats
}

// NewStatsStorage creates a new StatsStorage.
func NewStatsStorage() *StatsStorage {
	return &StatsStorage{
		stats: make(map[int64]*entities.ProgressionStats),
	}
}

// Load returns a copy of the stored stats, or zero stats for an unknown user.
func (s *StatsStorage) Load(_ context.Context, userID int64) (*entities.ProgressionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.stats[userID]
	if !ok {
		return entities.NewProgressionStats(userID), nil
	}
	return stored.Clone(), nil
}

// Save stores stats if nobody saved since they were loaded.
func (s *StatsStorage) Save(_ context.Context, stats *entities.ProgressionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int64
	if stored, ok := s.stats[stats.UserID]; ok {
		version = stored.Version
	}
	if version != stats.Version {
		return entities.ErrStatsConflict
	}

	stats.Version++
	s.stats[stats.UserID] = stats.Clone()
	return nil
}
