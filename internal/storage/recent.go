package storage

import (
	"context"
	"slices"
	"sync"
)

// DefaultRecentCapacity is the number of served ids kept per user.
const DefaultRecentCapacity = 100

// RecentStorage is an in-memory history of question ids served to each user.
type RecentStorage struct {
	mu       sync.RWMutex
	capacity int
	served   map[int64][]string // most recently served first
}

// NewRecentStorage creates a new RecentStorage keeping up to capacity ids per user.
func NewRecentStorage(capacity int) *RecentStorage {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &RecentStorage{
		capacity: capacity,
		served:   make(map[int64][]string),
	}
}

// Recent returns served ids, most recently served first.
func (s *RecentStorage) Recent(_ context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.served[userID]), nil
}

// Remember records ids served in one session. The last id becomes the most recent.
// An id served again moves to the front.
func (s *RecentStorage) Remember(_ context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, s.capacity)
	seen := make(map[string]struct{}, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if _, ok := seen[ids[i]]; ok {
			continue
		}
		seen[ids[i]] = struct{}{}
		next = append(next, ids[i])
	}
	for _, id := range s.served[userID] {
		if _, ok := seen[id]; ok {
			continue
		}
		next = append(next, id)
	}

	if len(next) > s.capacity {
		next = next[:s.capacity]
	}
	s.served[userID] = next
	return nil
}
