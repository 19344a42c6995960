package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recentKeyPrefix = "quiz:recent:"

// RecentRepository keeps the recently served question ids of each user
// in a Redis list, most recent at the head.
type RecentRepository struct {
	client   redis.Cmdable
	capacity int64
	ttl      time.Duration
}

// NewRecentRepository creates a new RecentRepository.
// A zero ttl keeps the lists forever.
func NewRecentRepository(client redis.Cmdable, capacity int, ttl time.Duration) *RecentRepository {
	if capacity <= 0 {
		capacity = 100
	}
	return &RecentRepository{
		client:   client,
		capacity: int64(capacity),
		ttl:      ttl,
	}
}

func recentKey(userID int64) string {
	return fmt.Sprintf("%s%d", recentKeyPrefix, userID)
}

// Recent returns served ids, most recently served first.
// A missing key yields an empty history.
func (r *RecentRepository) Recent(ctx context.Context, userID int64) ([]string, error) {
	ids, err := r.client.LRange(ctx, recentKey(userID), 0, r.capacity-1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get recent questions: %w", err)
	}
	return ids, nil
}

// Remember pushes ids to the head of the history. An id served again
// moves to the head instead of being duplicated.
func (r *RecentRepository) Remember(ctx context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	key := recentKey(userID)
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.LRem(ctx, key, 0, id)
		}
		pipe.LPush(ctx, key, values...)
		pipe.LTrim(ctx, key, 0, r.capacity-1)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remember questions: %w", err)
	}
	return nil
}
