package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventRateLimiter throttles activity-event ingestion per user via a Redis
// SetNX lock. With no Redis configured everything is allowed through.
type EventRateLimiter struct {
	rdb    *redis.Client
	window time.Duration
}

func NewEventRateLimiter(rdb *redis.Client, window time.Duration) *EventRateLimiter {
	return &EventRateLimiter{rdb: rdb, window: window}
}

// Allow reports whether the user may submit another event right now.
func (l *EventRateLimiter) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	if l.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:events:%s", userID.String())
	wasSet, err := l.rdb.SetNX(ctx, key, "locked", l.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}
