package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts attempts per subject in a sliding window kept as a
// sorted set of attempt timestamps.
type AttemptLimiter struct {
	client *redis.Client
	cfg    config.RateConfig
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

func NewAttemptLimiter(client *redis.Client, cfg config.RateConfig, prefix string) *AttemptLimiter {
	return &AttemptLimiter{
		client: client,
		cfg:    cfg,
		prefix: prefix,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// WithClock replaces the limiter's time source.
func (l *AttemptLimiter) WithClock(now func() time.Time) *AttemptLimiter {
	l.now = now
	return l
}

// Allow records an attempt for subject. Returns isAllowed, attempts left,
// seconds to wait, error.
func (l *AttemptLimiter) Allow(ctx context.Context, subject string) (bool, int, int, error) {

	key := fmt.Sprintf("%s:%s", l.prefix, subject)

	now := l.now()
	window := int64(l.cfg.WindowSize.Seconds())

	// only attempts after windowStart are counted
	windowStart := now.Unix() - window

	pipe := l.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	// nanosecond member so attempts inside the same second are all counted
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, l.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("Redis pipeline execution failed for attempt limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for attempt limit check: %w", err)
	}

	attempts := count.Val()
	remaining := l.cfg.MaxAttempts - attempts

	if attempts > l.cfg.MaxAttempts {

		scores, err := l.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		}).Result()
		if err != nil || len(scores) == 0 {
			l.logger.Error("Failed to get oldest attempt time", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(window), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldest := int64(scores[0].Score)
		retryAfter := max(oldest+window-now.Unix(), 0)

		l.logger.Warn("Attempt limit exceeded", slog.String("subject", subject), slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	return true, int(remaining), 0, nil
}
