package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vodhub/internal/config"
)

// ProgressCache stores per-video processing progress in Redis. Progress is
// a heuristic for pollers; losing it is harmless, so entries carry a TTL
// and a cache miss just reads as zero.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache connects to Redis and verifies the connection.
func NewProgressCache(cfg config.RedisConfig, ttl time.Duration) (*ProgressCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ProgressCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *ProgressCache) Close() error {
	return c.client.Close()
}

func progressKey(videoID string) string {
	return "progress:" + videoID
}

// SetProgress records the percentage (0-100) for a video.
func (c *ProgressCache) SetProgress(ctx context.Context, videoID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return c.client.Set(ctx, progressKey(videoID), percent, c.ttl).Err()
}

// GetProgress returns the recorded percentage, or 0 when nothing is known.
func (c *ProgressCache) GetProgress(ctx context.Context, videoID string) (int, error) {
	v, err := c.client.Get(ctx, progressKey(videoID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read progress: %w", err)
	}
	return v, nil
}

// Clear drops the progress entry for a video.
func (c *ProgressCache) Clear(ctx context.Context, videoID string) error {
	return c.client.Del(ctx, progressKey(videoID)).Err()
}
