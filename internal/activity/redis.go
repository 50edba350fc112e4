package activity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gravel:last_seen:"

// RedisTracker implements Tracker using Redis, letting activity history
// survive a single node's restart and be shared across a cluster. This
// is bookkeeping only; the aggregated metric state itself is never
// written here.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to the given Redis URL (redis:// or rediss://)
// and verifies connectivity before returning.
func NewRedisTracker(url string) (*RedisTracker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("activity: parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("activity: connecting to redis: %w", err)
	}

	return &RedisTracker{client: client}, nil
}

func (r *RedisTracker) Touch(ctx context.Context, key string, t time.Time) error {
	val := strconv.FormatInt(t.Unix(), 10)
	if err := r.client.Set(ctx, redisKeyPrefix+key, val, 0).Err(); err != nil {
		return fmt.Errorf("activity: redis SET %s: %w", key, err)
	}
	return nil
}

func (r *RedisTracker) LastSeen(ctx context.Context, key string) (time.Time, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("activity: redis GET %s: %w", key, err)
	}

	epoch, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("activity: parsing stored timestamp for %s: %w", key, err)
	}
	return time.Unix(epoch, 0), nil
}

func (r *RedisTracker) Close() error {
	return r.client.Close()
}
