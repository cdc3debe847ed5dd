package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper remembers event ids in Redis for a fixed window.
type RedisDeduper struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisDeduper(rdb *redis.Client, window time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, window: window}
}

// NewRedisClient connects to addr (host:port or a redis:// URL).
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr, DB: 0}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func dedupKey(pixelID, eventID string) string {
	return fmt.Sprintf("pixel:dedup:%s:%s", pixelID, eventID)
}

func (d *RedisDeduper) Claim(ctx context.Context, pixelID, eventID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, dedupKey(pixelID, eventID), time.Now().Unix(), d.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, pixelID, eventID string) error {
	if err := d.rdb.Del(ctx, dedupKey(pixelID, eventID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
