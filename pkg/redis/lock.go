package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = goredis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker is a SETNX based distributed lock.
type Locker struct {
	client *goredis.Client
	log    *logger.Logger
}

// NewLocker connects to redisURL and verifies the connection with a ping.
func NewLocker(redisURL string, log *logger.Logger) (*Locker, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Redis connection established")
	return NewLockerWithClient(client, log), nil
}

func NewLockerWithClient(client *goredis.Client, log *logger.Logger) *Locker {
	return &Locker{client: client, log: log.With("component", "RedisLocker")}
}

// Acquire returns true when the lock was taken for token.
func (l *Locker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, token, ttl).Result()
}

// Release frees the lock if it is still held by token.
func (l *Locker) Release(ctx context.Context, key, token string) (bool, error) {
	result, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (l *Locker) Close() error {
	return l.client.Close()
}
