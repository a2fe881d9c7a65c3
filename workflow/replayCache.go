package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ReplayCache holds committed results by idempotency key. It is only a
// shortcut: a miss always falls through to the in-transaction lookup.
type ReplayCache interface {
	Load(ctx context.Context, key string) (*OperationResult, bool)
	Store(ctx context.Context, key string, result *OperationResult)
}

// KeyLocker serializes concurrent duplicates of one key for a bounded time.
// The returned func releases the lock; it is a no-op when nothing was obtained.
type KeyLocker interface {
	Lock(ctx context.Context, key string) func()
}

type RedisReplayCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedisReplayCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisReplayCache {
	return &RedisReplayCache{client: client, ttl: ttl, logger: logger}
}

func replayCacheKey(key string) string {
	return "LedgerReplay:" + key
}

func (c *RedisReplayCache) Load(ctx context.Context, key string) (*OperationResult, bool) {
	raw, err := c.client.Get(ctx, replayCacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(key, "replay cache read failed: "+err.Error())
		}
		return nil, false
	}
	var result OperationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.warn(key, "replay cache entry unreadable: "+err.Error())
		return nil, false
	}
	return &result, true
}

func (c *RedisReplayCache) Store(ctx context.Context, key string, result *OperationResult) {
	if c.ttl <= 0 || result == nil {
		return
	}
	stored := *result
	stored.Replayed = false
	raw, err := json.Marshal(&stored)
	if err != nil {
		c.warn(key, "replay cache encode failed: "+err.Error())
		return
	}
	if err := c.client.Set(ctx, replayCacheKey(key), raw, c.ttl).Err(); err != nil {
		c.warn(key, "replay cache write failed: "+err.Error())
	}
}

func (c *RedisReplayCache) warn(key string, msg string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"field":           "RedisReplayCache",
		"idempotency_key": key,
	}).Warn(msg)
}

type RedisKeyLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *logrus.Logger
}

// NewRedisKeyLocker waits up to wait for a held key before giving up and
// letting the caller proceed unlocked.
func NewRedisKeyLocker(client *redislock.Client, ttl time.Duration, wait time.Duration, logger *logrus.Logger) *RedisKeyLocker {
	return &RedisKeyLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

func (l *RedisKeyLocker) Lock(ctx context.Context, key string) func() {
	const step = 50 * time.Millisecond
	retries := int(l.wait / step)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(step), retries),
	}
	lock, err := l.client.Obtain(ctx, "lock:ledger:"+key, l.ttl, opts)
	if err != nil {
		msg := "error obtaining redis lock; proceeding without redis lock: " + err.Error()
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "could not obtain redis lock; proceeding without redis lock"
		}
		if l.logger != nil {
			l.logger.WithFields(logrus.Fields{
				"field":           "RedisKeyLocker",
				"idempotency_key": key,
			}).Warn(msg)
		}
		return func() {}
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && l.logger != nil {
			l.logger.WithFields(logrus.Fields{
				"field":           "RedisKeyLocker",
				"idempotency_key": key,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}
