package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed confirmation attempts per key inside a fixed
// window. Once the count reaches max the key stays locked until the window
// that started with the first failure expires.
type AttemptLimiter interface {
	Locked(ctx context.Context, key string) (bool, error)
	// RecordFailure increments the counter and returns the new value.
	RecordFailure(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type RedisAttemptLimiter struct {
	client    *redis.Client
	keyPrefix string
	max       int
	window    time.Duration
}

func NewRedisAttemptLimiter(client *redis.Client, max int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{
		client:    client,
		keyPrefix: "yamdb:confirm:attempts:",
		max:       max,
		window:    window,
	}
}

func (l *RedisAttemptLimiter) key(k string) string { return l.keyPrefix + k }

func (l *RedisAttemptLimiter) Locked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts get: %w", err)
	}
	return n >= l.max, nil
}

func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	k := l.key(key)
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		// NX keeps the window anchored to the first failure.
		p.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("attempts incr: %w", err)
	}
	return int(incr.Val()), nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("attempts reset: %w", err)
	}
	return nil
}

var _ AttemptLimiter = (*RedisAttemptLimiter)(nil)

// InMemoryAttemptLimiter is the single-instance fallback used when no Redis
// address is configured.
type InMemoryAttemptLimiter struct {
	mu      sync.Mutex
	entries map[string]attemptEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

type attemptEntry struct {
	count   int
	expires time.Time
}

func NewInMemoryAttemptLimiter(max int, window time.Duration) *InMemoryAttemptLimiter {
	return &InMemoryAttemptLimiter{
		entries: make(map[string]attemptEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// current returns the live entry for key, dropping it if expired. Caller holds mu.
func (l *InMemoryAttemptLimiter) current(key string) (attemptEntry, bool) {
	e, ok := l.entries[key]
	if !ok {
		return attemptEntry{}, false
	}
	if !l.now().Before(e.expires) {
		delete(l.entries, key)
		return attemptEntry{}, false
	}
	return e, true
}

func (l *InMemoryAttemptLimiter) Locked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.current(key)
	return ok && e.count >= l.max, nil
}

func (l *InMemoryAttemptLimiter) RecordFailure(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.current(key)
	if !ok {
		e = attemptEntry{expires: l.now().Add(l.window)}
	}
	e.count++
	l.entries[key] = e
	return e.count, nil
}

func (l *InMemoryAttemptLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

var _ AttemptLimiter = (*InMemoryAttemptLimiter)(nil)
