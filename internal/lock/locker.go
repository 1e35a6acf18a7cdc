// Package lock serializes order-scoped critical sections. A redis-backed
// locker covers multi-instance deployments; without redis a keyed in-process
// mutex serves the single-instance case. The order status CAS remains the
// correctness guarantee either way, the lock only narrows the race window.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// OrderLocker scopes a critical section to one order.
type OrderLocker interface {
	// Acquire blocks until the order lock is held or ctx is done. The
	// returned release function must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const redisLockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	redisLockTTL   = 30 * time.Second
	redisLockRetry = 25 * time.Millisecond
)

// RedisLocker implements OrderLocker on redis SETNX with a fenced release.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	if client == nil {
		return nil
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(redisLockReleaseScript),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, errors.New("lock client not configured")
	}
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, redisLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = l.script.Run(releaseCtx, l.client, []string{key}, token).Err()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetry):
		}
	}
}

// KeyedMutex is the in-process fallback locker.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	release := func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
	return release, nil
}
