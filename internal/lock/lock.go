// Package lock serializes work that must not interleave across requests,
// such as one order's stock writes or checks against the unprotected Bs pool.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"japoke-backend/internal/logging"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrNotObtained = errors.New("lock: could not obtain lock")

type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Redis holds locks in Redis so several API processes share them.
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	timeout time.Duration
}

func NewRedis(rdb redislock.RedisClient) *Redis {
	return &Redis{
		client:  redislock.New(rdb),
		ttl:     30 * time.Second,
		timeout: 10 * time.Second,
	}
}

func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	obtainCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	l, err := r.client.Obtain(obtainCtx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return fmt.Errorf("lock: obtain %s: %w", key, err)
	}
	defer func() {
		_ = l.Release(context.WithoutCancel(ctx))
	}()

	return fn(ctx)
}

// Local is an in-process keyed lock for single-instance deployments and tests.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *Local) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
	}
	defer func() { <-ch }()
	return fn(ctx)
}

// ConnectRedisWithRetry pings until Redis answers or attempts run out.
func ConnectRedisWithRetry(ctx context.Context, addr, password string, attempts int, log *logrus.Entry) (*redis.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
			PoolSize: 50,
		})
		if lastErr = rdb.Ping(ctx).Err(); lastErr == nil {
			log.WithFields(logrus.Fields{"attempt": attempt, "addr": addr}).Info("redis conectado")
			return rdb, nil
		}
		_ = rdb.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		logging.LogWarn(log, "ConnectRedisWithRetry", fmt.Sprintf("redis no disponible (intento=%d), reintentando en %s", attempt, sleep), addr, lastErr)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("redis %s: %w", addr, lastErr)
}
