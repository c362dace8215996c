package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除・延長をアトミックに行う
var (
	releaseScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
	extendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Lock は取得済みのロック
type Lock interface {
	Release(ctx context.Context) error
	Extend(ctx context.Context, ttl time.Duration) error
}

// LockManagerInterface はアプリケーション層が依存するロック取得口
type LockManagerInterface interface {
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error)
}

// DistributedLock は Redis の SET NX によるロック
type DistributedLock struct {
	client  *redis.Client
	key     string
	value   string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewLockManager は LockManager を作成する。m は nil でもよい
func NewLockManager(client *redis.Client, m *metrics.Metrics) *LockManager {
	return &LockManager{client: client, metrics: m}
}

// LockKey はロック対象のキーを返す
func LockKey(key string) string {
	return "lock:" + key
}

// AcquireLock はロックを1回だけ試みる
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	start := time.Now()
	lockKey := LockKey(key)
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, lockKey, token, ttl).Result()
	m.metrics.ObserveLock("acquire", start, err == nil && ok)
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		client:  m.client,
		key:     lockKey,
		value:   token,
		ttl:     ttl,
		metrics: m.metrics,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error) {
	var lastErr error = ErrLockNotAcquired
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// Release はロックを解放する。他者に奪われていれば ErrLockNotOwned
func (l *DistributedLock) Release(ctx context.Context) error {
	start := time.Now()
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	l.metrics.ObserveLock("release", start, err == nil && n == 1)
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Extend はロックの有効期限を延長する
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if n == 0 {
		return ErrLockNotOwned
	}
	l.ttl = ttl
	return nil
}

var _ LockManagerInterface = (*LockManager)(nil)
