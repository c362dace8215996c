package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

func TestLockKey(t *testing.T) {
	assert.Equal(t, "lock:event:3", LockKey("event:3"))
}

func TestLockManager_AcquireLock(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client, nil)

	// テストごとにキーを分ける
	key := func(name string) string { return name + ":" + uuid.NewString() }

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, key("acquire"), 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.NoError(t, lock.Release(ctx))
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		k := key("contended")
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, k, 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		k := key("reacquire")
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("二重解放は所有者エラー", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, key("double-release"), 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})

	t.Run("ロックを延長できる", func(t *testing.T) {
		k := key("extend")
		lock, err := manager.AcquireLock(ctx, k, time.Second)
		require.NoError(t, err)
		defer lock.Release(ctx)

		require.NoError(t, lock.Extend(ctx, 5*time.Second))

		ttl, err := client.PTTL(ctx, LockKey(k)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Second)
	})

	t.Run("解放後は延長できない", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, key("extend-after-release"), time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		assert.ErrorIs(t, lock.Extend(ctx, 5*time.Second), ErrLockNotOwned)
	})
}

func TestLockManager_AcquireLockWithRetry(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	manager := NewLockManager(client, m)

	t.Run("解放を待って取得できる", func(t *testing.T) {
		k := "retry:" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(150 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, k, 5*time.Second, 10, 50*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライ上限で失敗する", func(t *testing.T) {
		k := "exhausted:" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		_, err = manager.AcquireLockWithRetry(ctx, k, 5*time.Second, 2, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})

	t.Run("最後の失敗の後は待たずに返す", func(t *testing.T) {
		k := "nowait:" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		start := time.Now()
		_, err = manager.AcquireLockWithRetry(ctx, k, 5*time.Second, 1, 500*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Less(t, time.Since(start), 250*time.Millisecond)

		// 2回試行なら待機は1回だけ
		start = time.Now()
		_, err = manager.AcquireLockWithRetry(ctx, k, 5*time.Second, 2, 300*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Less(t, time.Since(start), 550*time.Millisecond)
	})

	t.Run("コンテキストのキャンセルで中断する", func(t *testing.T) {
		k := "cancel:" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, k, 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err = manager.AcquireLockWithRetry(cctx, k, 5*time.Second, 100, 20*time.Millisecond)
		assert.Error(t, err)
	})

	assert.Greater(t, testutil.CollectAndCount(m.DistributedLockDuration), 0)
}
