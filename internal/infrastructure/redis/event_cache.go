package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
	// ErrCacheConflict は読み込み後に無効化が入ったため保存しなかった場合のエラー
	ErrCacheConflict = errors.New("キャッシュのバージョンが変わりました")
)

// 無効化以降に読まれた値だけを保存する
var setIfVersionScript = redis.NewScript(`
	local v = redis.call("GET", KEYS[2])
	if (v or "0") == ARGV[1] then
		redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
		return 1
	end
	return 0
`)

// EventCacheInterface はイベント残席数のキャッシュ
// GetRemaining が返すバージョンを SetRemaining に渡す。間に Invalidate があれば保存されない
type EventCacheInterface interface {
	GetRemaining(ctx context.Context, eventID uint32) (remaining uint32, version int64, err error)
	SetRemaining(ctx context.Context, eventID uint32, remaining uint32, version int64, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID uint32) error
}

// EventCache はイベントの残席数を Redis にキャッシュする
type EventCache struct {
	client *redis.Client
}

func NewEventCache(client *redis.Client) *EventCache {
	return &EventCache{client: client}
}

// GetRemaining は残席数と現在のバージョンを取得する
// 未設定なら ErrCacheMiss（バージョンは返す）
func (c *EventCache) GetRemaining(ctx context.Context, eventID uint32) (uint32, int64, error) {
	vals, err := c.client.MGet(ctx, remainingKey(eventID), versionKey(eventID)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var version int64
	if s, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("キャッシュのバージョンが不正: %w", err)
		}
	}

	s, ok := vals[0].(string)
	if !ok {
		return 0, version, ErrCacheMiss
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, version, fmt.Errorf("キャッシュの値が不正: %w", err)
	}
	return uint32(n), version, nil
}

// SetRemaining はバージョンが変わっていなければ残席数を保存する
// 変わっていれば ErrCacheConflict
func (c *EventCache) SetRemaining(ctx context.Context, eventID uint32, remaining uint32, version int64, ttl time.Duration) error {
	keys := []string{remainingKey(eventID), versionKey(eventID)}
	stored, err := setIfVersionScript.Run(ctx, c.client, keys, version, remaining, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	if stored == 0 {
		return ErrCacheConflict
	}
	return nil
}

// Invalidate はバージョンを進めてキャッシュを削除する
func (c *EventCache) Invalidate(ctx context.Context, eventID uint32) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(eventID))
		pipe.Del(ctx, remainingKey(eventID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func remainingKey(eventID uint32) string {
	return fmt.Sprintf("events:remaining:%d", eventID)
}

func versionKey(eventID uint32) string {
	return fmt.Sprintf("events:remaining:%d:version", eventID)
}

var _ EventCacheInterface = (*EventCache)(nil)
