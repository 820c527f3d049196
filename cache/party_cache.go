package cache

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"Bt1QPlayer/model"
)

const (
	partyKey        = "party:%s"
	partyCodeLen    = 6
	partyCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	partyMaxTracks  = 500
	partyTxAttempts = 5
)

// PartyCache 派对队列缓存
// 每次写入都会刷新过期时间
type PartyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPartyCache 创建派对缓存
func NewPartyCache(ttl time.Duration) *PartyCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &PartyCache{client: RedisClient, ttl: ttl}
}

// NewPartyCode returns a short code without look-alike characters.
func NewPartyCode() (string, error) {
	buf := make([]byte, partyCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = partyCodeChars[int(b)%len(partyCodeChars)]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases and trims a code typed by a guest.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ========== 队列操作 ==========

// Create 创建派对队列
func (c *PartyCache) Create(ctx context.Context, hostID string) (*model.PartyQueue, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}

	for i := 0; i < partyTxAttempts; i++ {
		code, err := NewPartyCode()
		if err != nil {
			return nil, err
		}
		now := time.Now().Unix()
		q := &model.PartyQueue{Code: code, HostID: hostID, Tracks: []model.Track{}, CreatedAt: now, UpdatedAt: now}
		data, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal party: %w", err)
		}
		ok, err := c.client.SetNX(ctx, fmt.Sprintf(partyKey, code), data, c.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return q, nil
		}
	}
	return nil, ErrConflict
}

// Get 获取派对队列
func (c *PartyCache) Get(ctx context.Context, code string) (*model.PartyQueue, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(partyKey, NormalizeCode(code))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPartyNotFound
	}
	if err != nil {
		return nil, err
	}
	var q model.PartyQueue
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal party: %w", err)
	}
	return &q, nil
}

// AddTrack 添加歌曲到派对队列末尾
func (c *PartyCache) AddTrack(ctx context.Context, code string, t model.Track) (*model.PartyQueue, error) {
	return c.update(ctx, code, func(q *model.PartyQueue) error {
		return appendTrack(q, t)
	})
}

// RemoveTrack 从派对队列删除指定位置的歌曲
func (c *PartyCache) RemoveTrack(ctx context.Context, code string, index int) (*model.PartyQueue, error) {
	return c.update(ctx, code, func(q *model.PartyQueue) error {
		return removeTrack(q, index)
	})
}

// Delete 结束派对
func (c *PartyCache) Delete(ctx context.Context, code string) error {
	if c.client == nil {
		return ErrNotInitialized
	}
	return c.client.Del(ctx, fmt.Sprintf(partyKey, NormalizeCode(code))).Err()
}

// update applies fn under WATCH so concurrent guests do not lose writes.
func (c *PartyCache) update(ctx context.Context, code string, fn func(q *model.PartyQueue) error) (*model.PartyQueue, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}
	key := fmt.Sprintf(partyKey, NormalizeCode(code))

	var out model.PartyQueue
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrPartyNotFound
		}
		if err != nil {
			return err
		}
		var q model.PartyQueue
		if err := json.Unmarshal(data, &q); err != nil {
			return fmt.Errorf("failed to unmarshal party: %w", err)
		}
		if err := fn(&q); err != nil {
			return err
		}
		q.UpdatedAt = time.Now().Unix()
		data, err = json.Marshal(&q)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		out = q
		return err
	}

	for i := 0; i < partyTxAttempts; i++ {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
	return nil, ErrConflict
}

func appendTrack(q *model.PartyQueue, t model.Track) error {
	if !t.Playable() {
		return fmt.Errorf("party track without media id")
	}
	if len(q.Tracks) >= partyMaxTracks {
		return fmt.Errorf("party queue full (%d tracks)", partyMaxTracks)
	}
	q.Tracks = append(q.Tracks, t)
	return nil
}

func removeTrack(q *model.PartyQueue, index int) error {
	if index < 0 || index >= len(q.Tracks) {
		return fmt.Errorf("remove party track %d of %d: %w", index, len(q.Tracks), ErrIndexRange)
	}
	q.Tracks = append(q.Tracks[:index], q.Tracks[index+1:]...)
	return nil
}
