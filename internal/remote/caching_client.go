package remote

// ============================================================================
// CachingClient - 快取裝飾器
// ============================================================================
//
// 行為：
//   - GetInput:   read-through，輸入內容不可變，可無限期快取
//   - GetStatus:  read-through，只保證「上次失效之後」的新鮮度
//   - PostAnswer: 永不快取；Accepted / AlreadySolved 會 Dirty 該題的 status
//
// 錯誤處理：
//   - 快取讀寫錯誤視為 cache miss，只記錄 log
//   - 例外：寫入成功後無法讀回剛取得的 input 為硬錯誤（ErrCacheReadBack）
//
// ============================================================================

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ChuLiYu/aoc-runner/internal/cache"
	"github.com/ChuLiYu/aoc-runner/internal/metrics"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// CachingClient 包裝原始 Client
type CachingClient struct {
	raw     Client
	store   cache.Cache
	metrics *metrics.Collector
	log     *slog.Logger
}

// NewCachingClient 建立快取裝飾器；m 可為 nil
func NewCachingClient(raw Client, store cache.Cache, m *metrics.Collector) *CachingClient {
	return &CachingClient{
		raw:     raw,
		store:   store,
		metrics: m,
		log:     slog.Default().With("component", "cache"),
	}
}

// recall 讀取快取，錯誤降級為 miss
func (c *CachingClient) recall(key string) (string, bool) {
	v, ok, err := c.store.Recall(key)
	if err != nil {
		c.log.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// GetInput read-through
func (c *CachingClient) GetInput(ctx context.Context, id types.UnitID) (string, error) {
	key := cache.InputKey(id)
	if v, ok := c.recall(key); ok {
		c.metrics.RecordCache("input", true)
		return v, nil
	}
	c.metrics.RecordCache("input", false)

	input, err := c.raw.GetInput(ctx, id)
	if err != nil {
		return "", err
	}

	if err := c.store.Cache(key, input); err != nil {
		// 寫入失敗可容忍：回傳剛取得的內容
		c.log.Warn("Cache write failed", "key", key, "error", err)
		return input, nil
	}

	// 寫入成功後必須能讀回
	v, ok, err := c.store.Recall(key)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCacheReadBack, key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCacheReadBack, key)
	}
	return v, nil
}

// GetStatus read-through，快照以 JSON 文字保存
func (c *CachingClient) GetStatus(ctx context.Context, id types.UnitID) (types.StatusSnapshot, error) {
	key := cache.StatusKey(id)
	if v, ok := c.recall(key); ok {
		var snap types.StatusSnapshot
		err := json.Unmarshal([]byte(v), &snap)
		if err == nil {
			c.metrics.RecordCache("status", true)
			return snap, nil
		}
		c.log.Warn("Corrupted status entry, refetching", "key", key, "error", err)
		c.dirty(key)
	}
	c.metrics.RecordCache("status", false)

	snap, err := c.raw.GetStatus(ctx, id)
	if err != nil {
		return types.StatusSnapshot{}, err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return snap, nil
	}
	if err := c.store.Cache(key, string(data)); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
	return snap, nil
}

// PostAnswer 直接轉發，並在遠端狀態改變時讓 status 失效
func (c *CachingClient) PostAnswer(ctx context.Context, id types.UnitID, part types.Part, guess string) (Submission, error) {
	sub, err := c.raw.PostAnswer(ctx, id, part, guess)
	if err != nil {
		return sub, err
	}
	c.metrics.RecordSubmission(sub.Verdict)

	switch sub.Verdict {
	case types.VerdictAccepted, types.VerdictAlreadySolved:
		// 遠端已是「已解」，快取中的 status 已過期
		c.dirty(cache.StatusKey(id))
	}
	return sub, nil
}

func (c *CachingClient) dirty(key string) {
	if err := c.store.Dirty(key); err != nil {
		c.log.Warn("Cache invalidation failed", "key", key, "error", err)
	}
}
