package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/redis/go-redis/v9"
)

// CompareCache 对比结果缓存。基线不可变，键含双方校验和，无需主动失效
type CompareCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCompareCache 创建对比缓存；rdb为空或ttl<=0时不缓存
func NewCompareCache(rdb *redis.Client, ttl time.Duration) *CompareCache {
	return &CompareCache{rdb: rdb, ttl: ttl}
}

func (c *CompareCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// CompareCacheKey 对比缓存键
func CompareCacheKey(left, right BaselineSummary, mode bomdiff.SortMode) string {
	return fmt.Sprintf("baseline:compare:%s:%s:%s:%s:%s", left.ID, left.Checksum, right.ID, right.Checksum, mode)
}

// Get 读取缓存行；未命中返回 false
func (c *CompareCache) Get(ctx context.Context, key string) ([]bomdiff.DiffRow, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []bomdiff.DiffRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// Set 写入缓存
func (c *CompareCache) Set(ctx context.Context, key string, rows []bomdiff.DiffRow) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
