package cancel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	flagKeyPrefix = "va:cancel:"
	flagTTL       = 48 * time.Hour
)

// Store 基于 Redis 的取消旗标
// 服务端 cancel 接口置位，监控与导出在步骤边界轮询，协作式取消
type Store struct {
	rdb *redis.Client
}

// NewStore 创建取消旗标存储
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Set 置位取消旗标
// silent 为 true 表示静默取消（不向用户展示消息）
func (s *Store) Set(ctx context.Context, analysisID int64, silent bool) error {
	value := "user"
	if silent {
		value = "silent"
	}

	key := flagKey(analysisID)
	if err := s.rdb.Set(ctx, key, value, flagTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	return nil
}

// IsSet 查询取消旗标是否置位
func (s *Store) IsSet(ctx context.Context, analysisID int64) (bool, error) {
	_, err := s.rdb.Get(ctx, flagKey(analysisID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}
	return true, nil
}

// IsSilent 查询取消是否为静默取消，未置位时返回 false
func (s *Store) IsSilent(ctx context.Context, analysisID int64) (bool, error) {
	value, err := s.rdb.Get(ctx, flagKey(analysisID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cancel flag: %w", err)
	}
	return value == "silent", nil
}

// Clear 清除取消旗标
func (s *Store) Clear(ctx context.Context, analysisID int64) error {
	return s.rdb.Del(ctx, flagKey(analysisID)).Err()
}

func flagKey(analysisID int64) string {
	return fmt.Sprintf("%s%d", flagKeyPrefix, analysisID)
}
