package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
)

var ErrQuotaExceeded = errors.New("今日提交配额已用完")

// QuotaService 每日提交配额，Redis 按天计数
// 键按 UTC 日期滚动，过期自动清零，无需定时重置任务
type QuotaService struct {
	rdb *redis.Client
	cfg *config.Config
}

func NewQuotaService(rdb *redis.Client, cfg *config.Config) *QuotaService {
	return &QuotaService{rdb: rdb, cfg: cfg}
}

// CheckQuota 检查配额，limit 不大于 0 表示不限制
func (s *QuotaService) CheckQuota(ctx context.Context, userID int64) (bool, error) {
	limit := s.cfg.Quota.DailySubmissions
	if limit <= 0 {
		return true, nil
	}

	used, err := s.usedToday(ctx, userID)
	if err != nil {
		return false, err
	}
	return used < limit, nil
}

// UseQuota 占用一次配额
func (s *QuotaService) UseQuota(ctx context.Context, userID int64) error {
	key := s.quotaKey(userID, time.Now())
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}
	if count == 1 {
		s.rdb.Expire(ctx, key, 48*time.Hour)
	}
	return nil
}

// RefundQuota 退还一次配额，提交失败时调用
func (s *QuotaService) RefundQuota(ctx context.Context, userID int64) error {
	return s.rdb.Decr(ctx, s.quotaKey(userID, time.Now())).Err()
}

// GetQuotaInfo 获取配额信息
func (s *QuotaService) GetQuotaInfo(ctx context.Context, userID int64) (*dto.QuotaInfo, error) {
	used, err := s.usedToday(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.Quota.DailySubmissions
	remain := limit - used
	if remain < 0 {
		remain = 0
	}

	// 配额随 UTC 日期滚动
	now := time.Now().UTC()
	resetAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

	return &dto.QuotaInfo{
		DailyLimit:  limit,
		DailyUsed:   used,
		DailyRemain: remain,
		ResetAt:     resetAt.Format(time.RFC3339),
	}, nil
}

func (s *QuotaService) usedToday(ctx context.Context, userID int64) (int, error) {
	used, err := s.rdb.Get(ctx, s.quotaKey(userID, time.Now())).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	return used, nil
}

func (s *QuotaService) quotaKey(userID int64, now time.Time) string {
	return fmt.Sprintf("quota:submit:%d:%s", userID, now.UTC().Format("20060102"))
}
