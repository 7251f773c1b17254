package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ytmeta/extractor-service/internal/utils"
)

// ExtractResult 提取结果
type ExtractResult struct {
	Platform      string         `json:"platform"`
	URL           string         `json:"url"`
	Metadata      map[string]any `json:"metadata"`
	Attempt       int            `json:"attempt"`        // 成功时的主配置尝试序号, 回退成功时为最大尝试次数
	FallbackIndex int            `json:"fallback_index"` // 0 表示主配置
	Strategy      string         `json:"strategy"`
	Cached        bool           `json:"-"`
}

// Service 缓存服务
type Service struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewService 创建缓存服务
func NewService(redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get 从缓存获取提取结果
func (s *Service) Get(ctx context.Context, url string) (*ExtractResult, error) {
	data, err := s.redis.Get(ctx, generateCacheKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, utils.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result ExtractResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	result.Cached = true

	return &result, nil
}

// Set 将提取结果写入缓存
func (s *Service) Set(ctx context.Context, url string, result *ExtractResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := s.redis.Set(ctx, generateCacheKey(url), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Delete 删除缓存
func (s *Service) Delete(ctx context.Context, url string) error {
	return s.redis.Del(ctx, generateCacheKey(url)).Err()
}

// Ping 检查 Redis 连接
func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// generateCacheKey 生成缓存key
func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return fmt.Sprintf("extractor:url:%x", hash)
}
