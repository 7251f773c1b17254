package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/adapter"
	"ytmeta/extractor-service/internal/cache"
	"ytmeta/extractor-service/internal/detector"
	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/utils"
	"ytmeta/extractor-service/internal/ytdlp"
)

const (
	// DefaultMaxAttempts 主配置默认尝试次数
	DefaultMaxAttempts = 3
	// DefaultMaxConcurrent 默认最大并发提取数
	DefaultMaxConcurrent = 10
)

// ResultCache 提取结果缓存
type ResultCache interface {
	Get(ctx context.Context, url string) (*cache.ExtractResult, error)
	Set(ctx context.Context, url string, result *cache.ExtractResult) error
}

// Options 服务参数
type Options struct {
	MaxAttempts   int
	MaxConcurrent int
	Cache         ResultCache // 为 nil 时不缓存
}

// ExtractorService 提取服务: 平台分发, 重试与回退
type ExtractorService struct {
	detector    *detector.PlatformDetector
	table       *platform.Table
	adapters    map[platform.Tag]adapter.Adapter
	cache       ResultCache
	limiter     *utils.ConcurrencyLimiter
	maxAttempts int
	logger      *zap.Logger
}

// NewExtractorService 创建提取服务
func NewExtractorService(
	table *platform.Table,
	extractor adapter.Extractor,
	opts Options,
	logger *zap.Logger,
) *ExtractorService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}

	return &ExtractorService{
		detector:    detector.NewPlatformDetector(),
		table:       table,
		adapters:    adapter.NewRegistry(table, extractor),
		cache:       opts.Cache,
		limiter:     utils.NewConcurrencyLimiter(opts.MaxConcurrent),
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
	}
}

// Extract 提取视频元数据
func (s *ExtractorService) Extract(ctx context.Context, url string, skipCache bool) (*cache.ExtractResult, error) {
	// 1. 验证URL
	if !utils.IsValidURL(url) {
		return nil, &utils.ExtractError{Platform: platform.Unknown.String(), URL: url, Err: utils.ErrInvalidURL}
	}

	// 2. 检测平台
	tag := s.detector.Detect(url)
	adpt, ok := s.adapters[tag]
	if !ok {
		s.logger.Info("unsupported platform", zap.String("url", url), zap.String("platform", tag.String()))
		return nil, &utils.ExtractError{Platform: tag.String(), URL: url, Err: utils.ErrUnsupportedPlatform}
	}

	// 3. 检查缓存
	if s.cache != nil && !skipCache {
		if cached, err := s.cache.Get(ctx, url); err == nil {
			s.logger.Info("cache hit", zap.String("url", url), zap.String("platform", tag.String()))
			return cached, nil
		} else if !errors.Is(err, utils.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.Error(err))
		}
	}

	// 4. 并发控制
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, &utils.ExtractError{Platform: tag.String(), URL: url, Err: fmt.Errorf("%w: %v", utils.ErrTimeout, err)}
	}
	defer s.limiter.Release()

	// 5. 主配置重试, 然后回退策略
	s.logger.Info("extracting metadata", zap.String("url", url), zap.String("platform", tag.String()))
	result, err := s.run(ctx, adpt, url)
	if err != nil {
		return nil, err
	}

	// 6. 写入缓存
	if s.cache != nil {
		if err := s.cache.Set(ctx, url, result); err != nil {
			s.logger.Warn("cache set failed", zap.Error(err))
		}
	}

	return result, nil
}

// run 依次执行主配置尝试与回退策略, 每个策略最多执行一次
func (s *ExtractorService) run(ctx context.Context, adpt adapter.Adapter, url string) (*cache.ExtractResult, error) {
	tag := adpt.Platform()
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		metadata, err := adpt.AttemptPrimary(ctx, url, attempt)
		if err == nil {
			s.logger.Info("extraction succeeded",
				zap.String("platform", tag.String()),
				zap.Int("attempt", attempt),
				zap.String("strategy", ytdlp.MethodPrimary),
				zap.Any("title", metadata["title"]))
			return &cache.ExtractResult{
				Platform: tag.String(),
				URL:      url,
				Metadata: metadata,
				Attempt:  attempt,
				Strategy: ytdlp.MethodPrimary,
			}, nil
		}

		lastErr = err
		s.logger.Warn("extraction attempt failed",
			zap.String("platform", tag.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
			zap.String("url", url),
			zap.Error(err))

		if ctx.Err() != nil {
			return nil, s.aborted(tag, url, err)
		}
	}

	strategies := adpt.FallbackStrategies()
	for i, strategy := range strategies {
		index := i + 1
		s.logger.Info("trying fallback strategy",
			zap.String("platform", tag.String()),
			zap.Int("fallback_index", index),
			zap.String("strategy", strategy.Name))

		metadata, err := adpt.AttemptFallback(ctx, url, index)
		if err == nil {
			s.logger.Info("fallback strategy succeeded",
				zap.String("platform", tag.String()),
				zap.Int("fallback_index", index),
				zap.String("strategy", strategy.Name),
				zap.Any("title", metadata["title"]))
			return &cache.ExtractResult{
				Platform:      tag.String(),
				URL:           url,
				Metadata:      metadata,
				Attempt:       s.maxAttempts,
				FallbackIndex: index,
				Strategy:      strategy.Name,
			}, nil
		}

		lastErr = err
		s.logger.Warn("fallback strategy failed",
			zap.String("platform", tag.String()),
			zap.Int("fallback_index", index),
			zap.String("strategy", strategy.Name),
			zap.String("url", url),
			zap.Error(err))

		if ctx.Err() != nil {
			return nil, s.aborted(tag, url, err)
		}
	}

	s.logger.Error("all extraction strategies exhausted",
		zap.String("platform", tag.String()),
		zap.String("url", url),
		zap.Int("attempts", s.maxAttempts),
		zap.Int("fallback_strategies", len(strategies)))

	return nil, &utils.ExtractError{
		Platform: tag.String(),
		URL:      url,
		Err: fmt.Errorf("%w: %s extraction failed after %d attempts and %d fallback strategies: %v",
			utils.ErrAllStrategiesExhausted, tag, s.maxAttempts, len(strategies), lastErr),
	}
}

// aborted 调用方上下文结束, 放弃剩余尝试
func (s *ExtractorService) aborted(tag platform.Tag, url string, err error) error {
	if !errors.Is(err, utils.ErrTimeout) {
		err = fmt.Errorf("%w: %v", utils.ErrTimeout, err)
	}
	s.logger.Warn("extraction aborted by caller", zap.String("platform", tag.String()), zap.String("url", url))
	return &utils.ExtractError{Platform: tag.String(), URL: url, Err: err}
}

// PlatformInfo 单个URL的平台检测信息
type PlatformInfo struct {
	Platform       string `json:"platform"`
	Supported      bool   `json:"supported"`
	CookiesFile    string `json:"cookies_file"`
	CookiesPresent bool   `json:"cookies_present"`
	UserAgent      string `json:"user_agent"`
	Fallbacks      int    `json:"fallback_strategies"`
}

// DetectPlatform 检测URL所属平台
func (s *ExtractorService) DetectPlatform(url string) platform.Tag {
	return s.detector.Detect(url)
}

// GetPlatformInfo 返回URL对应平台的配置信息
func (s *ExtractorService) GetPlatformInfo(url string) PlatformInfo {
	tag := s.detector.Detect(url)
	info := PlatformInfo{
		Platform:    tag.String(),
		CookiesFile: "Not configured",
		UserAgent:   "Default",
	}

	profile, ok := s.table.Lookup(tag)
	if !ok {
		return info
	}

	info.Supported = true
	info.CookiesFile = profile.Config.CookieFile
	info.CookiesPresent = platform.FileExists(profile.Config.CookieFile)
	info.UserAgent = profile.Config.UserAgent
	info.Fallbacks = len(profile.Fallbacks)
	return info
}

// SupportedPlatforms 返回所有已配置平台的摘要
func (s *ExtractorService) SupportedPlatforms() []platform.Summary {
	return s.table.Describe()
}

// MaxAttempts 主配置尝试次数
func (s *ExtractorService) MaxAttempts() int {
	return s.maxAttempts
}
