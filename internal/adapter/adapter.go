package adapter

import (
	"context"

	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/ytdlp"
)

// Extractor 执行单次 yt-dlp 调用
type Extractor interface {
	Extract(ctx context.Context, inv ytdlp.Invocation) (map[string]any, error)
}

// Adapter 平台适配器接口
type Adapter interface {
	// Platform 适配器对应的平台
	Platform() platform.Tag
	// AttemptPrimary 使用主配置进行第 attempt 次尝试
	AttemptPrimary(ctx context.Context, url string, attempt int) (map[string]any, error)
	// FallbackStrategies 按顺序排列的回退策略
	FallbackStrategies() []platform.FallbackStrategy
	// AttemptFallback 使用第 index 个回退策略(从 1 开始)
	AttemptFallback(ctx context.Context, url string, index int) (map[string]any, error)
}
