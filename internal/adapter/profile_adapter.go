package adapter

import (
	"context"
	"fmt"

	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/ytdlp"
)

// ProfileAdapter 由平台配置表驱动的通用适配器
type ProfileAdapter struct {
	tag       platform.Tag
	profile   platform.Profile
	extractor Extractor
}

// NewProfileAdapter 创建平台适配器
func NewProfileAdapter(tag platform.Tag, profile platform.Profile, extractor Extractor) *ProfileAdapter {
	return &ProfileAdapter{
		tag:       tag,
		profile:   profile,
		extractor: extractor,
	}
}

// Platform 适配器对应的平台
func (a *ProfileAdapter) Platform() platform.Tag {
	return a.tag
}

// AttemptPrimary 使用主配置调用 yt-dlp
func (a *ProfileAdapter) AttemptPrimary(ctx context.Context, url string, attempt int) (map[string]any, error) {
	return a.extractor.Extract(ctx, ytdlp.Invocation{
		Platform: a.tag,
		URL:      url,
		Config:   a.profile.Config,
		Attempt:  attempt,
	})
}

// FallbackStrategies 返回回退策略列表
func (a *ProfileAdapter) FallbackStrategies() []platform.FallbackStrategy {
	return a.profile.Fallbacks
}

// AttemptFallback 使用指定回退策略调用 yt-dlp
func (a *ProfileAdapter) AttemptFallback(ctx context.Context, url string, index int) (map[string]any, error) {
	if index < 1 || index > len(a.profile.Fallbacks) {
		return nil, fmt.Errorf("%s: fallback strategy %d out of range", a.tag, index)
	}

	strategy := a.profile.Fallbacks[index-1]
	return a.extractor.Extract(ctx, ytdlp.Invocation{
		Platform:      a.tag,
		URL:           url,
		Config:        strategy.Apply(a.profile.Config),
		Strategy:      &strategy,
		StrategyIndex: index,
	})
}

// NewRegistry 为配置表中的每个平台创建适配器
func NewRegistry(table *platform.Table, extractor Extractor) map[platform.Tag]Adapter {
	adapters := make(map[platform.Tag]Adapter)
	for _, tag := range table.Platforms() {
		profile, _ := table.Lookup(tag)
		adapters[tag] = NewProfileAdapter(tag, profile, extractor)
	}
	return adapters
}
