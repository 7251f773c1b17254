package models

import "ytmeta/extractor-service/internal/platform"

// ExtractRequest 提取请求参数
type ExtractRequest struct {
	URL       string `form:"url"`
	SkipCache bool   `form:"skip_cache"`
	Raw       bool   `form:"raw"`
}

// ExtractFailure 提取失败时返回的上下文
type ExtractFailure struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// UsageInfo 缺少 url 参数时的使用说明
type UsageInfo struct {
	Usage              string            `json:"usage"`
	SupportedPlatforms []string          `json:"supported_platforms"`
	Examples           map[string]string `json:"examples"`
}

// UnsupportedPlatform 不支持平台时的响应数据
type UnsupportedPlatform struct {
	DetectedPlatform   string   `json:"detected_platform"`
	SupportedPlatforms []string `json:"supported_platforms"`
	URL                string   `json:"url"`
}

// SupportedPlatformsResponse 已配置平台列表
type SupportedPlatformsResponse struct {
	SupportedPlatforms []string           `json:"supported_platforms"`
	Configurations     []platform.Summary `json:"configurations"`
	TotalPlatforms     int                `json:"total_platforms"`
	MaxAttempts        int                `json:"max_attempts"`
}

// RawExtractResponse raw=true 时的响应
type RawExtractResponse struct {
	Metadata      map[string]any `json:"metadata"`
	Platform      string         `json:"platform"`
	Attempt       int            `json:"attempt"`
	FallbackIndex int            `json:"fallback_index"`
	Strategy      string         `json:"strategy"`
	Cached        bool           `json:"cached"`
}
