package utils

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// URL相关错误
	ErrInvalidURL          = errors.New("invalid URL")
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// 单次调用错误
	ErrInvocation = errors.New("yt-dlp invocation failed")
	ErrTimeout    = errors.New("yt-dlp timeout")
	ErrParse      = errors.New("failed to parse yt-dlp output")

	// 终止错误: 主尝试与所有回退策略均失败
	ErrAllStrategiesExhausted = errors.New("all extraction strategies exhausted")

	// 视频相关错误 (由 stderr 推断)
	ErrVideoNotFound  = errors.New("video not found")
	ErrVideoPrivate   = errors.New("video is private")
	ErrGeoRestricted  = errors.New("video is geo-restricted")
	ErrAgeRestricted  = errors.New("video is age-restricted")
	ErrCopyrightClaim = errors.New("video removed due to copyright claim")
	ErrLoginRequired  = errors.New("login required")
	ErrRateLimited    = errors.New("rate limited by platform")

	// 系统相关错误
	ErrCacheMiss     = errors.New("cache miss")
	ErrYTDLPNotFound = errors.New("yt-dlp binary not found")
)

// ExtractError 请求级别的提取失败, 携带平台与原始URL
type ExtractError struct {
	Platform string
	URL      string
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// MapYTDLPError 将yt-dlp的错误输出映射到具体错误
func MapYTDLPError(stderr string) error {
	lowerStderr := strings.ToLower(stderr)

	switch {
	case strings.Contains(lowerStderr, "private video"),
		strings.Contains(lowerStderr, "this video is private"):
		return ErrVideoPrivate
	case strings.Contains(lowerStderr, "video unavailable"),
		strings.Contains(lowerStderr, "has been deleted"),
		strings.Contains(lowerStderr, "http error 404"):
		return ErrVideoNotFound
	case strings.Contains(lowerStderr, "not available in your country"),
		strings.Contains(lowerStderr, "geo restriction"):
		return ErrGeoRestricted
	case strings.Contains(lowerStderr, "age-restricted"),
		strings.Contains(lowerStderr, "confirm your age"):
		return ErrAgeRestricted
	case strings.Contains(lowerStderr, "copyright"):
		return ErrCopyrightClaim
	case strings.Contains(lowerStderr, "login required"),
		strings.Contains(lowerStderr, "sign in to confirm"),
		strings.Contains(lowerStderr, "cookies"):
		return ErrLoginRequired
	case strings.Contains(lowerStderr, "rate-limit"),
		strings.Contains(lowerStderr, "rate limit"),
		strings.Contains(lowerStderr, "http error 429"):
		return ErrRateLimited
	case strings.Contains(lowerStderr, "no such file"),
		strings.Contains(lowerStderr, "executable file not found"):
		return ErrYTDLPNotFound
	default:
		return ErrInvocation
	}
}
