package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/cache"
	"ytmeta/extractor-service/internal/models"
	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/service"
	"ytmeta/extractor-service/internal/utils"
)

// Extractor 提取服务接口
type Extractor interface {
	Extract(ctx context.Context, url string, skipCache bool) (*cache.ExtractResult, error)
	GetPlatformInfo(url string) service.PlatformInfo
	SupportedPlatforms() []platform.Summary
	MaxAttempts() int
}

// ExtractHandler 提取处理器
type ExtractHandler struct {
	extractor Extractor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExtractHandler 创建提取处理器
func NewExtractHandler(extractor Extractor, timeout time.Duration, logger *zap.Logger) *ExtractHandler {
	return &ExtractHandler{
		extractor: extractor,
		timeout:   timeout,
		logger:    logger,
	}
}

// Extract 检测平台并提取元数据
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		models.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	url := utils.SanitizeURL(req.URL)
	if url == "" {
		models.ErrorWithData(c, http.StatusBadRequest, "URL parameter required", usage(c))
		return
	}
	if !utils.IsValidURL(url) {
		models.BadRequest(c, "Invalid URL format")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.extractor.Extract(ctx, url, req.SkipCache)
	if err != nil {
		h.writeError(c, url, err)
		return
	}

	if req.Raw {
		models.Success(c, models.RawExtractResponse{
			Metadata:      result.Metadata,
			Platform:      result.Platform,
			Attempt:       result.Attempt,
			FallbackIndex: result.FallbackIndex,
			Strategy:      result.Strategy,
			Cached:        result.Cached,
		})
		return
	}

	shaped := utils.ShapeMetadata(result.Metadata, url)
	shaped.Attempt = result.Attempt
	shaped.FallbackIndex = result.FallbackIndex
	models.Success(c, shaped)
}

// PlatformInfo 返回URL的平台检测信息
func (h *ExtractHandler) PlatformInfo(c *gin.Context) {
	url := utils.SanitizeURL(c.Query("url"))
	if url == "" {
		models.BadRequest(c, "URL parameter required")
		return
	}

	models.Success(c, h.extractor.GetPlatformInfo(url))
}

// SupportedPlatforms 返回已配置的平台
func (h *ExtractHandler) SupportedPlatforms(c *gin.Context) {
	summaries := h.extractor.SupportedPlatforms()
	models.Success(c, models.SupportedPlatformsResponse{
		SupportedPlatforms: platformNames(summaries),
		Configurations:     summaries,
		TotalPlatforms:     len(summaries),
		MaxAttempts:        h.extractor.MaxAttempts(),
	})
}

// writeError 将提取错误映射为HTTP响应
func (h *ExtractHandler) writeError(c *gin.Context, url string, err error) {
	failure := models.ExtractFailure{Platform: platform.Unknown.String(), URL: url}
	var extractErr *utils.ExtractError
	if errors.As(err, &extractErr) {
		failure.Platform = extractErr.Platform
	}

	h.logger.Warn("extraction request failed",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("platform", failure.Platform),
		zap.String("url", url),
		zap.Error(err))

	switch {
	case errors.Is(err, utils.ErrUnsupportedPlatform):
		models.ErrorWithData(c, http.StatusBadRequest, "Unsupported platform: "+failure.Platform, models.UnsupportedPlatform{
			DetectedPlatform:   failure.Platform,
			SupportedPlatforms: platformNames(h.extractor.SupportedPlatforms()),
			URL:                url,
		})
	case errors.Is(err, utils.ErrInvalidURL):
		models.ErrorWithData(c, http.StatusBadRequest, "Invalid URL format", failure)
	case errors.Is(err, utils.ErrTimeout):
		models.ErrorWithData(c, http.StatusGatewayTimeout, errorMessage(err), failure)
	default:
		models.ErrorWithData(c, http.StatusUnprocessableEntity, errorMessage(err), failure)
	}
}

// errorMessage 去掉 ExtractError 的平台前缀, 只保留可读信息
func errorMessage(err error) string {
	var extractErr *utils.ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Err.Error()
	}
	return err.Error()
}

func usage(c *gin.Context) models.UsageInfo {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + c.Request.Host + "/"

	return models.UsageInfo{
		Usage:              "/?url=https://platform.com/video",
		SupportedPlatforms: []string{"YouTube", "Instagram", "Facebook"},
		Examples: map[string]string{
			"youtube":   base + "?url=https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"instagram": base + "?url=https://www.instagram.com/p/ABC123/",
			"facebook":  base + "?url=https://www.facebook.com/watch?v=123456",
		},
	}
}

func platformNames(summaries []platform.Summary) []string {
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, strings.ToLower(s.Platform.String()))
	}
	return names
}
