package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ytmeta/extractor-service/internal/models"
	"ytmeta/extractor-service/internal/platform"
)

// ServiceName 服务名称
const ServiceName = "Multi-Platform yt-dlp JSON Extractor"

// Pinger 可探活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	cache        Pinger // 未启用缓存时为 nil
	ytdlpVersion string
	startTime    time.Time
	version      string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cache Pinger, ytdlpVersion, version string) *HealthHandler {
	return &HealthHandler{
		cache:        cache,
		ytdlpVersion: ytdlpVersion,
		startTime:    time.Now(),
		version:      version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status             string            `json:"status"`
	Timestamp          string            `json:"timestamp"`
	Service            string            `json:"service"`
	Version            string            `json:"version"`
	YTDLPVersion       string            `json:"ytdlp_version"`
	Uptime             int64             `json:"uptime"`
	SupportedPlatforms []string          `json:"supported_platforms"`
	Dependencies       map[string]string `json:"dependencies"`
}

// HealthCheck 健康检查
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dependencies := map[string]string{"yt-dlp": "healthy"}
	status := "healthy"
	statusCode := http.StatusOK

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			dependencies["redis"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else {
			dependencies["redis"] = "healthy"
		}
	}

	supported := make([]string, 0, len(platform.Supported()))
	for _, tag := range platform.Supported() {
		supported = append(supported, tag.String())
	}

	c.JSON(statusCode, HealthResponse{
		Status:             status,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		Service:            ServiceName,
		Version:            h.version,
		YTDLPVersion:       h.ytdlpVersion,
		Uptime:             int64(time.Since(h.startTime).Seconds()),
		SupportedPlatforms: supported,
		Dependencies:       dependencies,
	})
}

// Version 版本信息
func (h *HealthHandler) Version(c *gin.Context) {
	models.Success(c, gin.H{
		"version":       h.version,
		"ytdlp_version": h.ytdlpVersion,
		"service":       "extractor-service",
	})
}

// Ready 就绪检查
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "redis not available",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Live 存活检查
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
