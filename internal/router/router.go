package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/cache"
	"ytmeta/extractor-service/internal/config"
	"ytmeta/extractor-service/internal/handler"
	"ytmeta/extractor-service/internal/middleware"
	"ytmeta/extractor-service/internal/models"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config       *config.Config
	Extractor    handler.Extractor
	Cache        *cache.Service // 未启用缓存时为 nil
	YTDLPVersion string
	Version      string
	Logger       *zap.Logger
}

// SetupRouter 设置路由
func SetupRouter(deps *Dependencies) *gin.Engine {
	if deps.Config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(&deps.Config.CORS))

	var pinger handler.Pinger
	if deps.Cache != nil {
		pinger = deps.Cache
	}

	rateLimiter := middleware.NewRateLimiter(&deps.Config.RateLimit)
	extractHandler := handler.NewExtractHandler(deps.Extractor, deps.Config.Server.RequestTimeout, deps.Logger)
	healthHandler := handler.NewHealthHandler(pinger, deps.YTDLPVersion, deps.Version)

	// 健康检查
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/version", healthHandler.Version)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/live", healthHandler.Live)

	// 平台信息
	r.GET("/platform-info", extractHandler.PlatformInfo)
	r.GET("/supported-platforms", extractHandler.SupportedPlatforms)

	// 提取 (限流)
	r.GET("/", middleware.IPRateLimit(rateLimiter), extractHandler.Extract)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/extract", middleware.IPRateLimit(rateLimiter), extractHandler.Extract)
		v1.GET("/platform-info", extractHandler.PlatformInfo)
		v1.GET("/supported-platforms", extractHandler.SupportedPlatforms)
	}

	r.NoRoute(func(c *gin.Context) {
		models.Error(c, http.StatusNotFound, "Endpoint not found")
	})

	return r
}
