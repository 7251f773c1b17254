package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/cache"
	"ytmeta/extractor-service/internal/config"
	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/service"
	"ytmeta/extractor-service/internal/ytdlp"
)

// Version 构建时通过 ldflags 注入
var Version = "dev"

var (
	flagConfig string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:               "extractor",
	Short:             "Multi-platform yt-dlp JSON extractor",
	Long:              "HTTP service that detects YouTube, Instagram and Facebook URLs and returns yt-dlp metadata.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              serveRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config/dev.yaml", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err = newLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	return nil
}

// newLogger 根据配置创建 zap 日志
func newLogger(c *config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if c.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	zcfg.Level = level

	return zcfg.Build()
}

// components 进程内共享的组件
type components struct {
	table        *platform.Table
	invoker      *ytdlp.Invoker
	service      *service.ExtractorService
	cache        *cache.Service
	redis        *redis.Client
	ytdlpVersion string
}

// buildComponents 检查 yt-dlp 并构建提取服务, yt-dlp 不可用时返回错误
func buildComponents(ctx context.Context, withCache bool) (*components, error) {
	invoker := ytdlp.NewInvoker(&cfg.YTDLP, nil, logger)

	version, err := invoker.CheckInstalled(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("✓ yt-dlp available", zap.String("version", version), zap.String("binary", cfg.YTDLP.BinaryPath))

	c := &components{
		table:        platform.DefaultTable(cfg.YTDLP.CookiesDir),
		invoker:      invoker,
		ytdlpVersion: version,
	}

	opts := service.Options{
		MaxAttempts:   cfg.YTDLP.MaxRetries,
		MaxConcurrent: cfg.YTDLP.MaxConcurrent,
	}

	if withCache && cfg.Cache.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := c.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, cache may be unavailable", zap.Error(err))
		} else {
			logger.Info("✓ Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
		c.cache = cache.NewService(c.redis, cfg.Cache.GetCacheTTL())
		opts.Cache = c.cache
	}

	for _, s := range c.table.Describe() {
		logger.Info("platform configured",
			zap.String("platform", s.Platform.String()),
			zap.String("cookies_file", s.CookiesFile),
			zap.Bool("cookies_present", s.CookiesPresent),
			zap.Int("fallback_strategies", s.Fallbacks))
	}

	c.service = service.NewExtractorService(c.table, invoker, opts, logger)
	return c, nil
}

// Close 释放资源
func (c *components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
