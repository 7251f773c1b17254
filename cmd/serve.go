package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	logger.Info("Starting extractor service", zap.Int("port", cfg.Server.Port), zap.String("version", Version))

	// 1. 检查 yt-dlp 并构建服务
	comps, err := buildComponents(cmd.Context(), true)
	if err != nil {
		logger.Error("yt-dlp is not available, refusing to start", zap.Error(err))
		return err
	}
	defer comps.Close()

	// 2. 设置路由
	r := router.SetupRouter(&router.Dependencies{
		Config:       cfg,
		Extractor:    comps.service,
		Cache:        comps.cache,
		YTDLPVersion: comps.ytdlpVersion,
		Version:      Version,
		Logger:       logger,
	})

	// 3. 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("✓ HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 4. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		logger.Error("Failed to serve", zap.Error(err))
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")

	// 5. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
