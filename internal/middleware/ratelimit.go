package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ytmeta/extractor-service/internal/config"
)

// RateLimiter 按客户端 IP 限流
type RateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.PerMinute
	}
	limit := rate.Inf
	if cfg.PerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.PerMinute))
	}
	return &RateLimiter{
		limit: limit,
		burst: burst,
	}
}

// Allow 判断该 IP 是否还有配额
func (rl *RateLimiter) Allow(ip string) bool {
	if l, ok := rl.limiters.Load(ip); ok {
		return l.(*rate.Limiter).Allow()
	}
	l, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rl.limit, rl.burst))
	return l.(*rate.Limiter).Allow()
}

// IPRateLimit IP 限流中间件
func IPRateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}
