package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	YTDLP     YTDLPConfig     `yaml:"ytdlp"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int           `yaml:"port"`
	Mode           string        `yaml:"mode"` // debug, release
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 单个提取请求的总时长上限
}

// YTDLPConfig yt-dlp配置
type YTDLPConfig struct {
	BinaryPath     string   `yaml:"binary_path"`
	Timeout        int      `yaml:"timeout"`         // 单次调用超时(秒)
	VersionTimeout int      `yaml:"version_timeout"` // 启动检查超时(秒)
	MaxRetries     int      `yaml:"max_retries"`     // 主配置尝试次数
	MaxConcurrent  int      `yaml:"max_concurrent"`  // 最大并发提取数
	CookiesDir     string   `yaml:"cookies_dir"`
	Proxy          string   `yaml:"proxy"`
	DefaultArgs    []string `yaml:"default_args"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTL     int  `yaml:"ttl"` // 缓存TTL(秒)
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"` // 每个IP每分钟请求数
	Burst     int `yaml:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// LoadConfig 加载配置文件, 文件不存在时仅使用默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnv 从环境变量覆盖配置
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("YTDLP_BINARY"); v != "" {
		cfg.YTDLP.BinaryPath = v
	}
	if v := os.Getenv("YTDLP_TIMEOUT"); v != "" {
		timeout, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid YTDLP_TIMEOUT %q: %w", v, err)
		}
		cfg.YTDLP.Timeout = timeout
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RETRIES %q: %w", v, err)
		}
		cfg.YTDLP.MaxRetries = retries
	}
	if v := os.Getenv("COOKIES_DIR"); v != "" {
		cfg.YTDLP.CookiesDir = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		cfg.RateLimit.PerMinute = limit
	}

	// Redis
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// applyDefaults 设置默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Minute
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 12 * time.Minute
	}
	if cfg.YTDLP.BinaryPath == "" {
		cfg.YTDLP.BinaryPath = "yt-dlp"
	}
	if cfg.YTDLP.Timeout == 0 {
		cfg.YTDLP.Timeout = 90
	}
	if cfg.YTDLP.VersionTimeout == 0 {
		cfg.YTDLP.VersionTimeout = 10
	}
	if cfg.YTDLP.MaxRetries == 0 {
		cfg.YTDLP.MaxRetries = 3
	}
	if cfg.YTDLP.MaxConcurrent == 0 {
		cfg.YTDLP.MaxConcurrent = 10
	}
	if cfg.YTDLP.CookiesDir == "" {
		cfg.YTDLP.CookiesDir = "."
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.PerMinute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// GetCacheTTL 获取缓存TTL时间
func (c *CacheConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetTimeout 获取单次调用超时时间
func (c *YTDLPConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetVersionTimeout 获取启动检查超时时间
func (c *YTDLPConfig) GetVersionTimeout() time.Duration {
	return time.Duration(c.VersionTimeout) * time.Second
}
