package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/config"
	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/utils"
)

// 注入到元数据中的标记字段
const (
	FieldPlatform = "detected_platform"
	FieldMethod   = "extraction_method"

	MethodPrimary = "primary"
)

// RunOutput 子进程执行结果
type RunOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner 执行外部命令, 进程正常退出(包括非零退出码)时 error 为 nil
type Runner interface {
	Run(ctx context.Context, name string, args []string) (RunOutput, error)
}

// killGracePeriod ctx 结束后等待输出管道关闭的最长时间
const killGracePeriod = 2 * time.Second

// ExecRunner 基于 os/exec 的 Runner, ctx 结束时终止整个进程组
type ExecRunner struct{}

// Run 执行命令并分别捕获 stdout 与 stderr
func (ExecRunner) Run(ctx context.Context, name string, args []string) (RunOutput, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// yt-dlp 单文件版会派生子进程, 只杀父进程时子进程仍持有管道
	setProcessGroup(cmd)
	cmd.WaitDelay = killGracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := RunOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}

// Invocation 一次 yt-dlp 调用
type Invocation struct {
	Platform      platform.Tag
	URL           string
	Config        platform.Config
	Strategy      *platform.FallbackStrategy // 为 nil 表示主配置
	StrategyIndex int                        // 回退策略序号, 从 1 开始
	Attempt       int                        // 主配置尝试序号, 从 1 开始
}

// Method 返回本次调用的提取路径标识
func (inv Invocation) Method() string {
	if inv.Strategy == nil {
		return MethodPrimary
	}
	return "fallback_" + strconv.Itoa(inv.StrategyIndex)
}

// Invoker yt-dlp命令封装器
type Invoker struct {
	binaryPath     string
	timeout        time.Duration
	versionTimeout time.Duration
	proxy          string
	defaultArgs    []string
	runner         Runner
	logger         *zap.Logger
}

// NewInvoker 创建yt-dlp封装器, runner 为 nil 时使用 ExecRunner
func NewInvoker(cfg *config.YTDLPConfig, runner Runner, logger *zap.Logger) *Invoker {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Invoker{
		binaryPath:     cfg.BinaryPath,
		timeout:        cfg.GetTimeout(),
		versionTimeout: cfg.GetVersionTimeout(),
		proxy:          cfg.Proxy,
		defaultArgs:    cfg.DefaultArgs,
		runner:         runner,
		logger:         logger,
	}
}

// BuildArgs 构建命令参数
func (w *Invoker) BuildArgs(inv Invocation) []string {
	args := []string{
		"--dump-json",
		"--no-warnings",
		"--no-playlist",
		"--skip-download",
	}

	args = append(args, w.defaultArgs...)

	if w.proxy != "" {
		args = append(args, "--proxy", w.proxy)
	}

	// cookie 文件不存在时直接省略
	cfg := inv.Config
	if cfg.CookieFile != "" {
		if _, err := os.Stat(cfg.CookieFile); err == nil {
			args = append(args, "--cookies", cfg.CookieFile)
		} else {
			w.logger.Debug("cookie file not found, continuing without cookies",
				zap.String("platform", inv.Platform.String()),
				zap.String("cookie_file", cfg.CookieFile))
		}
	}

	if cfg.UserAgent != "" {
		args = append(args, "--user-agent", cfg.UserAgent)
	}
	if cfg.SleepInterval > 0 {
		args = append(args, "--sleep-interval", strconv.Itoa(cfg.SleepInterval))
	}

	args = append(args, cfg.ExtraArgs...)

	if cfg.Referer != "" {
		args = append(args, "--referer", cfg.Referer)
	}

	return append(args, inv.URL)
}

// Extract 执行一次调用并解析 JSON 输出
func (w *Invoker) Extract(ctx context.Context, inv Invocation) (map[string]any, error) {
	args := w.BuildArgs(inv)

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	w.logger.Debug("running yt-dlp",
		zap.String("platform", inv.Platform.String()),
		zap.String("method", inv.Method()),
		zap.String("command", w.binaryPath+" "+strings.Join(args, " ")))

	out, err := w.runner.Run(callCtx, w.binaryPath, args)
	if callCtx.Err() != nil {
		return nil, w.timeoutError(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvocation, classifyStartError(err))
	}

	if out.ExitCode != 0 {
		stderr := strings.TrimSpace(string(out.Stderr))
		if stderr == "" {
			stderr = fmt.Sprintf("exit status %d", out.ExitCode)
		}
		return nil, fmt.Errorf("%w: %w: %s", utils.ErrInvocation, utils.MapYTDLPError(stderr), stderr)
	}

	metadata, err := parseMetadata(out.Stdout)
	if err != nil {
		return nil, err
	}

	metadata[FieldPlatform] = inv.Platform.String()
	metadata[FieldMethod] = inv.Method()
	return metadata, nil
}

// timeoutError 区分单次调用超时与调用方的请求取消
func (w *Invoker) timeoutError(parent context.Context) error {
	switch {
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: request timeout elapsed before yt-dlp finished", utils.ErrTimeout)
	case parent.Err() != nil:
		return fmt.Errorf("%w: request cancelled: %v", utils.ErrTimeout, context.Cause(parent))
	default:
		return fmt.Errorf("%w after %v", utils.ErrTimeout, w.timeout)
	}
}

// CheckInstalled 启动时检查 yt-dlp 是否可用, 返回版本号
func (w *Invoker) CheckInstalled(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.versionTimeout)
	defer cancel()

	out, err := w.runner.Run(ctx, w.binaryPath, []string{"--version"})
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrYTDLPNotFound, err)
	}
	if out.ExitCode != 0 {
		return "", fmt.Errorf("%w: exit status %d: %s",
			utils.ErrYTDLPNotFound, out.ExitCode, strings.TrimSpace(string(out.Stderr)))
	}

	return strings.TrimSpace(string(out.Stdout)), nil
}

// parseMetadata 解析 stdout 中的 JSON 对象
func parseMetadata(stdout []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty output", utils.ErrParse)
	}

	var metadata map[string]any
	if err := json.Unmarshal(trimmed, &metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrParse, err)
	}
	if metadata == nil {
		return nil, fmt.Errorf("%w: output is not a JSON object", utils.ErrParse)
	}
	return metadata, nil
}

func classifyStartError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", utils.ErrYTDLPNotFound, err)
	}
	return err
}
