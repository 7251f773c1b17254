package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ytmeta/extractor-service/internal/config"
	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/utils"
)

type fakeRunner struct {
	out   RunOutput
	err   error
	block bool

	name  string
	calls [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) (RunOutput, error) {
	f.name = name
	f.calls = append(f.calls, args)
	if f.block {
		<-ctx.Done()
		return RunOutput{}, ctx.Err()
	}
	return f.out, f.err
}

func newTestInvoker(runner Runner, mutate ...func(*config.YTDLPConfig)) *Invoker {
	cfg := &config.YTDLPConfig{BinaryPath: "yt-dlp", Timeout: 30, VersionTimeout: 5}
	for _, m := range mutate {
		m(cfg)
	}
	return NewInvoker(cfg, runner, zap.NewNop())
}

func writeCookieFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "www.instagram.com_cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Netscape HTTP Cookie File\n"), 0600))
	return path
}

func TestBuildArgs_WithCookieFile(t *testing.T) {
	cookie := writeCookieFile(t)
	inv := Invocation{
		Platform: platform.Instagram,
		URL:      "https://www.instagram.com/p/ABC123/",
		Config: platform.Config{
			CookieFile:    cookie,
			UserAgent:     "ua",
			SleepInterval: 3,
			ExtraArgs:     []string{"--extractor-args", "instagram:api_type=graphql"},
			Referer:       "https://www.instagram.com/",
		},
	}

	args := newTestInvoker(&fakeRunner{}).BuildArgs(inv)

	assert.Equal(t, []string{
		"--dump-json", "--no-warnings", "--no-playlist", "--skip-download",
		"--cookies", cookie,
		"--user-agent", "ua",
		"--sleep-interval", "3",
		"--extractor-args", "instagram:api_type=graphql",
		"--referer", "https://www.instagram.com/",
		"https://www.instagram.com/p/ABC123/",
	}, args)
}

func TestBuildArgs_MissingCookieFileIsOmitted(t *testing.T) {
	inv := Invocation{
		Platform: platform.YouTube,
		URL:      "https://youtu.be/dQw4w9WgXcQ",
		Config: platform.Config{
			CookieFile:    filepath.Join(t.TempDir(), "missing.txt"),
			UserAgent:     "ua",
			SleepInterval: 2,
		},
	}

	args := newTestInvoker(&fakeRunner{}).BuildArgs(inv)

	assert.NotContains(t, args, "--cookies")
	assert.NotContains(t, args, "--referer")
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", args[len(args)-1])
}

func TestBuildArgs_DefaultArgsAndProxy(t *testing.T) {
	invoker := newTestInvoker(&fakeRunner{}, func(c *config.YTDLPConfig) {
		c.DefaultArgs = []string{"--force-ipv4"}
		c.Proxy = "socks5://127.0.0.1:1080"
	})

	args := invoker.BuildArgs(Invocation{Platform: platform.Facebook, URL: "https://fb.watch/x/"})

	assert.Equal(t, []string{
		"--dump-json", "--no-warnings", "--no-playlist", "--skip-download",
		"--force-ipv4",
		"--proxy", "socks5://127.0.0.1:1080",
		"https://fb.watch/x/",
	}, args)
}

func TestBuildArgs_Deterministic(t *testing.T) {
	invoker := newTestInvoker(&fakeRunner{})
	inv := Invocation{
		Platform: platform.YouTube,
		URL:      "https://youtu.be/a",
		Config:   platform.Config{UserAgent: "ua", SleepInterval: 2, ExtraArgs: []string{"--x"}},
	}
	assert.Equal(t, invoker.BuildArgs(inv), invoker.BuildArgs(inv))
}

func TestExtract_Success(t *testing.T) {
	runner := &fakeRunner{out: RunOutput{Stdout: []byte(`{"title": "X", "id": "abc"}` + "\n")}}
	invoker := newTestInvoker(runner)

	metadata, err := invoker.Extract(context.Background(), Invocation{
		Platform: platform.YouTube,
		URL:      "https://youtu.be/abc",
		Attempt:  1,
	})

	require.NoError(t, err)
	assert.Equal(t, "X", metadata["title"])
	assert.Equal(t, "youtube", metadata[FieldPlatform])
	assert.Equal(t, MethodPrimary, metadata[FieldMethod])
	assert.Equal(t, "yt-dlp", runner.name)
	require.Len(t, runner.calls, 1)
}

func TestExtract_FallbackMethodTag(t *testing.T) {
	runner := &fakeRunner{out: RunOutput{Stdout: []byte(`{"title": "X"}`)}}
	strategy := platform.FallbackStrategy{Name: "desktop_geo_bypass"}

	metadata, err := newTestInvoker(runner).Extract(context.Background(), Invocation{
		Platform:      platform.YouTube,
		URL:           "https://youtu.be/abc",
		Strategy:      &strategy,
		StrategyIndex: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "fallback_2", metadata[FieldMethod])
}

func TestExtract_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{out: RunOutput{
		Stderr:   []byte("ERROR: [youtube] abc: Private video\n"),
		ExitCode: 1,
	}}

	_, err := newTestInvoker(runner).Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrInvocation)
	assert.ErrorIs(t, err, utils.ErrVideoPrivate)
	assert.Contains(t, err.Error(), "Private video")
}

func TestExtract_NonZeroExitWithoutStderr(t *testing.T) {
	runner := &fakeRunner{out: RunOutput{ExitCode: 2}}

	_, err := newTestInvoker(runner).Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

	assert.ErrorIs(t, err, utils.ErrInvocation)
	assert.Contains(t, err.Error(), "exit status 2")
}

func TestExtract_ParseFailure(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{"empty", ""},
		{"not json", "[youtube] Extracting URL"},
		{"array", `[{"title": "X"}]`},
		{"null", "null"},
		{"two objects", "{\"a\":1}\n{\"b\":2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: RunOutput{Stdout: []byte(tt.stdout)}}

			_, err := newTestInvoker(runner).Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

			assert.ErrorIs(t, err, utils.ErrParse)
			assert.NotErrorIs(t, err, utils.ErrInvocation)
		})
	}
}

func TestExtract_Timeout(t *testing.T) {
	runner := &fakeRunner{block: true}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestInvoker(runner).Extract(ctx, Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

	assert.ErrorIs(t, err, utils.ErrTimeout)
}

func TestExtract_TimeoutMessages(t *testing.T) {
	t.Run("request deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := newTestInvoker(&fakeRunner{block: true}).Extract(ctx, Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

		assert.ErrorIs(t, err, utils.ErrTimeout)
		assert.Contains(t, err.Error(), "request timeout elapsed")
		assert.NotContains(t, err.Error(), "after 30s")
	})

	t.Run("request cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		_, err := newTestInvoker(&fakeRunner{block: true}).Extract(ctx, Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

		assert.ErrorIs(t, err, utils.ErrTimeout)
		assert.Contains(t, err.Error(), "request cancelled")
	})

	t.Run("per-call timeout", func(t *testing.T) {
		invoker := newTestInvoker(&fakeRunner{block: true}, func(c *config.YTDLPConfig) { c.Timeout = 1 })

		_, err := invoker.Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

		assert.ErrorIs(t, err, utils.ErrTimeout)
		assert.Contains(t, err.Error(), "after 1s")
	})
}

func TestExtract_BinaryMissing(t *testing.T) {
	runner := &fakeRunner{err: &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound}}

	_, err := newTestInvoker(runner).Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})

	assert.ErrorIs(t, err, utils.ErrInvocation)
	assert.ErrorIs(t, err, utils.ErrYTDLPNotFound)
}

func TestCheckInstalled(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		runner := &fakeRunner{out: RunOutput{Stdout: []byte("2024.08.06\n")}}

		version, err := newTestInvoker(runner).CheckInstalled(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "2024.08.06", version)
		assert.Equal(t, []string{"--version"}, runner.calls[0])
	})

	t.Run("not installed", func(t *testing.T) {
		runner := &fakeRunner{err: fmt.Errorf("exec: %w", exec.ErrNotFound)}

		_, err := newTestInvoker(runner).CheckInstalled(context.Background())

		assert.ErrorIs(t, err, utils.ErrYTDLPNotFound)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		runner := &fakeRunner{out: RunOutput{ExitCode: 1, Stderr: []byte("No module named yt_dlp")}}

		_, err := newTestInvoker(runner).CheckInstalled(context.Background())

		assert.ErrorIs(t, err, utils.ErrYTDLPNotFound)
	})
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2; exit 3"})

	require.NoError(t, err)
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "out\n", string(out.Stdout))
	assert.Equal(t, "err\n", string(out.Stderr))
}

func TestExecRunner_KillsChildProcessesOnDeadline(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	// sleep 是 sh 的子进程, 持有输出管道
	_, err := ExecRunner{}.Run(ctx, "sh", []string{"-c", "sleep 5; echo done"})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Less(t, elapsed, 200*time.Millisecond+killGracePeriod+time.Second)
}

func TestInvoker_ExecTimeoutBound(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "slow-yt-dlp")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 6\necho '{}'\n"), 0755))

	invoker := NewInvoker(&config.YTDLPConfig{BinaryPath: script, Timeout: 1, VersionTimeout: 1}, nil, zap.NewNop())

	start := time.Now()
	_, err := invoker.Extract(context.Background(), Invocation{Platform: platform.YouTube, URL: "https://youtu.be/abc"})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, utils.ErrTimeout)
	assert.Less(t, elapsed, time.Second+killGracePeriod+time.Second)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-yt-dlp-binary", nil)
	assert.Error(t, err)
}
