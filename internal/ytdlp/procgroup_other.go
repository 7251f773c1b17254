//go:build !unix

package ytdlp

import "os/exec"

// setProcessGroup 非 unix 平台只终止直接子进程, 由 WaitDelay 兜底
func setProcessGroup(cmd *exec.Cmd) {}
