//go:build unix

package ytdlp

import (
	"os/exec"
	"syscall"
)

// setProcessGroup 子进程放入独立进程组, 取消时向整个组发送 SIGKILL
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
