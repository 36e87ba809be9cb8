package supervisor

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// workerDir and workerName locate the bundled worker relative to the lumi
// binary: <install root>/lumi-server/lumi-server[.exe].
const (
	workerDir  = "lumi-server"
	workerName = "lumi-server"
)

// DefaultWorkerPath returns the fixed install-relative worker location.
func DefaultWorkerPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(workerDir, workerName+exeSuffix)
	}
	return filepath.Join(filepath.Dir(exe), workerDir, workerName+exeSuffix)
}

// execLauncher spawns the worker with os/exec: no arguments, default working
// directory, hidden console window where the platform has one.
type execLauncher struct{}

func (execLauncher) Launch(path string) (Process, error) {
	cmd := exec.Command(path)
	cmd.SysProcAttr = hiddenWindowAttr()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, diag: stderr}, nil
}

// execProcess adapts exec.Cmd to the Process interface.
type execProcess struct {
	cmd  *exec.Cmd
	diag io.Reader
}

func (p *execProcess) Diagnostics() io.Reader { return p.diag }

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
