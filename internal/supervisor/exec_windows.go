package supervisor

import "syscall"

const exeSuffix = ".exe"

// hiddenWindowAttr keeps the worker's console window from flashing up.
func hiddenWindowAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{HideWindow: true}
}
