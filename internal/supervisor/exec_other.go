//go:build !windows

package supervisor

import "syscall"

const exeSuffix = ""

// hiddenWindowAttr is a no-op outside Windows; there is no console window
// to hide.
func hiddenWindowAttr() *syscall.SysProcAttr {
	return nil
}
