package panel

import (
	"os/exec"
	"runtime"
)

// OpenURL opens u in the system browser.
func OpenURL(u string) error {
	var openCmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		openCmd = exec.Command("open", u)
	case "windows":
		openCmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u)
	default:
		openCmd = exec.Command("xdg-open", u)
	}
	return openCmd.Start()
}
