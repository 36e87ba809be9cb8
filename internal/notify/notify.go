// Package notify writes severity-styled user-facing messages.
//
// It stands in for the editor notification toasts the panel host would show:
// every failure the launcher surfaces to the user goes through here.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	errorStyle   = color.New(color.FgRed)
	warningStyle = color.New(color.FgYellow)
	successStyle = color.New(color.FgGreen)
	infoStyle    = color.New(color.FgBlue)
)

// Console writes styled messages to a single writer.
type Console struct {
	W io.Writer
}

// Stderr returns a Console writing to standard error.
func Stderr() *Console {
	return &Console{W: os.Stderr}
}

func (c *Console) write(style *color.Color, symbol, format string, args ...any) {
	w := c.W
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, style.Sprintf("%s %s", symbol, fmt.Sprintf(format, args...)))
}

// Errorf writes an error message (red, ✗).
func (c *Console) Errorf(format string, args ...any) {
	c.write(errorStyle, "✗", format, args...)
}

// Warningf writes a warning message (yellow, ⚠).
func (c *Console) Warningf(format string, args ...any) {
	c.write(warningStyle, "⚠", format, args...)
}

// Successf writes a success message (green, ✔).
func (c *Console) Successf(format string, args ...any) {
	c.write(successStyle, "✔", format, args...)
}

// Infof writes an informational message (blue, ℹ).
func (c *Console) Infof(format string, args ...any) {
	c.write(infoStyle, "ℹ", format, args...)
}
