package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func okMark() string { return color.New(color.FgGreen).Sprint("✓") }
func failMark() string { return color.New(color.FgRed).Sprint("✗") }

func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgCyan).Sprint("[*]"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("[!]"), fmt.Sprintf(format, args...))
}

func faint(s string) string {
	return color.New(color.Faint).Sprint(s)
}
