// Package styles defines the terminal styling used across the interactive
// loop. Styling degrades automatically on non-color terminals via termenv.
package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)

	PROMPT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("14")).
			Bold().
			String()
	}
	ASSISTANT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("13")).
			String()
	}
	COMMAND = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			Bold().
			String()
	}
	DESCRIPTION = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("8")).
			String()
	}
	INFO = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("10")).
			String()
	}
	USAGE = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("6")).
			String()
	}
	WARNING = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("11")).
			String()
	}
	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	STDERR = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			String()
	}
)
