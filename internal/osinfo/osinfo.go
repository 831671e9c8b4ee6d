// Package osinfo detects the host OS and shell for the tool description
// text and the startup banner.
package osinfo

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const osReleasePath = "/etc/os-release"

// Info describes the host environment the model proposes commands for.
type Info struct {
	OSName    string
	ShellName string
}

// Detect returns the host OS (with distro name on Linux) and the login
// shell's base name. Missing data degrades to generic values; Detect never
// fails.
func Detect() Info {
	return Info{
		OSName:    osName(),
		ShellName: shellName(),
	}
}

func osName() string {
	switch runtime.GOOS {
	case "linux":
		if distro := linuxDistroName(osReleasePath); distro != "" {
			return "Linux " + distro
		}
		return "Linux"
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}

func shellName() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "bash"
	}
	return filepath.Base(shell)
}

// linuxDistroName extracts the distribution name from an os-release file.
func linuxDistroName(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var name string
	for _, line := range strings.Split(string(content), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch key {
		case "PRETTY_NAME":
			return value
		case "NAME":
			name = value
		}
	}
	return name
}
