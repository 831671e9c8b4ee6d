package osinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_NeverEmpty(t *testing.T) {
	info := Detect()

	assert.NotEmpty(t, info.OSName)
	assert.NotEmpty(t, info.ShellName)
}

func TestShellName_FallsBackToBash(t *testing.T) {
	t.Setenv("SHELL", "")
	assert.Equal(t, "bash", shellName())

	t.Setenv("SHELL", "/usr/bin/zsh")
	assert.Equal(t, "zsh", shellName())
}

func TestLinuxDistroName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	content := "NAME=\"Debian GNU/Linux\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nID=debian\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	assert.Equal(t, "Debian GNU/Linux 12 (bookworm)", linuxDistroName(path))
}

func TestLinuxDistroName_NameOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte("NAME=Alpine\n"), 0o644))

	assert.Equal(t, "Alpine", linuxDistroName(path))
}

func TestLinuxDistroName_MissingFile(t *testing.T) {
	assert.Empty(t, linuxDistroName(filepath.Join(t.TempDir(), "absent")))
}
