package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	return manager
}

func TestAddAndRecent(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.Add("list files in /tmp")
	require.NoError(t, err)
	_, err = manager.Add("show disk usage")
	require.NoError(t, err)

	entries, err := manager.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "list files in /tmp", entries[0].Prompt)
	assert.Equal(t, "show disk usage", entries[1].Prompt)
}

func TestRecent_HonorsLimit(t *testing.T) {
	manager := newTestManager(t)

	for _, prompt := range []string{"one", "two", "three"} {
		_, err := manager.Add(prompt)
		require.NoError(t, err)
	}

	entries, err := manager.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Prompt)
	assert.Equal(t, "three", entries[1].Prompt)
}

func TestSearch(t *testing.T) {
	manager := newTestManager(t)

	for _, prompt := range []string{"check disk usage", "list processes", "disk free space"} {
		_, err := manager.Add(prompt)
		require.NoError(t, err)
	}

	entries, err := manager.Search("disk", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "disk free space", entries[0].Prompt)
}

func TestRecent_EmptyDatabase(t *testing.T) {
	manager := newTestManager(t)

	entries, err := manager.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
