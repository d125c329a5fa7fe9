package datasite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner@example.com"

func readPermission(t *testing.T, dir string) Permission {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, PermissionFile))
	require.NoError(t, err)

	var perm Permission
	require.NoError(t, json.Unmarshal(data, &perm))
	return perm
}

func TestEnsurePublicFolder(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root, owner)

	dir, err := s.EnsurePublicFolder([]string{"aggregator@openmined.org"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app_pipelines", "cpu_tracker"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	perm := readPermission(t, dir)
	assert.Equal(t, []string{owner}, perm.Admin)
	assert.Equal(t, []string{owner}, perm.Write)
	assert.Equal(t, []string{owner, "aggregator@openmined.org"}, perm.Read)
}

func TestEnsurePrivateFolder(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root, owner)

	dir, err := s.EnsurePrivateFolder()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "private", "cpu_tracker"), dir)

	perm := readPermission(t, dir)
	assert.Equal(t, []string{owner}, perm.Admin)
	assert.Equal(t, []string{owner}, perm.Read)
	assert.Equal(t, []string{owner}, perm.Write)
}

func TestEnsureFolders_Idempotent(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root, owner)

	first, err := s.EnsurePublicFolder(nil)
	require.NoError(t, err)
	second, err := s.EnsurePublicFolder(nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
