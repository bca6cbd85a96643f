package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStateDirCreatesUnderTempRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	handle := NewMemoryHandle("")
	mgr := &Manager{Handle: handle, TempRoot: root}

	dir, err := mgr.ResolveStateDir()
	require.NoError(t, err)
	require.Equal(t, root, filepath.Dir(dir))
	require.True(t, strings.HasPrefix(filepath.Base(dir), "nix-profile-"))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	stored, ok := handle.Lookup()
	require.True(t, ok)
	require.Equal(t, dir, stored)
}

func TestResolveStateDirIsIdempotent(t *testing.T) {
	t.Parallel()

	mgr := &Manager{Handle: NewMemoryHandle(""), TempRoot: t.TempDir()}

	first, err := mgr.ResolveStateDir()
	require.NoError(t, err)
	second, err := mgr.ResolveStateDir()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveStateDirReusesPublishedPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first, err := (&Manager{Handle: NewMemoryHandle(""), TempRoot: root}).ResolveStateDir()
	require.NoError(t, err)

	// A later invocation starts with the path published by the first one.
	later := &Manager{Handle: NewMemoryHandle(first), TempRoot: root}
	second, err := later.ResolveStateDir()
	require.NoError(t, err)
	require.Equal(t, first, second)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestResolveStateDirAfterResetCreatesNewDir(t *testing.T) {
	t.Parallel()

	handle := NewMemoryHandle("")
	mgr := &Manager{Handle: handle, TempRoot: t.TempDir()}

	first, err := mgr.ResolveStateDir()
	require.NoError(t, err)
	handle.Reset()
	second, err := mgr.ResolveStateDir()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestResolveStateDirFailsForMissingRoot(t *testing.T) {
	t.Parallel()

	mgr := &Manager{Handle: NewMemoryHandle(""), TempRoot: filepath.Join(t.TempDir(), "absent")}
	_, err := mgr.ResolveStateDir()
	require.Error(t, err)
}

func TestEnvHandle(t *testing.T) {
	t.Setenv("TEST_NIX_PROFILE_STATE", "")
	handle := EnvHandle{Name: "TEST_NIX_PROFILE_STATE"}

	_, ok := handle.Lookup()
	require.False(t, ok)

	require.NoError(t, handle.Store("/tmp/nix-profile-123"))
	dir, ok := handle.Lookup()
	require.True(t, ok)
	require.Equal(t, "/tmp/nix-profile-123", dir)
	require.Equal(t, StateEnvVar, EnvHandle{}.name())
}

func TestProfilePaths(t *testing.T) {
	t.Parallel()

	profile := ProfileDir("/tmp/nix-profile-1")
	require.Equal(t, filepath.Join("/tmp/nix-profile-1", ".nix-profile"), profile)
	require.Equal(t, filepath.Join(profile, "bin"), BinDir(profile))
}
