// Package profile manages the state directory that holds the nix profile.
// The directory is created once per job and reused by later invocations.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// StateEnvVar carries the state directory between invocations of the
	// action within one job, and to the post step that deletes it.
	StateEnvVar = "STATE_NIX_PROFILE_TMPDIR"
	// ProfileSubdir is the nix profile's location inside the state directory.
	ProfileSubdir = ".nix-profile"

	tempPattern = "nix-profile-"
)

// Handle stores the state directory path of the current job.
type Handle interface {
	Lookup() (string, bool)
	Store(dir string) error
}

// EnvHandle keeps the path in an environment variable of this process.
type EnvHandle struct {
	// Name defaults to StateEnvVar.
	Name string
}

func (h EnvHandle) name() string {
	if h.Name == "" {
		return StateEnvVar
	}
	return h.Name
}

// Lookup implements Handle.
func (h EnvHandle) Lookup() (string, bool) {
	dir := os.Getenv(h.name())
	return dir, dir != ""
}

// Store implements Handle.
func (h EnvHandle) Store(dir string) error {
	return os.Setenv(h.name(), dir)
}

// MemoryHandle keeps the path in memory. Safe for concurrent use.
type MemoryHandle struct {
	mu  sync.Mutex
	dir string
}

// NewMemoryHandle returns a handle preloaded with dir, which may be empty.
func NewMemoryHandle(dir string) *MemoryHandle {
	return &MemoryHandle{dir: dir}
}

// Lookup implements Handle.
func (h *MemoryHandle) Lookup() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dir, h.dir != ""
}

// Store implements Handle.
func (h *MemoryHandle) Store(dir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dir = dir
	return nil
}

// Reset forgets the stored path.
func (h *MemoryHandle) Reset() {
	_ = h.Store("")
}

// Manager resolves the state directory through a Handle.
type Manager struct {
	Handle Handle
	// TempRoot is where new state directories are created. Empty means
	// os.TempDir().
	TempRoot string
}

// ResolveStateDir returns the directory recorded in the handle, or creates a
// fresh one under TempRoot and records it.
func (m *Manager) ResolveStateDir() (string, error) {
	if dir, ok := m.Handle.Lookup(); ok {
		return dir, nil
	}

	root := m.TempRoot
	if root == "" {
		root = os.TempDir()
	}

	dir, err := os.MkdirTemp(root, tempPattern)
	if err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}

	if err := m.Handle.Store(dir); err != nil {
		return "", fmt.Errorf("record state directory: %w", err)
	}
	return dir, nil
}

// ProfileDir returns the nix profile path inside stateDir.
func ProfileDir(stateDir string) string {
	return filepath.Join(stateDir, ProfileSubdir)
}

// BinDir returns the executables directory of a profile.
func BinDir(profileDir string) string {
	return filepath.Join(profileDir, "bin")
}
