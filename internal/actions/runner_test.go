package actions

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEnv map[string]string

func (f fakeEnv) get(key string) string { return f[key] }

func (f fakeEnv) set(key, value string) error {
	f[key] = value
	return nil
}

func newTestRunner(env fakeEnv) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Runner{
		Getenv:    env.get,
		Setenv:    env.set,
		Stdout:    out,
		delimiter: func() string { return "ghadelimiter_test" },
	}, out
}

func TestAddPathWritesPathFileAndPrependsPath(t *testing.T) {
	t.Parallel()

	pathFile := filepath.Join(t.TempDir(), "path")
	env := fakeEnv{EnvPath: pathFile, "PATH": "/usr/bin"}
	r, out := newTestRunner(env)

	require.NoError(t, r.AddPath("/tmp/state/.nix-profile/bin"))

	data, err := os.ReadFile(pathFile)
	require.NoError(t, err)
	require.Equal(t, "/tmp/state/.nix-profile/bin\n", string(data))
	require.Equal(t, "/tmp/state/.nix-profile/bin"+string(os.PathListSeparator)+"/usr/bin", env["PATH"])
	require.Empty(t, out.String())
}

func TestSetOutputUsesDelimitedBlock(t *testing.T) {
	t.Parallel()

	outputFile := filepath.Join(t.TempDir(), "output")
	r, _ := newTestRunner(fakeEnv{EnvOutput: outputFile})

	require.NoError(t, r.SetOutput("nix_profile_path", "/tmp/state/.nix-profile"))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	require.Equal(t, "nix_profile_path<<ghadelimiter_test\n/tmp/state/.nix-profile\nghadelimiter_test\n", string(data))
}

func TestSetOutputRejectsDelimiterInValue(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(fakeEnv{EnvOutput: filepath.Join(t.TempDir(), "output")})
	require.Error(t, r.SetOutput("x", "ghadelimiter_test"))
}

func TestExportVariableSetsProcessAndEnvFile(t *testing.T) {
	t.Parallel()

	envFile := filepath.Join(t.TempDir(), "env")
	env := fakeEnv{EnvEnv: envFile}
	r, _ := newTestRunner(env)

	require.NoError(t, r.ExportVariable("STATE_NIX_PROFILE_TMPDIR", "/tmp/state"))
	require.Equal(t, "/tmp/state", env["STATE_NIX_PROFILE_TMPDIR"])

	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "STATE_NIX_PROFILE_TMPDIR<<ghadelimiter_test\n/tmp/state\n")
}

func TestWorkflowCommandsWithoutEnvFiles(t *testing.T) {
	t.Parallel()

	env := fakeEnv{}
	r, out := newTestRunner(env)

	require.NoError(t, r.AddPath("/p/bin"))
	require.NoError(t, r.SetOutput("nix_profile_path", "/p"))
	require.NoError(t, r.ExportVariable("STATE", "/s"))
	r.Group("Installing")
	r.EndGroup()
	r.Fail("Workflow run failed: boom\nsecond line")

	require.Equal(t, "::set-output name=nix_profile_path::/p\n"+
		"::group::Installing\n"+
		"::endgroup::\n"+
		"::error::Workflow run failed: boom%0Asecond line\n", out.String())
	require.Equal(t, "/p/bin", env["PATH"])
	require.Equal(t, "/s", env["STATE"])
}

func TestTempRoot(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(fakeEnv{EnvRunnerTmp: "/home/runner/work/_temp"})
	require.Equal(t, "/home/runner/work/_temp", r.TempRoot())
}
