// Package actions talks to the GitHub Actions runner: environment files,
// workflow commands and the runner temp directory.
package actions

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Runner-provided environment variables.
const (
	EnvPath      = "GITHUB_PATH"
	EnvOutput    = "GITHUB_OUTPUT"
	EnvEnv       = "GITHUB_ENV"
	EnvRunnerTmp = "RUNNER_TEMP"
)

// Runner publishes results back to the workflow. The zero value is not
// usable; call New.
type Runner struct {
	Getenv func(string) string
	Setenv func(key, value string) error
	// Stdout receives workflow commands (::group::, ::error:: ...).
	Stdout io.Writer

	delimiter func() string
}

// New returns a Runner bound to the process environment and stdout.
func New() *Runner {
	return &Runner{
		Getenv: os.Getenv,
		Setenv: os.Setenv,
		Stdout: os.Stdout,
	}
}

// TempRoot returns the job-scoped temp directory, or "" outside a runner.
func (r *Runner) TempRoot() string {
	return r.Getenv(EnvRunnerTmp)
}

// AddPath prepends dir to PATH for this process and, when GITHUB_PATH is
// set, for later steps.
func (r *Runner) AddPath(dir string) error {
	if file := r.Getenv(EnvPath); file != "" {
		if err := appendLine(file, dir); err != nil {
			return fmt.Errorf("add path: %w", err)
		}
	}

	current := r.Getenv("PATH")
	if current == "" {
		return r.Setenv("PATH", dir)
	}
	return r.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

// SetOutput sets a step output.
func (r *Runner) SetOutput(name, value string) error {
	if file := r.Getenv(EnvOutput); file != "" {
		msg, err := r.keyValue(name, value)
		if err != nil {
			return err
		}
		if err := appendLine(file, msg); err != nil {
			return fmt.Errorf("set output %s: %w", name, err)
		}
		return nil
	}
	r.command("set-output", "name="+name, value)
	return nil
}

// ExportVariable sets an environment variable for this process and, when
// GITHUB_ENV is set, for later steps of the job.
func (r *Runner) ExportVariable(name, value string) error {
	if err := r.Setenv(name, value); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	if file := r.Getenv(EnvEnv); file != "" {
		msg, err := r.keyValue(name, value)
		if err != nil {
			return err
		}
		if err := appendLine(file, msg); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

// Group starts a collapsible log group.
func (r *Runner) Group(title string) {
	r.command("group", "", title)
}

// EndGroup closes the current log group.
func (r *Runner) EndGroup() {
	r.command("endgroup", "", "")
}

// Fail reports msg as an error annotation.
func (r *Runner) Fail(msg string) {
	r.command("error", "", msg)
}

func (r *Runner) command(name, props, message string) {
	if r.Stdout == nil {
		return
	}
	head := name
	if props != "" {
		head += " " + props
	}
	fmt.Fprintf(r.Stdout, "::%s::%s\n", head, escapeData(message))
}

// keyValue formats a multi-line safe `name<<delim` block for environment files.
func (r *Runner) keyValue(name, value string) (string, error) {
	newDelimiter := r.delimiter
	if newDelimiter == nil {
		newDelimiter = func() string { return "ghadelimiter_" + uuid.NewString() }
	}
	delim := newDelimiter()
	if strings.Contains(name, delim) || strings.Contains(value, delim) {
		return "", fmt.Errorf("value for %s contains the delimiter %q", name, delim)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s", name, delim, value, delim), nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
