// Package nix wraps the nix CLI calls the installer depends on: profile
// installs, flake locking, package probing and system detection.
package nix

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/alexisbeaulieu97/nixprofile/internal/execx"
	"github.com/alexisbeaulieu97/nixprofile/internal/logger"
)

// DefaultBinary is looked up on PATH when Client.Binary is empty.
const DefaultBinary = "nix"

var experimentalFeatures = []string{"--extra-experimental-features", "nix-command flakes"}

// Client runs nix subcommands. The zero value uses `nix` from PATH in the
// current directory.
type Client struct {
	Binary string
	// Dir is the working directory for every invocation.
	Dir string
	// Stdout and Stderr receive streamed output of profile installs. They
	// default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
	Logger *logger.Logger
}

// NewClient returns a Client for the given binary.
func NewClient(binary string, log *logger.Logger) *Client {
	return &Client{Binary: binary, Logger: log}
}

// InstallOptions selects what one `nix profile install` call adds.
// Exactly one of Installables and Expr is expected to be set.
type InstallOptions struct {
	Profile      string
	InputsFrom   string
	Installables []string
	Expr         string
}

// Args returns the nix arguments (without the binary) for the install.
func (o InstallOptions) Args() []string {
	args := []string{"profile", "install", "--profile", o.Profile}
	if o.Expr != "" {
		return append(args, "--expr", o.Expr)
	}
	if o.InputsFrom != "" {
		args = append(args, "--inputs-from", o.InputsFrom)
	}
	return append(args, o.Installables...)
}

// ProfileInstall runs `nix profile install`, streaming its output. The
// returned Result is populated even when the install fails.
func (c *Client) ProfileInstall(ctx context.Context, opts InstallOptions) (execx.Result, error) {
	cmd := c.command(ctx, opts.Args()...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	res, err := execx.RunStreaming(cmd)
	if err != nil {
		if out := execx.PrimaryOutput(res); out != "" {
			return res, fmt.Errorf("nix profile install: %w: %s", err, out)
		}
		return res, fmt.Errorf("nix profile install: %w", err)
	}
	return res, nil
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	full := make([]string, 0, len(experimentalFeatures)+len(args))
	full = append(full, experimentalFeatures...)
	full = append(full, args...)

	c.Logger.WithFields(map[string]any{"binary": binary, "args": args}).Debug("running nix")

	cmd := exec.CommandContext(ctx, binary, full...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	return cmd
}
