package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/nixprofile/internal/actions"
	"github.com/alexisbeaulieu97/nixprofile/internal/config"
	"github.com/alexisbeaulieu97/nixprofile/internal/installer"
	"github.com/alexisbeaulieu97/nixprofile/internal/nix"
	"github.com/alexisbeaulieu97/nixprofile/internal/profile"
)

func newInstallCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the requested packages and publish the profile (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, root)
		},
	}
}

// loadRequest reads and validates the inputs before anything else runs.
func loadRequest(flags *rootFlags) (config.Request, error) {
	inputs, err := config.Load(config.LoadOptions{File: flags.inputsFile})
	if err != nil {
		return config.Request{}, err
	}
	return inputs.Request()
}

func runInstall(cmd *cobra.Command, flags *rootFlags) error {
	req, err := loadRequest(flags)
	if err != nil {
		return err
	}

	log, err := newLogger(flags)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	runner := actions.New()
	runner.Stdout = cmd.OutOrStdout()

	client := nix.NewClient(flags.nixBinary, log)
	client.Dir = wd
	client.Stdout = cmd.OutOrStdout()
	client.Stderr = cmd.ErrOrStderr()

	inst := &installer.Installer{
		Nix:       client,
		State:     &profile.Manager{Handle: profile.EnvHandle{}, TempRoot: runner.TempRoot()},
		Publisher: runner,
		Logger:    log,
		WorkDir:   wd,
	}

	res, err := inst.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{
		"profile": res.ProfileDir,
		"steps":   len(res.Steps),
	}).Info("nix profile ready")
	return nil
}
