package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/nixprofile/internal/logger"
	"github.com/alexisbeaulieu97/nixprofile/internal/nix"
)

type rootFlags struct {
	verbose    bool
	inputsFile string
	nixBinary  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "nixprofile",
		Short:         "Install nix packages into a reusable profile for the current job",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, flags)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.inputsFile, "inputs-file", "", "YAML file with action inputs; INPUT_* variables take precedence")
	cmd.PersistentFlags().StringVar(&flags.nixBinary, "nix", nix.DefaultBinary, "nix executable to run")

	cmd.AddCommand(newInstallCmd(flags))
	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newPostCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newLogger(flags *rootFlags) (*logger.Logger, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: true})
}
