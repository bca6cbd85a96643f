package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/nixprofile/internal/profile"
)

func newPostCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Remove the state directory at the end of the job",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(root)
			if err != nil {
				return err
			}

			dir, ok := profile.EnvHandle{}.Lookup()
			if !ok {
				log.Debug("no state directory recorded, nothing to clean up")
				return nil
			}

			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove state directory %s: %w", dir, err)
			}
			log.WithFields(map[string]any{"dir": dir}).Info("removed nix profile state")
			return nil
		},
	}
}
