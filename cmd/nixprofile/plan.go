package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/alexisbeaulieu97/nixprofile/internal/actions"
	"github.com/alexisbeaulieu97/nixprofile/internal/installer"
	"github.com/alexisbeaulieu97/nixprofile/internal/nix"
	"github.com/alexisbeaulieu97/nixprofile/internal/profile"
)

var (
	planHeaderStyle = lipgloss.NewStyle().Bold(true)
	planStepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	planNoteStyle   = lipgloss.NewStyle().Faint(true)
)

func newPlanCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the nix commands an install would run, without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, root)
		},
	}
}

func runPlan(cmd *cobra.Command, flags *rootFlags) error {
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

	// An existing state directory is reused as is; otherwise a placeholder
	// path is shown and nothing is created.
	stateDir, ok := profile.EnvHandle{}.Lookup()
	if !ok {
		root := actions.New().TempRoot()
		if root == "" {
			root = os.TempDir()
		}
		stateDir = filepath.Join(root, "nix-profile-XXXXXX")
	}

	client := nix.NewClient(flags.nixBinary, log)
	client.Dir = wd

	inst := &installer.Installer{
		Nix:     client,
		State:   &profile.Manager{Handle: profile.NewMemoryHandle(stateDir)},
		Logger:  log,
		WorkDir: wd,
	}

	prepared, err := inst.Prepare(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printPlan(cmd.OutOrStdout(), flags.nixBinary, prepared)
}

func printPlan(w io.Writer, binary string, prepared *installer.Prepared) error {
	fmt.Fprintln(w, planHeaderStyle.Render(fmt.Sprintf("%d install step(s) into %s", len(prepared.Invocations), prepared.ProfileDir)))

	for i, inv := range prepared.Invocations {
		line, err := shellLine(binary, inv.Options.Args())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n  %s\n", planStepStyle.Render(fmt.Sprintf("[%d] %s", i+1, inv.Step.ID)), line)
	}

	fmt.Fprintln(w, planNoteStyle.Render("bin directory: "+prepared.BinDir))
	return nil
}

func shellLine(binary string, args []string) (string, error) {
	words := make([]string, 0, len(args)+1)
	for _, word := range append([]string{binary}, args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", word, err)
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " "), nil
}
