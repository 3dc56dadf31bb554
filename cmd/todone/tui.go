package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/tui"
	"github.com/Jayphen/todone/internal/workspace"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal user interface",
		Long:  `Launch the interactive task list.`,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !hasTTY() {
		return fmt.Errorf("the TUI needs an interactive terminal")
	}

	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return withWorkspace(cmd.Context(), "tui", func(ws *workspace.Workspace) error {
		if err := tui.Run(ws, cfg.Keys, Version); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}

func hasTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
