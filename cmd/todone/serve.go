package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/api"
	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/logging"
	"github.com/Jayphen/todone/internal/workspace"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve tasks, projects, labels and filters over HTTP under /api.

Every response is {"success": true, "data": ...} or
{"success": false, "error": "..."}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr == "" {
				addr = cfg.APIAddr
			}

			return withWorkspace(cmd.Context(), "serve", func(ws *workspace.Workspace) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
				return api.NewServer(ws, logging.WithCommand("serve")).Run(addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
