package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/notify"
	"github.com/Jayphen/todone/internal/workspace"
)

func newRemindCmd() *cobra.Command {
	var desktop bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Print what is due today and overdue",
		Long: `Print open tasks that are due today or overdue. With --notify (or
remind_notify in the config) the summary is also sent as a desktop
notification through osascript on macOS or notify-send on Linux.

Meant to be run from cron or a login script.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cmd.Flags().Changed("notify") {
				desktop = cfg.RemindNotify
			}

			return withWorkspace(cmd.Context(), "remind", func(ws *workspace.Workspace) error {
				digest := notify.Collect(ws.Tasks(), ws.Today())
				notifiers := []notify.Notifier{notify.Writer{W: cmd.OutOrStdout()}}
				if desktop {
					notifiers = append(notifiers, notify.NewDesktop())
				}

				sent, err := notify.Remind(digest, notifiers...)
				if err != nil {
					return fmt.Errorf("failed to send reminder: %w", err)
				}
				if !sent {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing due")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&desktop, "notify", false, "Also send a desktop notification")
	return cmd
}
