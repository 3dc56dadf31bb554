package main

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/tui"
	"github.com/Jayphen/todone/internal/workspace"
)

func newBoardCmd() *cobra.Command {
	var (
		by      string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks as board columns",
		Long:  `Show tasks grouped by status, priority or project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grouping, err := workspace.ParseGrouping(by)
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), "board", func(ws *workspace.Workspace) error {
				cols := ws.Board(grouping)
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), cols)
				}

				out := cmd.OutOrStdout()
				for i, col := range cols {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, tui.ActiveSectionStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks))))
					for _, t := range col.Tasks {
						fmt.Fprintf(out, "  %s %s %s\n",
							tui.PriorityStyle(t.Priority).Render(tui.IndicatorOpen),
							tui.DimStyle.Render(shortID(t.ID)),
							t.Content)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&by, "by", "status", "Group by status, priority or project")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func newWeekCmd() *cobra.Command {
	var (
		anchor  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the Monday to Sunday week of tasks",
		Long: `Show tasks due in the week containing --anchor (today by default),
one section per day.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "week", func(ws *workspace.Workspace) error {
				day := ws.Today()
				if anchor != "" {
					d, err := civil.ParseDate(anchor)
					if err != nil {
						return fmt.Errorf("invalid anchor date %q (want YYYY-MM-DD)", anchor)
					}
					day = d
				}

				days := ws.Week(day)
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), days)
				}

				out := cmd.OutOrStdout()
				today := ws.Today()
				for _, d := range days {
					heading := d.Date.In(time.UTC).Format("Mon 2 Jan")
					style := tui.SubtitleStyle
					if d.Date == today {
						style = tui.ActiveSectionStyle
					}
					fmt.Fprintln(out, style.Render(heading))
					if len(d.Tasks) == 0 {
						fmt.Fprintln(out, tui.DimStyle.Render("  -"))
						continue
					}
					for _, t := range d.Tasks {
						mark := tui.IndicatorOpen
						content := t.Content
						if t.IsCompleted {
							mark = tui.IndicatorCompleted
							content = tui.DoneStyle.Render(content)
						}
						line := []string{"  " + mark, tui.DimStyle.Render(shortID(t.ID)), content}
						if t.DueTime != "" {
							line = append(line, tui.DimStyle.Render(t.DueTime))
						}
						fmt.Fprintln(out, strings.Join(line, " "))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&anchor, "anchor", "", "Any date in the week (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}
