package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/tui"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List projects with their open task counts",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "project list", func(ws *workspace.Workspace) error {
					open := make(map[string]int)
					for _, t := range ws.Tasks() {
						if !t.IsCompleted {
							open[t.ProjectID]++
						}
					}
					out := cmd.OutOrStdout()
					for _, p := range ws.Projects() {
						name := p.Name
						if p.IsFavorite {
							name += " *"
						}
						fmt.Fprintf(out, "%s %s %s\n",
							cell(tui.DimStyle.Render(shortID(p.ID)), 9),
							cell(colored(p.Color, name), 24),
							tui.DimStyle.Render(fmt.Sprintf("%d open", open[p.ID])))
					}
					return nil
				})
			},
		},
		newNamedAddCmd("project", func(cmd *cobra.Command, ws *workspace.Workspace, name, color, _ string) (string, error) {
			p, err := ws.AddProject(cmd.Context(), name, color)
			return p.ID, err
		}),
		newProjectEditCmd(),
		&cobra.Command{
			Use:   "rm <name|id>",
			Short: "Delete a project, moving its tasks to the inbox",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "project rm", func(ws *workspace.Workspace) error {
					p, err := resolveProject(ws, args[0])
					if err != nil {
						return err
					}
					if err := ws.DeleteProject(cmd.Context(), p.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.Name)
					return nil
				})
			},
		},
	)
	return cmd
}

// colored renders s in the given lipgloss color when one is set.
func colored(color, s string) string {
	if color == "" {
		return s
	}
	return tui.ColorStyle(color).Render(s)
}

// newNamedAddCmd builds the "add <name>" subcommand shared by projects,
// labels and filters. add returns the new record's id.
func newNamedAddCmd(kind string, add func(cmd *cobra.Command, ws *workspace.Workspace, name, color, query string) (string, error)) *cobra.Command {
	var color, query string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "filter" && strings.TrimSpace(query) == "" {
				return fmt.Errorf("a filter needs --query")
			}
			return withWorkspace(cmd.Context(), kind+" add", func(ws *workspace.Workspace) error {
				id, err := add(cmd, ws, args[0], color, query)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", kind, args[0], id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color")
	if kind == "filter" {
		cmd.Flags().StringVarP(&query, "query", "q", "", `Query, e.g. "today @errand"`)
	}
	return cmd
}

func newProjectEditCmd() *cobra.Command {
	var (
		patch             workspace.ProjectPatch
		name, color, view string
		favorite          bool
	)

	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Rename or restyle a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			if changed("name") {
				patch.Name = &name
			}
			if changed("color") {
				patch.Color = &color
			}
			if changed("view") {
				patch.ViewType = &view
			}
			if changed("favorite") {
				patch.IsFavorite = &favorite
			}
			if patch == (workspace.ProjectPatch{}) {
				return fmt.Errorf("nothing to change")
			}
			return withWorkspace(cmd.Context(), "project edit", func(ws *workspace.Workspace) error {
				p, err := resolveProject(ws, args[0])
				if err != nil {
					return err
				}
				if p, err = ws.UpdateProject(cmd.Context(), p.ID, patch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().StringVar(&view, "view", "", "View type: list, board or calendar")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark as favorite")
	return cmd
}

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "label",
		Aliases: []string{"labels"},
		Short:   "Manage labels",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List labels with their open task counts",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "label list", func(ws *workspace.Workspace) error {
					out := cmd.OutOrStdout()
					for _, l := range ws.Labels() {
						open := len(activeOnly(ws.Query("@" + l.Name)))
						fmt.Fprintf(out, "%s %s %s\n",
							cell(tui.DimStyle.Render(shortID(l.ID)), 9),
							cell(colored(l.Color, "@"+l.Name), 24),
							tui.DimStyle.Render(fmt.Sprintf("%d open", open)))
					}
					return nil
				})
			},
		},
		newNamedAddCmd("label", func(cmd *cobra.Command, ws *workspace.Workspace, name, color, _ string) (string, error) {
			l, err := ws.AddLabel(cmd.Context(), strings.TrimPrefix(name, "@"), color)
			return l.ID, err
		}),
		newLabelEditCmd(),
		&cobra.Command{
			Use:   "rm <name|id>",
			Short: "Delete a label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "label rm", func(ws *workspace.Workspace) error {
					l, err := resolveLabel(ws, args[0])
					if err != nil {
						return err
					}
					if err := ws.DeleteLabel(cmd.Context(), l.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted label @%s\n", l.Name)
					return nil
				})
			},
		},
	)
	return cmd
}

func newLabelEditCmd() *cobra.Command {
	var (
		patch       workspace.LabelPatch
		name, color string
		favorite    bool
	)

	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Rename or recolor a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			if changed("name") {
				name = strings.TrimPrefix(name, "@")
				patch.Name = &name
			}
			if changed("color") {
				patch.Color = &color
			}
			if changed("favorite") {
				patch.IsFavorite = &favorite
			}
			if patch == (workspace.LabelPatch{}) {
				return fmt.Errorf("nothing to change")
			}
			return withWorkspace(cmd.Context(), "label edit", func(ws *workspace.Workspace) error {
				l, err := resolveLabel(ws, args[0])
				if err != nil {
					return err
				}
				if l, err = ws.UpdateLabel(cmd.Context(), l.ID, patch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated label @%s\n", l.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark as favorite")
	return cmd
}

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filter",
		Aliases: []string{"filters"},
		Short:   "Manage saved filters",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved filters with their match counts",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "filter list", func(ws *workspace.Workspace) error {
					counts := ws.FilterCounts()
					out := cmd.OutOrStdout()
					for _, f := range ws.Filters() {
						fmt.Fprintf(out, "%s %s %s %s\n",
							cell(tui.DimStyle.Render(shortID(f.ID)), 9),
							cell(colored(f.Color, f.Name), 20),
							cell(f.Query, 32),
							tui.DimStyle.Render(fmt.Sprintf("%d", counts[f.ID])))
					}
					return nil
				})
			},
		},
		newNamedAddCmd("filter", func(cmd *cobra.Command, ws *workspace.Workspace, name, color, query string) (string, error) {
			f, err := ws.AddFilter(cmd.Context(), name, query, color)
			return f.ID, err
		}),
		newFilterEditCmd(),
		&cobra.Command{
			Use:   "rm <name|id>",
			Short: "Delete a saved filter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWorkspace(cmd.Context(), "filter rm", func(ws *workspace.Workspace) error {
					f, err := resolveFilter(ws, args[0])
					if err != nil {
						return err
					}
					if err := ws.DeleteFilter(cmd.Context(), f.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted filter %s\n", f.Name)
					return nil
				})
			},
		},
		newFilterRunCmd(),
	)
	return cmd
}

func newFilterEditCmd() *cobra.Command {
	var (
		patch              workspace.FilterPatch
		name, query, color string
		favorite           bool
	)

	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Change a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			if changed("name") {
				patch.Name = &name
			}
			if changed("query") {
				patch.Query = &query
			}
			if changed("color") {
				patch.Color = &color
			}
			if changed("favorite") {
				patch.IsFavorite = &favorite
			}
			if patch == (workspace.FilterPatch{}) {
				return fmt.Errorf("nothing to change")
			}
			return withWorkspace(cmd.Context(), "filter edit", func(ws *workspace.Workspace) error {
				f, err := resolveFilter(ws, args[0])
				if err != nil {
					return err
				}
				if f, err = ws.UpdateFilter(cmd.Context(), f.ID, patch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated filter %s: %s\n", f.Name, f.Query)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&query, "query", "q", "", "New query")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark as favorite")
	return cmd
}

func newFilterRunCmd() *cobra.Command {
	var (
		jsonOut bool
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "run <name|id>",
		Short: "List the tasks matching a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "filter run", func(ws *workspace.Workspace) error {
				f, err := resolveFilter(ws, args[0])
				if err != nil {
					return err
				}
				tasks, err := ws.FilterTasks(f.ID)
				if err != nil {
					return err
				}
				if !all {
					tasks = activeOnly(tasks)
				}
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				printFilterTasks(cmd, ws, f, tasks)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	return cmd
}

func printFilterTasks(cmd *cobra.Command, ws *workspace.Workspace, f types.Filter, tasks []types.Task) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.TitleStyle.Render(f.Name)+" "+tui.DimStyle.Render(f.Query))
	fmt.Fprintln(out)
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return
	}
	newTaskTable(ws).print(out, tasks)
}
