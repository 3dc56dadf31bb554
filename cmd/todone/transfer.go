package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/importer"
	"github.com/Jayphen/todone/internal/workspace"
)

func newImportCmd() *cobra.Command {
	var (
		project string
		labels  []string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks from a todolist file",
		Long: `Import "[ ] task" and "[x] task" lines from a plain-text file.

Date phrases in open tasks become due dates. Indented lines become subtasks
of the line above. Other lines are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "import", func(ws *workspace.Workspace) error {
				var opts importer.Options
				if project != "" {
					p, err := resolveProject(ws, project)
					if err != nil {
						return err
					}
					opts.ProjectID = p.ID
				}
				if len(labels) > 0 {
					ids, err := labelIDs(cmd.Context(), ws, labels)
					if err != nil {
						return err
					}
					opts.Labels = ids
				}

				res, err := importer.ImportFile(cmd.Context(), ws, args[0], opts)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks (%d completed)\n", res.Created, res.Completed)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project for the imported tasks")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label for the imported tasks (repeatable)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		output string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "export [query...]",
		Short: "Export tasks as a todolist",
		Long: `Write tasks matching the query as "[ ]" and "[x]" lines, subtasks
indented under their parent. Completed tasks are left out unless --all is
given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "export", func(ws *workspace.Workspace) error {
				tasks := ws.Query(joinArgs(args))
				if !all {
					tasks = activeOnly(tasks)
				}

				if output == "" || output == "-" {
					return importer.Export(cmd.OutOrStdout(), tasks)
				}

				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				if err := importer.Export(file, tasks); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout by default)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	return cmd
}
