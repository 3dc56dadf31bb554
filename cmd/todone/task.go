package main

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/nldate"
	"github.com/Jayphen/todone/internal/recurrence"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newTaskShowCmd(),
		newTaskDoneCmd(),
		newTaskEditCmd(),
		newTaskRemoveCmd(),
		newTaskMoveCmd(),
		newTaskReorderCmd(),
	)
	return cmd
}

// taskFlags are the task fields shared by add and edit.
type taskFlags struct {
	project     string
	labels      []string
	priority    int
	due         string
	dueTime     string
	duration    int
	every       string
	parent      string
	description string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "Project name or id")
	cmd.Flags().StringSliceVarP(&f.labels, "label", "l", nil, "Label name (repeatable, created when missing)")
	cmd.Flags().IntVarP(&f.priority, "priority", "p", 0, "Priority 1 (highest) to 4")
	cmd.Flags().StringVar(&f.due, "due", "", `Due date: YYYY-MM-DD or a phrase like "next friday"`)
	cmd.Flags().StringVar(&f.dueTime, "time", "", "Due time (HH:mm)")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "Estimated duration in minutes")
	cmd.Flags().StringVar(&f.every, "every", "", "Repeat: daily, weekdays, weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.parent, "parent", "", "Parent task id (makes a subtask)")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Longer description")
}

// parseDue accepts an ISO date or a natural-language phrase resolved against now.
func parseDue(s string, now time.Time) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	m, err := nldate.Extract(s, now)
	if err != nil {
		return civil.Date{}, err
	}
	if m == nil {
		return civil.Date{}, fmt.Errorf("could not understand due date %q", s)
	}
	return m.Date(), nil
}

func parseDueTime(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q (want HH:mm)", s)
	}
	return t.Format("15:04"), nil
}

func parsePriority(p int) (types.Priority, error) {
	if p == 0 {
		return 0, nil
	}
	if !types.Priority(p).Valid() {
		return 0, fmt.Errorf("priority must be 1-4, got %d", p)
	}
	return types.Priority(p), nil
}

func parseRecurrence(s string) (types.RecurrencePattern, error) {
	if s == "" {
		return "", nil
	}
	p, ok := recurrence.ParsePattern(s)
	if !ok {
		return "", fmt.Errorf("unknown repeat pattern %q", s)
	}
	return p, nil
}

func newAddCmd() *cobra.Command {
	var (
		flags   taskFlags
		noParse bool
	)

	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task",
		Long: `Add a task. A date phrase in the text becomes the due date and is
removed from the content:

  todone add Buy milk tomorrow
  todone add "Pay rent" --due 2024-07-01 --every monthly -p 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "add", func(ws *workspace.Workspace) error {
				in, err := flags.input(cmd, ws)
				if err != nil {
					return err
				}
				text := joinArgs(args)

				var task types.Task
				if noParse {
					in.Content = text
					task, err = ws.CreateTask(cmd.Context(), in)
				} else {
					task, err = ws.QuickAdd(cmd.Context(), text, in)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added %s: %s\n", shortID(task.ID), task.Content)
				if task.DueDate != nil {
					fmt.Fprintf(out, "  due %s\n", task.DueDate)
				}
				if task.IsRecurring {
					fmt.Fprintf(out, "  repeats %s\n", recurrence.Humanize(task.RecurringPattern))
				}
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noParse, "no-parse", false, "Keep date phrases in the text")
	return cmd
}

// input builds a TaskInput from the flags, resolving names against ws.
func (f *taskFlags) input(cmd *cobra.Command, ws *workspace.Workspace) (workspace.TaskInput, error) {
	var in workspace.TaskInput
	var err error

	if in.Priority, err = parsePriority(f.priority); err != nil {
		return in, err
	}
	if in.RecurringPattern, err = parseRecurrence(f.every); err != nil {
		return in, err
	}
	if in.DueTime, err = parseDueTime(f.dueTime); err != nil {
		return in, err
	}
	if f.due != "" {
		d, err := parseDue(f.due, time.Now())
		if err != nil {
			return in, err
		}
		in.DueDate = &d
	}
	if f.project != "" {
		p, err := resolveProject(ws, f.project)
		if err != nil {
			return in, err
		}
		in.ProjectID = p.ID
	}
	if f.parent != "" {
		parent, err := resolveTask(ws, f.parent)
		if err != nil {
			return in, err
		}
		in.ParentID = parent.ID
		if in.ProjectID == "" {
			in.ProjectID = parent.ProjectID
		}
	}
	if len(f.labels) > 0 {
		if in.Labels, err = labelIDs(cmd.Context(), ws, f.labels); err != nil {
			return in, err
		}
	}
	in.Description = f.description
	in.Duration = f.duration
	return in, nil
}

func newListCmd() *cobra.Command {
	var (
		jsonOut bool
		all     bool
		filter  string
	)

	cmd := &cobra.Command{
		Use:     "list [query...]",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks matching a query. Words are ANDed together:

  today, tomorrow, overdue, no date    by due date
  p1 .. p4                             by priority
  @label  #project  #inbox             by label or project name
  search:text, anything else           content contains the text

Completed tasks are hidden unless --all is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "list", func(ws *workspace.Workspace) error {
				var tasks []types.Task
				if filter != "" {
					f, err := resolveFilter(ws, filter)
					if err != nil {
						return err
					}
					if tasks, err = ws.FilterTasks(f.ID); err != nil {
						return err
					}
				} else {
					tasks = ws.Query(joinArgs(args))
				}

				if !all {
					tasks = activeOnly(tasks)
				}

				if jsonOut {
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
					return nil
				}
				newTaskTable(ws).print(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Run a saved filter by name or id")
	return cmd
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func activeOnly(tasks []types.Task) []types.Task {
	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

func newTaskShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "task show", func(ws *workspace.Workspace) error {
				t, err := resolveTask(ws, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), t)
				}
				newTaskTable(ws).printDetail(cmd.OutOrStdout(), t, ws.Subtasks(t.ID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func newTaskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>...",
		Aliases: []string{"toggle"},
		Short:   "Complete a task, or reopen a completed one",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "task done", func(ws *workspace.Workspace) error {
				out := cmd.OutOrStdout()
				for _, ref := range args {
					t, err := resolveTask(ws, ref)
					if err != nil {
						return err
					}
					res, err := ws.ToggleTask(cmd.Context(), t.ID)
					if err != nil {
						return err
					}
					if res.Task.IsCompleted {
						fmt.Fprintf(out, "Completed %s: %s\n", shortID(t.ID), t.Content)
					} else {
						fmt.Fprintf(out, "Reopened %s: %s\n", shortID(t.ID), t.Content)
					}
					if res.Next != nil {
						fmt.Fprintf(out, "  next occurrence %s due %s\n", shortID(res.Next.ID), res.Next.DueDate)
					}
				}
				return nil
			})
		},
	}
}

func newTaskEditCmd() *cobra.Command {
	var (
		flags      taskFlags
		content    string
		clearDue   bool
		noRepeat   bool
		topLevel   bool
		clearLabel bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change task fields",
		Long:  `Change the fields given as flags. Unset flags are left alone.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "task edit", func(ws *workspace.Workspace) error {
				t, err := resolveTask(ws, args[0])
				if err != nil {
					return err
				}

				changed := cmd.Flags().Changed
				var patch types.TaskPatch

				if changed("content") {
					patch.Content = &content
				}
				if changed("description") {
					patch.Description = &flags.description
				}
				if changed("priority") {
					p, err := parsePriority(flags.priority)
					if err != nil {
						return err
					}
					if p == 0 {
						return fmt.Errorf("priority must be 1-4, got 0")
					}
					patch.Priority = &p
				}
				if changed("project") {
					p, err := resolveProject(ws, flags.project)
					if err != nil {
						return err
					}
					patch.ProjectID = &p.ID
				}
				if changed("label") || clearLabel {
					ids := []string{}
					if !clearLabel {
						if ids, err = labelIDs(cmd.Context(), ws, flags.labels); err != nil {
							return err
						}
					}
					patch.Labels = &ids
				}
				if clearDue {
					patch.ClearDueDate = true
				} else if changed("due") {
					d, err := parseDue(flags.due, time.Now())
					if err != nil {
						return err
					}
					patch.DueDate = &d
				}
				if changed("time") {
					tm, err := parseDueTime(flags.dueTime)
					if err != nil {
						return err
					}
					patch.DueTime = &tm
				}
				if changed("duration") {
					patch.Duration = &flags.duration
				}
				if noRepeat {
					off := false
					none := types.RecurrencePattern("")
					patch.IsRecurring = &off
					patch.RecurringPattern = &none
				} else if changed("every") {
					p, err := parseRecurrence(flags.every)
					if err != nil {
						return err
					}
					on := p != ""
					patch.IsRecurring = &on
					patch.RecurringPattern = &p
				}
				if topLevel {
					none := ""
					patch.ParentID = &none
				} else if changed("parent") {
					parent, err := resolveTask(ws, flags.parent)
					if err != nil {
						return err
					}
					if parent.ID == t.ID {
						return fmt.Errorf("a task cannot be its own parent")
					}
					patch.ParentID = &parent.ID
				}

				if patch.IsEmpty() {
					return fmt.Errorf("nothing to change (see --help for the fields)")
				}

				updated, err := ws.UpdateTask(cmd.Context(), t.ID, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", shortID(updated.ID), updated.Content)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&content, "content", "c", "", "New task text")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().BoolVar(&noRepeat, "no-repeat", false, "Stop repeating")
	cmd.Flags().BoolVar(&topLevel, "top-level", false, "Detach from the parent task")
	cmd.Flags().BoolVar(&clearLabel, "clear-labels", false, "Remove every label")
	return cmd
}

func newTaskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Long:    `Delete tasks. Their subtasks are kept as top-level tasks.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "task rm", func(ws *workspace.Workspace) error {
				for _, ref := range args {
					t, err := resolveTask(ws, ref)
					if err != nil {
						return err
					}
					if err := ws.DeleteTask(cmd.Context(), t.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", shortID(t.ID), t.Content)
				}
				return nil
			})
		},
	}
}

func newTaskMoveCmd() *cobra.Command {
	var up, down int

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task up or down among its siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta := down - up
			if delta == 0 {
				return fmt.Errorf("give --up N or --down N")
			}
			return withWorkspace(cmd.Context(), "task move", func(ws *workspace.Workspace) error {
				t, err := resolveTask(ws, args[0])
				if err != nil {
					return err
				}
				if err := ws.MoveTask(cmd.Context(), t.ID, delta); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s: %s\n", shortID(t.ID), t.Content)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&up, "up", 0, "Positions to move up")
	cmd.Flags().IntVar(&down, "down", 0, "Positions to move down")
	return cmd
}

func newTaskReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <over-id>",
		Short: "Put a task at the position of another",
		Long: `Put the first task where the second one is, shifting the tasks in
between. Both tasks must be active siblings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), "task reorder", func(ws *workspace.Workspace) error {
				active, err := resolveTask(ws, args[0])
				if err != nil {
					return err
				}
				over, err := resolveTask(ws, args[1])
				if err != nil {
					return err
				}
				if err := ws.ReorderTasks(cmd.Context(), active.ID, over.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reordered %s\n", shortID(active.ID))
				return nil
			})
		},
	}
}
