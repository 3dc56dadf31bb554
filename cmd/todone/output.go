package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Jayphen/todone/internal/recurrence"
	"github.com/Jayphen/todone/internal/tui"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// cell pads an ANSI-styled string to width visible columns.
func cell(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// taskTable renders tasks with their project and label names.
type taskTable struct {
	projects map[string]string
	labels   map[string]string
	today    civil.Date
}

func newTaskTable(ws *workspace.Workspace) taskTable {
	tt := taskTable{
		projects: make(map[string]string),
		labels:   make(map[string]string),
		today:    ws.Today(),
	}
	for _, p := range ws.Projects() {
		tt.projects[p.ID] = p.Name
	}
	for _, l := range ws.Labels() {
		tt.labels[l.ID] = l.Name
	}
	return tt
}

func (tt taskTable) print(w io.Writer, tasks []types.Task) {
	header := fmt.Sprintf("%-9s %-3s %-40s %-16s %-12s %s", "ID", "P", "TASK", "DUE", "PROJECT", "LABELS")
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Foreground(tui.ColorGray).Render(header))
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, t := range tasks {
		content := t.Content
		if t.ParentID != "" {
			content = tui.IndicatorChild + " " + content
		}
		contentStyle := lipgloss.NewStyle()
		if t.IsCompleted {
			contentStyle = tui.DoneStyle
		}

		var labels []string
		for _, id := range t.Labels {
			if name, ok := tt.labels[id]; ok {
				labels = append(labels, tui.LabelStyle.Render("@"+name))
			}
		}

		fmt.Fprintf(w, "%s %s %s %s %s %s\n",
			cell(tui.DimStyle.Render(shortID(t.ID)), 9),
			cell(tui.PriorityStyle(t.Priority).Render(fmt.Sprintf("p%d", t.Priority)), 3),
			cell(contentStyle.Render(content), 40),
			cell(tt.due(t), 16),
			cell(tt.projects[t.ProjectID], 12),
			strings.Join(labels, " "),
		)
	}

	completed := 0
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d active, %d completed\n", len(tasks)-completed, completed)
}

func (tt taskTable) due(t types.Task) string {
	if t.DueDate == nil {
		return tui.DimStyle.Render("-")
	}
	due := *t.DueDate
	text := due.String()
	if t.DueTime != "" {
		text += " " + t.DueTime
	}
	if t.IsRecurring && t.RecurringPattern != "" {
		text += " " + tui.IndicatorRecurring
	}
	switch {
	case t.IsCompleted:
		return tui.DimStyle.Render(text)
	case due.Before(tt.today):
		return tui.DueOverdue.Render(text)
	case due == tt.today:
		return tui.DueToday.Render(text)
	default:
		return tui.DueLater.Render(text)
	}
}

// printDetail prints every field of one task.
func (tt taskTable) printDetail(w io.Writer, t types.Task, subtasks []types.Task) {
	row := func(label, value string) {
		if value == "" {
			value = tui.DimStyle.Render("(none)")
		}
		fmt.Fprintf(w, "%s%s\n", tui.DimStyle.Width(12).Render(label), value)
	}

	fmt.Fprintln(w, tui.TitleStyle.Render(t.Content))
	if t.Description != "" {
		fmt.Fprintln(w, tui.SubtitleStyle.Render(t.Description))
	}
	fmt.Fprintln(w)
	row("ID", t.ID)
	row("Priority", fmt.Sprintf("p%d", t.Priority))
	row("Project", tt.projects[t.ProjectID])
	if t.DueDate != nil {
		row("Due", tt.due(t))
	} else {
		row("Due", "")
	}
	if t.IsRecurring {
		row("Repeats", recurrence.Humanize(t.RecurringPattern))
	}
	if t.Duration > 0 {
		row("Duration", fmt.Sprintf("%d min", t.Duration))
	}
	var labels []string
	for _, id := range t.Labels {
		if name, ok := tt.labels[id]; ok {
			labels = append(labels, "@"+name)
		}
	}
	row("Labels", strings.Join(labels, " "))
	if t.ParentID != "" {
		row("Parent", t.ParentID)
	}
	status := "active"
	if t.IsCompleted && t.CompletedAt != nil {
		status = "completed " + t.CompletedAt.Local().Format("2006-01-02 15:04")
	} else if t.IsCompleted {
		status = "completed"
	}
	row("Status", status)
	row("Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))

	if len(subtasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, tui.ActiveSectionStyle.Render(fmt.Sprintf("Subtasks (%d)", len(subtasks))))
		for _, s := range subtasks {
			mark := tui.IndicatorOpen
			if s.IsCompleted {
				mark = tui.IndicatorCompleted
			}
			fmt.Fprintf(w, "  %s %s %s\n", mark, tui.DimStyle.Render(shortID(s.ID)), s.Content)
		}
	}
}
