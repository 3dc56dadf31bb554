package workspace

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/types"
)

// Grouping selects the board columns.
type Grouping string

const (
	GroupByStatus   Grouping = "status"
	GroupByPriority Grouping = "priority"
	GroupByProject  Grouping = "project"
)

// ParseGrouping accepts "status", "priority" or "project".
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(s); g {
	case GroupByStatus, GroupByPriority, GroupByProject:
		return g, nil
	case "":
		return GroupByStatus, nil
	default:
		return "", fmt.Errorf("unknown grouping %q", s)
	}
}

// Column is one board column.
type Column struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Tasks []types.Task `json:"tasks"`
}

// GroupBy splits tasks into board columns. Project columns follow the order
// of projects; tasks of unknown projects are left out.
func GroupBy(tasks []types.Task, by Grouping, projects []types.Project) []Column {
	switch by {
	case GroupByPriority:
		cols := make([]Column, 0, 4)
		for p := types.P1; p <= types.P4; p++ {
			cols = append(cols, Column{
				ID:    strconv.Itoa(int(p)),
				Title: "Priority " + strconv.Itoa(int(p)),
				Tasks: pick(tasks, func(t types.Task) bool { return t.Priority == p }),
			})
		}
		return cols
	case GroupByProject:
		cols := make([]Column, 0, len(projects))
		for _, proj := range projects {
			cols = append(cols, Column{
				ID:    proj.ID,
				Title: proj.Name,
				Tasks: pick(tasks, func(t types.Task) bool { return t.ProjectID == proj.ID }),
			})
		}
		return cols
	default:
		return []Column{
			{ID: "todo", Title: "To Do", Tasks: pick(tasks, func(t types.Task) bool { return !t.IsCompleted })},
			{ID: "completed", Title: "Completed", Tasks: pick(tasks, func(t types.Task) bool { return t.IsCompleted })},
		}
	}
}

// Day is one calendar cell.
type Day struct {
	Date  civil.Date   `json:"date"`
	Tasks []types.Task `json:"tasks"`
}

// WeekOf returns the Monday-to-Sunday week containing anchor with the tasks
// due on each day.
func WeekOf(tasks []types.Task, anchor civil.Date) []Day {
	offset := (int(anchor.In(time.UTC).Weekday()) + 6) % 7
	start := anchor.AddDays(-offset)

	days := make([]Day, 7)
	for i := range days {
		d := start.AddDays(i)
		days[i] = Day{
			Date:  d,
			Tasks: pick(tasks, func(t types.Task) bool { return t.DueDate != nil && *t.DueDate == d }),
		}
	}
	return days
}

// Board groups the current tasks.
func (w *Workspace) Board(by Grouping) []Column {
	w.mu.Lock()
	defer w.mu.Unlock()
	return GroupBy(cloneTasks(w.tasks), by, w.projects)
}

// Week returns the calendar week containing anchor.
func (w *Workspace) Week(anchor civil.Date) []Day {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WeekOf(cloneTasks(w.tasks), anchor)
}

func pick(tasks []types.Task, keep func(types.Task) bool) []types.Task {
	out := []types.Task{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
