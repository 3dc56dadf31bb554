package workspace

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/types"
)

func TestGroupBy(t *testing.T) {
	tasks := []types.Task{
		{ID: "a", Priority: types.P1, ProjectID: "inbox"},
		{ID: "b", Priority: types.P4, ProjectID: "work", IsCompleted: true},
		{ID: "c", Priority: types.P1, ProjectID: "ghost"},
	}
	projects := []types.Project{{ID: "inbox", Name: "Inbox"}, {ID: "work", Name: "Work"}}

	tests := []struct {
		by   Grouping
		want map[string]int
		cols int
	}{
		{GroupByStatus, map[string]int{"todo": 2, "completed": 1}, 2},
		{GroupByPriority, map[string]int{"1": 2, "2": 0, "3": 0, "4": 1}, 4},
		{GroupByProject, map[string]int{"inbox": 1, "work": 1}, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			cols := GroupBy(tasks, tt.by, projects)
			if len(cols) != tt.cols {
				t.Fatalf("got %d columns, want %d", len(cols), tt.cols)
			}
			for _, col := range cols {
				if len(col.Tasks) != tt.want[col.ID] {
					t.Errorf("column %s has %d tasks, want %d", col.ID, len(col.Tasks), tt.want[col.ID])
				}
				if col.Tasks == nil {
					t.Errorf("column %s has nil tasks", col.ID)
				}
			}
		})
	}
}

func TestParseGrouping(t *testing.T) {
	for in, want := range map[string]Grouping{"": GroupByStatus, "status": GroupByStatus, "priority": GroupByPriority, "project": GroupByProject} {
		got, err := ParseGrouping(in)
		if err != nil || got != want {
			t.Errorf("ParseGrouping(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseGrouping("label"); err == nil {
		t.Error("expected error for unknown grouping")
	}
}

func TestWeekOf(t *testing.T) {
	due := civil.Date{Year: 2024, Month: time.June, Day: 12}
	tasks := []types.Task{
		{ID: "wed", DueDate: &due},
		{ID: "none"},
	}

	for _, anchor := range []civil.Date{
		{Year: 2024, Month: time.June, Day: 10}, // Monday
		{Year: 2024, Month: time.June, Day: 12},
		{Year: 2024, Month: time.June, Day: 16}, // Sunday
	} {
		days := WeekOf(tasks, anchor)
		if len(days) != 7 {
			t.Fatalf("got %d days", len(days))
		}
		if days[0].Date.String() != "2024-06-10" || days[6].Date.String() != "2024-06-16" {
			t.Errorf("anchor %s: week = %s..%s", anchor, days[0].Date, days[6].Date)
		}
		if len(days[2].Tasks) != 1 || days[2].Tasks[0].ID != "wed" {
			t.Errorf("anchor %s: Wednesday tasks = %+v", anchor, days[2].Tasks)
		}
	}

	// Across a month boundary.
	days := WeekOf(nil, civil.Date{Year: 2024, Month: time.March, Day: 1})
	if days[0].Date.String() != "2024-02-26" {
		t.Errorf("week of 2024-03-01 starts %s, want 2024-02-26", days[0].Date)
	}
}

func TestBoardAndWeekFromWorkspace(t *testing.T) {
	f := newFixture(t)
	today := f.ws.Today()
	f.create(t, TaskInput{Content: "due today", DueDate: &today, Priority: types.P2})

	cols := f.ws.Board(GroupByPriority)
	if len(cols[1].Tasks) != 1 {
		t.Errorf("P2 column = %+v", cols[1])
	}
	week := f.ws.Week(today)
	// 2024-06-10 is a Monday.
	if len(week[0].Tasks) != 1 {
		t.Errorf("Monday tasks = %+v", week[0].Tasks)
	}
}
