package ordering

import (
	"testing"
	"time"

	"github.com/Jayphen/todone/internal/types"
)

func seq(ids ...string) []types.Task {
	tasks := make([]types.Task, len(ids))
	for i, id := range ids {
		tasks[i] = types.Task{ID: id, Order: i}
	}
	return tasks
}

func idsOf(tasks []types.Task) string {
	s := ""
	for _, t := range tasks {
		s += t.ID
	}
	return s
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name          string
		moved, target string
		want          string
	}{
		{"move down", "a", "c", "bcad"},
		{"move up", "d", "b", "adbc"},
		{"to first", "c", "a", "cabd"},
		{"to last", "a", "d", "bcda"},
		{"adjacent down", "b", "c", "acbd"},
		{"same slot", "b", "b", "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := seq("a", "b", "c", "d")
			got := Reorder(in, tt.moved, tt.target)
			if idsOf(got) != tt.want {
				t.Errorf("Reorder(%s -> %s) = %s, want %s", tt.moved, tt.target, idsOf(got), tt.want)
			}
			for i, task := range got {
				if task.Order != i {
					t.Errorf("task %s has order %d, want %d", task.ID, task.Order, i)
				}
			}
			if idsOf(in) != "abcd" {
				t.Errorf("input was modified: %s", idsOf(in))
			}
		})
	}
}

func TestReorderUnknownIDIsNoop(t *testing.T) {
	in := seq("a", "b", "c")
	in[0].Order = 7

	for _, ids := range [][2]string{{"nonexistent", "a"}, {"a", "nonexistent"}} {
		got := Reorder(in, ids[0], ids[1])
		if &got[0] != &in[0] {
			t.Errorf("Reorder(%s, %s) should return the input unchanged", ids[0], ids[1])
		}
		if got[0].Order != 7 {
			t.Errorf("order rewritten on no-op")
		}
	}
}

func TestReorderSiblings(t *testing.T) {
	tasks := []types.Task{
		{ID: "a", Order: 0},
		{ID: "a1", ParentID: "a", Order: 0},
		{ID: "b", Order: 1},
		{ID: "a2", ParentID: "a", Order: 1},
		{ID: "c", Order: 2},
	}

	got, changed := ReorderSiblings(tasks, "c", "a")
	if idsOf(got) != "ca1aa2b" {
		t.Errorf("sequence = %s", idsOf(got))
	}
	if len(changed) != 3 {
		t.Fatalf("changed %d tasks, want 3", len(changed))
	}
	want := map[string]int{"c": 0, "a": 1, "b": 2, "a1": 0, "a2": 1}
	for _, task := range got {
		if task.Order != want[task.ID] {
			t.Errorf("task %s order = %d, want %d", task.ID, task.Order, want[task.ID])
		}
	}
}

func TestReorderSiblingsAcrossGroupsIsNoop(t *testing.T) {
	tasks := []types.Task{
		{ID: "a", Order: 0},
		{ID: "a1", ParentID: "a", Order: 0},
	}

	got, changed := ReorderSiblings(tasks, "a1", "a")
	if changed != nil {
		t.Errorf("expected no changes, got %d", len(changed))
	}
	if &got[0] != &tasks[0] {
		t.Error("expected the input back")
	}

	_, changed = ReorderSiblings(tasks, "missing", "a")
	if changed != nil {
		t.Error("expected no changes for unknown id")
	}
}

func TestSiblingsAndSort(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []types.Task{
		{ID: "x", ParentID: "p", Order: 2},
		{ID: "y", ParentID: "p", Order: 0, CreatedAt: t0.Add(time.Minute)},
		{ID: "z", Order: 0},
		{ID: "w", ParentID: "p", Order: 0, CreatedAt: t0},
	}

	got := Siblings(tasks, "p")
	if idsOf(got) != "wyx" {
		t.Errorf("Siblings = %s, want wyx", idsOf(got))
	}
	if top := Siblings(tasks, ""); idsOf(top) != "z" {
		t.Errorf("top-level = %s, want z", idsOf(top))
	}
}
