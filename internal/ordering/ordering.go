// Package ordering maintains the dense "order" key used for drag-and-drop task lists.
//
// Every move renumbers the whole affected list, which is O(n) writes per move.
// Lists here are small; a fractional rank key would be the fix for large ones.
package ordering

import (
	"cmp"
	"slices"

	"github.com/Jayphen/todone/internal/types"
)

// Reorder moves the task movedID into the slot currently held by targetID and
// sets every task's Order to its new index. The input is not modified.
// If either id is missing the input is returned unchanged.
func Reorder(tasks []types.Task, movedID, targetID string) []types.Task {
	from := indexOf(tasks, movedID)
	to := indexOf(tasks, targetID)
	if from < 0 || to < 0 {
		return tasks
	}

	out := slices.Clone(tasks)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// ReorderSiblings applies Reorder to the sibling group of movedID only: tasks
// sharing its ParentID, taken in their current sequence. The group is written
// back into the positions it occupied, so unrelated tasks keep both their
// place and their Order. It returns the new sequence and the renumbered group.
// A target outside the moved task's group is a no-op.
func ReorderSiblings(tasks []types.Task, movedID, targetID string) ([]types.Task, []types.Task) {
	from := indexOf(tasks, movedID)
	to := indexOf(tasks, targetID)
	if from < 0 || to < 0 {
		return tasks, nil
	}
	parent := tasks[from].ParentID
	if tasks[to].ParentID != parent {
		return tasks, nil
	}

	var slots []int
	var group []types.Task
	for i, t := range tasks {
		if t.ParentID == parent {
			slots = append(slots, i)
			group = append(group, t)
		}
	}

	group = Reorder(group, movedID, targetID)
	out := slices.Clone(tasks)
	for k, i := range slots {
		out[i] = group[k]
	}
	return out, group
}

// Siblings returns the tasks whose ParentID is parentID, sorted by Order.
func Siblings(tasks []types.Task, parentID string) []types.Task {
	var out []types.Task
	for _, t := range tasks {
		if t.ParentID == parentID {
			out = append(out, t)
		}
	}
	Sort(out)
	return out
}

// Sort orders tasks by Order, then by creation time. The sort is stable.
func Sort(tasks []types.Task) {
	slices.SortStableFunc(tasks, func(a, b types.Task) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func indexOf(tasks []types.Task, id string) int {
	return slices.IndexFunc(tasks, func(t types.Task) bool { return t.ID == id })
}
