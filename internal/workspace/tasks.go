package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/nldate"
	"github.com/Jayphen/todone/internal/ordering"
	"github.com/Jayphen/todone/internal/recurrence"
	"github.com/Jayphen/todone/internal/store"
	"github.com/Jayphen/todone/internal/types"
)

// TaskInput holds the user-supplied fields of a new task.
type TaskInput struct {
	Content     string
	Description string
	ProjectID   string // default project when empty
	SectionID   string
	Priority    types.Priority // P4 when unset
	Labels      []string
	DueDate     *civil.Date
	DueTime     string
	Duration    int
	// RecurringPattern makes the task recurring when set.
	RecurringPattern types.RecurrencePattern
	ParentID         string
}

// ToggleResult is the outcome of ToggleTask.
type ToggleResult struct {
	Task types.Task
	// Next is the spawned occurrence when a recurring task was completed.
	Next *types.Task
}

// newTask builds a task from in. Callers hold mu.
func (w *Workspace) newTask(in TaskInput) types.Task {
	t := types.Task{
		ID:               w.newID(),
		Content:          strings.TrimSpace(in.Content),
		Description:      in.Description,
		ProjectID:        in.ProjectID,
		SectionID:        in.SectionID,
		Priority:         in.Priority,
		Labels:           slices.Clone(in.Labels),
		DueTime:          in.DueTime,
		Duration:         in.Duration,
		IsRecurring:      in.RecurringPattern != "",
		RecurringPattern: in.RecurringPattern,
		ParentID:         in.ParentID,
		Order:            0,
		CreatedAt:        w.now().Round(0),
	}
	if t.ProjectID == "" {
		t.ProjectID = w.defaultProject
	}
	if !t.Priority.Valid() {
		t.Priority = types.P4
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	return t
}

// CreateTask adds a new active task with order 0. An explicit ProjectID
// must name an existing project.
func (w *Workspace) CreateTask(ctx context.Context, in TaskInput) (types.Task, error) {
	if strings.TrimSpace(in.Content) == "" {
		return types.Task{}, ErrEmptyContent
	}
	var task types.Task

	err := w.run(func() ([]Event, error) {
		if in.ProjectID != "" && w.projectIndex(in.ProjectID) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, in.ProjectID)
		}
		task = w.newTask(in)
		w.tasks = append(w.tasks, task.Clone())
		ordering.Sort(w.tasks)

		if err := w.db.Tasks.Add(ctx, task.ID, task); err != nil {
			return w.fail(ctx, EntityTask, task.ID, "Failed to add task", err)
		}
		w.log.WithEntity(EntityTask, task.ID).Debug("task created")
		return []Event{{Kind: EventCreated, Entity: EntityTask, ID: task.ID}}, nil
	})
	if err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// QuickAdd creates a task from free text, lifting an embedded date phrase
// ("Buy milk tomorrow") into the due date. Extraction is skipped when in
// already carries a due date or a recurrence pattern.
func (w *Workspace) QuickAdd(ctx context.Context, text string, in TaskInput) (types.Task, error) {
	in.Content = text
	if in.RecurringPattern == "" && in.DueDate == nil {
		m, err := w.extractor.Extract(text, w.now())
		if err != nil {
			w.log.WithError(err).Warnf("date extraction failed for %q", text)
		}
		if m != nil {
			d := m.Date()
			in.DueDate = &d
			if content := nldate.Strip(text, m.Text); content != "" {
				in.Content = content
			}
		}
	}
	return w.CreateTask(ctx, in)
}

// ToggleTask flips a task between active and completed. Completing a
// recurring task with a due date also creates its next occurrence; both
// writes are persisted together. Un-completing leaves that occurrence alone.
func (w *Workspace) ToggleTask(ctx context.Context, id string) (ToggleResult, error) {
	var res ToggleResult

	err := w.run(func() ([]Event, error) {
		i := w.taskIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}

		now := w.now().Round(0)
		task := w.tasks[i].Clone()
		task.IsCompleted = !task.IsCompleted
		task.CompletedAt = nil
		if task.IsCompleted {
			task.CompletedAt = &now
		}
		w.tasks[i] = task

		events := []Event{{Kind: EventUpdated, Entity: EntityTask, ID: id}}

		var next *types.Task
		if task.IsCompleted && task.CanSpawnNext() {
			n := task.Clone()
			n.ID = w.newID()
			n.IsCompleted = false
			n.CompletedAt = nil
			due := recurrence.Next(*task.DueDate, task.RecurringPattern)
			n.DueDate = &due
			n.CreatedAt = now
			next = &n

			w.tasks = append(w.tasks, n.Clone())
			events = append(events, Event{Kind: EventCreated, Entity: EntityTask, ID: n.ID})
		}
		ordering.Sort(w.tasks)

		err := w.db.Transaction(ctx, func(tx *store.DB) error {
			_, err := tx.Tasks.Update(ctx, id, func(t *types.Task) {
				t.IsCompleted = task.IsCompleted
				t.CompletedAt = task.CompletedAt
			})
			if err != nil {
				return err
			}
			if next != nil {
				return tx.Tasks.Add(ctx, next.ID, *next)
			}
			return nil
		})
		if err != nil {
			return w.fail(ctx, EntityTask, id, "Failed to toggle task", err)
		}

		log := w.log.WithEntity(EntityTask, id).WithField("completed", task.IsCompleted)
		if next != nil {
			log = log.WithField("next", next.ID).WithField("next_due", next.DueDate.String())
		}
		log.Debug("task toggled")

		res = ToggleResult{Task: task.Clone(), Next: next}
		return events, nil
	})
	return res, err
}

// UpdateTask merges patch into a task. Fields are not validated.
func (w *Workspace) UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (types.Task, error) {
	var updated types.Task

	err := w.run(func() ([]Event, error) {
		i := w.taskIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}

		task := w.tasks[i].Clone()
		patch.Apply(&task)
		w.tasks[i] = task
		ordering.Sort(w.tasks)

		if _, err := w.db.Tasks.Update(ctx, id, patch.Apply); err != nil {
			return w.fail(ctx, EntityTask, id, "Failed to update task", err)
		}
		w.log.WithEntity(EntityTask, id).Debug("task updated")

		updated = task.Clone()
		return []Event{{Kind: EventUpdated, Entity: EntityTask, ID: id}}, nil
	})
	return updated, err
}

// DeleteTask removes a task. Its subtasks are kept and keep their ParentID.
func (w *Workspace) DeleteTask(ctx context.Context, id string) error {
	return w.run(func() ([]Event, error) {
		i := w.taskIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		w.tasks = slices.Delete(w.tasks, i, i+1)

		if err := w.db.Tasks.Delete(ctx, id); err != nil {
			return w.fail(ctx, EntityTask, id, "Failed to delete task", err)
		}
		w.log.WithEntity(EntityTask, id).Debug("task deleted")
		return []Event{{Kind: EventDeleted, Entity: EntityTask, ID: id}}, nil
	})
}

// ReorderTasks moves activeID into the slot of overID within their sibling
// group and renumbers that group. Unknown ids, or ids from different groups,
// leave everything as it is. The new order values are written together.
func (w *Workspace) ReorderTasks(ctx context.Context, activeID, overID string) error {
	return w.run(func() ([]Event, error) {
		tasks, changed := ordering.ReorderSiblings(w.tasks, activeID, overID)
		if changed == nil {
			return nil, nil
		}
		w.tasks = tasks
		ordering.Sort(w.tasks)

		err := w.db.Transaction(ctx, func(tx *store.DB) error {
			for _, t := range changed {
				order := t.Order
				if _, err := tx.Tasks.Update(ctx, t.ID, func(r *types.Task) { r.Order = order }); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return w.fail(ctx, EntityTask, activeID, "Failed to reorder tasks", err)
		}
		w.log.WithEntity(EntityTask, activeID).WithField("over", overID).Debugf("reordered %d tasks", len(changed))
		return []Event{{Kind: EventReordered, Entity: EntityTask, ID: activeID}}, nil
	})
}

// MoveTask shifts a task delta places among its siblings that share its
// completion state, clamped to the ends of that list.
func (w *Workspace) MoveTask(ctx context.Context, id string, delta int) error {
	w.mu.Lock()
	i := w.taskIndex(id)
	if i < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	done := w.tasks[i].IsCompleted
	siblings := slices.DeleteFunc(ordering.Siblings(w.tasks, w.tasks[i].ParentID), func(t types.Task) bool {
		return t.IsCompleted != done
	})
	w.mu.Unlock()

	pos := slices.IndexFunc(siblings, func(t types.Task) bool { return t.ID == id })
	target := min(max(pos+delta, 0), len(siblings)-1)
	if target == pos {
		return nil
	}
	return w.ReorderTasks(ctx, id, siblings[target].ID)
}
