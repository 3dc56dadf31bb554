package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Jayphen/todone/internal/store"
	"github.com/Jayphen/todone/internal/types"
)

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	ViewType   *string `json:"viewType,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
	Order      *int    `json:"order,omitempty"`
}

func (p ProjectPatch) apply(r *types.Project) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	if p.ViewType != nil {
		r.ViewType = *p.ViewType
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
	if p.Order != nil {
		r.Order = *p.Order
	}
}

// LabelPatch is a partial label update.
type LabelPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
}

func (p LabelPatch) apply(r *types.Label) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
}

// FilterPatch is a partial filter update.
type FilterPatch struct {
	Name       *string `json:"name,omitempty"`
	Query      *string `json:"query,omitempty"`
	Color      *string `json:"color,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
}

func (p FilterPatch) apply(r *types.Filter) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Query != nil {
		r.Query = *p.Query
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
}

// collection binds an in-memory slice to its table for the shared
// add/update/delete paths.
type collection[T any] struct {
	entity   string
	table    store.Table[T]
	items    *[]T
	idOf     func(T) string
	notFound error
}

func (c collection[T]) index(id string) int {
	return slices.IndexFunc(*c.items, func(r T) bool { return c.idOf(r) == id })
}

func (w *Workspace) projectCollection() collection[types.Project] {
	return collection[types.Project]{
		entity:   EntityProject,
		table:    w.db.Projects,
		items:    &w.projects,
		idOf:     func(p types.Project) string { return p.ID },
		notFound: ErrProjectNotFound,
	}
}

func (w *Workspace) labelCollection() collection[types.Label] {
	return collection[types.Label]{
		entity:   EntityLabel,
		table:    w.db.Labels,
		items:    &w.labels,
		idOf:     func(l types.Label) string { return l.ID },
		notFound: ErrLabelNotFound,
	}
}

func (w *Workspace) filterCollection() collection[types.Filter] {
	return collection[types.Filter]{
		entity:   EntityFilter,
		table:    w.db.Filters,
		items:    &w.filters,
		idOf:     func(f types.Filter) string { return f.ID },
		notFound: ErrFilterNotFound,
	}
}

func addRecord[T any](ctx context.Context, w *Workspace, c collection[T], rec T) ([]Event, error) {
	id := c.idOf(rec)
	*c.items = append(*c.items, rec)
	if err := c.table.Add(ctx, id, rec); err != nil {
		return w.fail(ctx, c.entity, id, "Failed to add "+c.entity, err)
	}
	w.log.WithEntity(c.entity, id).Debugf("%s created", c.entity)
	return []Event{{Kind: EventCreated, Entity: c.entity, ID: id}}, nil
}

func updateRecord[T any](ctx context.Context, w *Workspace, c collection[T], id string, mutate func(*T)) (T, []Event, error) {
	var zero T
	i := c.index(id)
	if i < 0 {
		return zero, nil, fmt.Errorf("%w: %s", c.notFound, id)
	}
	rec := (*c.items)[i]
	mutate(&rec)
	(*c.items)[i] = rec

	if _, err := c.table.Update(ctx, id, mutate); err != nil {
		events, err := w.fail(ctx, c.entity, id, "Failed to update "+c.entity, err)
		return zero, events, err
	}
	w.log.WithEntity(c.entity, id).Debugf("%s updated", c.entity)
	return rec, []Event{{Kind: EventUpdated, Entity: c.entity, ID: id}}, nil
}

func deleteRecord[T any](ctx context.Context, w *Workspace, c collection[T], id string) ([]Event, error) {
	i := c.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", c.notFound, id)
	}
	*c.items = slices.Delete(*c.items, i, i+1)

	if err := c.table.Delete(ctx, id); err != nil {
		return w.fail(ctx, c.entity, id, "Failed to delete "+c.entity, err)
	}
	w.log.WithEntity(c.entity, id).Debugf("%s deleted", c.entity)
	return []Event{{Kind: EventDeleted, Entity: c.entity, ID: id}}, nil
}

// AddProject creates a project placed after the existing ones.
func (w *Workspace) AddProject(ctx context.Context, name, color string) (types.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Project{}, ErrEmptyName
	}

	var p types.Project
	err := w.run(func() ([]Event, error) {
		order := 0
		for _, existing := range w.projects {
			order = max(order, existing.Order+1)
		}
		p = types.Project{
			ID:       w.newID(),
			Name:     name,
			Color:    color,
			ViewType: "list",
			Order:    order,
		}
		events, err := addRecord(ctx, w, w.projectCollection(), p)
		slices.SortStableFunc(w.projects, compareProjects)
		return events, err
	})
	return p, err
}

// UpdateProject merges patch into a project.
func (w *Workspace) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (types.Project, error) {
	var p types.Project
	err := w.run(func() ([]Event, error) {
		var events []Event
		var err error
		p, events, err = updateRecord(ctx, w, w.projectCollection(), id, patch.apply)
		slices.SortStableFunc(w.projects, compareProjects)
		return events, err
	})
	return p, err
}

// DeleteProject removes a project and moves its tasks to the inbox. The
// inbox itself cannot be deleted.
func (w *Workspace) DeleteProject(ctx context.Context, id string) error {
	if id == types.InboxProjectID {
		return ErrInboxProtected
	}
	return w.run(func() ([]Event, error) {
		c := w.projectCollection()
		i := c.index(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		w.projects = slices.Delete(w.projects, i, i+1)
		if w.defaultProject == id {
			w.defaultProject = types.InboxProjectID
		}

		events := []Event{{Kind: EventDeleted, Entity: EntityProject, ID: id}}
		var moved []string
		for k := range w.tasks {
			if w.tasks[k].ProjectID == id {
				w.tasks[k].ProjectID = types.InboxProjectID
				moved = append(moved, w.tasks[k].ID)
				events = append(events, Event{Kind: EventUpdated, Entity: EntityTask, ID: w.tasks[k].ID})
			}
		}

		err := w.db.Transaction(ctx, func(tx *store.DB) error {
			for _, taskID := range moved {
				if _, err := tx.Tasks.Update(ctx, taskID, func(t *types.Task) { t.ProjectID = types.InboxProjectID }); err != nil {
					return err
				}
			}
			return tx.Projects.Delete(ctx, id)
		})
		if err != nil {
			// Both collections may have diverged.
			if rerr := w.reload(ctx, EntityTask); rerr != nil {
				w.log.WithEntity(EntityTask, "").WithError(rerr).Error("reload after failed write")
			}
			_, ferr := w.fail(ctx, EntityProject, id, "Failed to delete project", err)
			return []Event{
				{Kind: EventReloaded, Entity: EntityProject},
				{Kind: EventReloaded, Entity: EntityTask},
			}, ferr
		}
		w.log.WithEntity(EntityProject, id).Debugf("project deleted, %d tasks moved to inbox", len(moved))
		return events, nil
	})
}

// AddLabel creates a label.
func (w *Workspace) AddLabel(ctx context.Context, name, color string) (types.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Label{}, ErrEmptyName
	}

	var l types.Label
	err := w.run(func() ([]Event, error) {
		l = types.Label{ID: w.newID(), Name: name, Color: color}
		events, err := addRecord(ctx, w, w.labelCollection(), l)
		sortByName(w.labels, func(l types.Label) string { return l.Name })
		return events, err
	})
	return l, err
}

// UpdateLabel merges patch into a label.
func (w *Workspace) UpdateLabel(ctx context.Context, id string, patch LabelPatch) (types.Label, error) {
	var l types.Label
	err := w.run(func() ([]Event, error) {
		var events []Event
		var err error
		l, events, err = updateRecord(ctx, w, w.labelCollection(), id, patch.apply)
		sortByName(w.labels, func(l types.Label) string { return l.Name })
		return events, err
	})
	return l, err
}

// DeleteLabel removes a label. Tasks keep the dangling label id.
func (w *Workspace) DeleteLabel(ctx context.Context, id string) error {
	return w.run(func() ([]Event, error) {
		return deleteRecord(ctx, w, w.labelCollection(), id)
	})
}

// AddFilter saves a named query.
func (w *Workspace) AddFilter(ctx context.Context, name, q, color string) (types.Filter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Filter{}, ErrEmptyName
	}

	var f types.Filter
	err := w.run(func() ([]Event, error) {
		f = types.Filter{ID: w.newID(), Name: name, Query: q, Color: color}
		events, err := addRecord(ctx, w, w.filterCollection(), f)
		sortByName(w.filters, func(f types.Filter) string { return f.Name })
		return events, err
	})
	return f, err
}

// UpdateFilter merges patch into a filter.
func (w *Workspace) UpdateFilter(ctx context.Context, id string, patch FilterPatch) (types.Filter, error) {
	var f types.Filter
	err := w.run(func() ([]Event, error) {
		var events []Event
		var err error
		f, events, err = updateRecord(ctx, w, w.filterCollection(), id, patch.apply)
		sortByName(w.filters, func(f types.Filter) string { return f.Name })
		return events, err
	})
	return f, err
}

// DeleteFilter removes a saved filter.
func (w *Workspace) DeleteFilter(ctx context.Context, id string) error {
	return w.run(func() ([]Event, error) {
		return deleteRecord(ctx, w, w.filterCollection(), id)
	})
}

func sortByName[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int { return compareNames(name(a), name(b)) })
}
