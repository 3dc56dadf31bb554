// Package workspace is the task lifecycle coordinator: it owns the in-memory
// collections of tasks, projects, labels and filters, applies commands to
// them, persists every change through the record store and notifies
// subscribers.
//
// Writes are optimistic. The collection is updated first, then the store;
// when the store rejects a write the error is recorded (see Err) and the
// affected collection is reloaded from the store, so memory never keeps a
// change the store does not have.
package workspace

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Jayphen/todone/internal/logging"
	"github.com/Jayphen/todone/internal/nldate"
	"github.com/Jayphen/todone/internal/ordering"
	"github.com/Jayphen/todone/internal/query"
	"github.com/Jayphen/todone/internal/store"
	"github.com/Jayphen/todone/internal/types"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrFilterNotFound  = errors.New("filter not found")
	ErrInboxProtected  = errors.New("the inbox project cannot be deleted")
	ErrEmptyContent    = errors.New("task content is empty")
	ErrEmptyName       = errors.New("name is empty")
)

// Entity names used in events and log fields.
const (
	EntityTask    = "task"
	EntityProject = "project"
	EntityLabel   = "label"
	EntityFilter  = "filter"
)

// InboxColor is the color of the seeded inbox project.
const InboxColor = "#3b82f6"

// EventKind says what happened to an entity.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventDeleted   EventKind = "deleted"
	EventReordered EventKind = "reordered"
	// EventReloaded follows a failed write: the collection was re-read.
	EventReloaded EventKind = "reloaded"
)

// Event is delivered to subscribers after each command.
type Event struct {
	Kind   EventKind
	Entity string
	ID     string
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workspace) { w.newID = gen }
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithDefaultProject sets the project that receives tasks created without one.
func WithDefaultProject(id string) Option {
	return func(w *Workspace) {
		if id != "" {
			w.defaultProject = id
		}
	}
}

// Workspace holds the application state. It is safe for concurrent use;
// commands are serialized.
type Workspace struct {
	db             *store.DB
	now            func() time.Time
	newID          func() string
	log            *logging.Logger
	extractor      *nldate.Extractor
	defaultProject string

	mu       sync.Mutex
	tasks    []types.Task
	projects []types.Project
	labels   []types.Label
	filters  []types.Filter
	err      string

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a workspace over db. Call Load before reading.
func New(db *store.DB, opts ...Option) *Workspace {
	w := &Workspace{
		db:             db,
		now:            time.Now,
		newID:          uuid.NewString,
		extractor:      nldate.Default(),
		defaultProject: types.InboxProjectID,
		subs:           make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logging.Get()
	}
	return w
}

// Load reads every collection from the store and seeds the inbox project.
func (w *Workspace) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.seedInbox(ctx); err != nil {
		w.err = "Failed to fetch projects"
		return fmt.Errorf("seed inbox: %w", err)
	}
	for _, entity := range []string{EntityProject, EntityLabel, EntityFilter, EntityTask} {
		if err := w.reload(ctx, entity); err != nil {
			w.err = "Failed to fetch " + entity + "s"
			w.log.WithEntity(entity, "").WithError(err).Error(w.err)
			return err
		}
	}
	w.resolveDefaultProject()
	w.err = ""
	w.log.Debugf("loaded %d tasks, %d projects, %d labels, %d filters",
		len(w.tasks), len(w.projects), len(w.labels), len(w.filters))
	return nil
}

// resolveDefaultProject accepts a project id or name. An unknown project
// falls back to the inbox. Callers hold mu.
func (w *Workspace) resolveDefaultProject() {
	ref := w.defaultProject
	for _, p := range w.projects {
		if p.ID == ref {
			return
		}
	}
	for _, p := range w.projects {
		if strings.EqualFold(p.Name, ref) {
			w.defaultProject = p.ID
			return
		}
	}
	w.log.WithEntity(EntityProject, ref).Warnf("default project %q does not exist, using the inbox", ref)
	w.defaultProject = types.InboxProjectID
}

func (w *Workspace) projectIndex(id string) int {
	return slices.IndexFunc(w.projects, func(p types.Project) bool { return p.ID == id })
}

func (w *Workspace) seedInbox(ctx context.Context) error {
	inbox := types.Project{
		ID:       types.InboxProjectID,
		Name:     "Inbox",
		Color:    InboxColor,
		ViewType: "list",
	}
	err := w.db.Projects.Add(ctx, inbox.ID, inbox)
	if errors.Is(err, store.ErrExists) {
		return nil
	}
	return err
}

// reload replaces one collection with the store's contents. Callers hold mu.
func (w *Workspace) reload(ctx context.Context, entity string) error {
	switch entity {
	case EntityTask:
		tasks, err := w.db.Tasks.All(ctx)
		if err != nil {
			return err
		}
		ordering.Sort(tasks)
		w.tasks = tasks
	case EntityProject:
		projects, err := w.db.Projects.AllSorted(ctx, compareProjects)
		if err != nil {
			return err
		}
		w.projects = projects
	case EntityLabel:
		labels, err := w.db.Labels.AllSorted(ctx, func(a, b types.Label) int {
			return compareNames(a.Name, b.Name)
		})
		if err != nil {
			return err
		}
		w.labels = labels
	case EntityFilter:
		filters, err := w.db.Filters.AllSorted(ctx, func(a, b types.Filter) int {
			return compareNames(a.Name, b.Name)
		})
		if err != nil {
			return err
		}
		w.filters = filters
	}
	return nil
}

// fail records a failed write and resynchronizes the collection from the
// store. Callers hold mu.
func (w *Workspace) fail(ctx context.Context, entity, id, msg string, err error) ([]Event, error) {
	w.err = msg
	w.log.WithEntity(entity, id).WithError(err).Error(msg)
	if rerr := w.reload(ctx, entity); rerr != nil {
		w.log.WithEntity(entity, "").WithError(rerr).Error("reload after failed write")
	}
	return []Event{{Kind: EventReloaded, Entity: entity}}, fmt.Errorf("%s: %w", strings.ToLower(msg), err)
}

// run executes a command under the lock and publishes its events after
// releasing it, so subscribers may read the workspace.
func (w *Workspace) run(fn func() ([]Event, error)) error {
	w.mu.Lock()
	events, err := fn()
	if err == nil {
		w.err = ""
	}
	w.mu.Unlock()

	w.publish(events)
	return err
}

// Subscribe registers fn for change events and returns a function that
// removes it.
func (w *Workspace) Subscribe(fn func(Event)) (cancel func()) {
	w.subMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.subMu.Unlock()

	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Workspace) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	w.subMu.Lock()
	ids := make([]int, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, w.subs[id])
	}
	w.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Err returns the message of the last failed write, or "" if the last
// command succeeded.
func (w *Workspace) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Today returns the current local calendar day.
func (w *Workspace) Today() civil.Date {
	return civil.DateOf(w.now())
}

// Tasks returns every task, ordered by (order, createdAt).
func (w *Workspace) Tasks() []types.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneTasks(w.tasks)
}

// Task returns one task.
func (w *Workspace) Task(id string) (types.Task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.taskIndex(id)
	if i < 0 {
		return types.Task{}, false
	}
	return w.tasks[i].Clone(), true
}

// Subtasks returns the tasks owned by parentID in order.
func (w *Workspace) Subtasks(parentID string) []types.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneTasks(ordering.Siblings(w.tasks, parentID))
}

// Projects returns every project.
func (w *Workspace) Projects() []types.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.projects)
}

// Labels returns every label.
func (w *Workspace) Labels() []types.Label {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.labels)
}

// Filters returns every saved filter.
func (w *Workspace) Filters() []types.Filter {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.filters)
}

// Query evaluates a query string against every task.
func (w *Workspace) Query(q string) []types.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneTasks(query.FilterTasksAt(w.tasks, q, w.labels, w.projects, w.Today()))
}

// FilterTasks evaluates a saved filter.
func (w *Workspace) FilterTasks(filterID string) ([]types.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.filters, func(f types.Filter) bool { return f.ID == filterID })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
	}
	return cloneTasks(query.FilterTasksAt(w.tasks, w.filters[i].Query, w.labels, w.projects, w.Today())), nil
}

// FilterCounts returns, per saved filter id, how many active tasks it matches.
func (w *Workspace) FilterCounts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()

	active := make([]types.Task, 0, len(w.tasks))
	for _, t := range w.tasks {
		if !t.IsCompleted {
			active = append(active, t)
		}
	}
	today := w.Today()
	counts := make(map[string]int, len(w.filters))
	for _, f := range w.filters {
		counts[f.ID] = query.Compile(query.Parse(f.Query), w.labels, w.projects, today).Count(active)
	}
	return counts
}

func (w *Workspace) taskIndex(id string) int {
	return slices.IndexFunc(w.tasks, func(t types.Task) bool { return t.ID == id })
}

func cloneTasks(tasks []types.Task) []types.Task {
	out := make([]types.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func compareProjects(a, b types.Project) int {
	// Inbox first.
	if (a.ID == types.InboxProjectID) != (b.ID == types.InboxProjectID) {
		if a.ID == types.InboxProjectID {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return compareNames(a.Name, b.Name)
}

func compareNames(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
