package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/logging"
	"github.com/Jayphen/todone/internal/redis"
	"github.com/Jayphen/todone/internal/store"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

// openBackend connects to the record store named by cfg.Backend.
func openBackend(cfg *config.Config) (store.Backend, error) {
	logging.WithField("backend", cfg.Backend).Debug("opening store")
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return client, nil
	default:
		s, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return s, nil
	}
}

// openWorkspace loads the workspace for a command. The returned func closes
// the store.
func openWorkspace(ctx context.Context, command string) (*workspace.Workspace, func(), error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	db := store.New(backend)

	log := logging.WithCommand(command)
	ws := workspace.New(db,
		workspace.WithLogger(log),
		workspace.WithDefaultProject(cfg.DefaultProject),
	)
	if err := ws.Load(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	log.WithField("backend", cfg.Backend).Debug("workspace loaded")

	return ws, func() { db.Close() }, nil
}

// withWorkspace runs fn against a loaded workspace.
func withWorkspace(ctx context.Context, command string, fn func(ws *workspace.Workspace) error) error {
	ws, closeFn, err := openWorkspace(ctx, command)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ws)
}

// resolveTask finds a task by id or unique id prefix.
func resolveTask(ws *workspace.Workspace, ref string) (types.Task, error) {
	if t, ok := ws.Task(ref); ok {
		return t, nil
	}
	var found []types.Task
	for _, t := range ws.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return types.Task{}, fmt.Errorf("%w: %s", workspace.ErrTaskNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return types.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(found))
	}
}

// resolveProject finds a project by id or case-insensitive name.
func resolveProject(ws *workspace.Workspace, ref string) (types.Project, error) {
	for _, p := range ws.Projects() {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return types.Project{}, fmt.Errorf("%w: %s", workspace.ErrProjectNotFound, ref)
}

// resolveLabel finds a label by id or case-insensitive name.
func resolveLabel(ws *workspace.Workspace, ref string) (types.Label, error) {
	ref = strings.TrimPrefix(ref, "@")
	for _, l := range ws.Labels() {
		if l.ID == ref || strings.EqualFold(l.Name, ref) {
			return l, nil
		}
	}
	return types.Label{}, fmt.Errorf("%w: %s", workspace.ErrLabelNotFound, ref)
}

// resolveFilter finds a saved filter by id or case-insensitive name.
func resolveFilter(ws *workspace.Workspace, ref string) (types.Filter, error) {
	for _, f := range ws.Filters() {
		if f.ID == ref || strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	return types.Filter{}, fmt.Errorf("%w: %s", workspace.ErrFilterNotFound, ref)
}

// labelIDs maps label names to ids, creating labels that do not exist yet.
func labelIDs(ctx context.Context, ws *workspace.Workspace, names []string) ([]string, error) {
	var ids []string
	for _, name := range names {
		l, err := resolveLabel(ws, name)
		if err != nil {
			l, err = ws.AddLabel(ctx, strings.TrimPrefix(name, "@"), "")
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, l.ID)
	}
	return ids, nil
}
