// Package store is the durable record store behind todone.
//
// Records are JSON documents keyed by (table, id). A Backend provides raw
// document storage with an all-or-nothing Batch; Table gives typed access on
// top of it and DB bundles the four application tables. The store has no
// query capability beyond whole-table scans: all matching happens in memory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/Jayphen/todone/internal/types"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrExists is returned when adding a record whose id is taken.
	ErrExists = errors.New("record already exists")
)

// Table names.
const (
	TableTasks    = "tasks"
	TableProjects = "projects"
	TableLabels   = "labels"
	TableFilters  = "filters"
)

// Tables lists every table the application uses.
var Tables = []string{TableTasks, TableProjects, TableLabels, TableFilters}

// Backend stores raw JSON documents.
type Backend interface {
	// Get returns the document, or ErrNotFound.
	Get(ctx context.Context, table, id string) ([]byte, error)

	// Insert adds a new document, or fails with ErrExists.
	Insert(ctx context.Context, table, id string, doc []byte) error

	// Replace overwrites an existing document, or fails with ErrNotFound.
	Replace(ctx context.Context, table, id string, doc []byte) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, table, id string) error

	// Scan returns every document of a table.
	Scan(ctx context.Context, table string) ([][]byte, error)

	// Batch runs fn against a backend whose writes are applied all together
	// or not at all. Nested batches join the outer one.
	Batch(ctx context.Context, fn func(Backend) error) error

	// Close releases the backend.
	Close() error
}

// Table is typed access to one table of a Backend.
type Table[T any] struct {
	name    string
	backend Backend
}

// NewTable binds a table name to a backend.
func NewTable[T any](b Backend, name string) Table[T] {
	return Table[T]{name: name, backend: b}
}

// Name returns the table name.
func (t Table[T]) Name() string {
	return t.name
}

// Get loads one record.
func (t Table[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	doc, err := t.backend.Get(ctx, t.name, id)
	if err != nil {
		return rec, fmt.Errorf("get %s/%s: %w", t.name, id, err)
	}
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("decode %s/%s: %w", t.name, id, err)
	}
	return rec, nil
}

// Add stores a new record under id.
func (t Table[T]) Add(ctx context.Context, id string, rec T) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.name, id, err)
	}
	if err := t.backend.Insert(ctx, t.name, id, doc); err != nil {
		return fmt.Errorf("add %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Put overwrites the existing record under id.
func (t Table[T]) Put(ctx context.Context, id string, rec T) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.name, id, err)
	}
	if err := t.backend.Replace(ctx, t.name, id, doc); err != nil {
		return fmt.Errorf("put %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Update applies mutate to the stored record and writes it back.
func (t Table[T]) Update(ctx context.Context, id string, mutate func(*T)) (T, error) {
	rec, err := t.Get(ctx, id)
	if err != nil {
		return rec, err
	}
	mutate(&rec)
	return rec, t.Put(ctx, id, rec)
}

// Delete removes the record under id.
func (t Table[T]) Delete(ctx context.Context, id string) error {
	if err := t.backend.Delete(ctx, t.name, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.name, id, err)
	}
	return nil
}

// All returns every record of the table.
func (t Table[T]) All(ctx context.Context) ([]T, error) {
	docs, err := t.backend.Scan(ctx, t.name)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// AllSorted returns every record ordered by cmp. The sort is stable.
func (t Table[T]) AllSorted(ctx context.Context, cmp func(a, b T) int) ([]T, error) {
	recs, err := t.All(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, cmp)
	return recs, nil
}

// DB bundles the application tables over one backend.
type DB struct {
	backend Backend

	Tasks    Table[types.Task]
	Projects Table[types.Project]
	Labels   Table[types.Label]
	Filters  Table[types.Filter]
}

// New wraps a backend.
func New(b Backend) *DB {
	return &DB{
		backend:  b,
		Tasks:    NewTable[types.Task](b, TableTasks),
		Projects: NewTable[types.Project](b, TableProjects),
		Labels:   NewTable[types.Label](b, TableLabels),
		Filters:  NewTable[types.Filter](b, TableFilters),
	}
}

// Transaction runs fn with tables bound to one batch: every write inside fn
// is applied, or none is.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.backend.Batch(ctx, func(b Backend) error {
		return fn(New(b))
	})
}

// Close closes the backend.
func (db *DB) Close() error {
	return db.backend.Close()
}
