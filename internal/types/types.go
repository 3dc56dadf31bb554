// Package types defines the core data types used throughout todone.
package types

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

// InboxProjectID is the reserved project that receives tasks with no explicit project.
const InboxProjectID = "inbox"

// Priority is a task priority, 1 being the highest.
type Priority int

const (
	P1 Priority = 1
	P2 Priority = 2
	P3 Priority = 3
	P4 Priority = 4 // default
)

// Valid reports whether p is one of P1..P4.
func (p Priority) Valid() bool {
	return p >= P1 && p <= P4
}

// RecurrencePattern is the repeat rule of a recurring task.
type RecurrencePattern string

const (
	RecurDaily    RecurrencePattern = "daily"
	RecurWeekdays RecurrencePattern = "weekdays"
	RecurWeekly   RecurrencePattern = "weekly"
	RecurMonthly  RecurrencePattern = "monthly"
	RecurYearly   RecurrencePattern = "yearly"
)

// RecurrencePatterns lists the known patterns in presentation order.
var RecurrencePatterns = []RecurrencePattern{
	RecurDaily,
	RecurWeekdays,
	RecurWeekly,
	RecurMonthly,
	RecurYearly,
}

// Valid reports whether p is a known pattern.
func (p RecurrencePattern) Valid() bool {
	return slices.Contains(RecurrencePatterns, p)
}

// Task is a single to-do item. Subtasks point at their owner through ParentID.
type Task struct {
	ID               string            `json:"id"`
	Content          string            `json:"content"`
	Description      string            `json:"description,omitempty"`
	ProjectID        string            `json:"projectId"`
	SectionID        string            `json:"sectionId,omitempty"`
	Priority         Priority          `json:"priority"`
	Labels           []string          `json:"labels"`
	DueDate          *civil.Date       `json:"dueDate,omitempty"`
	DueTime          string            `json:"dueTime,omitempty"` // HH:mm
	Duration         int               `json:"duration,omitempty"` // minutes
	IsRecurring      bool              `json:"isRecurring"`
	RecurringPattern RecurrencePattern `json:"recurringPattern,omitempty"`
	ParentID         string            `json:"parentId,omitempty"`
	Order            int               `json:"order"`
	IsCompleted      bool              `json:"isCompleted"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Labels = slices.Clone(t.Labels)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return c
}

// HasLabel reports whether labelID is attached to the task.
func (t Task) HasLabel(labelID string) bool {
	return slices.Contains(t.Labels, labelID)
}

// IsTopLevel reports whether the task is not a subtask.
func (t Task) IsTopLevel() bool {
	return t.ParentID == ""
}

// CanSpawnNext reports whether completing the task should materialize a next occurrence.
func (t Task) CanSpawnNext() bool {
	return t.IsRecurring && t.RecurringPattern != "" && t.DueDate != nil
}

// Project groups tasks.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ViewType   string `json:"viewType,omitempty"` // list, board, calendar
	IsFavorite bool   `json:"isFavorite"`
	ParentID   string `json:"parentId,omitempty"`
	Order      int    `json:"order"`
}

// Label is a tag attached to tasks by id.
type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsFavorite bool   `json:"isFavorite"`
}

// Filter is a saved, named query.
type Filter struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Query      string `json:"query"`
	Color      string `json:"color"`
	IsFavorite bool   `json:"isFavorite"`
}

// TaskPatch holds the fields to merge into an existing task. Nil fields are left untouched.
type TaskPatch struct {
	Content          *string            `json:"content,omitempty"`
	Description      *string            `json:"description,omitempty"`
	ProjectID        *string            `json:"projectId,omitempty"`
	SectionID        *string            `json:"sectionId,omitempty"`
	Priority         *Priority          `json:"priority,omitempty"`
	Labels           *[]string          `json:"labels,omitempty"`
	DueDate          *civil.Date        `json:"dueDate,omitempty"`
	ClearDueDate     bool               `json:"clearDueDate,omitempty"`
	DueTime          *string            `json:"dueTime,omitempty"`
	Duration         *int               `json:"duration,omitempty"`
	IsRecurring      *bool              `json:"isRecurring,omitempty"`
	RecurringPattern *RecurrencePattern `json:"recurringPattern,omitempty"`
	ParentID         *string            `json:"parentId,omitempty"`
	Order            *int               `json:"order,omitempty"`
}

// Apply merges the patch into t. No validation is performed.
func (p TaskPatch) Apply(t *Task) {
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.SectionID != nil {
		t.SectionID = *p.SectionID
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Labels != nil {
		t.Labels = slices.Clone(*p.Labels)
		if t.Labels == nil {
			t.Labels = []string{}
		}
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.DueTime != nil {
		t.DueTime = *p.DueTime
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurringPattern != nil {
		t.RecurringPattern = *p.RecurringPattern
	}
	if p.ParentID != nil {
		t.ParentID = *p.ParentID
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p == TaskPatch{}
}
