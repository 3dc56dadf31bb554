// Package query implements the task filter language used by saved filters and search.
//
// A query is a list of space-separated terms, all of which must match:
//
//	p1 p2 p3 p4        priority
//	today tomorrow     due on that day
//	overdue            due before today
//	no date            no due date
//	@name              has the label called name
//	#name              in the project called name (#inbox is the reserved inbox)
//	search:text        content contains text
//	text               content contains text
//
// Names and text are matched case-insensitively. A reference to a label or
// project that does not exist matches nothing.
package query

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/types"
)

// Kind identifies the rule a term is evaluated with.
type Kind int

const (
	KindText Kind = iota
	KindPriority
	KindToday
	KindTomorrow
	KindOverdue
	KindNoDate
	KindLabel
	KindProject
	KindInbox
	KindSearch
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindPriority: "priority",
	KindToday:    "today",
	KindTomorrow: "tomorrow",
	KindOverdue:  "overdue",
	KindNoDate:   "no-date",
	KindLabel:    "label",
	KindProject:  "project",
	KindInbox:    "inbox",
	KindSearch:   "search",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

const searchPrefix = "search:"

// Term is one parsed unit of a query.
type Term struct {
	Kind     Kind
	Raw      string // lowercased source text
	Value    string // label/project name or search text
	Priority types.Priority
}

// Query is a parsed query. The zero value matches every task.
type Query struct {
	Terms []Term
}

// IsEmpty reports whether the query matches every task.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0
}

func (q Query) String() string {
	raws := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		raws[i] = t.Raw
	}
	return strings.Join(raws, " ")
}

// Parse splits s on single spaces into lowercase terms. A "no" term directly
// followed by a "date" term is read as the single "no date" term.
func Parse(s string) Query {
	if strings.TrimSpace(s) == "" {
		return Query{}
	}

	words := strings.Split(strings.ToLower(s), " ")
	terms := make([]Term, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := words[i]
		if w == "no" && i+1 < len(words) && words[i+1] == "date" {
			w = "no date"
			i++
		}
		terms = append(terms, parseTerm(w))
	}
	return Query{Terms: terms}
}

func parseTerm(w string) Term {
	switch w {
	case "p1", "p2", "p3", "p4":
		return Term{Kind: KindPriority, Raw: w, Priority: types.Priority(w[1] - '0')}
	case "today":
		return Term{Kind: KindToday, Raw: w}
	case "tomorrow":
		return Term{Kind: KindTomorrow, Raw: w}
	case "overdue":
		return Term{Kind: KindOverdue, Raw: w}
	case "no date":
		return Term{Kind: KindNoDate, Raw: w}
	}

	switch {
	case strings.HasPrefix(w, "@"):
		return Term{Kind: KindLabel, Raw: w, Value: w[1:]}
	case strings.HasPrefix(w, "#"):
		name := w[1:]
		if name == types.InboxProjectID {
			return Term{Kind: KindInbox, Raw: w, Value: name}
		}
		return Term{Kind: KindProject, Raw: w, Value: name}
	case strings.HasPrefix(w, searchPrefix):
		return Term{Kind: KindSearch, Raw: w, Value: w[len(searchPrefix):]}
	}
	return Term{Kind: KindText, Raw: w, Value: w}
}

// Matcher evaluates a query against tasks with label and project names resolved once.
type Matcher struct {
	query    Query
	labels   map[string]string // lowercased name -> id
	projects map[string]string
	today    civil.Date
}

// Compile prepares q for repeated evaluation. today anchors the date terms.
func Compile(q Query, labels []types.Label, projects []types.Project, today civil.Date) *Matcher {
	m := &Matcher{
		query:    q,
		labels:   make(map[string]string, len(labels)),
		projects: make(map[string]string, len(projects)),
		today:    today,
	}
	for _, l := range labels {
		key := strings.ToLower(l.Name)
		if _, dup := m.labels[key]; !dup {
			m.labels[key] = l.ID
		}
	}
	for _, p := range projects {
		key := strings.ToLower(p.Name)
		if _, dup := m.projects[key]; !dup {
			m.projects[key] = p.ID
		}
	}
	return m
}

// Match reports whether t satisfies every term.
func (m *Matcher) Match(t types.Task) bool {
	for _, term := range m.query.Terms {
		if !m.matchTerm(term, t) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchTerm(term Term, t types.Task) bool {
	switch term.Kind {
	case KindPriority:
		return t.Priority == term.Priority
	case KindToday:
		return t.DueDate != nil && *t.DueDate == m.today
	case KindTomorrow:
		return t.DueDate != nil && *t.DueDate == m.today.AddDays(1)
	case KindOverdue:
		return t.DueDate != nil && t.DueDate.Before(m.today)
	case KindNoDate:
		return t.DueDate == nil
	case KindLabel:
		id, ok := m.labels[term.Value]
		return ok && t.HasLabel(id)
	case KindInbox:
		return t.ProjectID == types.InboxProjectID
	case KindProject:
		id, ok := m.projects[term.Value]
		return ok && t.ProjectID == id
	default:
		return strings.Contains(strings.ToLower(t.Content), term.Value)
	}
}

// Filter returns the matching tasks in their original order.
func (m *Matcher) Filter(tasks []types.Task) []types.Task {
	if m.query.IsEmpty() {
		return tasks
	}
	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if m.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns how many tasks match.
func (m *Matcher) Count(tasks []types.Task) int {
	if m.query.IsEmpty() {
		return len(tasks)
	}
	n := 0
	for _, t := range tasks {
		if m.Match(t) {
			n++
		}
	}
	return n
}

// FilterTasks returns the tasks matching query, anchored on the local calendar day.
// An empty query returns tasks unchanged.
func FilterTasks(tasks []types.Task, query string, labels []types.Label, projects []types.Project) []types.Task {
	return FilterTasksAt(tasks, query, labels, projects, civil.DateOf(time.Now()))
}

// FilterTasksAt is FilterTasks with an explicit "today".
func FilterTasksAt(tasks []types.Task, query string, labels []types.Label, projects []types.Project, today civil.Date) []types.Task {
	return Compile(Parse(query), labels, projects, today).Filter(tasks)
}
