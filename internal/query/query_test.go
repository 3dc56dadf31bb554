package query

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/types"
)

var today = civil.Date{Year: 2024, Month: time.June, Day: 10}

func date(d civil.Date) *civil.Date {
	return &d
}

func fixtures() ([]types.Task, []types.Label, []types.Project) {
	labels := []types.Label{
		{ID: "L1", Name: "Work"},
		{ID: "L2", Name: "Home"},
	}
	projects := []types.Project{
		{ID: types.InboxProjectID, Name: "Inbox"},
		{ID: "P1", Name: "Garden"},
	}
	tasks := []types.Task{
		{ID: "t1", Content: "Write report", Priority: types.P1, Labels: []string{"L1"}, ProjectID: types.InboxProjectID, DueDate: date(today)},
		{ID: "t2", Content: "Buy milk", Priority: types.P4, Labels: []string{"L2"}, ProjectID: types.InboxProjectID, DueDate: date(today.AddDays(1))},
		{ID: "t3", Content: "Plant tomatoes", Priority: types.P2, Labels: []string{}, ProjectID: "P1", DueDate: date(today.AddDays(-3))},
		{ID: "t4", Content: "Read a book", Priority: types.P1, Labels: []string{"L2"}, ProjectID: "P1"},
		{ID: "t5", Content: "Report taxes", Priority: types.P3, Labels: []string{"L1", "L2"}, ProjectID: types.InboxProjectID, DueDate: date(today.AddDays(-1))},
	}
	return tasks, labels, projects
}

func ids(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterTasks(t *testing.T) {
	tasks, labels, projects := fixtures()

	tests := []struct {
		query string
		want  []string
	}{
		{"p1", []string{"t1", "t4"}},
		{"P2", []string{"t3"}},
		{"today", []string{"t1"}},
		{"tomorrow", []string{"t2"}},
		{"overdue", []string{"t3", "t5"}},
		{"no date", []string{"t4"}},
		{"@work", []string{"t1", "t5"}},
		{"@HOME", []string{"t2", "t4", "t5"}},
		{"@missing", []string{}},
		{"#inbox", []string{"t1", "t2", "t5"}},
		{"#garden", []string{"t3", "t4"}},
		{"#nowhere", []string{}},
		{"search:report", []string{"t1", "t5"}},
		{"milk", []string{"t2"}},
		{"p1 today", []string{"t1"}},
		{"@work overdue", []string{"t5"}},
		{"@home #garden", []string{"t4"}},
		{"p1 @missing", []string{}},
		{"report taxes", []string{"t5"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(FilterTasksAt(tasks, tt.query, labels, projects, today))
			if !equalIDs(got, tt.want) {
				t.Errorf("FilterTasksAt(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestEmptyQueryIsIdentity(t *testing.T) {
	tasks, labels, projects := fixtures()

	for _, q := range []string{"", " ", "   "} {
		got := FilterTasksAt(tasks, q, labels, projects, today)
		if len(got) != len(tasks) || &got[0] != &tasks[0] {
			t.Errorf("query %q: expected the input slice back", q)
		}
	}
}

func TestAndSemanticsIsIntersection(t *testing.T) {
	tasks, labels, projects := fixtures()
	pairs := [][2]string{
		{"p1", "today"},
		{"@home", "#garden"},
		{"overdue", "@work"},
		{"report", "p3"},
	}

	for _, p := range pairs {
		a := FilterTasksAt(tasks, p[0], labels, projects, today)
		b := FilterTasksAt(tasks, p[1], labels, projects, today)
		inB := map[string]bool{}
		for _, task := range b {
			inB[task.ID] = true
		}
		var want []string
		for _, task := range a {
			if inB[task.ID] {
				want = append(want, task.ID)
			}
		}
		got := ids(FilterTasksAt(tasks, p[0]+" "+p[1], labels, projects, today))
		if !equalIDs(got, append([]string{}, want...)) {
			t.Errorf("%q: got %v, want intersection %v", p[0]+" "+p[1], got, want)
		}
	}
}

func TestLabelRoundTrip(t *testing.T) {
	label := types.Label{ID: "L1", Name: "Work"}
	task := types.Task{ID: "t", Labels: []string{"L1"}}

	got := FilterTasksAt([]types.Task{task}, "@work", []types.Label{label}, nil, today)
	if len(got) != 1 || got[0].ID != "t" {
		t.Errorf("@work: got %v", ids(got))
	}
	got = FilterTasksAt([]types.Task{task}, "@nonexistent", []types.Label{label}, nil, today)
	if len(got) != 0 {
		t.Errorf("@nonexistent: got %v", ids(got))
	}
}

func TestInboxIgnoresProjectList(t *testing.T) {
	task := types.Task{ID: "t", ProjectID: types.InboxProjectID}

	got := FilterTasksAt([]types.Task{task}, "#inbox", nil, nil, today)
	if len(got) != 1 {
		t.Errorf("#inbox without projects: got %v", ids(got))
	}

	// A user project named "Inbox" does not redirect the reserved term.
	other := types.Task{ID: "u", ProjectID: "custom"}
	projects := []types.Project{{ID: "custom", Name: "Inbox"}}
	got = FilterTasksAt([]types.Task{task, other}, "#Inbox", nil, projects, today)
	if !equalIDs(ids(got), []string{"t"}) {
		t.Errorf("#Inbox with custom project: got %v", ids(got))
	}
}

func TestTodayIsNotOverdue(t *testing.T) {
	task := types.Task{ID: "t", DueDate: date(today)}
	if got := FilterTasksAt([]types.Task{task}, "overdue", nil, nil, today); len(got) != 0 {
		t.Errorf("today should not be overdue, got %v", ids(got))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		kinds []Kind
	}{
		{"", nil},
		{"p1", []Kind{KindPriority}},
		{"no date", []Kind{KindNoDate}},
		{"p2 no date @x", []Kind{KindPriority, KindNoDate, KindLabel}},
		{"date no", []Kind{KindText, KindText}},
		{"#Inbox #work", []Kind{KindInbox, KindProject}},
		{"search:foo bar", []Kind{KindSearch, KindText}},
		{"p5", []Kind{KindText}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q := Parse(tt.input)
			if len(q.Terms) != len(tt.kinds) {
				t.Fatalf("Parse(%q) gave %d terms, want %d", tt.input, len(q.Terms), len(tt.kinds))
			}
			for i, k := range tt.kinds {
				if q.Terms[i].Kind != k {
					t.Errorf("term %d kind = %s, want %s", i, q.Terms[i].Kind, k)
				}
			}
		})
	}
}

func TestParseSearchPrefixValue(t *testing.T) {
	q := Parse("SEARCH:Milk")
	if q.Terms[0].Value != "milk" {
		t.Errorf("Value = %q, want %q", q.Terms[0].Value, "milk")
	}
	if q.String() != "search:milk" {
		t.Errorf("String() = %q", q.String())
	}
}

func TestMatcherCount(t *testing.T) {
	tasks, labels, projects := fixtures()
	m := Compile(Parse("#inbox"), labels, projects, today)
	if got := m.Count(tasks); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
	if got := Compile(Query{}, nil, nil, today).Count(tasks); got != len(tasks) {
		t.Errorf("empty Count = %d, want %d", got, len(tasks))
	}
}
