package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jayphen/todone/internal/logging"
	"github.com/Jayphen/todone/internal/store"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Next    json.RawMessage `json:"next"`
	Count   int             `json:"count"`
	Error   string          `json:"error"`
}

type testServer struct {
	ws      *workspace.Workspace
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.OpenSQLite(store.MemoryDSN)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db := store.New(s)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	n := 0
	ws := workspace.New(db,
		workspace.WithClock(func() time.Time { return now }),
		workspace.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		workspace.WithLogger(logging.Nop()),
	)
	if err := ws.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return &testServer{ws: ws, handler: NewServer(ws, logging.Nop()).Handler()}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(t, http.MethodGet, "/health", nil)
	if code != http.StatusOK || !env.Success {
		t.Errorf("health = %d %+v", code, env)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodPost, "/api/tasks", gin.H{
		"content":          "Stand-up",
		"priority":         1,
		"dueDate":          "2024-06-10",
		"recurringPattern": "weekdays",
	})
	if code != http.StatusCreated {
		t.Fatalf("create = %d %s", code, env.Error)
	}
	task := decode[types.Task](t, env.Data)
	if !task.IsRecurring || task.Priority != types.P1 || task.ProjectID != types.InboxProjectID {
		t.Errorf("created = %+v", task)
	}

	code, env = ts.do(t, http.MethodGet, "/api/tasks/"+task.ID, nil)
	if code != http.StatusOK || decode[types.Task](t, env.Data).Content != "Stand-up" {
		t.Errorf("get = %d %+v", code, env)
	}

	code, env = ts.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil)
	if code != http.StatusOK {
		t.Fatalf("toggle = %d %s", code, env.Error)
	}
	if !decode[types.Task](t, env.Data).IsCompleted {
		t.Error("toggled task is not completed")
	}
	next := decode[*types.Task](t, env.Next)
	if next == nil || next.DueDate.String() != "2024-06-11" {
		t.Errorf("next occurrence = %+v", next)
	}

	code, env = ts.do(t, http.MethodPatch, "/api/tasks/"+next.ID, gin.H{"content": "Daily sync", "clearDueDate": true})
	if code != http.StatusOK {
		t.Fatalf("update = %d %s", code, env.Error)
	}
	if got := decode[types.Task](t, env.Data); got.Content != "Daily sync" || got.DueDate != nil {
		t.Errorf("updated = %+v", got)
	}

	code, _ = ts.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	if code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	code, env = ts.do(t, http.MethodGet, "/api/tasks/"+task.ID, nil)
	if code != http.StatusNotFound || env.Success {
		t.Errorf("get deleted = %d %+v", code, env)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty content", gin.H{"content": "  "}},
		{"bad priority", gin.H{"content": "x", "priority": 7}},
		{"bad pattern", gin.H{"content": "x", "recurringPattern": "hourly"}},
		{"bad date", gin.H{"content": "x", "dueDate": "June 5"}},
		{"unknown project", gin.H{"content": "x", "projectId": "ghost"}},
		{"not json", "just a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := ts.do(t, http.MethodPost, "/api/tasks", tt.body)
			if code != http.StatusBadRequest || env.Success || env.Error == "" {
				t.Errorf("got %d %+v, want 400", code, env)
			}
		})
	}

	code, env := ts.do(t, http.MethodPost, "/api/tasks/quick", gin.H{"text": "x tomorrow", "projectId": "ghost"})
	if code != http.StatusBadRequest || env.Success {
		t.Errorf("quick add to unknown project = %d %+v, want 400", code, env)
	}
	if n := len(ts.ws.Tasks()); n != 0 {
		t.Errorf("got %d tasks after rejected creates", n)
	}
}

func TestQuickAdd(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodPost, "/api/tasks/quick", gin.H{"text": "Buy milk tomorrow"})
	if code != http.StatusCreated {
		t.Fatalf("quick add = %d %s", code, env.Error)
	}
	task := decode[types.Task](t, env.Data)
	if task.Content != "Buy milk" || task.DueDate == nil || task.DueDate.String() != "2024-06-11" {
		t.Errorf("quick add = %+v", task)
	}

	code, env = ts.do(t, http.MethodGet, "/api/tasks?q=tomorrow", nil)
	if code != http.StatusOK || env.Count != 1 {
		t.Errorf("query tomorrow = %d count %d", code, env.Count)
	}
}

func TestReorderAndMove(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	var ids []string
	for _, content := range []string{"a", "b", "c"} {
		task, err := ts.ws.CreateTask(ctx, workspace.TaskInput{Content: content})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, task.ID)
	}

	code, env := ts.do(t, http.MethodPost, "/api/tasks/reorder", gin.H{"activeId": ids[2], "overId": ids[0]})
	if code != http.StatusOK {
		t.Fatalf("reorder = %d %s", code, env.Error)
	}
	if got := contents(ts.ws.Tasks()); got != "cab" {
		t.Errorf("after reorder = %s, want cab", got)
	}

	code, env = ts.do(t, http.MethodPost, "/api/tasks/"+ids[2]+"/move", gin.H{"delta": 1})
	if code != http.StatusOK {
		t.Fatalf("move = %d %s", code, env.Error)
	}
	if got := contents(ts.ws.Tasks()); got != "acb" {
		t.Errorf("after move = %s, want acb", got)
	}

	if code, _ := ts.do(t, http.MethodPost, "/api/tasks/reorder", gin.H{"activeId": ids[0]}); code != http.StatusBadRequest {
		t.Errorf("reorder without overId = %d", code)
	}
	if code, _ := ts.do(t, http.MethodPost, "/api/tasks/missing/move", gin.H{"delta": 1}); code != http.StatusNotFound {
		t.Errorf("move missing = %d", code)
	}
}

func contents(tasks []types.Task) string {
	s := ""
	for _, t := range tasks {
		s += t.Content
	}
	return s
}

func TestProjectsLabelsFilters(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, http.MethodPost, "/api/projects", gin.H{"name": "Work", "color": "#f00"})
	if code != http.StatusCreated {
		t.Fatalf("add project = %d %s", code, env.Error)
	}
	project := decode[types.Project](t, env.Data)

	code, env = ts.do(t, http.MethodPost, "/api/labels", gin.H{"name": "urgent"})
	if code != http.StatusCreated {
		t.Fatalf("add label = %d %s", code, env.Error)
	}
	label := decode[types.Label](t, env.Data)

	ts.do(t, http.MethodPost, "/api/tasks", gin.H{"content": "Ship it", "projectId": project.ID, "labels": []string{label.ID}})
	ts.do(t, http.MethodPost, "/api/tasks", gin.H{"content": "Relax"})

	code, env = ts.do(t, http.MethodPost, "/api/filters", gin.H{"name": "Hot work", "query": "#work @urgent"})
	if code != http.StatusCreated {
		t.Fatalf("add filter = %d %s", code, env.Error)
	}
	filter := decode[types.Filter](t, env.Data)

	code, env = ts.do(t, http.MethodGet, "/api/filters/"+filter.ID+"/tasks", nil)
	if code != http.StatusOK || env.Count != 1 {
		t.Errorf("filter tasks = %d count %d", code, env.Count)
	}
	_, env = ts.do(t, http.MethodGet, "/api/filters/counts", nil)
	if counts := decode[map[string]int](t, env.Data); counts[filter.ID] != 1 {
		t.Errorf("counts = %v", counts)
	}

	code, env = ts.do(t, http.MethodPatch, "/api/labels/"+label.ID, gin.H{"name": "hot"})
	if code != http.StatusOK || decode[types.Label](t, env.Data).Name != "hot" {
		t.Errorf("update label = %d %+v", code, env)
	}
	code, env = ts.do(t, http.MethodPatch, "/api/filters/"+filter.ID, gin.H{"query": "#work @hot"})
	if code != http.StatusOK {
		t.Errorf("update filter = %d %s", code, env.Error)
	}
	code, env = ts.do(t, http.MethodPatch, "/api/projects/"+project.ID, gin.H{"isFavorite": true})
	if code != http.StatusOK || !decode[types.Project](t, env.Data).IsFavorite {
		t.Errorf("update project = %d %+v", code, env)
	}

	if code, _ := ts.do(t, http.MethodDelete, "/api/projects/inbox", nil); code != http.StatusBadRequest {
		t.Errorf("delete inbox = %d, want 400", code)
	}
	if code, _ := ts.do(t, http.MethodDelete, "/api/projects/"+project.ID, nil); code != http.StatusOK {
		t.Errorf("delete project = %d", code)
	}
	_, env = ts.do(t, http.MethodGet, "/api/tasks?q=%23inbox", nil)
	if env.Count != 2 {
		t.Errorf("#inbox after project delete = %d, want 2", env.Count)
	}

	for _, path := range []string{"/api/labels/" + label.ID, "/api/filters/" + filter.ID} {
		if code, _ := ts.do(t, http.MethodDelete, path, nil); code != http.StatusOK {
			t.Errorf("DELETE %s = %d", path, code)
		}
		if code, _ := ts.do(t, http.MethodDelete, path, nil); code != http.StatusNotFound {
			t.Errorf("second DELETE %s = %d", path, code)
		}
	}

	_, env = ts.do(t, http.MethodGet, "/api/projects", nil)
	if got := decode[[]types.Project](t, env.Data); len(got) != 1 {
		t.Errorf("projects = %+v", got)
	}
	if code, _ := ts.do(t, http.MethodPost, "/api/labels", gin.H{"name": ""}); code != http.StatusBadRequest {
		t.Errorf("blank label = %d", code)
	}
}

func TestBoardAndWeek(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/tasks", gin.H{"content": "Wed", "dueDate": "2024-06-12", "priority": 2})

	code, env := ts.do(t, http.MethodGet, "/api/board?by=priority", nil)
	if code != http.StatusOK {
		t.Fatalf("board = %d %s", code, env.Error)
	}
	cols := decode[[]workspace.Column](t, env.Data)
	if len(cols) != 4 || len(cols[1].Tasks) != 1 {
		t.Errorf("board = %+v", cols)
	}
	if code, _ := ts.do(t, http.MethodGet, "/api/board?by=color", nil); code != http.StatusBadRequest {
		t.Errorf("bad grouping = %d", code)
	}

	code, env = ts.do(t, http.MethodGet, "/api/week", nil)
	if code != http.StatusOK {
		t.Fatalf("week = %d %s", code, env.Error)
	}
	days := decode[[]workspace.Day](t, env.Data)
	if len(days) != 7 || days[0].Date.String() != "2024-06-10" || len(days[2].Tasks) != 1 {
		t.Errorf("week = %+v", days)
	}

	_, env = ts.do(t, http.MethodGet, "/api/week?anchor=2024-06-20", nil)
	if days := decode[[]workspace.Day](t, env.Data); days[0].Date.String() != "2024-06-17" {
		t.Errorf("anchored week starts %s", days[0].Date)
	}
	if code, _ := ts.do(t, http.MethodGet, "/api/week?anchor=soon", nil); code != http.StatusBadRequest {
		t.Errorf("bad anchor = %d", code)
	}
}
