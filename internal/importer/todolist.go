// Package importer reads and writes plain-text todolists:
//
//	[ ] Buy milk tomorrow
//	[x] Call the bank
//	  [ ] Subtask of the line above
//
// An optional "- " or "* " bullet before the box is accepted. Indented lines
// become subtasks of the nearest unindented task above them.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

var lineRegex = regexp.MustCompile(`^(\s*)(?:[-*]\s+)?\[([ xX])\]\s*(.+)$`)

// Entry is one task line.
type Entry struct {
	Line     int
	Text     string
	Done     bool
	Indented bool
}

// Parse returns the task lines of r. Other lines are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		matches := lineRegex.FindStringSubmatch(scanner.Text())
		if len(matches) < 4 {
			continue
		}
		text := strings.TrimSpace(matches[3])
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Line:     lineNum,
			Text:     text,
			Done:     matches[2] != " ",
			Indented: matches[1] != "",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading todolist: %w", err)
	}
	return entries, nil
}

// Sink receives imported tasks. *workspace.Workspace implements it.
type Sink interface {
	QuickAdd(ctx context.Context, text string, in workspace.TaskInput) (types.Task, error)
	ToggleTask(ctx context.Context, id string) (workspace.ToggleResult, error)
}

// Options apply to every imported task.
type Options struct {
	ProjectID string
	Labels    []string
}

// Result summarizes an import.
type Result struct {
	Created   int
	Completed int
	Tasks     []types.Task
}

// Import creates a task per entry through sink. Open entries go through
// date extraction; done entries are created and then completed. The first
// failure stops the import and is returned with the partial result.
func Import(ctx context.Context, sink Sink, entries []Entry, opts Options) (Result, error) {
	var res Result
	parentID := ""

	for _, e := range entries {
		in := workspace.TaskInput{
			ProjectID: opts.ProjectID,
			Labels:    opts.Labels,
		}
		if e.Indented {
			in.ParentID = parentID
		}

		task, err := sink.QuickAdd(ctx, e.Text, in)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", e.Line, err)
		}
		res.Created++
		if !e.Indented {
			parentID = task.ID
		}

		if e.Done {
			toggled, err := sink.ToggleTask(ctx, task.ID)
			if err != nil {
				return res, fmt.Errorf("line %d: %w", e.Line, err)
			}
			task = toggled.Task
			res.Completed++
		}
		res.Tasks = append(res.Tasks, task)
	}
	return res, nil
}

// ImportFile parses the file at path and imports it.
func ImportFile(ctx context.Context, sink Sink, path string, opts Options) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open todolist: %w", err)
	}
	defer file.Close()

	entries, err := Parse(file)
	if err != nil {
		return Result{}, err
	}
	return Import(ctx, sink, entries, opts)
}

// Export writes tasks as a todolist. Subtasks follow their parent, indented
// by two spaces; subtasks whose parent is not in tasks are written unindented.
func Export(w io.Writer, tasks []types.Task) error {
	present := make(map[string]bool, len(tasks))
	children := make(map[string][]types.Task)
	for _, t := range tasks {
		present[t.ID] = true
	}
	var roots []types.Task
	for _, t := range tasks {
		if !t.IsTopLevel() && present[t.ParentID] {
			children[t.ParentID] = append(children[t.ParentID], t)
			continue
		}
		roots = append(roots, t)
	}

	bw := bufio.NewWriter(w)
	for _, root := range roots {
		writeLine(bw, "", root)
		for _, child := range children[root.ID] {
			writeLine(bw, "  ", child)
		}
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, indent string, t types.Task) {
	box := "[ ]"
	if t.IsCompleted {
		box = "[x]"
	}
	line := t.Content
	if t.DueDate != nil {
		line += " " + t.DueDate.String()
	}
	fmt.Fprintf(w, "%s%s %s\n", indent, box, line)
}
