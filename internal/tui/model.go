package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

type mode int

const (
	modeNormal mode = iota
	modeFilter
	modeAdd
	modeConfirmDelete
)

// Model is the Bubbletea model for the TUI.
type Model struct {
	// Data
	tasks         []types.Task // active first, then completed
	labelNames    map[string]string
	selectedIndex int
	query         string

	// UI state
	mode          mode
	statusMessage string
	statusExpiry  time.Time
	queryInput    textinput.Model
	addInput      textinput.Model
	width, height int
	version       string

	// Dependencies
	ws      *workspace.Workspace
	keys    config.Keymap
	changes <-chan struct{}
}

// Messages
type (
	changedMsg     struct{}
	statusClearMsg struct{}
	doneMsg        struct {
		status string
		err    error
		follow string // task to keep selected
	}
)

// NewModel creates a new TUI model over a loaded workspace.
func NewModel(ws *workspace.Workspace, keys config.Keymap, version string) Model {
	qi := textinput.New()
	qi.Placeholder = "today @errand #work p1"
	qi.Prompt = "/ "
	qi.CharLimit = 200
	qi.Width = 50

	ai := textinput.New()
	ai.Placeholder = "Buy milk tomorrow"
	ai.Prompt = "+ "
	ai.CharLimit = 500
	ai.Width = 60

	m := Model{
		ws:         ws,
		keys:       keys,
		version:    version,
		queryInput: qi,
		addInput:   ai,
	}
	m.refresh()
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ws *workspace.Workspace, keys config.Keymap, version string) error {
	changes := make(chan struct{}, 1)
	cancel := ws.Subscribe(func(workspace.Event) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer cancel()

	m := NewModel(ws, keys, version)
	m.changes = changes
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.listen()

	case doneMsg:
		m.refresh()
		if msg.follow != "" {
			m.selectID(msg.follow)
		}
		if msg.err != nil {
			m.setStatus(msg.err.Error())
		} else if msg.status != "" {
			m.setStatus(msg.status)
		}
		return m, m.clearStatusLater()

	case statusClearMsg:
		if time.Now().After(m.statusExpiry) {
			m.statusMessage = ""
		}
		return m, nil
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeAdd:
		return m.handleAddKey(msg)
	case modeConfirmDelete:
		m.mode = modeNormal
		if key == "y" || key == "Y" {
			if t := m.selectedTask(); t != nil {
				return m, m.deleteTask(*t)
			}
		}
		m.setStatus("Cancelled")
		return m, nil
	}

	// Normal mode key handling
	switch key {
	case m.keys.Quit:
		return m, tea.Quit

	case "up", m.keys.Up:
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}

	case "down", m.keys.Down:
		if m.selectedIndex < len(m.tasks)-1 {
			m.selectedIndex++
		}

	case m.keys.Toggle:
		if t := m.selectedTask(); t != nil {
			return m, m.toggleTask(*t)
		}

	case m.keys.Delete:
		if m.selectedTask() != nil {
			m.mode = modeConfirmDelete
		}

	case m.keys.MoveUp:
		if t := m.selectedTask(); t != nil && !t.IsCompleted {
			return m, m.moveTask(*t, -1)
		}

	case m.keys.MoveDown:
		if t := m.selectedTask(); t != nil && !t.IsCompleted {
			return m, m.moveTask(*t, 1)
		}

	case m.keys.Filter:
		m.mode = modeFilter
		m.queryInput.SetValue(m.query)
		m.queryInput.CursorEnd()
		cmd := m.queryInput.Focus()
		return m, cmd

	case m.keys.Add:
		m.mode = modeAdd
		cmd := m.addInput.Focus()
		return m, cmd
	}

	return m, nil
}

// handleFilterKey edits the query. The list follows every keystroke.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeNormal
		m.queryInput.Blur()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.queryInput.Blur()
		m.queryInput.SetValue("")
		m.query = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	m.query = m.queryInput.Value()
	m.refresh()
	return m, cmd
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.addInput.Blur()
		m.addInput.SetValue("")
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.addInput.Value())
		m.mode = modeNormal
		m.addInput.Blur()
		m.addInput.SetValue("")
		if text == "" {
			return m, nil
		}
		return m, m.quickAdd(text)
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

// Helper methods

// refresh re-reads the visible tasks from the workspace.
func (m *Model) refresh() {
	var active, completed []types.Task
	for _, t := range m.ws.Query(m.query) {
		if t.IsCompleted {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	m.tasks = append(active, completed...)

	m.labelNames = make(map[string]string)
	for _, l := range m.ws.Labels() {
		m.labelNames[l.ID] = l.Name
	}

	if m.selectedIndex >= len(m.tasks) {
		m.selectedIndex = max(len(m.tasks)-1, 0)
	}
}

func (m *Model) selectID(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.selectedIndex = i
			return
		}
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusExpiry = time.Now().Add(3 * time.Second)
}

func (m Model) selectedTask() *types.Task {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.tasks) {
		return &m.tasks[m.selectedIndex]
	}
	return nil
}

func (m Model) countCompleted() int {
	count := 0
	for _, t := range m.tasks {
		if t.IsCompleted {
			count++
		}
	}
	return count
}

// Commands

func (m Model) listen() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) clearStatusLater() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m Model) toggleTask(t types.Task) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		res, err := ws.ToggleTask(context.Background(), t.ID)
		if err != nil {
			return doneMsg{err: err}
		}
		switch {
		case res.Next != nil:
			return doneMsg{status: fmt.Sprintf("Completed; next on %s", res.Next.DueDate), follow: res.Next.ID}
		case res.Task.IsCompleted:
			return doneMsg{status: "Completed: " + t.Content}
		default:
			return doneMsg{status: "Reopened: " + t.Content, follow: t.ID}
		}
	}
}

func (m Model) deleteTask(t types.Task) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		if err := ws.DeleteTask(context.Background(), t.ID); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{status: "Deleted: " + t.Content}
	}
}

func (m Model) moveTask(t types.Task, delta int) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		return doneMsg{err: ws.MoveTask(context.Background(), t.ID, delta), follow: t.ID}
	}
}

func (m Model) quickAdd(text string) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		t, err := ws.QuickAdd(context.Background(), text, workspace.TaskInput{})
		if err != nil {
			return doneMsg{err: err}
		}
		if t.DueDate != nil {
			return doneMsg{status: fmt.Sprintf("Added: %s (due %s)", t.Content, t.DueDate)}
		}
		return doneMsg{status: "Added: " + t.Content}
	}
}
