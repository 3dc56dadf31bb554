package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Jayphen/todone/internal/recurrence"
	"github.com/Jayphen/todone/internal/types"
)

// widthCache caches ANSI-aware width calculations to avoid repeated lipgloss.Width calls.
var (
	widthCache   = make(map[string]int)
	widthCacheMu sync.RWMutex
)

const defaultContentWidth = 48

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeFilter:
		b.WriteString(m.queryInput.View())
		b.WriteString("\n\n")
	case modeAdd:
		b.WriteString(m.renderAddPrompt())
		b.WriteString("\n\n")
	case modeConfirmDelete:
		b.WriteString(m.renderConfirmDialog())
		b.WriteString("\n\n")
	default:
		if m.query != "" {
			b.WriteString(DimStyle.Render("filter: ") + m.query)
			b.WriteString("\n\n")
		}
	}

	if msg := m.ws.Err(); msg != "" {
		b.WriteString(ErrorStyle.Render("Error: " + msg))
		b.WriteString("\n\n")
	}

	list := m.renderTaskList()
	if m.height > 0 {
		list = truncateLines(list, max(m.height-10, 3), DimStyle.Render("..."))
	}
	b.WriteString(list)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

// renderHeader renders the application header.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("todone")
	version := ""
	if m.version != "" {
		version = " " + SubtitleStyle.Render("v"+m.version)
	}
	today := m.ws.Today()
	subtitle := SubtitleStyle.Render(today.In(time.UTC).Format("Monday, 2 January 2006"))
	return title + version + "\n" + subtitle
}

func (m Model) renderAddPrompt() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorCyan).
		Padding(0, 1)
	hint := DimStyle.Render("Enter to add, Esc to cancel. Dates like \"tomorrow\" are picked up.")
	return style.Render(m.addInput.View() + "\n" + hint)
}

func (m Model) renderConfirmDialog() string {
	t := m.selectedTask()
	if t == nil {
		return ""
	}
	style := WarningStyle.
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1)
	return style.Render(fmt.Sprintf("Delete %q? (y/n)", ansi.Truncate(t.Content, 40, "…")))
}

// renderTaskList renders active tasks, then completed ones.
func (m Model) renderTaskList() string {
	if len(m.tasks) == 0 {
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(1, 2).
			Foreground(ColorGray)
		if m.query != "" {
			return style.Render("No tasks match " + m.query)
		}
		return style.Render("Nothing to do")
	}

	var b strings.Builder
	completed := m.countCompleted()
	active := len(m.tasks) - completed

	if active > 0 {
		b.WriteString(ActiveSectionStyle.Render(fmt.Sprintf("Active (%d)", active)))
		b.WriteString("\n")
		for i := 0; i < active; i++ {
			b.WriteString(m.renderTaskRow(i))
			b.WriteString("\n")
		}
	}
	if completed > 0 {
		if active > 0 {
			b.WriteString("\n")
		}
		b.WriteString(CompletedSectionStyle.Render(fmt.Sprintf("Completed (%d)", completed)))
		b.WriteString("\n")
		for i := active; i < len(m.tasks); i++ {
			b.WriteString(m.renderTaskRow(i))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderTaskRow renders a single task row.
func (m Model) renderTaskRow(index int) string {
	t := m.tasks[index]

	selector := "  "
	if index == m.selectedIndex {
		selector = SelectedStyle.Render(IndicatorSelected + " ")
	}

	check := PriorityStyle(t.Priority).Render(IndicatorOpen)
	if t.IsCompleted {
		check = DimStyle.Render(IndicatorCompleted)
	}

	prefix := ""
	if t.ParentID != "" {
		prefix = DimStyle.Render(IndicatorChild) + " "
	}

	content := ansi.Truncate(t.Content, m.contentWidth(), "…")
	switch {
	case t.IsCompleted:
		content = DoneStyle.Render(content)
	case index == m.selectedIndex:
		content = SelectedStyle.Render(content)
	}

	row := selector + check + " " + padRight(prefix+content, m.contentWidth()+4)

	var meta []string
	if t.DueDate != nil {
		meta = append(meta, m.renderDue(t))
	}
	if t.IsRecurring && t.RecurringPattern != "" {
		meta = append(meta, DimStyle.Render(IndicatorRecurring+" "+recurrence.Humanize(t.RecurringPattern)))
	}
	for _, id := range t.Labels {
		if name, ok := m.labelNames[id]; ok {
			meta = append(meta, LabelStyle.Render("@"+name))
		}
	}
	return row + strings.Join(meta, " ")
}

func (m Model) renderDue(t types.Task) string {
	today := m.ws.Today()
	due := *t.DueDate
	text := due.String()
	switch {
	case due == today:
		text = "today"
	case due == today.AddDays(1):
		text = "tomorrow"
	}
	if t.DueTime != "" {
		text += " " + t.DueTime
	}

	switch {
	case t.IsCompleted:
		return DimStyle.Render(text)
	case due.Before(today):
		return DueOverdue.Render(text)
	case due == today:
		return DueToday.Render(text)
	default:
		return DueLater.Render(text)
	}
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultContentWidth
	}
	return max(m.width/2, 20)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	completed := m.countCompleted()
	counts := DimStyle.Render(fmt.Sprintf("%d active", len(m.tasks)-completed))
	if completed > 0 {
		counts += DimStyle.Render(fmt.Sprintf(", %d completed", completed))
	}

	help := []string{
		HelpKeyStyle.Render(keyLabel(m.keys.Up)+"/"+keyLabel(m.keys.Down)) + " nav",
		HelpKeyStyle.Render(keyLabel(m.keys.Toggle)) + " done",
		HelpKeyStyle.Render(keyLabel(m.keys.Add)) + " add",
		HelpKeyStyle.Render(keyLabel(m.keys.Filter)) + " filter",
		HelpKeyStyle.Render(keyLabel(m.keys.MoveUp)+"/"+keyLabel(m.keys.MoveDown)) + " move",
		HelpKeyStyle.Render(keyLabel(m.keys.Delete)) + " delete",
		HelpKeyStyle.Render(keyLabel(m.keys.Quit)) + " quit",
	}
	helpLine := DimStyle.Render(strings.Join(help, "  "))

	sep := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(ColorGray).
		PaddingTop(1)

	spacing := max(24-lipgloss.Width(counts), 2)

	var b strings.Builder
	if m.statusMessage != "" {
		b.WriteString(StatusMsgStyle.Render(m.statusMessage))
		b.WriteString("\n")
	}
	b.WriteString(counts)
	b.WriteString(strings.Repeat(" ", spacing))
	b.WriteString(helpLine)

	return sep.Render(b.String())
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

// padRight pads a string to the specified visible width.
// Uses a cache to avoid repeated ANSI-aware width calculations.
func padRight(s string, width int) string {
	widthCacheMu.RLock()
	visibleWidth, cached := widthCache[s]
	widthCacheMu.RUnlock()

	if !cached {
		visibleWidth = lipgloss.Width(s)
		widthCacheMu.Lock()
		widthCache[s] = visibleWidth
		widthCacheMu.Unlock()
	}

	if visibleWidth >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleWidth)
}

func truncateLines(s string, maxLines int, suffix string) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	if suffix != "" {
		if maxLines == 1 {
			return suffix
		}
		lines = lines[:maxLines-1]
		lines = append(lines, suffix)
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n")
}
