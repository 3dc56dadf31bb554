// Package notify turns due tasks into reminders and delivers them through
// OS-native notifications.
package notify

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/Jayphen/todone/internal/query"
	"github.com/Jayphen/todone/internal/types"
)

// ErrUnsupported is returned on platforms without a notification command.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// Notifier delivers a reminder.
type Notifier interface {
	Notify(title, message string) error
}

// Digest is the set of active tasks that need attention on a given day.
type Digest struct {
	Day      civil.Date
	Overdue  []types.Task
	DueToday []types.Task
}

// Collect builds the digest for today from tasks. Completed tasks are skipped.
func Collect(tasks []types.Task, today civil.Date) Digest {
	overdue := query.Compile(query.Parse("overdue"), nil, nil, today)
	dueToday := query.Compile(query.Parse("today"), nil, nil, today)

	d := Digest{Day: today}
	for _, t := range tasks {
		if t.IsCompleted {
			continue
		}
		switch {
		case overdue.Match(t):
			d.Overdue = append(d.Overdue, t)
		case dueToday.Match(t):
			d.DueToday = append(d.DueToday, t)
		}
	}
	return d
}

// Empty reports whether nothing is due.
func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.DueToday) == 0
}

// Title is a one-line summary such as "2 due today, 1 overdue".
func (d Digest) Title() string {
	var parts []string
	if n := len(d.DueToday); n > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", n))
	}
	if n := len(d.Overdue); n > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", n))
	}
	if len(parts) == 0 {
		return "Nothing due"
	}
	return strings.Join(parts, ", ")
}

// Message lists the tasks, overdue first, one per line.
func (d Digest) Message() string {
	var b strings.Builder
	for _, t := range d.Overdue {
		fmt.Fprintf(&b, "! %s (%s)\n", t.Content, t.DueDate)
	}
	for _, t := range d.DueToday {
		if t.DueTime != "" {
			fmt.Fprintf(&b, "- %s at %s\n", t.Content, t.DueTime)
		} else {
			fmt.Fprintf(&b, "- %s\n", t.Content)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Remind sends d through each notifier. An empty digest sends nothing.
// Every notifier is tried; the errors are joined.
func Remind(d Digest, notifiers ...Notifier) (bool, error) {
	if d.Empty() {
		return false, nil
	}
	var errs []error
	for _, n := range notifiers {
		if err := n.Notify("todone: "+d.Title(), d.Message()); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}

// Writer prints reminders to W.
type Writer struct {
	W io.Writer
}

// Notify implements Notifier.
func (w Writer) Notify(title, message string) error {
	_, err := fmt.Fprintf(w.W, "%s\n%s\n", title, message)
	return err
}

// Desktop sends OS-native notifications:
// - macOS: osascript (native AppleScript)
// - Linux: notify-send (libnotify)
type Desktop struct {
	goos string
	run  func(name string, args ...string) error
}

// NewDesktop returns a notifier for the running platform.
func NewDesktop() *Desktop {
	return &Desktop{
		goos: runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Notify runs the platform command and waits for it.
func (d *Desktop) Notify(title, message string) error {
	name, args, ok := command(d.goos, title, message)
	if !ok {
		return ErrUnsupported
	}
	if err := d.run(name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func command(goos, title, message string) (string, []string, bool) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
		return "osascript", []string{"-e", script}, true
	case "linux":
		return "notify-send", []string{title, message}, true
	default:
		return "", nil, false
	}
}

// escapeAppleScript escapes special characters for AppleScript strings.
func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
