package boardview

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		i.Task.Status.Label(),
		string(i.Task.Priority),
		i.Task.Category,
		relativeTime(i.Task.UpdatedAt, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for the flat list mode.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	now := time.Now()
	if d.now != nil {
		now = d.now()
	}

	task := ti.Task
	statusBadge := theme.StatusStyle(task.Status).Render(task.Status.Label())
	line := fmt.Sprintf(
		"%s %s %s %s%s  %s",
		statusMark(task.Status),
		statusBadge,
		priorityBadge(task.Priority),
		task.Title,
		taskBadges(task, now),
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(relativeTime(task.UpdatedAt, now)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// statusMark returns the leading glyph for a task line.
func statusMark(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "✓"
	case model.StatusInProgress:
		return "◐"
	default:
		return "○"
	}
}

// priorityBadge renders a short colored priority label.
func priorityBadge(p model.Priority) string {
	label := "?"
	switch p {
	case model.PriorityHigh:
		label = "H"
	case model.PriorityMedium:
		label = "M"
	case model.PriorityLow:
		label = "L"
	}
	return theme.PriorityStyle(p).Render(label)
}

// taskBadges renders category, due date, overdue and subtask progress.
func taskBadges(t model.Task, now time.Time) string {
	var b strings.Builder
	if t.Category != "" {
		b.WriteString(" ")
		b.WriteString(theme.CategoryStyle().Render("#" + t.Category))
	}
	if t.DueDate != nil {
		due := " " + t.DueDate.Format("Jan 02")
		if t.IsOverdue(now) {
			b.WriteString(theme.OverdueStyle.Render(due + " OVERDUE"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(due))
		}
	}
	if done, total := t.SubtaskProgress(); total > 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(" [%d/%d]", done, total)))
	}
	return b.String()
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
