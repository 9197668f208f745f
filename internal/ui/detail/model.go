package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the board.
type BackMsg struct{}

// EditMsg asks the parent to open the edit form for the shown task.
type EditMsg struct{ ID string }

// ToggleMsg asks the parent to advance the shown task's status.
type ToggleMsg struct{ ID string }

// DeleteMsg asks the parent to remove the shown task.
type DeleteMsg struct{ ID string }

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Edit):
			return m, m.action(func(id string) tea.Msg { return EditMsg{ID: id} })

		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(func(id string) tea.Msg { return ToggleMsg{ID: id} })

		case key.Matches(msg, m.keys.Delete):
			return m, m.action(func(id string) tea.Msg { return DeleteMsg{ID: id} })
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(build func(id string) tea.Msg) tea.Cmd {
	if m.task == nil {
		return nil
	}
	id := m.task.ID
	return func() tea.Msg { return build(id) }
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StatusStyle(task.Status).Render(task.Status.Label()),
		"  ",
		theme.PriorityStyle(task.Priority).Render(strings.ToUpper(string(task.Priority))),
		"  ",
		theme.CategoryStyle().Render(task.Category),
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-9s", label)), value)
	}

	if task.DueDate != nil {
		due := valStyle.Render(task.DueDate.String())
		if task.IsOverdue(m.now()) {
			due = theme.OverdueStyle.Render(task.DueDate.String() + " (overdue)")
		}
		sections = append(sections, row("Due:", due))
	}
	if !task.CreatedAt.IsZero() {
		sections = append(sections, row("Created:", valStyle.Render(task.CreatedAt.Local().Format("2006-01-02 15:04"))))
	}
	if !task.UpdatedAt.IsZero() {
		sections = append(sections, row("Updated:", valStyle.Render(task.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections = append(sections, headerStyle.Render("Description"))

	body := task.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	if len(task.Subtasks) > 0 {
		done, total := task.SubtaskProgress()
		sections = append(sections, "", separator, "")
		sections = append(sections, headerStyle.Render(fmt.Sprintf("Subtasks (%d/%d)", done, total)))
		for _, st := range task.Subtasks {
			mark := "[ ]"
			if st.Completed {
				mark = theme.StatusStyle(model.StatusCompleted).UnsetPadding().Render("[x]")
			}
			sections = append(sections, mark+" "+st.Label)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(t model.Task) {
	m.task = &t
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh re-renders t if it is the task on screen.
func (m *Model) Refresh(t model.Task) {
	if m.task != nil && m.task.ID == t.ID {
		m.task = &t
		m.viewport.SetContent(m.renderContent())
	}
}

// Clear empties the view.
func (m *Model) Clear() {
	m.task = nil
	m.viewport.SetContent("")
}

// TaskID returns the id of the task on screen, if any.
func (m Model) TaskID() (string, bool) {
	if m.task == nil {
		return "", false
	}
	return m.task.ID, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
