package taskform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/validate"
)

// SubmittedMsg is dispatched when the form is completed. ID is empty when
// creating a task.
type SubmittedMsg struct {
	ID    string
	Input model.TaskInput
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	status      model.Status
	priority    model.Priority
	category    string
	dueDate     string
	subtasks    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{
		status:   model.StatusTodo,
		priority: model.PriorityMedium,
		category: model.DefaultCategory,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		status:      t.Status,
		priority:    t.Priority,
		category:    t.Category,
		subtasks:    FormatSubtasks(t.Subtasks),
	}
	if t.DueDate != nil {
		m.fb.dueDate = t.DueDate.String()
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing task.
func (m Model) Editing() bool {
	return m.editMode
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildForm() *huh.Form {
	statusOpts := make([]huh.Option[model.Status], len(model.Statuses))
	for i, s := range model.Statuses {
		statusOpts[i] = huh.NewOption(s.Label(), s)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				CharLimit(validate.TitleMaxLen).
				Value(&m.fb.title).
				Validate(validate.Title),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewSelect[model.Status]().
				Title("Status").
				Options(statusOpts...).
				Value(&m.fb.status),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(categoryOptions(m.fb.category)...)...).
				Value(&m.fb.category),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validate.DueDate),
			huh.NewText().
				Title("Subtasks").
				Description("One per line; prefix with [x] when done").
				Value(&m.fb.subtasks),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// categoryOptions returns the fixed categories plus current when it is a
// custom label.
func categoryOptions(current string) []string {
	opts := append([]string(nil), model.Categories...)
	if current == "" {
		return opts
	}
	for _, c := range opts {
		if c == current {
			return opts
		}
	}
	return append(opts, current)
}

func (m Model) handleSubmit() tea.Cmd {
	in := model.TaskInput{
		Title:       strings.TrimSpace(m.fb.title),
		Description: strings.TrimSpace(m.fb.description),
		Status:      m.fb.status,
		Priority:    m.fb.priority,
		Category:    m.fb.category,
		Subtasks:    ParseSubtasks(m.fb.subtasks),
	}
	if s := strings.TrimSpace(m.fb.dueDate); s != "" {
		if d, err := model.ParseDate(s); err == nil {
			in.DueDate = &d
		}
	}

	id := m.editID
	return func() tea.Msg { return SubmittedMsg{ID: id, Input: in} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// ParseSubtasks reads one subtask per non-blank line. A leading "[x]" marks
// the subtask completed and a leading "[ ]" is dropped.
func ParseSubtasks(text string) []model.Subtask {
	var out []model.Subtask
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		st := model.Subtask{Label: line}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "[x]"):
			st.Completed = true
			st.Label = strings.TrimSpace(line[3:])
		case strings.HasPrefix(lower, "[ ]"):
			st.Label = strings.TrimSpace(line[3:])
		}
		if st.Label == "" {
			continue
		}
		out = append(out, st)
	}
	return out
}

// FormatSubtasks is the inverse of ParseSubtasks.
func FormatSubtasks(subtasks []model.Subtask) string {
	lines := make([]string, len(subtasks))
	for i, st := range subtasks {
		mark := "[ ] "
		if st.Completed {
			mark = "[x] "
		}
		lines[i] = mark + st.Label
	}
	return strings.Join(lines, "\n")
}
