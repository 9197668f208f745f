// Package boardview renders the task collection as a three-column status
// board or as a flat list, and turns key presses into task intents.
package boardview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/view"
)

// Mode selects the board or list rendering.
type Mode int

const (
	ModeBoard Mode = iota
	ModeList
)

// ParseMode maps the configured default view name to a Mode.
func ParseMode(s string) Mode {
	if s == "list" {
		return ModeList
	}
	return ModeBoard
}

// SelectedMsg asks the parent to open the task's detail view.
type SelectedMsg struct{ ID string }

// EditMsg asks the parent to open the edit form for a task.
type EditMsg struct{ ID string }

// ToggleMsg asks the parent to advance a task's status.
type ToggleMsg struct{ ID string }

// DeleteMsg asks the parent to remove a task.
type DeleteMsg struct{ ID string }

// SearchMsg carries a new search term.
type SearchMsg struct{ Term string }

// FilterMsg asks the parent to move to the next status filter.
type FilterMsg struct{}

// Model is the board/list view component. It holds a snapshot of the
// store's derived views and never mutates tasks itself.
type Model struct {
	keys *keys.KeyMap
	mode Mode

	columns []view.Column
	visible []model.Task
	filter  model.Filter
	counts  map[model.Status]int
	loading bool

	col  int
	rows []int

	list        list.Model
	searchMode  bool
	searchInput textinput.Model

	now    func() time.Time
	width  int
	height int
}

// New creates a new board view model.
func New(k *keys.KeyMap, mode Mode, width, height int) Model {
	delegate := ItemDelegate{now: time.Now}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title, description, category..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		keys:        k,
		mode:        mode,
		columns:     view.GroupByStatus(nil).Columns(),
		filter:      model.DefaultFilter(),
		counts:      map[model.Status]int{},
		rows:        make([]int, len(model.Statuses)),
		list:        l,
		searchInput: si,
		now:         time.Now,
		width:       width,
		height:      height,
	}
}

// SetData replaces the displayed snapshot.
func (m *Model) SetData(
	b view.Board,
	visible []model.Task,
	filter model.Filter,
	counts map[model.Status]int,
) tea.Cmd {
	m.columns = b.Columns()
	m.visible = visible
	m.filter = filter
	m.counts = counts

	for i, c := range m.columns {
		m.rows[i] = clamp(m.rows[i], len(c.Tasks))
	}

	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// SetLoading toggles the loading placeholder.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Mode returns the current rendering mode.
func (m Model) Mode() Mode {
	return m.mode
}

// SetMode switches between board and list rendering, keeping the same
// task selected where possible.
func (m *Model) SetMode(mode Mode) {
	selected, ok := m.Selected()
	m.mode = mode
	if ok {
		m.selectID(selected.ID)
	}
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	if m.mode == ModeList {
		item, ok := m.list.SelectedItem().(TaskItem)
		return item.Task, ok
	}
	if m.col >= len(m.columns) {
		return model.Task{}, false
	}
	tasks := m.columns[m.col].Tasks
	row := m.rows[m.col]
	if row < 0 || row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[row], true
}

func (m *Model) selectID(id string) {
	for c, col := range m.columns {
		for r, t := range col.Tasks {
			if t.ID == id {
				m.col, m.rows[c] = c, r
			}
		}
	}
	for i, t := range m.visible {
		if t.ID == id {
			m.list.Select(i)
		}
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		term := strings.TrimSpace(m.searchInput.Value())
		return m, func() tea.Msg { return SearchMsg{Term: term} }

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		return m, func() tea.Msg { return SearchMsg{Term: ""} }
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Filter):
		return m, func() tea.Msg { return FilterMsg{} }

	case key.Matches(msg, m.keys.ToggleView):
		if m.mode == ModeBoard {
			m.SetMode(ModeList)
		} else {
			m.SetMode(ModeBoard)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m, m.intent(func(id string) tea.Msg { return SelectedMsg{ID: id} })

	case key.Matches(msg, m.keys.Edit):
		return m, m.intent(func(id string) tea.Msg { return EditMsg{ID: id} })

	case key.Matches(msg, m.keys.Toggle):
		return m, m.intent(func(id string) tea.Msg { return ToggleMsg{ID: id} })

	case key.Matches(msg, m.keys.Delete):
		return m, m.intent(func(id string) tea.Msg { return DeleteMsg{ID: id} })
	}

	if m.mode == ModeBoard {
		m.moveCursor(msg)
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// intent wraps the selected task id in a message, or does nothing when the
// cursor is on an empty column.
func (m Model) intent(build func(id string) tea.Msg) tea.Cmd {
	t, ok := m.Selected()
	if !ok {
		return nil
	}
	id := t.ID
	return func() tea.Msg { return build(id) }
}

func (m *Model) moveCursor(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.columns)-1 {
			m.col++
		}
	case key.Matches(msg, m.keys.Up):
		if m.rows[m.col] > 0 {
			m.rows[m.col]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.rows[m.col] < len(m.columns[m.col].Tasks)-1 {
			m.rows[m.col]++
		}
	}
}

// View renders the board or list.
func (m Model) View() string {
	var parts []string
	if m.searchMode {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View()))
	} else if m.filter.Active() {
		parts = append(parts, theme.HelpStyle.Padding(0, 1).Render(FilterSummary(m.filter)))
	}

	switch {
	case m.loading && len(m.visible) == 0:
		parts = append(parts, m.renderPlaceholder("Loading tasks..."))
	case len(m.visible) == 0:
		parts = append(parts, m.renderEmptyState())
	case m.mode == ModeList:
		parts = append(parts, m.list.View())
	default:
		parts = append(parts, m.renderBoard())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderBoard() string {
	width := m.width/len(m.columns) - 4
	if width < 16 {
		width = 16
	}
	now := m.now()

	rendered := make([]string, len(m.columns))
	for i, c := range m.columns {
		header := theme.StatusStyle(c.Status).Render(
			fmt.Sprintf("%s (%d)", c.Status.Label(), len(c.Tasks)),
		)

		lines := []string{header, ""}
		for r, t := range c.Tasks {
			card := renderCard(t, now, width)
			if i == m.col && r == m.rows[i] {
				card = theme.SelectedItemStyle.Render(card)
			} else {
				card = theme.ListItemStyle.Render(card)
			}
			lines = append(lines, card)
		}
		if len(c.Tasks) == 0 {
			lines = append(lines, theme.HelpStyle.Render("  nothing here"))
		}

		style := theme.ColumnStyle
		if i == m.col {
			style = theme.FocusedColumnStyle
		}
		rendered[i] = style.
			Width(width).
			Height(m.height - 4).
			Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderCard draws a task as a two-line card: title, then badges.
func renderCard(t model.Task, now time.Time, width int) string {
	title := t.Title
	if limit := width - 4; limit > 3 && len([]rune(title)) > limit {
		title = string([]rune(title)[:limit-1]) + "…"
	}
	first := priorityBadge(t.Priority) + " " + title
	return lipgloss.JoinVertical(lipgloss.Left, first, strings.TrimPrefix(taskBadges(t, now), " "))
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	total := 0
	for _, n := range m.counts {
		total += n
	}
	if total > 0 {
		return m.renderPlaceholder("No matching tasks.\nPress f to change the filter or / to edit the search.")
	}
	return m.renderPlaceholder("No tasks yet.\n\nPress n to add one.")
}

func (m Model) renderPlaceholder(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// FilterSummary describes the active filter for the status line.
func FilterSummary(f model.Filter) string {
	var parts []string
	if f.Status != model.StatusFilterAll && f.Status != "" {
		parts = append(parts, "status: "+model.Status(f.Status).Label())
	}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.Search))
	}
	if len(parts) == 0 {
		return "all tasks"
	}
	return strings.Join(parts, " · ")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
