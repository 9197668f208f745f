// Package settings edits the configuration file and removes the local account.
package settings

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeSummary       Mode = iota // Show the current settings
	ModeForm                      // Edit settings
	ModeConfirmDelete             // Confirm account deletion
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg carries the edited configuration.
type SavedMsg struct {
	Config model.AppConfig
}

// DeleteAccountMsg asks the parent to remove the account.
type DeleteAccountMsg struct{}

// fields holds the values huh binds to. It lives on the heap so the form's
// pointers stay valid while Model is copied around.
type fields struct {
	defaultView string
	backend     string
	seedEnabled bool
	seedLimit   string
	logLevel    string
	confirm     bool
}

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode      Mode
	cfg       model.AppConfig
	withAuth  bool
	form      *huh.Form
	fb        *fields
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view. withAuth enables account deletion.
func New(cfg model.AppConfig, withAuth bool, k *keys.KeyMap, width, height int) Model {
	return Model{
		cfg:      cfg,
		withAuth: withAuth,
		fb:       &fields{},
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Config returns the settings currently shown.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// SetConfig replaces the shown settings and returns to the summary.
func (m *Model) SetConfig(cfg model.AppConfig, status string) {
	m.cfg = cfg
	m.mode = ModeSummary
	m.form = nil
	m.statusMsg = status
}

// Open resets the view to the summary screen.
func (m *Model) Open() {
	m.mode = ModeSummary
	m.form = nil
	m.statusMsg = ""
}

// Update handles messages and dispatches based on the current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == ModeSummary {
		if k, ok := msg.(tea.KeyMsg); ok {
			return m.handleSummaryKeys(k)
		}
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case key.Matches(msg, m.keys.Edit), msg.String() == "enter":
		m.statusMsg = ""
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if !m.withAuth {
			return m, nil
		}
		m.statusMsg = ""
		m.mode = ModeConfirmDelete
		m.form = m.buildDeleteConfirmForm()
		return m, m.form.Init()
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	*m.fb = fields{
		defaultView: m.cfg.Display.DefaultView,
		backend:     m.cfg.Storage.Backend,
		seedEnabled: m.cfg.Seed.Enabled,
		seedLimit:   strconv.Itoa(m.cfg.Seed.Limit),
		logLevel:    m.cfg.Log.Level,
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default view").
				Options(
					huh.NewOption("Board (three columns)", "board"),
					huh.NewOption("List", "list"),
				).
				Value(&m.fb.defaultView),
			huh.NewSelect[string]().
				Title("Storage backend").
				Description("Takes effect on next start").
				Options(
					huh.NewOption("SQLite", model.BackendSQLite),
					huh.NewOption("Bolt", model.BackendBolt),
				).
				Value(&m.fb.backend),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Fetch starter tasks").
				Description("Only used while the board has never been saved").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.seedEnabled),
			huh.NewInput().
				Title("Starter task count").
				Value(&m.fb.seedLimit).
				Validate(validateLimit),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&m.fb.logLevel),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildDeleteConfirmForm() *huh.Form {
	m.fb.confirm = false
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete the account?").
				Description("Tasks stay on this machine. You will need to sign up again.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeSummary
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		mode := m.mode
		m.mode = ModeSummary
		if mode == ModeConfirmDelete {
			if !m.fb.confirm {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteAccountMsg{} }
		}
		cfg := m.edited()
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }
	case huh.StateAborted:
		m.form = nil
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

// edited applies the form values to a copy of the current settings.
func (m Model) edited() model.AppConfig {
	cfg := m.cfg
	cfg.Display.DefaultView = m.fb.defaultView
	cfg.Storage.Backend = m.fb.backend
	cfg.Seed.Enabled = m.fb.seedEnabled
	if n, err := strconv.Atoi(m.fb.seedLimit); err == nil {
		cfg.Seed.Limit = n
	}
	cfg.Log.Level = m.fb.logLevel
	return cfg
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 200 {
		return fmt.Errorf("enter a number between 1 and 200")
	}
	return nil
}

// View renders the settings view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	if m.form != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(titleStyle.Render("Settings") + "\n" + m.form.View())
	}

	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(20)
	row := func(name, value string) string {
		return label.Render(name) + value
	}
	seed := "off"
	if m.cfg.Seed.Enabled {
		seed = fmt.Sprintf("%d tasks from %s", m.cfg.Seed.Limit, m.cfg.Seed.BaseURL)
	}

	lines := []string{
		titleStyle.Render("Settings"),
		row("Default view", m.cfg.Display.DefaultView),
		row("Storage backend", m.cfg.Storage.Backend),
		row("Starter tasks", seed),
		row("Log level", m.cfg.Log.Level),
		"",
		theme.HelpStyle.Render(m.hints()),
	}
	if m.statusMsg != "" {
		lines = append(lines, "", m.statusMsg)
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) hints() string {
	if m.withAuth {
		return "e edit | d delete account | esc back"
	}
	return "e edit | esc back"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return w
}
