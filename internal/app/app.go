package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/auth"
	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/boardview"
	"github.com/nhle/taskboard/internal/ui/command"
	"github.com/nhle/taskboard/internal/ui/detail"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/login"
	"github.com/nhle/taskboard/internal/ui/settings"
	"github.com/nhle/taskboard/internal/ui/taskform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewBoard
	ViewDetail
	ViewForm
	ViewHelp
	ViewCommand
	ViewSettings
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the task store and session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *board.Store
	auth         *auth.Service
	keys         *keys.KeyMap
	boardView    boardview.Model
	detail       detail.Model
	form         taskform.Model
	loginView    login.Model
	helpView     helpview.Model
	commandView  command.Model
	settings     settings.Model
	config       model.AppConfig
	configPath   string
	user         model.User
	ready        bool
	statusErr    string
}

// New creates the root model. A nil auth service skips the login screen.
// Settings edited in the UI are written to configPath.
func New(s *board.Store, a *auth.Service, cfg model.AppConfig, configPath string) Model {
	k := keys.DefaultKeyMap()
	start := ViewLogin
	if a == nil {
		start = ViewBoard
	}
	return Model{
		currentView: start,
		store:       s,
		auth:        a,
		keys:        k,
		boardView:   boardview.New(k, boardview.ParseMode(cfg.Display.DefaultView), 80, 24),
		detail:      detail.New(k, 80, 24),
		form:        taskform.New(80, 24),
		loginView:   login.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		settings:    settings.New(cfg, a != nil, k, 80, 24),
		config:      cfg,
		configPath:  configPath,
	}
}

// Init checks the session, or loads tasks right away when there is no
// login step.
func (m Model) Init() tea.Cmd {
	if m.auth == nil {
		return m.loadTasks()
	}
	return m.checkSession()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.boardView.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.form.SetSize(w, h)
		m.loginView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settings.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionCheckedMsg:
		if msg.err != nil {
			m.statusErr = describeError(msg.err)
		}
		if msg.active {
			return m.enterBoard(msg.user)
		}
		m.currentView = ViewLogin
		mode := login.ModeLogin
		if !msg.hasAccount {
			mode = login.ModeSignup
		}
		return m, m.loginView.Start(mode)

	case login.LoginMsg:
		return m, m.login(msg.Input)

	case login.SignupMsg:
		return m, m.register(msg.Input)

	case login.QuitMsg:
		return m, tea.Quit

	case authDoneMsg:
		if msg.err != nil {
			m.loginView.SetError(msg.err)
			return m, m.loginView.Start(msg.mode)
		}
		m.loginView.SetError(nil)
		return m.enterBoard(msg.user)

	case loggedOutMsg:
		if msg.err != nil {
			m.statusErr = describeError(msg.err)
			return m, nil
		}
		m.user = model.User{}
		m.currentView = ViewLogin
		m.detail.Clear()
		mode := login.ModeLogin
		if msg.deleted {
			mode = login.ModeSignup
		}
		return m, m.loginView.Start(mode)

	case tasksLoadedMsg:
		m.boardView.SetLoading(false)
		m.setError(msg.err)
		return m, m.refresh()

	case taskSavedMsg:
		m.setError(msg.err)
		if msg.task.ID != "" {
			m.detail.Refresh(msg.task)
		}
		return m, m.refresh()

	case taskRemovedMsg:
		m.setError(msg.err)
		if id, ok := m.detail.TaskID(); ok && id == msg.id {
			m.detail.Clear()
		}
		return m, m.refresh()

	case boardview.SelectedMsg:
		return m.openDetail(msg.ID)

	case boardview.EditMsg:
		return m.openEdit(msg.ID)

	case detail.EditMsg:
		return m.openEdit(msg.ID)

	case boardview.ToggleMsg:
		return m, m.toggleTask(msg.ID)

	case detail.ToggleMsg:
		return m, m.toggleTask(msg.ID)

	case boardview.DeleteMsg:
		return m, m.removeTask(msg.ID)

	case detail.DeleteMsg:
		m.currentView = ViewBoard
		return m, m.removeTask(msg.ID)

	case detail.BackMsg:
		m.currentView = ViewBoard
		return m, nil

	case boardview.SearchMsg:
		m.store.SetSearch(msg.Term)
		return m, m.refresh()

	case boardview.FilterMsg:
		next := m.store.Filter().Status.Next()
		if err := m.store.SetStatusFilter(next); err != nil {
			m.statusErr = describeError(err)
		}
		return m, m.refresh()

	case taskform.SubmittedMsg:
		m.currentView = m.previousView
		if msg.ID == "" {
			return m, m.addTask(msg.Input)
		}
		return m, m.updateTask(msg.ID, msg.Input)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case settings.SavedMsg:
		return m, m.saveSettings(msg.Config)

	case settingsSavedMsg:
		if msg.err != nil {
			m.settings.SetConfig(m.config, "⚠ "+msg.err.Error())
			return m, nil
		}
		m.config = msg.cfg
		m.settings.SetConfig(msg.cfg, "Saved. Storage and logging changes apply on next start.")
		m.boardView.SetMode(boardview.ParseMode(msg.cfg.Display.DefaultView))
		return m, nil

	case settings.DeleteAccountMsg:
		return m, m.deleteAccount()

	case settings.DoneMsg:
		m.currentView = ViewBoard
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work outside text inputs.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	switch m.currentView {
	case ViewHelp:
		if msg.String() == "?" || msg.String() == "esc" {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, true

	case ViewCommand:
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case ViewBoard, ViewDetail:
		if m.currentView == ViewBoard && m.boardView.Searching() {
			return nil, false
		}
	default:
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true

	case "?":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case "n":
		return m.openCreate(), true

	case "r":
		m.statusErr = ""
		m.boardView.SetLoading(true)
		return m.loadTasks(), true

	case "s":
		m.openSettings()
		return nil, true

	case "ctrl+o":
		if m.auth != nil {
			return m.logout(), true
		}
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}

	return m, cmd
}

func (m Model) enterBoard(u model.User) (tea.Model, tea.Cmd) {
	m.user = u
	m.currentView = ViewBoard
	m.boardView.SetLoading(true)
	return m, m.loadTasks()
}

func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	t, err := m.store.Get(id)
	if err != nil {
		m.statusErr = describeError(err)
		return m, m.refresh()
	}
	m.detail.SetTask(t)
	m.currentView = ViewDetail
	return m, nil
}

func (m Model) openEdit(id string) (tea.Model, tea.Cmd) {
	t, err := m.store.Get(id)
	if err != nil {
		m.statusErr = describeError(err)
		return m, m.refresh()
	}
	m.previousView = m.currentView
	m.currentView = ViewForm
	return m, m.form.StartEdit(t)
}

func (m *Model) openSettings() {
	m.settings.Open()
	m.currentView = ViewSettings
}

func (m *Model) openCreate() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewForm
	return m.form.StartCreate()
}

// refresh copies the store's derived views into the board.
func (m *Model) refresh() tea.Cmd {
	return m.boardView.SetData(
		m.store.Board(),
		m.store.Visible(),
		m.store.Filter(),
		m.store.Counts(),
	)
}

func (m *Model) setError(err error) {
	if err == nil {
		m.statusErr = ""
		return
	}
	m.statusErr = describeError(err)
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "new", "add":
		return m.openCreate()
	case "board":
		m.boardView.SetMode(boardview.ModeBoard)
	case "list":
		m.boardView.SetMode(boardview.ModeList)
	case "filter":
		f := model.StatusFilter(c.Arg)
		if c.Arg == "" {
			f = model.StatusFilterAll
		}
		if err := m.store.SetStatusFilter(f); err != nil {
			m.statusErr = describeError(err)
			return nil
		}
		return m.refresh()
	case "search":
		m.store.SetSearch(c.Arg)
		return m.refresh()
	case "clear":
		m.store.SetSearch("")
		_ = m.store.SetStatusFilter(model.StatusFilterAll)
		return m.refresh()
	case "reload", "retry", "refresh":
		m.statusErr = ""
		m.boardView.SetLoading(true)
		return m.loadTasks()
	case "settings":
		m.openSettings()
	case "logout":
		if m.auth != nil {
			return m.logout()
		}
	case "quit", "q":
		return tea.Quit
	default:
		m.statusErr = fmt.Sprintf("unknown command %q", c.Name)
	}
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Task Board", m.headerInfo())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusErr)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewBoard:
		return m.boardView.View()
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		return m.form.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settings.View()
	default:
		return ""
	}
}

// headerInfo summarizes the session, filter and task counts.
func (m Model) headerInfo() string {
	if m.currentView == ViewLogin {
		return ""
	}

	var parts []string
	if m.store.Loading() {
		parts = append(parts, "loading…")
	}
	switch {
	case m.store.MemoryOnly():
		parts = append(parts, "not saving")
	case m.store.Unsaved():
		parts = append(parts, "unsaved changes")
	}

	counts := m.store.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	parts = append(parts, fmt.Sprintf("%d/%d done", counts[model.StatusCompleted], total))
	parts = append(parts, boardview.FilterSummary(m.store.Filter()))

	if m.user.Name != "" {
		parts = append(parts, m.user.Name)
	}
	return strings.Join(parts, " | ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter next | ctrl+n switch form | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | e edit | space next status | d delete | j/k scroll"
	case ViewForm:
		return "enter next | shift+tab back | esc cancel"
	case ViewSettings:
		return "e edit | esc back"
	default:
		if m.boardView.Searching() {
			return "enter apply | esc clear search"
		}
		return "q quit | ? help | n new | e edit | space status | d delete | f filter | / search | v board/list"
	}
}

// describeError turns a store or auth error into a status bar message.
func describeError(err error) string {
	switch {
	case model.IsTransport(err):
		return "⚠ could not fetch starter tasks (" + rootCause(err) + "). Press r to retry."
	case model.IsStorage(err):
		return "⚠ changes are kept in memory but could not be saved (" + rootCause(err) + "). Press r to save again."
	case model.IsNotFound(err):
		return "that task no longer exists"
	case model.IsValidation(err):
		fields := model.FieldErrors(err)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		msgs := make([]string, len(names))
		for i, name := range names {
			msgs[i] = fields[name]
		}
		return strings.Join(msgs, "; ")
	default:
		return err.Error()
	}
}

// rootCause returns the innermost error message.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
