// Package login shows the sign-in and registration forms that gate the
// board.
package login

import (
	"errors"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/validate"
)

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

// LoginMsg is dispatched when the login form is completed.
type LoginMsg struct{ Input model.LoginInput }

// SignupMsg is dispatched when the registration form is completed.
type SignupMsg struct{ Input model.SignupInput }

// QuitMsg is dispatched when the user aborts the form.
type QuitMsg struct{}

type formBindings struct {
	name     string
	email    string
	password string
	confirm  string
}

// Model is the Bubble Tea model for the auth forms.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   Mode
	errMsg string
	width  int
	height int
}

// New creates a login view.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start shows the form for mode, keeping the email typed so far.
func (m *Model) Start(mode Mode) tea.Cmd {
	m.mode = mode
	email := m.fb.email
	*m.fb = formBindings{email: email}
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode returns the form being shown.
func (m Model) Mode() Mode {
	return m.mode
}

// SetError shows err above the form. Validation errors are listed per field.
func (m *Model) SetError(err error) {
	if err == nil {
		m.errMsg = ""
		return
	}
	fields := model.FieldErrors(err)
	if len(fields) == 0 {
		var me *model.Error
		if errors.As(err, &me) && me.Message != "" {
			m.errMsg = me.Message
		} else {
			m.errMsg = err.Error()
		}
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = fields[name]
	}
	m.errMsg = strings.Join(msgs, "; ")
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the auth forms.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+n" {
		m.errMsg = ""
		if m.mode == ModeLogin {
			return m, m.Start(ModeSignup)
		}
		return m, m.Start(ModeLogin)
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
		return m, func() tea.Msg { return QuitMsg{} }
	}
	return m, cmd
}

func (m Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	if m.mode == ModeSignup {
		return func() tea.Msg {
			return SignupMsg{Input: model.SignupInput{
				Name:            strings.TrimSpace(fb.name),
				Email:           strings.TrimSpace(fb.email),
				Password:        fb.password,
				ConfirmPassword: fb.confirm,
			}}
		}
	}
	return func() tea.Msg {
		return LoginMsg{Input: model.LoginInput{
			Email:    strings.TrimSpace(fb.email),
			Password: fb.password,
		}}
	}
}

func (m *Model) buildForm() *huh.Form {
	email := huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&m.fb.email).
		Validate(validate.Email)

	if m.mode == ModeLogin {
		return huh.NewForm(huh.NewGroup(
			email,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validate.Required("password")),
		)).WithWidth(m.formWidth())
	}

	fb := m.fb
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validate.Required("name")),
		email,
		huh.NewInput().
			Title("Password").
			Description("At least 8 letters or digits, with upper, lower and a number").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validate.Password),
		huh.NewInput().
			Title("Confirm Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.confirm).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("please confirm your password")
				}
				if s != fb.password {
					return errors.New("passwords do not match")
				}
				return nil
			}),
	)).WithWidth(m.formWidth())
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "Log In"
	hint := "No account yet? ctrl+n to sign up"
	if m.mode == ModeSignup {
		title = "Create Account"
		hint = "Already registered? ctrl+n to log in"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(title)}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg), "")
	}
	parts = append(parts, m.form.View(), theme.HelpStyle.Render(hint))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 72 {
		w = 72
	}
	return w
}
