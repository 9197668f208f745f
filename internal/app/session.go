package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/login"
)

// sessionCheckedMsg reports the session found at startup.
type sessionCheckedMsg struct {
	user       model.User
	active     bool
	hasAccount bool
	err        error
}

// authDoneMsg is sent after a login or registration attempt.
type authDoneMsg struct {
	mode login.Mode
	user model.User
	err  error
}

// loggedOutMsg is sent after the session ended. deleted is set when the
// account was removed as well.
type loggedOutMsg struct {
	deleted bool
	err     error
}

// checkSession looks for an active session and an existing account.
func (m *Model) checkSession() tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		ctx := context.Background()
		u, active, err := a.Current(ctx)
		if err != nil {
			return sessionCheckedMsg{err: err}
		}
		if active {
			return sessionCheckedMsg{user: u, active: true, hasAccount: true}
		}
		has, err := a.HasAccount(ctx)
		return sessionCheckedMsg{hasAccount: has, err: err}
	}
}

// login verifies credentials and starts a session.
func (m *Model) login(in model.LoginInput) tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		u, err := a.Login(context.Background(), in)
		return authDoneMsg{mode: login.ModeLogin, user: u, err: err}
	}
}

// register creates the account and starts a session.
func (m *Model) register(in model.SignupInput) tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		u, err := a.Register(context.Background(), in)
		return authDoneMsg{mode: login.ModeSignup, user: u, err: err}
	}
}

// logout ends the session.
func (m *Model) logout() tea.Cmd {
	a := m.auth
	return func() tea.Msg {
		return loggedOutMsg{err: a.Logout(context.Background())}
	}
}

// deleteAccount removes the account and ends the session.
func (m *Model) deleteAccount() tea.Cmd {
	a := m.auth
	if a == nil {
		return nil
	}
	return func() tea.Msg {
		err := a.DeleteAccount(context.Background())
		return loggedOutMsg{deleted: err == nil, err: err}
	}
}
