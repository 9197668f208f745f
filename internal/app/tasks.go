package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
)

// tasksLoadedMsg is sent after the store finished loading or seeding.
type tasksLoadedMsg struct{ err error }

// taskSavedMsg is sent after a task is added, updated or toggled. task is
// the stored record and may be set even when err is a storage error.
type taskSavedMsg struct {
	task model.Task
	err  error
}

// taskRemovedMsg is sent after a task is removed.
type taskRemovedMsg struct {
	id  string
	err error
}

// loadTasks loads the collection, seeding it on first run.
func (m *Model) loadTasks() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.Load(context.Background())
		return tasksLoadedMsg{err: err}
	}
}

// addTask validates and stores a new task.
func (m *Model) addTask(in model.TaskInput) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		t, err := s.Add(context.Background(), in)
		return taskSavedMsg{task: t, err: err}
	}
}

// updateTask replaces the editable fields of the task with id.
func (m *Model) updateTask(id string, in model.TaskInput) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		existing, err := s.Get(id)
		if err != nil {
			return taskSavedMsg{err: err}
		}
		t, err := s.Update(context.Background(), existing.WithInput(in))
		return taskSavedMsg{task: t, err: err}
	}
}

// toggleTask advances the task's status.
func (m *Model) toggleTask(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		t, err := s.ToggleStatus(context.Background(), id)
		return taskSavedMsg{task: t, err: err}
	}
}

// removeTask deletes the task.
func (m *Model) removeTask(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.Remove(context.Background(), id)
		return taskRemovedMsg{id: id, err: err}
	}
}
