package board

import "github.com/nhle/taskboard/internal/model"

// State is the board's complete in-memory state.
type State struct {
	// Tasks is the collection in insertion order. Ids are unique.
	Tasks []model.Task

	Filter  model.Filter
	Loading bool

	// LoadErr is the most recent load failure, cleared by a successful load.
	LoadErr error
}

// InitialState is the state before the first load.
func InitialState() State {
	return State{Tasks: []model.Task{}, Filter: model.DefaultFilter()}
}

// Command is a state transition request handled by Reduce.
type Command interface {
	command()
}

// LoadStarted marks a load in flight.
type LoadStarted struct{}

// Loaded replaces the collection with a freshly loaded one.
type Loaded struct{ Tasks []model.Task }

// LoadFailed records a load failure. The collection is left as it was,
// which is empty before the first successful load.
type LoadFailed struct{ Err error }

// Added appends a new task.
type Added struct{ Task model.Task }

// Updated overwrites the task with the same id.
type Updated struct{ Task model.Task }

// Removed drops the task with the given id.
type Removed struct{ ID string }

// FilterSet changes the status filter.
type FilterSet struct{ Status model.StatusFilter }

// SearchSet changes the search term.
type SearchSet struct{ Term string }

func (LoadStarted) command() {}
func (Loaded) command()      {}
func (LoadFailed) command()  {}
func (Added) command()       {}
func (Updated) command()     {}
func (Removed) command()     {}
func (FilterSet) command()   {}
func (SearchSet) command()   {}

// Reduce returns the state that results from applying cmd to s. It never
// modifies s: the returned state owns a fresh task slice whenever the
// collection changes. Added with a duplicate id, Updated with an unknown id
// and Removed with an unknown id leave the collection unchanged.
func Reduce(s State, cmd Command) State {
	switch c := cmd.(type) {
	case LoadStarted:
		s.Loading = true

	case Loaded:
		s.Tasks = dedupe(c.Tasks)
		s.Loading = false
		s.LoadErr = nil

	case LoadFailed:
		if s.Tasks == nil {
			s.Tasks = []model.Task{}
		}
		s.Loading = false
		s.LoadErr = c.Err

	case Added:
		if indexOf(s.Tasks, c.Task.ID) >= 0 {
			return s
		}
		tasks := make([]model.Task, len(s.Tasks), len(s.Tasks)+1)
		copy(tasks, s.Tasks)
		s.Tasks = append(tasks, c.Task.Clone())

	case Updated:
		i := indexOf(s.Tasks, c.Task.ID)
		if i < 0 {
			return s
		}
		tasks := make([]model.Task, len(s.Tasks))
		copy(tasks, s.Tasks)
		tasks[i] = c.Task.Clone()
		s.Tasks = tasks

	case Removed:
		i := indexOf(s.Tasks, c.ID)
		if i < 0 {
			return s
		}
		tasks := make([]model.Task, 0, len(s.Tasks)-1)
		tasks = append(tasks, s.Tasks[:i]...)
		s.Tasks = append(tasks, s.Tasks[i+1:]...)

	case FilterSet:
		s.Filter.Status = c.Status

	case SearchSet:
		s.Filter.Search = c.Term
	}
	return s
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// dedupe copies tasks, keeping the first occurrence of each id.
func dedupe(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t.Clone())
	}
	return out
}
