// Package view derives display-ready task sequences from the stored
// collection and the current filter. Every function is pure and returns
// freshly allocated slices, so callers may modify results without touching
// the store.
package view

import "github.com/nhle/taskboard/internal/model"

// Board maps each status to its tasks in collection order. All three
// statuses are always present, possibly with empty slices.
type Board map[model.Status][]model.Task

// Column is one rendered board column.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// FilteredTasks keeps the tasks that pass the status filter and contain the
// search term (case-insensitive) in their title, description, or category.
// Surviving tasks keep their relative order.
func FilteredTasks(tasks []model.Task, filter model.Filter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !filter.Status.Allows(t.Status) {
			continue
		}
		if !t.Matches(filter.Search) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// GroupByStatus partitions tasks into status buckets, preserving order.
// Tasks with an unknown status are dropped.
func GroupByStatus(tasks []model.Task) Board {
	b := make(Board, len(model.Statuses))
	for _, s := range model.Statuses {
		b[s] = []model.Task{}
	}
	for _, t := range tasks {
		if _, ok := b[t.Status]; !ok {
			continue
		}
		b[t.Status] = append(b[t.Status], t.Clone())
	}
	return b
}

// Columns returns the board in display order: todo, in-progress, completed.
func (b Board) Columns() []Column {
	cols := make([]Column, len(model.Statuses))
	for i, s := range model.Statuses {
		cols[i] = Column{Status: s, Tasks: b[s]}
	}
	return cols
}

// Counts returns the number of tasks per status.
func Counts(tasks []model.Task) map[model.Status]int {
	counts := make(map[model.Status]int, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

// Find returns the task with the given id.
func Find(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}
