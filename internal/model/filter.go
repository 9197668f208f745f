package model

// StatusFilter narrows the visible tasks to one status, or none.
type StatusFilter string

// StatusFilterAll disables status filtering.
const StatusFilterAll StatusFilter = "all"

// StatusFilters lists the filter values in the order the UI cycles them.
var StatusFilters = []StatusFilter{
	StatusFilterAll,
	StatusFilter(StatusTodo),
	StatusFilter(StatusInProgress),
	StatusFilter(StatusCompleted),
}

// Valid reports whether f is "all" or a known status.
func (f StatusFilter) Valid() bool {
	return f == StatusFilterAll || Status(f).Valid()
}

// Allows reports whether a task with status s passes the filter.
func (f StatusFilter) Allows(s Status) bool {
	if f == StatusFilterAll || f == "" {
		return true
	}
	return Status(f) == s
}

// Next returns the filter after f in StatusFilters, wrapping around.
func (f StatusFilter) Next() StatusFilter {
	for i, v := range StatusFilters {
		if v == f {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return StatusFilterAll
}

// Filter is the process-wide view state. It shapes derived views only and
// never changes the stored collection.
type Filter struct {
	Status StatusFilter `json:"statusFilter"`
	Search string       `json:"searchTerm"`
}

// DefaultFilter shows every task.
func DefaultFilter() Filter {
	return Filter{Status: StatusFilterAll}
}

// Active reports whether the filter hides anything.
func (f Filter) Active() bool {
	return (f.Status != StatusFilterAll && f.Status != "") || f.Search != ""
}
