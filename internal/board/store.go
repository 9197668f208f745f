// Package board owns the authoritative task collection. A Store applies
// every change through the pure Reduce function and mirrors the result to
// the persistence gateway before returning.
package board

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/seed"
	"github.com/nhle/taskboard/internal/validate"
	"github.com/nhle/taskboard/internal/view"
)

// Gateway persists the whole collection. LoadTasks reports ok=false when no
// state has ever been saved.
type Gateway interface {
	LoadTasks(ctx context.Context) (tasks []model.Task, ok bool, err error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

// Seeder supplies the initial task set when nothing is persisted.
type Seeder interface {
	FetchSeed(ctx context.Context, limit int) ([]seed.Item, error)
}

// Default seed settings.
const (
	DefaultSeedLimit   = seed.DefaultLimit
	DefaultSeedTimeout = 10 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how new task ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithSeedLimit sets how many records are requested from the seeder.
func WithSeedLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.seedLimit = n
		}
	}
}

// WithSeedTimeout bounds the seed fetch.
func WithSeedTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.seedTimeout = d
		}
	}
}

// Store holds the task collection and filter state for one session.
// Operations run to completion one at a time; Load calls are serialized so
// that a second Load never starts a duplicate seed fetch.
type Store struct {
	gw     Gateway
	seeder Seeder

	now         func() time.Time
	newID       func() string
	log         *zap.Logger
	seedLimit   int
	seedTimeout time.Duration

	loadMu  sync.Mutex
	loading atomic.Bool

	mu         sync.Mutex
	state      State
	memoryOnly bool

	// unsaved is set while the collection holds changes the gateway has
	// not accepted yet.
	unsaved bool
}

// New creates a Store. seeder may be nil to disable seeding.
func New(gw Gateway, seeder Seeder, opts ...Option) *Store {
	s := &Store{
		gw:          gw,
		seeder:      seeder,
		now:         time.Now,
		newID:       uuid.NewString,
		log:         zap.NewNop(),
		seedLimit:   DefaultSeedLimit,
		seedTimeout: DefaultSeedTimeout,
		state:       InitialState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the persisted one, seeding it from the
// remote source when nothing has been persisted yet. On a transport or
// storage failure the current collection is kept (empty on first load) and
// the error is returned; calling Load again retries.
//
// While the collection has unsaved changes, Load writes them back instead
// of reading over them.
func (s *Store) Load(ctx context.Context) ([]model.Task, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.loading.Store(true)
	defer s.loading.Store(false)

	s.dispatch(LoadStarted{})

	if s.Unsaved() {
		err := s.resync(ctx)
		return s.Tasks(), err
	}

	tasks, err := s.load(ctx)
	switch {
	case err == nil:
		s.dispatch(Loaded{Tasks: tasks})
	case tasks != nil:
		// Seeded but the write failed: keep the tasks in memory.
		s.dispatch(Loaded{Tasks: tasks})
	default:
		s.dispatch(LoadFailed{Err: err})
	}
	return s.Tasks(), err
}

func (s *Store) load(ctx context.Context) ([]model.Task, error) {
	tasks, ok, err := s.gw.LoadTasks(ctx)
	if err != nil {
		if !model.IsStorage(err) {
			err = model.WrapStorage("load tasks", err)
		}
		s.setMemoryOnly(true)
		s.log.Warn("reading persisted tasks failed; continuing in memory only", zap.Error(err))
		return nil, err
	}
	s.setMemoryOnly(false)

	if ok {
		s.log.Info("loaded persisted tasks", zap.Int("count", len(tasks)))
		return tasks, nil
	}

	if s.seeder == nil {
		s.log.Info("no persisted tasks and seeding disabled")
		return []model.Task{}, nil
	}

	seedCtx, cancel := context.WithTimeout(ctx, s.seedTimeout)
	defer cancel()

	items, err := s.seeder.FetchSeed(seedCtx, s.seedLimit)
	if err != nil {
		if !model.IsTransport(err) {
			err = model.WrapTransport("fetch seed", err)
		}
		s.log.Warn("fetching seed tasks failed", zap.Error(err))
		return nil, err
	}

	tasks = s.normalizeSeed(items)
	s.log.Info("seeded tasks from remote source", zap.Int("count", len(tasks)))

	if err := s.gw.SaveTasks(ctx, tasks); err != nil {
		if !model.IsStorage(err) {
			err = model.WrapStorage("save seed", err)
		}
		s.log.Warn("persisting seeded tasks failed", zap.Error(err))
		s.setUnsaved(true)
		return tasks, err
	}
	return tasks, nil
}

// resync writes the in-memory collection back to the gateway. A store that
// could not read its collection first merges in whatever it can read now;
// if the read still fails, the collection stays as it is.
func (s *Store) resync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.state.Tasks
	if s.memoryOnly {
		persisted, ok, err := s.gw.LoadTasks(ctx)
		if err != nil {
			if !model.IsStorage(err) {
				err = model.WrapStorage("load tasks", err)
			}
			s.log.Warn("reading persisted tasks failed; keeping unsaved changes", zap.Error(err))
			s.state = Reduce(s.state, LoadFailed{Err: err})
			return err
		}
		if ok {
			tasks = mergeTasks(persisted, tasks)
		}
		s.memoryOnly = false
	}

	s.state = Reduce(s.state, Loaded{Tasks: tasks})
	if err := s.persist(ctx, "save unsaved changes"); err != nil {
		s.state.LoadErr = err
		return err
	}
	s.log.Info("saved unsaved changes", zap.Int("count", len(s.state.Tasks)))
	return nil
}

// mergeTasks appends the tasks in current to persisted. A task present in
// both keeps its current version at the persisted position.
func mergeTasks(persisted, current []model.Task) []model.Task {
	out := make([]model.Task, 0, len(persisted)+len(current))
	at := make(map[string]int, len(persisted))
	for _, t := range persisted {
		at[t.ID] = len(out)
		out = append(out, t)
	}
	for _, t := range current {
		if i, ok := at[t.ID]; ok {
			out[i] = t
			continue
		}
		out = append(out, t)
	}
	return out
}

// normalizeSeed turns seed items into tasks. The task id is the remote id
// unless it is empty or already taken, in which case a fresh id is minted.
func (s *Store) normalizeSeed(items []seed.Item) []model.Task {
	now := s.now().UTC()
	taken := make(map[string]bool, len(items))
	tasks := make([]model.Task, 0, len(items))

	for _, it := range items {
		id := it.RemoteID
		if id == "" || taken[id] {
			id = s.mintID(taken)
		}
		taken[id] = true

		in := it.Input
		if in.Status == "" {
			in.Status = model.StatusTodo
		}
		if in.Priority == "" {
			in.Priority = model.PriorityMedium
		}
		if in.Category == "" {
			in.Category = model.DefaultCategory
		}

		t := model.Task{ID: id, CreatedAt: now, UpdatedAt: now}.WithInput(in)
		tasks = append(tasks, t)
	}
	return tasks
}

// Add validates in, assigns a fresh id and timestamps, appends the task and
// persists the collection. A storage error means the task was added in
// memory only.
func (s *Store) Add(ctx context.Context, in model.TaskInput) (model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Category == "" {
		in.Category = model.DefaultCategory
	}
	if err := validate.TaskInput(in); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool, len(s.state.Tasks))
	for _, t := range s.state.Tasks {
		taken[t.ID] = true
	}

	now := s.now().UTC()
	task := model.Task{ID: s.mintID(taken), CreatedAt: now, UpdatedAt: now}.WithInput(in)

	s.state = Reduce(s.state, Added{Task: task})
	s.log.Debug("task added", zap.String("id", task.ID))

	return task.Clone(), s.persist(ctx, "add")
}

// Update overwrites the stored task with the same id. The whole record is
// replaced, except createdAt which is kept from the stored task; updatedAt
// is set to now and always moves forward. A missing id is a not-found error.
func (s *Store) Update(ctx context.Context, task model.Task) (model.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if err := validate.Task(task); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, "update task", task)
}

func (s *Store) update(ctx context.Context, op string, task model.Task) (model.Task, error) {
	i := indexOf(s.state.Tasks, task.ID)
	if i < 0 {
		return model.Task{}, model.NewNotFoundError(op, task.ID)
	}

	prev := s.state.Tasks[i]
	task.CreatedAt = prev.CreatedAt
	task.UpdatedAt = s.nextStamp(prev.UpdatedAt)

	s.state = Reduce(s.state, Updated{Task: task})
	s.log.Debug("task updated",
		zap.String("id", task.ID),
		zap.String("status", string(task.Status)),
	)

	return task.Clone(), s.persist(ctx, op)
}

// ToggleStatus advances the task to the next status in the cycle
// todo -> in-progress -> completed -> todo.
func (s *Store) ToggleStatus(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.state.Tasks, id)
	if i < 0 {
		return model.Task{}, model.NewNotFoundError("toggle status", id)
	}

	task := s.state.Tasks[i].Clone()
	task.Status = task.Status.Next()
	return s.update(ctx, "toggle status", task)
}

// Remove deletes the task if present. Removing an unknown id is not an
// error; the collection is persisted either way.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, Removed{ID: id})
	s.log.Debug("task removed", zap.String("id", id))

	return s.persist(ctx, "remove task")
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.state.Tasks, id)
	if i < 0 {
		return model.Task{}, model.NewNotFoundError("get task", id)
	}
	return s.state.Tasks[i].Clone(), nil
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dedupe(s.state.Tasks)
}

// State returns a copy of the full state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Tasks = dedupe(s.state.Tasks)
	return st
}

// Filter returns the current filter.
func (s *Store) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Filter
}

// SetStatusFilter changes which status is visible.
func (s *Store) SetStatusFilter(f model.StatusFilter) error {
	if !f.Valid() {
		return model.NewValidationError("set filter", map[string]string{
			"statusFilter": "unknown status filter " + string(f),
		})
	}
	s.dispatch(FilterSet{Status: f})
	return nil
}

// SetSearch changes the search term.
func (s *Store) SetSearch(term string) {
	s.dispatch(SearchSet{Term: term})
}

// Visible returns the filtered tasks.
func (s *Store) Visible() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.FilteredTasks(s.state.Tasks, s.state.Filter)
}

// Board returns the filtered tasks grouped by status.
func (s *Store) Board() view.Board {
	return view.GroupByStatus(s.Visible())
}

// Counts returns the number of tasks per status, ignoring the filter.
func (s *Store) Counts() map[model.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Counts(s.state.Tasks)
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// MemoryOnly reports whether persistence is suspended because the stored
// collection could not be read.
func (s *Store) MemoryOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryOnly
}

func (s *Store) dispatch(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, cmd)
}

// Unsaved reports whether the collection holds changes that have not been
// written to storage.
func (s *Store) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

func (s *Store) setUnsaved(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved = v
}

func (s *Store) setMemoryOnly(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoryOnly = v
}

// persist writes the collection through the gateway. Callers hold s.mu.
// While memory-only, writes are skipped so an unreadable stored collection
// is never overwritten. Skipped and failed writes mark the collection
// unsaved.
func (s *Store) persist(ctx context.Context, op string) error {
	if s.memoryOnly {
		s.unsaved = true
		return nil
	}
	if err := s.gw.SaveTasks(ctx, s.state.Tasks); err != nil {
		if !model.IsStorage(err) {
			err = model.WrapStorage(op, err)
		}
		s.log.Warn("persisting tasks failed", zap.String("op", op), zap.Error(err))
		s.unsaved = true
		return err
	}
	s.unsaved = false
	return nil
}

// nextStamp returns now, nudged past prev when the clock has not advanced.
func (s *Store) nextStamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// mintID returns an id not present in taken.
func (s *Store) mintID(taken map[string]bool) string {
	for i := 0; i < 8; i++ {
		if id := s.newID(); id != "" && !taken[id] {
			return id
		}
	}
	return uuid.NewString()
}
