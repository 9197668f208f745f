package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/seed"
)

type fakeGateway struct {
	mu      sync.Mutex
	tasks   []model.Task
	present bool
	loadErr error
	saveErr error
	saves   int
}

func (g *fakeGateway) LoadTasks(context.Context) ([]model.Task, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, false, g.loadErr
	}
	if !g.present {
		return []model.Task{}, false, nil
	}
	return append([]model.Task(nil), g.tasks...), true, nil
}

func (g *fakeGateway) SaveTasks(_ context.Context, tasks []model.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.tasks = append([]model.Task(nil), tasks...)
	g.present = true
	return nil
}

func (g *fakeGateway) saved() []model.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Task(nil), g.tasks...)
}

type fakeSeeder struct {
	items   []seed.Item
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeSeeder) FetchSeed(ctx context.Context, limit int) ([]seed.Item, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, model.WrapTransport("fetch seed", ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func seedItems(n int) []seed.Item {
	items := make([]seed.Item, n)
	for i := range items {
		status := model.StatusTodo
		if i%3 == 0 {
			status = model.StatusCompleted
		}
		items[i] = seed.Item{
			RemoteID: fmt.Sprint(i + 1),
			Input: model.TaskInput{
				Title:    fmt.Sprintf("seeded task %d", i+1),
				Status:   status,
				Priority: model.PriorityMedium,
				Category: model.DefaultCategory,
			},
		}
	}
	return items
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("task-%d", n.Add(1)) }
}

func newTestStore(gw *fakeGateway, seeder Seeder, opts ...Option) *Store {
	opts = append([]Option{WithClock(stepClock()), WithIDGenerator(sequentialIDs())}, opts...)
	return New(gw, seeder, opts...)
}

func validInput(title string) model.TaskInput {
	return model.TaskInput{
		Title:    title,
		Status:   model.StatusTodo,
		Priority: model.PriorityHigh,
		Category: "Work",
	}
}

func TestLoad_SeedsWhenNothingPersisted(t *testing.T) {
	gw := &fakeGateway{}
	seeder := &fakeSeeder{items: seedItems(10)}
	s := newTestStore(gw, seeder)

	tasks, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 10)

	for i, task := range tasks {
		assert.Equal(t, fmt.Sprint(i+1), task.ID)
		assert.Equal(t, model.PriorityMedium, task.Priority)
		assert.Equal(t, model.DefaultCategory, task.Category)
		assert.Nil(t, task.DueDate)
		assert.False(t, task.CreatedAt.IsZero())
	}
	assert.Equal(t, tasks, gw.saved(), "seed result is persisted")

	// A second session reads the persisted collection without reseeding.
	s2 := newTestStore(gw, seeder)
	again, err := s2.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tasks, again)
	assert.Equal(t, int32(1), seeder.calls.Load())
}

func TestLoad_PersistedEmptyCollectionIsNotReseeded(t *testing.T) {
	gw := &fakeGateway{present: true, tasks: []model.Task{}}
	seeder := &fakeSeeder{items: seedItems(10)}

	tasks, err := newTestStore(gw, seeder).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, seeder.calls.Load())
}

func TestLoad_SeedDisabled(t *testing.T) {
	gw := &fakeGateway{}

	tasks, err := newTestStore(gw, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, gw.saves)
}

func TestLoad_SeedIDsFallBackWhenMissingOrDuplicate(t *testing.T) {
	items := seedItems(3)
	items[1].RemoteID = ""
	items[2].RemoteID = items[0].RemoteID

	tasks, err := newTestStore(&fakeGateway{}, &fakeSeeder{items: items}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "task-1", tasks[1].ID)
	assert.Equal(t, "task-2", tasks[2].ID)
}

func TestLoad_TransportFailureLeavesEmptyCollection(t *testing.T) {
	gw := &fakeGateway{}
	seeder := &fakeSeeder{err: model.WrapTransport("fetch seed", errors.New("connection refused"))}
	s := newTestStore(gw, seeder)

	tasks, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsTransport(err))
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)
	assert.Zero(t, gw.saves)

	st := s.State()
	assert.False(t, st.Loading)
	assert.True(t, model.IsTransport(st.LoadErr))

	// Retrying after the source recovers seeds normally.
	seeder.err = nil
	seeder.items = seedItems(2)
	tasks, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.NoError(t, s.State().LoadErr)
}

func TestLoad_UnclassifiedSeedErrorIsTransport(t *testing.T) {
	seeder := &fakeSeeder{err: errors.New("weird")}

	_, err := newTestStore(&fakeGateway{}, seeder).Load(context.Background())
	assert.True(t, model.IsTransport(err))
}

func TestLoad_SeedTimeout(t *testing.T) {
	seeder := &fakeSeeder{items: seedItems(1), release: make(chan struct{})}
	defer close(seeder.release)
	s := newTestStore(&fakeGateway{}, seeder, WithSeedTimeout(20*time.Millisecond))

	tasks, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsTransport(err))
	assert.Empty(t, tasks)
}

func TestLoad_StorageReadFailureSwitchesToMemoryOnly(t *testing.T) {
	gw := &fakeGateway{loadErr: errors.New("disk on fire")}
	s := newTestStore(gw, &fakeSeeder{items: seedItems(3)})

	tasks, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.Empty(t, tasks)
	assert.True(t, s.MemoryOnly())

	// Mutations keep working but are not written back.
	added, err := s.Add(context.Background(), validInput("offline task"))
	require.NoError(t, err)
	assert.Equal(t, []model.Task{added}, s.Tasks())
	assert.Zero(t, gw.saves)
}

func TestLoad_SeedPersistFailureKeepsTasks(t *testing.T) {
	gw := &fakeGateway{saveErr: errors.New("read-only")}
	s := newTestStore(gw, &fakeSeeder{items: seedItems(4)})

	tasks, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.Len(t, tasks, 4)
	assert.Len(t, s.Tasks(), 4)
}

func TestLoad_RetryAfterSaveFailureWritesUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{present: true}
	s := newTestStore(gw, nil)
	_, err := s.Load(ctx)
	require.NoError(t, err)

	gw.saveErr = errors.New("disk full")
	added, err := s.Add(ctx, validInput("Write report"))
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.True(t, s.Unsaved())

	// Still failing: the task stays in memory.
	tasks, err := s.Load(ctx)
	assert.True(t, model.IsStorage(err))
	assert.Equal(t, []model.Task{added}, tasks)
	assert.True(t, s.Unsaved())

	gw.mu.Lock()
	gw.saveErr = nil
	gw.mu.Unlock()

	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{added}, tasks)
	assert.Equal(t, []model.Task{added}, gw.saved())
	assert.False(t, s.Unsaved())
	assert.NoError(t, s.State().LoadErr)
}

func TestLoad_RetryInMemoryOnlyKeepsAndMergesChanges(t *testing.T) {
	ctx := context.Background()
	stored := model.Task{
		ID:       "stored-1",
		Title:    "Persisted earlier",
		Status:   model.StatusTodo,
		Priority: model.PriorityLow,
		Category: "Work",
	}
	gw := &fakeGateway{loadErr: errors.New("locked"), tasks: []model.Task{stored}, present: true}
	s := newTestStore(gw, nil)

	_, err := s.Load(ctx)
	require.Error(t, err)
	require.True(t, s.MemoryOnly())

	added, err := s.Add(ctx, validInput("offline task"))
	require.NoError(t, err)
	assert.True(t, s.Unsaved())

	// The read fails again: nothing is lost and nothing is written.
	tasks, err := s.Load(ctx)
	assert.True(t, model.IsStorage(err))
	assert.Equal(t, []model.Task{added}, tasks)
	assert.True(t, s.MemoryOnly())
	assert.Zero(t, gw.saves)

	gw.mu.Lock()
	gw.loadErr = nil
	gw.mu.Unlock()

	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{stored, added}, tasks)
	assert.Equal(t, []model.Task{stored, added}, gw.saved())
	assert.False(t, s.MemoryOnly())
	assert.False(t, s.Unsaved())
}

func TestLoad_RetryAfterSeedPersistFailureDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{saveErr: errors.New("read-only")}
	seeder := &fakeSeeder{items: seedItems(3)}
	s := newTestStore(gw, seeder)

	seeded, err := s.Load(ctx)
	require.Error(t, err)
	require.Len(t, seeded, 3)

	gw.mu.Lock()
	gw.saveErr = nil
	gw.mu.Unlock()

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded, tasks)
	assert.Equal(t, seeded, gw.saved())
	assert.EqualValues(t, 1, seeder.calls.Load())
}

func TestLoad_FailedReloadKeepsLoadedTasks(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{present: true}
	s := newTestStore(gw, nil)
	_, err := s.Load(ctx)
	require.NoError(t, err)
	added, err := s.Add(ctx, validInput("Write report"))
	require.NoError(t, err)

	gw.mu.Lock()
	gw.loadErr = errors.New("locked")
	gw.mu.Unlock()

	tasks, err := s.Load(ctx)
	assert.True(t, model.IsStorage(err))
	assert.Equal(t, []model.Task{added}, tasks)
}

func TestLoad_ConcurrentCallsSeedOnce(t *testing.T) {
	gw := &fakeGateway{}
	seeder := &fakeSeeder{items: seedItems(10), release: make(chan struct{})}
	s := newTestStore(gw, seeder)

	var wg sync.WaitGroup
	results := make([][]model.Task, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tasks, err := s.Load(context.Background())
			assert.NoError(t, err)
			results[i] = tasks
		}(i)
	}

	require.Eventually(t, s.Loading, time.Second, time.Millisecond)
	close(seeder.release)
	wg.Wait()

	assert.Equal(t, int32(1), seeder.calls.Load())
	assert.Len(t, results[0], 10)
	assert.Equal(t, results[0], results[1])
	assert.False(t, s.Loading())
}

func TestAdd_ThenGet(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(gw, nil)
	ctx := context.Background()

	due := model.NewDate(2026, 3, 10)
	in := validInput("  Buy milk  ")
	in.Description = "2 litres"
	in.DueDate = &due
	in.Category = ""

	added, err := s.Add(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "task-1", added.ID)
	assert.Equal(t, "Buy milk", added.Title)
	assert.Equal(t, model.DefaultCategory, added.Category)
	assert.Equal(t, added.CreatedAt, added.UpdatedAt)

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)
	assert.Equal(t, []model.Task{added}, gw.saved())
}

func TestAdd_IDsAreUnique(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil, WithIDGenerator(func() string { return "same" }))
	ctx := context.Background()

	a, err := s.Add(ctx, validInput("first task"))
	require.NoError(t, err)
	b, err := s.Add(ctx, validInput("second task"))
	require.NoError(t, err)

	assert.Equal(t, "same", a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, b.ID)
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(gw, nil)

	_, err := s.Add(context.Background(), model.TaskInput{Title: "ab", Status: "later"})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	fields := model.FieldErrors(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "priority")
	assert.Empty(t, s.Tasks())
	assert.Zero(t, gw.saves)
}

func TestAdd_StorageFailureKeepsTaskInMemory(t *testing.T) {
	gw := &fakeGateway{saveErr: errors.New("disk full")}
	s := newTestStore(gw, nil)

	added, err := s.Add(context.Background(), validInput("Write report"))
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.Equal(t, "Write report", added.Title)
	assert.Len(t, s.Tasks(), 1)
}

func TestUpdate_ReplacesRecordAndAdvancesUpdatedAt(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)
	ctx := context.Background()

	added, err := s.Add(ctx, validInput("Draft plan"))
	require.NoError(t, err)

	edit := added
	edit.Title = "Final plan"
	edit.Status = model.StatusInProgress
	edit.Description = ""
	edit.CreatedAt = time.Time{}

	updated, err := s.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "Final plan", updated.Title)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(added.UpdatedAt))

	got, _ := s.Get(added.ID)
	assert.Equal(t, updated, got)
}

func TestUpdate_UpdatedAtMovesForwardWithFrozenClock(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := newTestStore(&fakeGateway{}, nil, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	added, err := s.Add(ctx, validInput("Same instant"))
	require.NoError(t, err)

	first, err := s.Update(ctx, added)
	require.NoError(t, err)
	second, err := s.Update(ctx, first)
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(added.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)

	ghost := model.Task{ID: "nope", Title: "Ghost task", Status: model.StatusTodo, Priority: model.PriorityLow}
	_, err := s.Update(context.Background(), ghost)
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
	assert.Empty(t, s.Tasks())
}

func TestUpdate_RejectsInvalidRecord(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)
	added, err := s.Add(context.Background(), validInput("Valid title"))
	require.NoError(t, err)

	bad := added
	bad.Title = "  "
	_, err = s.Update(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	got, _ := s.Get(added.ID)
	assert.Equal(t, "Valid title", got.Title)
}

func TestToggleStatus_CyclesThroughAllStatuses(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)
	ctx := context.Background()

	added, err := s.Add(ctx, validInput("Cycle me"))
	require.NoError(t, err)

	want := []model.Status{model.StatusInProgress, model.StatusCompleted, model.StatusTodo}
	prev := added
	for _, status := range want {
		next, err := s.ToggleStatus(ctx, added.ID)
		require.NoError(t, err)
		assert.Equal(t, status, next.Status)
		assert.True(t, next.UpdatedAt.After(prev.UpdatedAt))
		assert.Equal(t, added.CreatedAt, next.CreatedAt)
		prev = next
	}
}

func TestToggleStatus_UnknownIDIsNotFound(t *testing.T) {
	_, err := newTestStore(&fakeGateway{}, nil).ToggleStatus(context.Background(), "missing")
	assert.True(t, model.IsNotFound(err))
}

func TestRemove_IsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(gw, nil)
	ctx := context.Background()

	a, _ := s.Add(ctx, validInput("Keep me"))
	b, _ := s.Add(ctx, validInput("Drop me"))

	require.NoError(t, s.Remove(ctx, b.ID))
	require.NoError(t, s.Remove(ctx, b.ID))
	require.NoError(t, s.Remove(ctx, "never-existed"))

	assert.Equal(t, []model.Task{a}, s.Tasks())
	assert.Equal(t, []model.Task{a}, gw.saved())

	_, err := s.Get(b.ID)
	assert.True(t, model.IsNotFound(err))
}

func TestTasks_ReturnsCopies(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)
	in := validInput("Original")
	in.Subtasks = []model.Subtask{{Label: "step"}}
	_, err := s.Add(context.Background(), in)
	require.NoError(t, err)

	tasks := s.Tasks()
	tasks[0].Title = "mutated"
	tasks[0].Subtasks[0].Completed = true

	fresh := s.Tasks()
	assert.Equal(t, "Original", fresh[0].Title)
	assert.False(t, fresh[0].Subtasks[0].Completed)
}

func TestFilterAndBoard(t *testing.T) {
	s := newTestStore(&fakeGateway{}, nil)
	ctx := context.Background()

	milk, _ := s.Add(ctx, validInput("Buy milk"))
	report, _ := s.Add(ctx, validInput("Write report"))
	_, err := s.ToggleStatus(ctx, report.ID)
	require.NoError(t, err)

	s.SetSearch("MILK")
	visible := s.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, milk.ID, visible[0].ID)

	s.SetSearch("")
	require.NoError(t, s.SetStatusFilter(model.StatusFilter(model.StatusInProgress)))
	b := s.Board()
	assert.Empty(t, b[model.StatusTodo])
	require.Len(t, b[model.StatusInProgress], 1)
	assert.Equal(t, report.ID, b[model.StatusInProgress][0].ID)

	// Counts ignore the filter.
	counts := s.Counts()
	assert.Equal(t, 1, counts[model.StatusTodo])
	assert.Equal(t, 1, counts[model.StatusInProgress])
	assert.Len(t, s.Tasks(), 2)

	err = s.SetStatusFilter("someday")
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, model.StatusFilter(model.StatusInProgress), s.Filter().Status)
}
