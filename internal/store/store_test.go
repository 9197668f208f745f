package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func backends(t *testing.T) map[string]store.KV {
	return map[string]store.KV{
		"sqlite": testutil.NewTestStore(t),
		"bolt":   testutil.NewTestBoltStore(t),
	}
}

func sampleTasks() []model.Task {
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	due := model.NewDate(2026, 10, 31)
	return []model.Task{
		{
			ID:          "1",
			Title:       "Buy groceries",
			Description: "milk, eggs",
			Status:      model.StatusTodo,
			Priority:    model.PriorityMedium,
			DueDate:     &due,
			Category:    "Shopping",
			CreatedAt:   created,
			UpdatedAt:   created.Add(time.Hour),
			Subtasks: []model.Subtask{
				{Label: "milk", Completed: true},
				{Label: "eggs"},
			},
		},
		{
			ID:        "2",
			Title:     "Call dentist",
			Status:    model.StatusCompleted,
			Priority:  model.PriorityHigh,
			Category:  "Health",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func TestKV_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Put(ctx, "k", []byte("v1")))
			require.NoError(t, kv.Put(ctx, "k", []byte("v2")))

			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("v2"), v)

			require.NoError(t, kv.Delete(ctx, "k"))
			require.NoError(t, kv.Delete(ctx, "k"), "delete is idempotent")

			_, ok, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGateway_TasksRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			g := store.NewGateway(kv)
			want := sampleTasks()

			require.NoError(t, g.SaveTasks(ctx, want))

			got, ok, err := g.LoadTasks(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestGateway_LoadTasksAbsentIsNotAnError(t *testing.T) {
	g := testutil.NewTestGateway(t)

	tasks, ok, err := g.LoadTasks(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestGateway_SavedEmptyCollectionIsPresent(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewTestGateway(t)

	require.NoError(t, g.SaveTasks(ctx, nil))

	tasks, ok, err := g.LoadTasks(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, tasks)
}

func TestGateway_CorruptJSONIsStorageError(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewTestStore(t)
	require.NoError(t, kv.Put(ctx, store.KeyTasks, []byte("{not json")))

	_, _, err := store.NewGateway(kv).LoadTasks(ctx)
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Put(context.Context, string, []byte) error         { return f.err }
func (f failingKV) Delete(context.Context, string) error              { return f.err }
func (f failingKV) Close() error                                      { return nil }

func TestGateway_WrapsBackendFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	g := store.NewGateway(failingKV{err: boom})

	err := g.SaveTasks(ctx, sampleTasks())
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.ErrorIs(t, err, boom)

	_, _, err = g.LoadTasks(ctx)
	assert.True(t, model.IsStorage(err))
}

func TestGateway_UserSession(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewTestGateway(t)

	_, ok, err := g.LoadUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	authed, err := g.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authed)

	u := model.User{Name: "Ada", Email: "ada@example.com", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, g.SaveUser(ctx, u))
	require.NoError(t, g.SetAuthenticated(ctx, true))

	got, ok, err := g.LoadUser(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, u, got)

	authed, err = g.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authed)

	require.NoError(t, g.ClearUser(ctx))
	_, ok, err = g.LoadUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	authed, err = g.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestSQLiteStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.Put(ctx, store.KeyUser, []byte("{}")))
	require.NoError(t, s.Put(ctx, store.KeyTasks, []byte("[]")))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeyTasks, store.KeyUser}, keys)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestBoltStore_Size(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestBoltStore(t)

	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))

	n, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	kv, err := store.Open(model.StorageConfig{Backend: model.BackendBolt, Path: filepath.Join(dir, "nested", "b.bolt")})
	require.NoError(t, err)
	assert.IsType(t, &store.BoltStore{}, kv)
	require.NoError(t, kv.Close())

	kv, err = store.Open(model.StorageConfig{Backend: model.BackendSQLite, Path: filepath.Join(dir, "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, kv)
	require.NoError(t, kv.Close())

	_, err = store.Open(model.StorageConfig{Backend: "redis", Path: filepath.Join(dir, "x")})
	assert.Error(t, err)
}
