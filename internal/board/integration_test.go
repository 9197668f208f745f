package board_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/seed"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func seedServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		parts := make([]string, 10)
		for i := range parts {
			parts[i] = fmt.Sprintf(`{"userId":1,"id":%d,"title":"remote todo %d","completed":%t}`,
				i+1, i+1, i < 4)
		}
		fmt.Fprint(w, "["+strings.Join(parts, ",")+"]")
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestStore_SeedsPersistsAndReloads(t *testing.T) {
	srv, calls := seedServer(t)
	kv := testutil.NewTestStore(t)
	gw := store.NewGateway(kv)
	ctx := context.Background()

	s := board.New(gw, seed.NewLoader(srv.URL))
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 10)

	counts := s.Counts()
	assert.Equal(t, 4, counts[model.StatusCompleted])
	assert.Equal(t, 6, counts[model.StatusTodo])

	added, err := s.Add(ctx, model.TaskInput{
		Title:    "Call dentist",
		Status:   model.StatusTodo,
		Priority: model.PriorityHigh,
		Category: "Health",
	})
	require.NoError(t, err)
	_, err = s.ToggleStatus(ctx, tasks[0].ID)
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, tasks[9].ID))

	// A fresh session over the same store sees the same collection.
	reloaded := board.New(gw, seed.NewLoader(srv.URL))
	again, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Tasks(), again)
	assert.Equal(t, int32(1), calls.Load())

	got, err := reloaded.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Health", got.Category)
}

func TestStore_SeedFailureThenRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"id":1,"title":"only one","completed":false}]`)
	}))
	defer srv.Close()

	gw := testutil.NewTestGateway(t)
	s := board.New(gw, seed.NewLoader(srv.URL))

	tasks, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsTransport(err))
	assert.Empty(t, tasks)

	_, ok, err := gw.LoadTasks(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "a failed seed leaves nothing persisted")

	fail.Store(false)
	tasks, err = s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)
}
