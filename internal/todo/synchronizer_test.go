package todo

import (
	"context"
	"sync"
	"testing"

	"todo-web/internal/models"
	"todo-web/internal/storage"
	"todo-web/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "todoList"

func newTestSynchronizer(t *testing.T) (*Synchronizer, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	return NewSynchronizer(store, testCollection, nil), store
}

func findTodo(items []models.Todo, id string) (models.Todo, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Todo{}, false
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the snapshot with the collection", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk", EndDate: "2024-01-01"})
		store.Seed(testCollection, models.Document{ID: "b", Text: "Walk dog"})

		require.NoError(t, s.FetchAll(ctx))

		items := s.Snapshot()
		assert.Len(t, items, 2)

		milk, ok := findTodo(items, "a")
		require.True(t, ok)
		assert.Equal(t, "Buy milk", milk.Text)
		require.NotNil(t, milk.EndDate)
		assert.Equal(t, "2024-01-01", FormatDate(milk.EndDate))

		dog, ok := findTodo(items, "b")
		require.True(t, ok)
		assert.Nil(t, dog.EndDate)
	})

	t.Run("drops items removed remotely", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk"})
		require.NoError(t, s.FetchAll(ctx))

		require.NoError(t, store.Delete(ctx, testCollection, "a"))
		require.NoError(t, s.FetchAll(ctx))

		assert.Empty(t, s.Snapshot())
	})

	t.Run("keeps the previous snapshot on failure", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk"})
		require.NoError(t, s.FetchAll(ctx))
		before := s.Snapshot()

		store.Seed(testCollection, models.Document{ID: "b", Text: "Walk dog"})
		store.FailOn("list")

		err := s.FetchAll(ctx)
		assert.ErrorIs(t, err, testutil.ErrFakeStore)
		assert.Equal(t, before, s.Snapshot())
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("adds exactly one item and refetches", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Existing"})
		require.NoError(t, s.FetchAll(ctx))
		listCalls := store.ListCalls

		require.NoError(t, s.Create(ctx, "Buy milk", "2024-01-01", "2024-01-05"))

		assert.Equal(t, 1, store.AddCalls)
		assert.Equal(t, listCalls+1, store.ListCalls, "one refetch per mutation")

		items := s.Snapshot()
		assert.Len(t, items, 2)

		var created []models.Todo
		for _, item := range items {
			if item.Text == "Buy milk" {
				created = append(created, item)
			}
		}
		require.Len(t, created, 1)
		assert.NotEmpty(t, created[0].ID)
		assert.Equal(t, "2024-01-01", FormatDate(created[0].StartDate))
		assert.Equal(t, "2024-01-05", FormatDate(created[0].EndDate))
	})

	t.Run("empty text never reaches the store", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Existing"})
		require.NoError(t, s.FetchAll(ctx))
		before := s.Snapshot()
		calls := store.Calls()

		require.NoError(t, s.Create(ctx, "", "2024-01-01", "2024-01-05"))

		assert.Equal(t, calls, store.Calls())
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("clears the draft text only after success", func(t *testing.T) {
		s, store := newTestSynchronizer(t)

		store.FailOn("add")
		require.Error(t, s.Create(ctx, "Buy milk", "2024-01-01", "2024-01-05"))
		assert.Equal(t, Draft{Text: "Buy milk", StartDate: "2024-01-01", EndDate: "2024-01-05"}, s.Draft())

		store.Recover()
		require.NoError(t, s.Create(ctx, "Buy milk", "2024-01-01", "2024-01-05"))
		assert.Equal(t, Draft{StartDate: "2024-01-01", EndDate: "2024-01-05"}, s.Draft())
	})

	t.Run("failed add leaves the snapshot alone and skips the refetch", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		require.NoError(t, s.FetchAll(ctx))
		listCalls := store.ListCalls

		store.FailOn("add")
		err := s.Create(ctx, "Buy milk", "", "")

		assert.ErrorIs(t, err, testutil.ErrFakeStore)
		assert.Equal(t, listCalls, store.ListCalls)
		assert.Empty(t, s.Snapshot())
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the item and refetches", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk"})
		store.Seed(testCollection, models.Document{ID: "b", Text: "Walk dog"})
		require.NoError(t, s.FetchAll(ctx))

		require.NoError(t, s.Remove(ctx, "a"))

		_, found := findTodo(s.Snapshot(), "a")
		assert.False(t, found)
		_, found = findTodo(s.Snapshot(), "b")
		assert.True(t, found)
		assert.Equal(t, 2, store.ListCalls)
	})

	t.Run("failure keeps the item", func(t *testing.T) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk"})
		require.NoError(t, s.FetchAll(ctx))

		store.FailOn("delete")
		assert.Error(t, s.Remove(ctx, "a"))

		_, found := findTodo(s.Snapshot(), "a")
		assert.True(t, found)
		assert.Equal(t, 1, store.ListCalls)
	})

	t.Run("already deleted item refetches without error", func(t *testing.T) {
		store := storage.NewMemoryStore()
		s := NewSynchronizer(store, testCollection, nil)
		id, err := store.Add(ctx, testCollection, models.NewDocument{Text: "Buy milk"})
		require.NoError(t, err)
		require.NoError(t, s.FetchAll(ctx))

		// Another client removes it first
		require.NoError(t, store.Delete(ctx, testCollection, id))

		require.NoError(t, s.Remove(ctx, id))
		assert.Empty(t, s.Snapshot())
	})
}

func TestEditing(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Synchronizer, *testutil.FakeStore) {
		s, store := newTestSynchronizer(t)
		store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk", StartDate: "2024-01-01", EndDate: "2024-01-05"})
		store.Seed(testCollection, models.Document{ID: "b", Text: "Walk dog", EndDate: "2024-02-01"})
		require.NoError(t, s.FetchAll(ctx))
		return s, store
	}

	t.Run("begin edit seeds the buffers", func(t *testing.T) {
		s, _ := setup(t)

		require.NoError(t, s.BeginEdit("a"))

		assert.Equal(t, &EditState{ID: "a", Text: "Buy milk", StartDate: "2024-01-01", EndDate: "2024-01-05"}, s.Editing())
	})

	t.Run("begin edit on another item replaces the active edit", func(t *testing.T) {
		s, _ := setup(t)
		require.NoError(t, s.BeginEdit("a"))
		require.NoError(t, s.SetEditFields("a", "changed", "", ""))

		require.NoError(t, s.BeginEdit("b"))

		edit := s.Editing()
		require.NotNil(t, edit)
		assert.Equal(t, "b", edit.ID)
		assert.Equal(t, "Walk dog", edit.Text)
	})

	t.Run("begin edit on a missing id is a no-op", func(t *testing.T) {
		s, store := setup(t)
		require.NoError(t, s.BeginEdit("a"))
		calls := store.Calls()

		err := s.BeginEdit("gone")

		assert.ErrorIs(t, err, ErrTodoNotFound)
		assert.Equal(t, "a", s.Editing().ID)
		assert.Equal(t, calls, store.Calls())
	})

	t.Run("cancel never calls the store and keeps the snapshot", func(t *testing.T) {
		s, store := setup(t)
		before := s.Snapshot()
		calls := store.Calls()

		require.NoError(t, s.BeginEdit("a"))
		require.NoError(t, s.SetEditFields("a", "something else", "2030-01-01", "2030-01-02"))
		s.CancelEdit()

		assert.Nil(t, s.Editing())
		assert.Equal(t, calls, store.Calls())
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("set fields without an active edit", func(t *testing.T) {
		s, _ := setup(t)
		assert.ErrorIs(t, s.SetEditFields("a", "x", "", ""), ErrNotEditing)
	})

	t.Run("set fields for an item that is no longer edited", func(t *testing.T) {
		s, store := setup(t)
		require.NoError(t, s.BeginEdit("a"))
		require.NoError(t, s.BeginEdit("b"))
		calls := store.Calls()

		assert.ErrorIs(t, s.SetEditFields("a", "text typed for a", "", ""), ErrNotEditing)
		assert.Equal(t, &EditState{ID: "b", Text: "Walk dog", EndDate: "2024-02-01"}, s.Editing())

		assert.ErrorIs(t, s.CommitEdit(ctx, "a"), ErrNotEditing)
		assert.Equal(t, calls, store.Calls())
	})

	t.Run("commit writes exactly the buffered fields", func(t *testing.T) {
		s, store := setup(t)
		require.NoError(t, s.BeginEdit("a"))
		require.NoError(t, s.SetEditFields("a", "Buy oat milk", "2024-01-02", "2024-01-09"))

		require.NoError(t, s.CommitEdit(ctx, "a"))

		assert.Nil(t, s.Editing())
		assert.Equal(t, 1, store.UpdateCalls)
		assert.Equal(t, 2, store.ListCalls)

		items := s.Snapshot()
		edited, ok := findTodo(items, "a")
		require.True(t, ok)
		assert.Equal(t, "Buy oat milk", edited.Text)
		assert.Equal(t, "2024-01-02", FormatDate(edited.StartDate))
		assert.Equal(t, "2024-01-09", FormatDate(edited.EndDate))

		other, ok := findTodo(items, "b")
		require.True(t, ok)
		assert.Equal(t, "Walk dog", other.Text)
		assert.Equal(t, "2024-02-01", FormatDate(other.EndDate))
	})

	t.Run("commit without a matching edit does nothing", func(t *testing.T) {
		s, store := setup(t)
		calls := store.Calls()

		assert.ErrorIs(t, s.CommitEdit(ctx, "a"), ErrNotEditing)

		require.NoError(t, s.BeginEdit("b"))
		assert.ErrorIs(t, s.CommitEdit(ctx, "a"), ErrNotEditing)
		assert.Equal(t, calls, store.Calls())
	})

	t.Run("failed commit keeps the edit active", func(t *testing.T) {
		s, store := setup(t)
		before := s.Snapshot()
		require.NoError(t, s.BeginEdit("a"))
		require.NoError(t, s.SetEditFields("a", "Buy oat milk", "", ""))

		store.FailOn("update")
		assert.Error(t, s.CommitEdit(ctx, "a"))

		edit := s.Editing()
		require.NotNil(t, edit)
		assert.Equal(t, "Buy oat milk", edit.Text)
		assert.Equal(t, before, s.Snapshot())
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSynchronizer(t)
	store.Seed(testCollection, models.Document{ID: "a", Text: "Buy milk"})
	require.NoError(t, s.FetchAll(ctx))

	items := s.Snapshot()
	items[0].Text = "mutated"

	assert.Equal(t, "Buy milk", s.Snapshot()[0].Text)
}

// gatedStore blocks each List call until its gate is released
type gatedStore struct {
	storage.Store
	mu    sync.Mutex
	gates []chan []models.Document
}

func (g *gatedStore) List(_ context.Context, _ string) ([]models.Document, error) {
	gate := make(chan []models.Document)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	return <-gate, nil
}

func (g *gatedStore) waitForCalls(n int) []chan []models.Document {
	for {
		g.mu.Lock()
		if len(g.gates) >= n {
			gates := append([]chan []models.Document(nil), g.gates...)
			g.mu.Unlock()
			return gates
		}
		g.mu.Unlock()
	}
}

func TestOverlappingFetchesLastResolvedWins(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{Store: testutil.NewFakeStore()}
	s := NewSynchronizer(store, testCollection, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.FetchAll(ctx) }()
	go func() { defer wg.Done(); _ = s.FetchAll(ctx) }()

	gates := store.waitForCalls(2)

	// Resolve the second request first, then the first
	gates[1] <- []models.Document{{ID: "new", Text: "from second"}}
	for len(s.Snapshot()) == 0 {
	}
	gates[0] <- []models.Document{{ID: "old", Text: "from first"}}
	wg.Wait()

	items := s.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, "old", items[0].ID)
}
