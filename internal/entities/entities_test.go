package entities

import (
	"context"
	"sync"
	"testing"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	lock      sync.Mutex
	snapshot  models.Snapshot
	refreshes int
}

func (m *mockSource) Snapshot() models.Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.snapshot
}

func (m *mockSource) RequestRefresh(context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.refreshes++
}

type itemCall struct {
	Method string
	ListID int64
	ItemID int64
	Name   string
	Update listonic.ItemUpdate
	IDs    []int64
}

type mockItemClient struct {
	err   error
	calls []itemCall
}

func (m *mockItemClient) AddItem(_ context.Context, listID int64, name string) (listonic.Result, error) {
	m.calls = append(m.calls, itemCall{Method: "add", ListID: listID, Name: name})
	return listonic.Result{}, m.err
}

func (m *mockItemClient) UpdateItem(
	_ context.Context,
	listID int64,
	itemID int64,
	update listonic.ItemUpdate,
) (listonic.Result, error) {
	m.calls = append(m.calls, itemCall{Method: "update", ListID: listID, ItemID: itemID, Update: update})
	return listonic.Result{}, m.err
}

func (m *mockItemClient) DeleteItems(_ context.Context, listID int64, itemIDs []int64) (listonic.Result, error) {
	m.calls = append(m.calls, itemCall{Method: "delete", ListID: listID, IDs: itemIDs})
	return listonic.Result{}, m.err
}

func snapshotOf(ids ...int64) models.Snapshot {
	lists := []models.List{}
	for _, id := range ids {
		lists = append(lists, models.List{ID: id, Name: "list"})
	}
	return models.NewSnapshot(lists)
}

func newTestReconciler(t *testing.T) (*Reconciler, *MemoryRegistry, *mockSource) {
	registry := NewMemoryRegistry()
	source := &mockSource{snapshot: models.EmptySnapshot()}
	r, err := NewReconciler(WithRegistry(registry), WithSnapshotSource(source), WithItemClient(&mockItemClient{}))
	require.NoError(t, err)
	return r, registry, source
}

func TestNewReconcilerValidation(t *testing.T) {
	_, err := NewReconciler()
	assert.Error(t, err)
	_, err = NewReconciler(WithRegistry(NewMemoryRegistry()))
	assert.Error(t, err)
	_, err = NewReconciler(WithRegistry(NewMemoryRegistry()), WithSnapshotSource(&mockSource{}))
	assert.Error(t, err)
}

func TestReconcileCreatesAndDestroys(t *testing.T) {
	r, registry, _ := newTestReconciler(t)
	ctx := context.Background()
	_, _, err := r.Reconcile(ctx, snapshotOf(1, 2))
	require.NoError(t, err)
	old, err := registry.Get("listonic_1")
	require.NoError(t, err)

	created, destroyed, err := r.Reconcile(ctx, snapshotOf(2, 3))

	require.NoError(t, err)
	assert.Equal(t, []int64{3}, created)
	assert.Equal(t, []int64{1}, destroyed)
	assert.Equal(t, []int64{2, 3}, r.DisplayedIDs())
	_, err = registry.Get("listonic_1")
	assert.ErrorIs(t, err, bridgeerrors.ErrEntityNotFound)
	assert.True(t, old.Removed())
	ids := []string{}
	for _, entity := range registry.All() {
		ids = append(ids, entity.UniqueID())
	}
	assert.Equal(t, []string{"listonic_2", "listonic_3"}, ids)
}

func TestReconcileIdempotent(t *testing.T) {
	r, registry, _ := newTestReconciler(t)
	ctx := context.Background()
	snapshot := snapshotOf(5, 4)

	created, destroyed, err := r.Reconcile(ctx, snapshot)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, created)
	assert.Empty(t, destroyed)

	created, destroyed, err = r.Reconcile(ctx, snapshot)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, destroyed)
	assert.Len(t, registry.All(), 2)
}

func TestReconcileEmptySnapshotDestroysAll(t *testing.T) {
	r, registry, _ := newTestReconciler(t)
	ctx := context.Background()
	r.OnSnapshot(ctx, snapshotOf(1, 2))

	r.OnSnapshot(ctx, models.EmptySnapshot())

	assert.Empty(t, r.DisplayedIDs())
	assert.Empty(t, registry.All())
}

func TestReconcileRegistryConflict(t *testing.T) {
	r, registry, source := newTestReconciler(t)
	require.NoError(t, registry.Register(NewTodoListEntity(models.List{ID: 1}, source, &mockItemClient{})))

	created, _, err := r.Reconcile(context.Background(), snapshotOf(1, 2))

	assert.Error(t, err)
	assert.Equal(t, []int64{2}, created)
}

func TestForget(t *testing.T) {
	r, registry, _ := newTestReconciler(t)
	_, _, err := r.Reconcile(context.Background(), snapshotOf(1, 2))
	require.NoError(t, err)

	assert.True(t, r.Forget(1))
	assert.False(t, r.Forget(9))
	assert.Equal(t, []int64{2}, r.DisplayedIDs())
	_, err = registry.Get(UniqueID(1))
	assert.ErrorIs(t, err, bridgeerrors.ErrEntityNotFound)

	// listonic still returns the deactivated list
	created, destroyed, err := r.Reconcile(context.Background(), snapshotOf(1, 2))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, destroyed)
	assert.Equal(t, []int64{2}, r.DisplayedIDs())

	_, _, err = r.Reconcile(context.Background(), snapshotOf(2))
	require.NoError(t, err)
	// a list with the same id showing up again later is displayed
	created, _, err = r.Reconcile(context.Background(), snapshotOf(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, created)
}

func TestEntityNameAndItems(t *testing.T) {
	snapshot := models.NewSnapshot([]models.List{{ID: 7, Name: "Renamed"}})
	snapshot.SetItems(7, []models.Item{{ID: 1, Name: "milk", Checked: true}, {ID: 2}})
	source := &mockSource{snapshot: snapshot}
	entity := NewTodoListEntity(models.List{ID: 7, Name: "Groceries"}, source, &mockItemClient{})

	assert.Equal(t, "listonic_7", entity.UniqueID())
	assert.Equal(t, "Renamed", entity.Name())
	expected := []TodoItem{
		{UID: "1", Summary: "milk", Status: StatusCompleted},
		{UID: "2", Summary: "Unnamed", Status: StatusNeedsAction},
	}
	if diff := cmp.Diff(expected, entity.TodoItems()); diff != "" {
		t.Errorf("unexpected todo items (-want +got):\n%s", diff)
	}

	source.snapshot = models.EmptySnapshot()
	assert.Equal(t, "Groceries", entity.Name())
	assert.Empty(t, entity.TodoItems())

	unnamed := NewTodoListEntity(models.List{ID: 8}, source, &mockItemClient{})
	assert.Equal(t, "Listonic List", unnamed.Name())
}

func TestEntityItemOperations(t *testing.T) {
	source := &mockSource{snapshot: models.EmptySnapshot()}
	client := &mockItemClient{}
	entity := NewTodoListEntity(models.List{ID: 7, Name: "Groceries"}, source, client)
	ctx := context.Background()

	require.NoError(t, entity.CreateTodoItem(ctx, TodoItem{Summary: "bread"}))
	require.NoError(t, entity.UpdateTodoItem(ctx, TodoItem{UID: "3", Status: StatusCompleted}))
	require.NoError(t, entity.UpdateTodoItem(ctx, TodoItem{UID: "3", Summary: "rye bread", Status: StatusNeedsAction}))
	require.NoError(t, entity.DeleteTodoItems(ctx, []string{"3", "4"}))

	require.Len(t, client.calls, 4)
	assert.Equal(t, itemCall{Method: "add", ListID: 7, Name: "bread"}, client.calls[0])
	require.NotNil(t, client.calls[1].Update.Checked)
	assert.True(t, bool(*client.calls[1].Update.Checked))
	assert.Nil(t, client.calls[1].Update.Name)
	assert.False(t, bool(*client.calls[2].Update.Checked))
	assert.Equal(t, "rye bread", *client.calls[2].Update.Name)
	assert.Equal(t, []int64{3, 4}, client.calls[3].IDs)
	assert.Equal(t, 4, source.refreshes)
}

func TestEntityItemOperationErrors(t *testing.T) {
	source := &mockSource{snapshot: models.EmptySnapshot()}
	client := &mockItemClient{err: &bridgeerrors.OperationError{Operation: "add_item", Status: 500}}
	entity := NewTodoListEntity(models.List{ID: 7}, source, client)
	ctx := context.Background()

	assert.ErrorIs(t, entity.CreateTodoItem(ctx, TodoItem{}), bridgeerrors.ErrValidation)
	assert.ErrorIs(t, entity.CreateTodoItem(ctx, TodoItem{Summary: "bread"}), bridgeerrors.ErrOperationFailed)
	assert.ErrorIs(t, entity.UpdateTodoItem(ctx, TodoItem{UID: "abc"}), bridgeerrors.ErrValidation)
	assert.ErrorIs(t, entity.DeleteTodoItems(ctx, []string{"1", "x"}), bridgeerrors.ErrValidation)
	assert.Len(t, client.calls, 1)
	assert.Equal(t, 0, source.refreshes)
}

func TestRemovedEntityRefusesItemOperations(t *testing.T) {
	r, _, source := newTestReconciler(t)
	client := &mockItemClient{}
	r.client = client
	ctx := context.Background()
	_, _, err := r.Reconcile(ctx, snapshotOf(7))
	require.NoError(t, err)
	entity := r.displayed[7]
	require.True(t, r.Forget(7))

	assert.True(t, entity.Removed())
	assert.ErrorIs(t, entity.CreateTodoItem(ctx, TodoItem{Summary: "bread"}), bridgeerrors.ErrEntityNotFound)
	assert.ErrorIs(t, entity.UpdateTodoItem(ctx, TodoItem{UID: "1", Status: StatusCompleted}), bridgeerrors.ErrEntityNotFound)
	assert.ErrorIs(t, entity.DeleteTodoItems(ctx, []string{"1"}), bridgeerrors.ErrEntityNotFound)
	assert.Empty(t, client.calls)
	assert.Equal(t, 0, source.refreshes)
}
