package entities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

// Reconciler creates an entity for every list of the snapshot and removes the entities
// of lists that are not in the snapshot anymore.
type Reconciler struct {
	registry Registry
	source   SnapshotSource
	client   ItemClient

	lock      sync.Mutex
	displayed map[int64]*TodoListEntity
	// forgotten holds deleted lists that listonic may still return, they are not displayed again
	// until a snapshot no longer contains them
	forgotten map[int64]bool
}

type ReconcilerOption func(*Reconciler) error

func WithRegistry(registry Registry) ReconcilerOption {
	return func(r *Reconciler) error {
		r.registry = registry
		return nil
	}
}

func WithSnapshotSource(source SnapshotSource) ReconcilerOption {
	return func(r *Reconciler) error {
		r.source = source
		return nil
	}
}

func WithItemClient(client ItemClient) ReconcilerOption {
	return func(r *Reconciler) error {
		r.client = client
		return nil
	}
}

func NewReconciler(options ...ReconcilerOption) (*Reconciler, error) {
	r := Reconciler{displayed: map[int64]*TodoListEntity{}, forgotten: map[int64]bool{}}
	for _, opt := range options {
		err := opt(&r)
		if err != nil {
			return &Reconciler{}, err
		}
	}
	if r.registry == nil {
		return &Reconciler{}, fmt.Errorf("entity registry not initialized")
	}
	if r.source == nil {
		return &Reconciler{}, fmt.Errorf("snapshot source not initialized")
	}
	if r.client == nil {
		return &Reconciler{}, fmt.Errorf("item client not initialized")
	}
	return &r, nil
}

// Reconcile is idempotent, reconciling the same snapshot twice creates and destroys nothing the second time.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot models.Snapshot) (created []int64, destroyed []int64, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	current := map[int64]bool{}
	errs := []error{}
	created = []int64{}
	destroyed = []int64{}
	for _, list := range snapshot.Lists {
		current[list.ID] = true
		if r.forgotten[list.ID] {
			continue
		}
		if _, found := r.displayed[list.ID]; found {
			continue
		}
		entity := NewTodoListEntity(list, r.source, r.client)
		if regErr := r.registry.Register(entity); regErr != nil {
			errs = append(errs, regErr)
			continue
		}
		r.displayed[list.ID] = entity
		created = append(created, list.ID)
	}
	for listID := range r.forgotten {
		if !current[listID] {
			delete(r.forgotten, listID)
		}
	}
	for _, listID := range r.sortedDisplayedIDs() {
		if current[listID] {
			continue
		}
		r.destroy(listID)
		destroyed = append(destroyed, listID)
	}
	if len(created) > 0 || len(destroyed) > 0 {
		slog.Info("RECONCILER", "message", "entities reconciled", "created", created, "destroyed", destroyed)
	}
	return created, destroyed, errors.Join(errs...)
}

// OnSnapshot can be registered as a coordinator listener.
func (r *Reconciler) OnSnapshot(ctx context.Context, snapshot models.Snapshot) {
	_, _, err := r.Reconcile(ctx, snapshot)
	if err != nil {
		slog.Error("RECONCILER", "message", "reconciling entities failed", "error", err)
	}
}

// Forget removes the entity of a deleted list right away, without waiting for the next snapshot.
// The list is not displayed again while snapshots still contain it.
func (r *Reconciler) Forget(listID int64) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.forgotten[listID] = true
	if _, found := r.displayed[listID]; !found {
		return r.registry.Unregister(UniqueID(listID))
	}
	r.destroy(listID)
	return true
}

// DisplayedIDs returns the list IDs of the displayed entities in ascending order.
func (r *Reconciler) DisplayedIDs() []int64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.sortedDisplayedIDs()
}

// must be called with the lock held
func (r *Reconciler) destroy(listID int64) {
	entity := r.displayed[listID]
	r.registry.Unregister(entity.UniqueID())
	entity.Remove()
	delete(r.displayed, listID)
}

func (r *Reconciler) sortedDisplayedIDs() []int64 {
	ids := make([]int64, 0, len(r.displayed))
	for id := range r.displayed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
