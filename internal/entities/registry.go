package entities

import (
	"fmt"
	"sort"
	"sync"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
)

// Registry is where displayed entities are registered, keyed by their unique ID.
type Registry interface {
	Register(entity *TodoListEntity) error
	Unregister(uniqueID string) bool
	Get(uniqueID string) (*TodoListEntity, error)
	All() []*TodoListEntity
}

type MemoryRegistry struct {
	lock     sync.RWMutex
	entities map[string]*TodoListEntity
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entities: map[string]*TodoListEntity{}}
}

func (r *MemoryRegistry) Register(entity *TodoListEntity) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, found := r.entities[entity.UniqueID()]; found {
		return fmt.Errorf("the entity %s is already registered", entity.UniqueID())
	}
	r.entities[entity.UniqueID()] = entity
	return nil
}

// Unregister returns false if no entity was registered under the ID.
func (r *MemoryRegistry) Unregister(uniqueID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, found := r.entities[uniqueID]
	delete(r.entities, uniqueID)
	return found
}

func (r *MemoryRegistry) Get(uniqueID string) (*TodoListEntity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	entity, found := r.entities[uniqueID]
	if !found {
		return nil, bridgeerrors.ErrEntityNotFound
	}
	return entity, nil
}

// All returns the registered entities ordered by list ID.
func (r *MemoryRegistry) All() []*TodoListEntity {
	r.lock.RLock()
	defer r.lock.RUnlock()
	output := make([]*TodoListEntity, 0, len(r.entities))
	for _, entity := range r.entities {
		output = append(output, entity)
	}
	sort.Slice(output, func(i, j int) bool { return output[i].ListID() < output[j].ListID() })
	return output
}
