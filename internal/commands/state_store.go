package commands

import (
	"sort"
	"sync"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

const (
	ListsStateID     string = "listonic.lists"
	itemsStatePrefix string = "listonic.items_"
	stateOK          string = "ok"
)

// StateStore keeps the last published value of every state entity.
type StateStore struct {
	lock   sync.RWMutex
	states map[string]models.State
}

func NewStateStore() *StateStore {
	return &StateStore{states: map[string]models.State{}}
}

func (s *StateStore) Set(entityID string, state string, attributes map[string]any) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.states[entityID] = models.State{
		EntityID:   entityID,
		State:      state,
		Attributes: attributes,
		UpdatedAt:  time.Now().UTC(),
	}
}

func (s *StateStore) Get(entityID string) (models.State, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	state, found := s.states[entityID]
	return state, found
}

func (s *StateStore) All() []models.State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	output := make([]models.State, 0, len(s.states))
	for _, state := range s.states {
		output = append(output, state)
	}
	sort.Slice(output, func(i, j int) bool { return output[i].EntityID < output[j].EntityID })
	return output
}
