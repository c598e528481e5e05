package models

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Snapshot is the full copy of all lists and their items as of the last poll. It is never
// updated partially, a new snapshot replaces the previous one.
type Snapshot struct {
	Lists []List
	Items *orderedmap.OrderedMap[int64, []Item]
}

func NewSnapshot(lists []List) Snapshot {
	return Snapshot{Lists: lists, Items: orderedmap.New[int64, []Item]()}
}

// EmptySnapshot is the degraded snapshot used when a poll cycle fails.
func EmptySnapshot() Snapshot {
	return NewSnapshot([]List{})
}

func (s *Snapshot) SetItems(listID int64, items []Item) {
	if s.Items == nil {
		s.Items = orderedmap.New[int64, []Item]()
	}
	s.Items.Set(listID, items)
}

// ItemsFor returns the items of a list, or an empty slice when the list is unknown.
func (s Snapshot) ItemsFor(listID int64) []Item {
	if s.Items == nil {
		return []Item{}
	}
	items, found := s.Items.Get(listID)
	if !found {
		return []Item{}
	}
	return items
}

func (s Snapshot) List(listID int64) (List, bool) {
	for _, l := range s.Lists {
		if l.ID == listID {
			return l, true
		}
	}
	return List{}, false
}

// ListIDs returns the list ids of the snapshot in list order.
func (s Snapshot) ListIDs() []int64 {
	ids := make([]int64, 0, len(s.Lists))
	for _, l := range s.Lists {
		ids = append(ids, l.ID)
	}
	return ids
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lists) == 0
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	type listWithItems struct {
		List
		Items []Item `json:"Items"`
	}
	output := make([]listWithItems, 0, len(s.Lists))
	for _, l := range s.Lists {
		output = append(output, listWithItems{List: l, Items: s.ItemsFor(l.ID)})
	}
	return json.Marshal(output)
}
