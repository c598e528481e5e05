package models

import "time"

const ItemsEventType string = "listonic_items"

// Event is a notification published to observers outside the bridge.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"event_type"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"time_fired"`
}

// ItemsEventData is the payload of the listonic_items event.
type ItemsEventData struct {
	ListID int64  `json:"list_id"`
	Items  []Item `json:"items"`
}

// State is the last published value of a state entity such as listonic.lists.
type State struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  time.Time      `json:"last_updated"`
}
