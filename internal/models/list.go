package models

import (
	"fmt"
)

// List is a remote listonic shopping list.
type List struct {
	ID        int64  `json:"Id"`
	Name      string `json:"Name"`
	Active    Flag   `json:"Active"`
	SortMode  int    `json:"SortMode"`
	SortOrder int    `json:"SortOrder"`
}

// Item is an entry of a listonic shopping list.
type Item struct {
	ID      int64  `json:"Id"`
	Name    string `json:"Name"`
	Checked Flag   `json:"Checked"`
}

func (l List) String() string {
	return fmt.Sprintf("List<ID: %d, Name: %s, Active: %v>", l.ID, l.Name, l.Active)
}
