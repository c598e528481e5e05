package commands

import (
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
)

type GetItemsParams struct {
	ListID int64 `json:"list_id"`
}

func (p GetItemsParams) Validate() error {
	return requireListID(p.ListID)
}

type AddItemParams struct {
	ListID int64  `json:"list_id"`
	Name   string `json:"name"`
}

func (p AddItemParams) Validate() error {
	if err := requireListID(p.ListID); err != nil {
		return err
	}
	return requireName(p.Name)
}

type DeleteItemsParams struct {
	ListID int64   `json:"list_id"`
	IDs    []int64 `json:"ids"`
}

func (p DeleteItemsParams) Validate() error {
	return requireListID(p.ListID)
}

type CreateListParams struct {
	Name string `json:"name"`
}

func (p CreateListParams) Validate() error {
	return requireName(p.Name)
}

type DeleteListParams struct {
	ListID int64 `json:"list_id"`
}

func (p DeleteListParams) Validate() error {
	return requireListID(p.ListID)
}

type UpdateListParams struct {
	ListID int64  `json:"list_id"`
	Name   string `json:"name"`
}

func (p UpdateListParams) Validate() error {
	if err := requireListID(p.ListID); err != nil {
		return err
	}
	return requireName(p.Name)
}

func requireListID(listID int64) error {
	if listID == 0 {
		return bridgeerrors.Missing("list_id")
	}
	return nil
}

func requireName(name string) error {
	if name == "" {
		return bridgeerrors.Missing("name")
	}
	return nil
}
