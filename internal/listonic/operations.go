package listonic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

type addItemRequest struct {
	Name string `json:"Name"`
}

// ItemUpdate holds the optional fields of an item update, nil fields are not sent.
type ItemUpdate struct {
	Checked *models.Flag `json:"Checked,omitempty"`
	Name    *string      `json:"Name,omitempty"`
}

type createListRequest struct {
	Name      string `json:"Name"`
	Active    int    `json:"Active"`
	SortMode  int    `json:"SortMode"`
	SortOrder int    `json:"SortOrder"`
	Shares    []any  `json:"Shares"`
	Items     []any  `json:"Items"`
}

type deleteListRequest struct {
	Active int `json:"Active"`
}

type renameListRequest struct {
	Name string `json:"Name"`
}

func listPath(listID int64) string {
	return fmt.Sprintf("/api/lists/%d", listID)
}

func (c *Client) GetSyncConfiguration(ctx context.Context) (Result, error) {
	return c.do(ctx, "get_sync_configuration", http.MethodGet, "/api/syncconfiguration", nil, http.StatusOK)
}

func (c *Client) GetLists(ctx context.Context) ([]models.List, error) {
	res, err := c.do(ctx, "get_lists", http.MethodGet, "/api/lists", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	lists := []models.List{}
	err = res.Decode(&lists)
	if err != nil {
		return nil, fmt.Errorf("get_lists: %w", err)
	}
	return lists, nil
}

func (c *Client) GetItems(ctx context.Context, listID int64) ([]models.Item, error) {
	res, err := c.do(ctx, "get_items", http.MethodGet, listPath(listID)+"/items", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	items := []models.Item{}
	err = res.Decode(&items)
	if err != nil {
		return nil, fmt.Errorf("get_items: %w", err)
	}
	return items, nil
}

func (c *Client) AddItem(ctx context.Context, listID int64, name string) (Result, error) {
	return c.do(
		ctx,
		"add_item",
		http.MethodPost,
		listPath(listID)+"/items",
		addItemRequest{Name: name},
		http.StatusOK,
		http.StatusCreated,
	)
}

func (c *Client) UpdateItem(ctx context.Context, listID int64, itemID int64, update ItemUpdate) (Result, error) {
	return c.do(
		ctx,
		"update_item",
		http.MethodPatch,
		fmt.Sprintf("%s/items/%d", listPath(listID), itemID),
		update,
		http.StatusOK,
	)
}

func (c *Client) DeleteItems(ctx context.Context, listID int64, itemIDs []int64) (Result, error) {
	if itemIDs == nil {
		itemIDs = []int64{}
	}
	return c.do(
		ctx,
		"delete_items",
		http.MethodDelete,
		listPath(listID)+"/multipleitems",
		itemIDs,
		http.StatusOK,
		http.StatusNoContent,
	)
}

func (c *Client) CreateList(ctx context.Context, name string) (Result, error) {
	return c.do(
		ctx,
		"create_list",
		http.MethodPost,
		"/api/lists",
		createListRequest{Name: name, Active: 1, SortMode: 0, SortOrder: 4, Shares: []any{}, Items: []any{}},
		http.StatusOK,
		http.StatusCreated,
	)
}

// DeleteList soft deletes a list by marking it inactive.
func (c *Client) DeleteList(ctx context.Context, listID int64) (Result, error) {
	return c.do(ctx, "delete_list", http.MethodPatch, listPath(listID), deleteListRequest{Active: 0}, http.StatusOK)
}

func (c *Client) UpdateList(ctx context.Context, listID int64, name string) (Result, error) {
	return c.do(ctx, "update_list", http.MethodPatch, listPath(listID), renameListRequest{Name: name}, http.StatusOK)
}
