// Package commands implements the named listonic operations that can be invoked from outside the bridge.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/metrics"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

const (
	GetLists    string = "get_lists"
	AddItem     string = "add_item"
	GetItems    string = "get_items"
	DeleteItems string = "delete_items"
	RefreshData string = "refresh_data"
	CreateList  string = "create_list"
	DeleteList  string = "delete_list"
	UpdateList  string = "update_list"
)

var ErrUnknownCommand = fmt.Errorf("the command does not exist")

type ListonicClient interface {
	GetLists(ctx context.Context) ([]models.List, error)
	GetItems(ctx context.Context, listID int64) ([]models.Item, error)
	AddItem(ctx context.Context, listID int64, name string) (listonic.Result, error)
	DeleteItems(ctx context.Context, listID int64, itemIDs []int64) (listonic.Result, error)
	CreateList(ctx context.Context, name string) (listonic.Result, error)
	DeleteList(ctx context.Context, listID int64) (listonic.Result, error)
	UpdateList(ctx context.Context, listID int64, name string) (listonic.Result, error)
}

type Refresher interface {
	RequestRefresh(ctx context.Context)
}

type EntityRemover interface {
	Forget(listID int64) bool
}

type ListsResult struct {
	Lists []models.List `json:"lists"`
}

type ItemsResult struct {
	Items []models.Item `json:"items"`
}

type Handler struct {
	client    ListonicClient
	refresher Refresher
	entities  EntityRemover
	states    *StateStore
	events    *EventBus
	metrics   *metrics.PrometheusMetricsClient
}

type HandlerOption func(*Handler) error

func WithClient(client ListonicClient) HandlerOption {
	return func(h *Handler) error {
		h.client = client
		return nil
	}
}

func WithRefresher(refresher Refresher) HandlerOption {
	return func(h *Handler) error {
		h.refresher = refresher
		return nil
	}
}

func WithEntityRemover(entities EntityRemover) HandlerOption {
	return func(h *Handler) error {
		h.entities = entities
		return nil
	}
}

func WithStateStore(states *StateStore) HandlerOption {
	return func(h *Handler) error {
		h.states = states
		return nil
	}
}

func WithEventBus(events *EventBus) HandlerOption {
	return func(h *Handler) error {
		h.events = events
		return nil
	}
}

func WithMetrics(client *metrics.PrometheusMetricsClient) HandlerOption {
	return func(h *Handler) error {
		h.metrics = client
		return nil
	}
}

func NewHandler(options ...HandlerOption) (*Handler, error) {
	h := Handler{}
	for _, opt := range options {
		err := opt(&h)
		if err != nil {
			return &Handler{}, err
		}
	}
	if h.client == nil {
		return &Handler{}, fmt.Errorf("listonic client not initialized")
	}
	if h.refresher == nil {
		return &Handler{}, fmt.Errorf("refresher not initialized")
	}
	if h.entities == nil {
		return &Handler{}, fmt.Errorf("entity remover not initialized")
	}
	if h.states == nil {
		h.states = NewStateStore()
	}
	if h.events == nil {
		h.events = NewEventBus(nil)
	}
	return &h, nil
}

func (h *Handler) States() *StateStore {
	return h.states
}

func (h *Handler) GetLists(ctx context.Context) (ListsResult, error) {
	lists, err := h.client.GetLists(ctx)
	if err != nil {
		return ListsResult{}, h.failed(GetLists, err)
	}
	h.states.Set(ListsStateID, stateOK, map[string]any{"lists": lists})
	h.succeeded(GetLists)
	return ListsResult{Lists: lists}, nil
}

func (h *Handler) AddItem(ctx context.Context, params AddItemParams) error {
	if err := params.Validate(); err != nil {
		return h.failed(AddItem, err)
	}
	if _, err := h.client.AddItem(ctx, params.ListID, params.Name); err != nil {
		return h.failed(AddItem, err)
	}
	h.refresher.RequestRefresh(ctx)
	h.succeeded(AddItem)
	return nil
}

// GetItems publishes the items as the listonic.items_<listID> state and fires the listonic_items event.
func (h *Handler) GetItems(ctx context.Context, params GetItemsParams) (ItemsResult, error) {
	if err := params.Validate(); err != nil {
		return ItemsResult{}, h.failed(GetItems, err)
	}
	items, err := h.client.GetItems(ctx, params.ListID)
	if err != nil {
		return ItemsResult{}, h.failed(GetItems, err)
	}
	h.states.Set(itemsStatePrefix+strconv.FormatInt(params.ListID, 10), stateOK, map[string]any{"items": items})
	h.events.Fire(ctx, models.ItemsEventType, models.ItemsEventData{ListID: params.ListID, Items: items})
	h.succeeded(GetItems)
	return ItemsResult{Items: items}, nil
}

func (h *Handler) DeleteItems(ctx context.Context, params DeleteItemsParams) error {
	if err := params.Validate(); err != nil {
		return h.failed(DeleteItems, err)
	}
	if _, err := h.client.DeleteItems(ctx, params.ListID, params.IDs); err != nil {
		return h.failed(DeleteItems, err)
	}
	h.refresher.RequestRefresh(ctx)
	h.succeeded(DeleteItems)
	return nil
}

func (h *Handler) RefreshData(ctx context.Context) error {
	h.refresher.RequestRefresh(ctx)
	slog.Debug("COMMANDS", "message", "manually refreshed listonic data")
	h.succeeded(RefreshData)
	return nil
}

func (h *Handler) CreateList(ctx context.Context, params CreateListParams) error {
	if err := params.Validate(); err != nil {
		return h.failed(CreateList, err)
	}
	res, err := h.client.CreateList(ctx, params.Name)
	if err != nil {
		return h.failed(CreateList, err)
	}
	slog.Debug("COMMANDS", "message", "created list", "result", string(res.Data))
	h.refresher.RequestRefresh(ctx)
	h.succeeded(CreateList)
	return nil
}

// DeleteList soft deletes the list and removes its entity without waiting for the next poll.
func (h *Handler) DeleteList(ctx context.Context, params DeleteListParams) error {
	if err := params.Validate(); err != nil {
		return h.failed(DeleteList, err)
	}
	if _, err := h.client.DeleteList(ctx, params.ListID); err != nil {
		return h.failed(DeleteList, err)
	}
	h.entities.Forget(params.ListID)
	h.refresher.RequestRefresh(ctx)
	h.succeeded(DeleteList)
	return nil
}

func (h *Handler) UpdateList(ctx context.Context, params UpdateListParams) error {
	if err := params.Validate(); err != nil {
		return h.failed(UpdateList, err)
	}
	if _, err := h.client.UpdateList(ctx, params.ListID, params.Name); err != nil {
		return h.failed(UpdateList, err)
	}
	h.refresher.RequestRefresh(ctx)
	h.succeeded(UpdateList)
	return nil
}

// Execute decodes the raw parameters of a named command and runs it. Commands without a result return nil.
func (h *Handler) Execute(ctx context.Context, command string, rawParams []byte) (any, error) {
	if len(rawParams) == 0 {
		rawParams = []byte("{}")
	}
	switch command {
	case GetLists:
		return h.GetLists(ctx)
	case AddItem:
		params := AddItemParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return nil, h.AddItem(ctx, params)
	case GetItems:
		params := GetItemsParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return h.GetItems(ctx, params)
	case DeleteItems:
		params := DeleteItemsParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return nil, h.DeleteItems(ctx, params)
	case RefreshData:
		return nil, h.RefreshData(ctx)
	case CreateList:
		params := CreateListParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return nil, h.CreateList(ctx, params)
	case DeleteList:
		params := DeleteListParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return nil, h.DeleteList(ctx, params)
	case UpdateList:
		params := UpdateListParams{}
		if err := decodeParams(rawParams, &params); err != nil {
			return nil, h.failed(command, err)
		}
		return nil, h.UpdateList(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func decodeParams(rawParams []byte, output any) error {
	if err := json.Unmarshal(rawParams, output); err != nil {
		return &bridgeerrors.ValidationError{Param: "params", Message: err.Error()}
	}
	return nil
}

func (h *Handler) failed(command string, err error) error {
	slog.Error("COMMANDS", "message", "command failed", "command", command, "error", err)
	h.metrics.Command(command, metrics.ResultFailure)
	return err
}

func (h *Handler) succeeded(command string) {
	h.metrics.Command(command, metrics.ResultSuccess)
}
