// Package entities exposes the listonic lists as todo list entities and keeps them in sync with the snapshot.
package entities

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

const (
	uniqueIDPrefix  string = "listonic_"
	defaultListName string = "Listonic List"
	unnamedItemName string = "Unnamed"
)

type TodoStatus string

const (
	StatusCompleted   TodoStatus = "completed"
	StatusNeedsAction TodoStatus = "needs_action"
)

type TodoItem struct {
	UID     string     `json:"uid"`
	Summary string     `json:"summary"`
	Status  TodoStatus `json:"status"`
}

// SnapshotSource is the sync coordinator as seen by the entities.
type SnapshotSource interface {
	Snapshot() models.Snapshot
	RequestRefresh(ctx context.Context)
}

type ItemClient interface {
	AddItem(ctx context.Context, listID int64, name string) (listonic.Result, error)
	UpdateItem(ctx context.Context, listID int64, itemID int64, update listonic.ItemUpdate) (listonic.Result, error)
	DeleteItems(ctx context.Context, listID int64, itemIDs []int64) (listonic.Result, error)
}

// TodoListEntity is the todo list view of one listonic list.
type TodoListEntity struct {
	listID      int64
	initialName string
	source      SnapshotSource
	client      ItemClient

	lock    sync.RWMutex
	removed bool
}

func NewTodoListEntity(list models.List, source SnapshotSource, client ItemClient) *TodoListEntity {
	initialName := list.Name
	if initialName == "" {
		initialName = defaultListName
	}
	return &TodoListEntity{listID: list.ID, initialName: initialName, source: source, client: client}
}

func UniqueID(listID int64) string {
	return uniqueIDPrefix + strconv.FormatInt(listID, 10)
}

func (e *TodoListEntity) ListID() int64 {
	return e.listID
}

func (e *TodoListEntity) UniqueID() string {
	return UniqueID(e.listID)
}

// Name is read from the latest snapshot, the name the entity was created with is used as a fallback.
func (e *TodoListEntity) Name() string {
	list, found := e.source.Snapshot().List(e.listID)
	if !found || list.Name == "" {
		return e.initialName
	}
	return list.Name
}

func (e *TodoListEntity) TodoItems() []TodoItem {
	items := e.source.Snapshot().ItemsFor(e.listID)
	output := make([]TodoItem, 0, len(items))
	for _, item := range items {
		summary := item.Name
		if summary == "" {
			summary = unnamedItemName
		}
		status := StatusNeedsAction
		if item.Checked {
			status = StatusCompleted
		}
		output = append(output, TodoItem{UID: strconv.FormatInt(item.ID, 10), Summary: summary, Status: status})
	}
	return output
}

func (e *TodoListEntity) CreateTodoItem(ctx context.Context, item TodoItem) error {
	if e.Removed() {
		return bridgeerrors.ErrEntityNotFound
	}
	if item.Summary == "" {
		return bridgeerrors.Missing("summary")
	}
	_, err := e.client.AddItem(ctx, e.listID, item.Summary)
	if err != nil {
		slog.Error("ENTITY", "message", "creating todo item failed", "listID", e.listID, "error", err)
		return err
	}
	e.source.RequestRefresh(ctx)
	return nil
}

// UpdateTodoItem translates the status into the listonic checked flag and the summary into the item name.
func (e *TodoListEntity) UpdateTodoItem(ctx context.Context, item TodoItem) error {
	if e.Removed() {
		return bridgeerrors.ErrEntityNotFound
	}
	itemID, err := parseUID(item.UID)
	if err != nil {
		return err
	}
	update := listonic.ItemUpdate{}
	switch item.Status {
	case StatusCompleted:
		checked := models.Flag(true)
		update.Checked = &checked
	case StatusNeedsAction:
		checked := models.Flag(false)
		update.Checked = &checked
	}
	if item.Summary != "" {
		name := item.Summary
		update.Name = &name
	}
	if update.Checked != nil || update.Name != nil {
		_, err = e.client.UpdateItem(ctx, e.listID, itemID, update)
		if err != nil {
			slog.Error("ENTITY", "message", "updating todo item failed", "listID", e.listID, "itemID", itemID, "error", err)
			return err
		}
	}
	e.source.RequestRefresh(ctx)
	return nil
}

func (e *TodoListEntity) DeleteTodoItems(ctx context.Context, uids []string) error {
	if e.Removed() {
		return bridgeerrors.ErrEntityNotFound
	}
	ids := make([]int64, 0, len(uids))
	for _, uid := range uids {
		id, err := parseUID(uid)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	_, err := e.client.DeleteItems(ctx, e.listID, ids)
	if err != nil {
		slog.Error("ENTITY", "message", "deleting todo items failed", "listID", e.listID, "error", err)
		return err
	}
	e.source.RequestRefresh(ctx)
	return nil
}

// Remove marks the entity as removed. A removed entity refuses item operations.
func (e *TodoListEntity) Remove() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.removed = true
}

func (e *TodoListEntity) Removed() bool {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.removed
}

func parseUID(uid string) (int64, error) {
	id, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return 0, &bridgeerrors.ValidationError{Param: "uid", Message: fmt.Sprintf("%q is not a listonic item id", uid)}
	}
	return id, nil
}
