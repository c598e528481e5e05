package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/commands"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/entities"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	results map[string]any
	errs    map[string]error
	params  map[string]string
}

func (m *mockExecutor) Execute(_ context.Context, command string, rawParams []byte) (any, error) {
	m.params[command] = string(rawParams)
	if err, found := m.errs[command]; found {
		return nil, err
	}
	return m.results[command], nil
}

type mockStatus struct {
	snapshot models.Snapshot
	lastErr  error
	updated  time.Time
	token    bool
}

func (m *mockStatus) Snapshot() models.Snapshot {
	return m.snapshot
}

func (m *mockStatus) RequestRefresh(context.Context) {}

func (m *mockStatus) LastError() error {
	return m.lastErr
}

func (m *mockStatus) LastUpdate() time.Time {
	return m.updated
}

func (m *mockStatus) HasToken() bool {
	return m.token
}

func (m *mockStatus) HasRefreshToken() bool {
	return true
}

func (m *mockStatus) TokenExpiry() (time.Time, bool) {
	return time.Time{}, false
}

func (m *mockStatus) GetSyncConfiguration(context.Context) (listonic.Result, error) {
	return listonic.Result{Data: json.RawMessage(`{"Version": 3}`)}, nil
}

type mockItemClient struct {
	added []string
}

func (m *mockItemClient) AddItem(_ context.Context, _ int64, name string) (listonic.Result, error) {
	m.added = append(m.added, name)
	return listonic.Result{}, nil
}

func (m *mockItemClient) UpdateItem(context.Context, int64, int64, listonic.ItemUpdate) (listonic.Result, error) {
	return listonic.Result{}, nil
}

func (m *mockItemClient) DeleteItems(context.Context, int64, []int64) (listonic.Result, error) {
	return listonic.Result{}, &bridgeerrors.OperationError{Operation: "delete_items", Status: 500}
}

type fixture struct {
	echo     *echo.Echo
	executor *mockExecutor
	states   *commands.StateStore
	status   *mockStatus
	items    *mockItemClient
}

func newFixture(t *testing.T) *fixture {
	snapshot := models.NewSnapshot([]models.List{{ID: 4, Name: "Groceries"}})
	snapshot.SetItems(4, []models.Item{{ID: 40, Name: "milk", Checked: true}})
	f := fixture{
		echo:     echo.New(),
		executor: &mockExecutor{results: map[string]any{}, errs: map[string]error{}, params: map[string]string{}},
		states:   commands.NewStateStore(),
		status:   &mockStatus{snapshot: snapshot},
		items:    &mockItemClient{},
	}
	registry := entities.NewMemoryRegistry()
	require.NoError(t, registry.Register(entities.NewTodoListEntity(snapshot.Lists[0], f.status, f.items)))
	server, err := NewServer(
		WithCommands(f.executor),
		WithStates(f.states),
		WithRegistry(registry),
		WithSessionStatus(f.status),
		WithCoordinatorStatus(f.status),
		WithSyncConfigurationGetter(f.status),
		WithLoginURL("/auth/login"),
	)
	require.NoError(t, err)
	server.RegisterHandlers(f.echo)
	return &f
}

func (f *fixture) do(method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer()
	assert.Error(t, err)
	_, err = NewServer(WithCommands(&mockExecutor{}), WithStates(commands.NewStateStore()))
	assert.ErrorContains(t, err, "registry")
}

func TestCallServiceResults(t *testing.T) {
	f := newFixture(t)
	f.executor.results[commands.GetLists] = commands.ListsResult{Lists: []models.List{{ID: 4, Name: "Groceries"}}}

	rec := f.do(http.MethodPost, "/api/services/listonic/get_lists", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lists": [{"Id": 4, "Name": "Groceries", "Active": 0, "SortMode": 0, "SortOrder": 0}]}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/services/listonic/add_item", `{"list_id": 4, "name": "milk"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, `{"list_id": 4, "name": "milk"}`, f.executor.params[commands.AddItem])
}

func TestCallServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{bridgeerrors.Missing("name"), http.StatusBadRequest},
		{bridgeerrors.NotReady("no identity token", bridgeerrors.ErrIdentityTokenUnavailable), http.StatusServiceUnavailable},
		{&bridgeerrors.OperationError{Operation: "add_item", Status: 500}, http.StatusBadGateway},
		{fmt.Errorf("%w: drop", commands.ErrUnknownCommand), http.StatusNotFound},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}
	for _, test := range tests {
		f := newFixture(t)
		f.executor.errs[commands.AddItem] = test.err
		rec := f.do(http.MethodPost, "/api/services/listonic/add_item", `{}`)
		assert.Equal(t, test.status, rec.Code, test.err.Error())
	}
}

func TestStates(t *testing.T) {
	f := newFixture(t)
	f.states.Set("listonic.items_4", "ok", map[string]any{"items": []models.Item{{ID: 40, Name: "milk"}}})

	rec := f.do(http.MethodGet, "/api/states/listonic.items_4", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	state := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "ok", state["state"])
	assert.Equal(t, "listonic.items_4", state["entity_id"])

	rec = f.do(http.MethodGet, "/api/states/listonic.lists", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/states", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTodoRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/todo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(
		t,
		`[{"unique_id": "listonic_4", "list_id": 4, "name": "Groceries",
		   "items": [{"uid": "40", "summary": "milk", "status": "completed"}]}]`,
		rec.Body.String(),
	)

	rec = f.do(http.MethodGet, "/api/todo/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodGet, "/api/todo/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/todo/4/items", `{"summary": "bread"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"bread"}, f.items.added)

	rec = f.do(http.MethodPost, "/api/todo/4/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/todo/4/items", `{"uid": "40", "status": "needs_action"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodDelete, "/api/todo/4/items", `{"uids": ["40"]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.status.lastErr = bridgeerrors.NotReady("no identity token", nil)
	f.status.token = true

	rec := f.do(http.MethodGet, "/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	res := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	session := res["session"].(map[string]any)
	assert.Equal(t, true, session["has_access_token"])
	assert.Equal(t, true, session["has_refresh_token"])
	sync := res["sync"].(map[string]any)
	assert.Equal(t, float64(1), sync["lists"])
	assert.Contains(t, sync["last_error"], "not ready")
	assert.Equal(t, map[string]any{"Version": float64(3)}, res["sync_configuration"])
}

func TestOverviewPage(t *testing.T) {
	f := newFixture(t)
	f.status.lastErr = bridgeerrors.NotReady("no identity token", nil)

	rec := f.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "Waiting for the next Listonic login.")
	assert.Contains(t, html, "<tr id=\"list-4\"><td>Groceries</td><td>1</td><td>1</td></tr>")
	assert.Contains(t, html, "not ready: no identity token")
}
