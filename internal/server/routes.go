package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/entities"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/utils"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/views"
	"github.com/labstack/echo/v4"
)

type todoListResponse struct {
	UniqueID string              `json:"unique_id"`
	ListID   int64               `json:"list_id"`
	Name     string              `json:"name"`
	Items    []entities.TodoItem `json:"items"`
}

type deleteTodoItemsRequest struct {
	UIDs []string `json:"uids"`
}

type statusResponse struct {
	Session struct {
		HasAccessToken  bool       `json:"has_access_token"`
		HasRefreshToken bool       `json:"has_refresh_token"`
		ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	} `json:"session"`
	Sync struct {
		Lists      int        `json:"lists"`
		LastUpdate *time.Time `json:"last_update,omitempty"`
		LastError  string     `json:"last_error,omitempty"`
	} `json:"sync"`
	SyncConfiguration json.RawMessage `json:"sync_configuration,omitempty"`
}

func (s *Server) callService(c echo.Context) error {
	rawParams, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	result, err := s.commands.Execute(utils.ContextWithHub(c), c.Param("service"), rawParams)
	if err != nil {
		return httpError(c, err)
	}
	if result == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getStates(c echo.Context) error {
	return c.JSON(http.StatusOK, s.states.All())
}

func (s *Server) getState(c echo.Context) error {
	state, found := s.states.Get(c.Param("entityID"))
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "the state does not exist")
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) getTodoLists(c echo.Context) error {
	output := []todoListResponse{}
	for _, entity := range s.registry.All() {
		output = append(output, todoList(entity))
	}
	return c.JSON(http.StatusOK, output)
}

func (s *Server) getTodoList(c echo.Context) error {
	entity, err := s.entity(c)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, todoList(entity))
}

func (s *Server) createTodoItem(c echo.Context) error {
	entity, err := s.entity(c)
	if err != nil {
		return httpError(c, err)
	}
	item := entities.TodoItem{}
	if err := c.Bind(&item); err != nil {
		return err
	}
	if err := entity.CreateTodoItem(utils.ContextWithHub(c), item); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updateTodoItem(c echo.Context) error {
	entity, err := s.entity(c)
	if err != nil {
		return httpError(c, err)
	}
	item := entities.TodoItem{}
	if err := c.Bind(&item); err != nil {
		return err
	}
	if err := entity.UpdateTodoItem(utils.ContextWithHub(c), item); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteTodoItems(c echo.Context) error {
	entity, err := s.entity(c)
	if err != nil {
		return httpError(c, err)
	}
	req := deleteTodoItemsRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := entity.DeleteTodoItems(utils.ContextWithHub(c), req.UIDs); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getStatus(c echo.Context) error {
	res := statusResponse{}
	res.Session.HasAccessToken = s.session.HasToken()
	res.Session.HasRefreshToken = s.session.HasRefreshToken()
	if expiresAt, found := s.session.TokenExpiry(); found {
		res.Session.ExpiresAt = &expiresAt
	}
	res.Sync.Lists = len(s.coordinator.Snapshot().Lists)
	if lastUpdate := s.coordinator.LastUpdate(); !lastUpdate.IsZero() {
		res.Sync.LastUpdate = &lastUpdate
	}
	if err := s.coordinator.LastError(); err != nil {
		res.Sync.LastError = err.Error()
	}
	// the remote sync configuration is only fetched when a session is already open
	if s.syncConfig != nil && res.Session.HasAccessToken {
		syncConfiguration, err := s.syncConfig.GetSyncConfiguration(utils.ContextWithHub(c))
		if err == nil && !syncConfiguration.Empty() {
			res.SyncConfiguration = syncConfiguration.Data
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) getOverview(c echo.Context) error {
	overview := views.Overview{
		Connected:       s.session.HasToken(),
		HasRefreshToken: s.session.HasRefreshToken(),
		LoginURL:        s.loginURL,
		Lists:           []views.OverviewList{},
	}
	if lastUpdate := s.coordinator.LastUpdate(); !lastUpdate.IsZero() {
		overview.LastUpdate = lastUpdate.Format(time.RFC3339)
	}
	if err := s.coordinator.LastError(); err != nil {
		overview.LastError = err.Error()
	}
	for _, entity := range s.registry.All() {
		list := views.OverviewList{ListID: entity.ListID(), Name: entity.Name()}
		for _, item := range entity.TodoItems() {
			list.Items++
			if item.Status == entities.StatusCompleted {
				list.Completed++
			}
		}
		overview.Lists = append(overview.Lists, list)
	}
	return c.Render(http.StatusOK, "overview", overview)
}

func (s *Server) entity(c echo.Context) (*entities.TodoListEntity, error) {
	listID, err := strconv.ParseInt(c.Param("listID"), 10, 64)
	if err != nil {
		return nil, &bridgeerrors.ValidationError{Param: "listID", Message: "must be a number"}
	}
	return s.registry.Get(entities.UniqueID(listID))
}

func todoList(entity *entities.TodoListEntity) todoListResponse {
	return todoListResponse{
		UniqueID: entity.UniqueID(),
		ListID:   entity.ListID(),
		Name:     entity.Name(),
		Items:    entity.TodoItems(),
	}
}
