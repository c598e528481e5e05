// Package server exposes the command surface, the todo entities and the bridge status over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/entities"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/views"
	"github.com/labstack/echo/v4"
)

type CommandExecutor interface {
	Execute(ctx context.Context, command string, rawParams []byte) (any, error)
}

type StateReader interface {
	Get(entityID string) (models.State, bool)
	All() []models.State
}

type SessionStatus interface {
	HasToken() bool
	HasRefreshToken() bool
	TokenExpiry() (time.Time, bool)
}

type CoordinatorStatus interface {
	Snapshot() models.Snapshot
	LastError() error
	LastUpdate() time.Time
}

type SyncConfigurationGetter interface {
	GetSyncConfiguration(ctx context.Context) (listonic.Result, error)
}

type Server struct {
	commands    CommandExecutor
	states      StateReader
	registry    entities.Registry
	session     SessionStatus
	coordinator CoordinatorStatus
	syncConfig  SyncConfigurationGetter
	renderer    *views.TemplateRenderer
	loginURL    string
}

type ServerOption func(*Server) error

func WithCommands(commands CommandExecutor) ServerOption {
	return func(s *Server) error {
		s.commands = commands
		return nil
	}
}

func WithStates(states StateReader) ServerOption {
	return func(s *Server) error {
		s.states = states
		return nil
	}
}

func WithRegistry(registry entities.Registry) ServerOption {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

func WithSessionStatus(session SessionStatus) ServerOption {
	return func(s *Server) error {
		s.session = session
		return nil
	}
}

func WithCoordinatorStatus(coordinator CoordinatorStatus) ServerOption {
	return func(s *Server) error {
		s.coordinator = coordinator
		return nil
	}
}

func WithSyncConfigurationGetter(syncConfig SyncConfigurationGetter) ServerOption {
	return func(s *Server) error {
		s.syncConfig = syncConfig
		return nil
	}
}

// WithLoginURL sets the link the overview page shows while the bridge is not connected.
func WithLoginURL(loginURL string) ServerOption {
	return func(s *Server) error {
		s.loginURL = loginURL
		return nil
	}
}

func NewServer(options ...ServerOption) (*Server, error) {
	s := Server{}
	for _, opt := range options {
		err := opt(&s)
		if err != nil {
			return &Server{}, err
		}
	}
	if s.commands == nil {
		return &Server{}, fmt.Errorf("command handler not initialized")
	}
	if s.states == nil {
		return &Server{}, fmt.Errorf("state store not initialized")
	}
	if s.registry == nil {
		return &Server{}, fmt.Errorf("entity registry not initialized")
	}
	if s.session == nil || s.coordinator == nil {
		return &Server{}, fmt.Errorf("status sources not initialized")
	}
	renderer, err := views.NewTemplateRenderer()
	if err != nil {
		return &Server{}, err
	}
	s.renderer = renderer
	return &s, nil
}

func (s *Server) RegisterHandlers(e *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	api := e.Group("/api", commonMiddlewares...)
	api.POST("/services/listonic/:service", s.callService)
	api.GET("/states", s.getStates)
	api.GET("/states/:entityID", s.getState)
	api.GET("/todo", s.getTodoLists)
	api.GET("/todo/:listID", s.getTodoList)
	api.POST("/todo/:listID/items", s.createTodoItem)
	api.PATCH("/todo/:listID/items", s.updateTodoItem)
	api.DELETE("/todo/:listID/items", s.deleteTodoItems)
	e.GET("/status", s.getStatus, commonMiddlewares...)
	s.renderer.Register(e)
	e.GET("/", s.getOverview, commonMiddlewares...)
}
