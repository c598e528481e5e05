package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/commands"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/config"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/coordinator"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/db"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/entities"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/identity"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/listonic"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/metrics"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/server"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/session"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/utils"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// loadEntry reads the connection entry, creating an empty one on the first start.
func loadEntry(ctx context.Context, dbAdapter *db.RedisAdapter, entryID string) (models.ConnectionEntry, error) {
	entry, err := dbAdapter.GetEntry(ctx, entryID)
	if errors.Is(err, bridgeerrors.ErrEntryNotFound) {
		entry = models.ConnectionEntry{ID: entryID}
		return entry, dbAdapter.SetEntry(ctx, entry)
	}
	return entry, err
}

func main() {
	// Logging setup
	slog.SetDefault(jsonLogger)
	// Load configuration
	ch := config.NewConfigHandler()
	bridgeConfig, err := ch.Config()
	if err != nil {
		slog.Error("loading the configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", bridgeConfig)
	// Set log level to "debug" if activated
	if bridgeConfig.Server.DebugMode {
		logLevel.Set(slog.LevelDebug)
	}
	ch.HandleChanges(func(newConfig config.Config, err error) {
		if err != nil {
			slog.Error("the changed configuration is invalid, keeping the previous one", "error", err)
			return
		}
		if newConfig.Server.DebugMode {
			logLevel.Set(slog.LevelDebug)
		} else {
			logLevel.Set(slog.LevelInfo)
		}
	})
	ch.Watch()
	// Setup
	e := echo.New()
	e.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: utils.NewRequestID}), middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// The banner and the port do not respect the logger formatting we set below so we remove them
	// the port will be logged further down when the server starts.
	e.HideBanner = true
	e.HidePort = true
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	// Version endpoint
	buildInfo, ok := debug.ReadBuildInfo()
	version := ""
	if ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})
	// Rate limiting
	if bridgeConfig.Server.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(bridgeConfig.Server.RateLimits.Rate),
					Burst:     bridgeConfig.Server.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		),
		)
	}
	// CORS
	if len(bridgeConfig.Server.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: bridgeConfig.Server.AllowOrigin}))
	}
	// Sentry
	if bridgeConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(bridgeConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: bridgeConfig.Monitoring.Sentry.SampleRate,
			Environment:      bridgeConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
		e.Use(sentryecho.New(sentryecho.Options{}))
	}
	// Metrics
	metricsClient, err := metrics.NewPrometheusMetricsClient(prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the db adapter and the connection entry
	dbAdapter, err := db.NewRedisAdapter(db.WithRedisConfig(bridgeConfig.Redis))
	if err != nil {
		slog.Error("DB adapter initialization failed", "error", err)
		os.Exit(1)
	}
	entryID := bridgeConfig.Connection.EntryID
	entry, err := loadEntry(context.Background(), dbAdapter, entryID)
	if err != nil {
		slog.Error("loading the connection entry failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded connection entry", "entry", entry)
	// The coordinator is created after the identity provider, the login callback only runs on requests
	var pollCoordinator *coordinator.Coordinator
	identityProvider, err := identity.NewProvider(
		identity.WithIdentityConfig(bridgeConfig.Identity),
		identity.WithTokenStore(dbAdapter),
		identity.WithEntryID(entryID),
		identity.WithLoginCallback(func(context.Context) {
			go pollCoordinator.RequestRefresh(context.Background())
		}),
	)
	if err != nil {
		slog.Error("identity provider initialization failed", "error", err)
		os.Exit(1)
	}
	identityProvider.RegisterHandlers(e.Group(bridgeConfig.Identity.LoginRoutesBasePath, commonMiddlewares...))
	// Session and listonic client
	sessionManager, err := session.NewManager(
		session.WithListonicConfig(bridgeConfig.Listonic),
		session.WithIdentityTokenSource(identityProvider),
		session.WithRefreshTokenStore(dbAdapter, entryID),
		session.WithStoredRefreshToken(entry.RefreshToken),
		session.WithMetrics(metricsClient),
	)
	if err != nil {
		slog.Error("session manager initialization failed", "error", err)
		os.Exit(1)
	}
	listonicClient, err := listonic.NewClient(
		listonic.WithListonicConfig(bridgeConfig.Listonic),
		listonic.WithSession(sessionManager),
	)
	if err != nil {
		slog.Error("listonic client initialization failed", "error", err)
		os.Exit(1)
	}
	// Sync coordinator and entities
	pollCoordinator, err = coordinator.NewCoordinator(
		coordinator.WithSyncConfig(bridgeConfig.Sync),
		coordinator.WithFetcher(listonicClient),
		coordinator.WithMetrics(metricsClient),
	)
	if err != nil {
		slog.Error("coordinator initialization failed", "error", err)
		os.Exit(1)
	}
	registry := entities.NewMemoryRegistry()
	reconciler, err := entities.NewReconciler(
		entities.WithRegistry(registry),
		entities.WithSnapshotSource(pollCoordinator),
		entities.WithItemClient(listonicClient),
	)
	if err != nil {
		slog.Error("entity reconciler initialization failed", "error", err)
		os.Exit(1)
	}
	pollCoordinator.AddListener(reconciler.OnSnapshot)
	// Commands
	commandHandler, err := commands.NewHandler(
		commands.WithClient(listonicClient),
		commands.WithRefresher(pollCoordinator),
		commands.WithEntityRemover(reconciler),
		commands.WithEventBus(commands.NewEventBus(dbAdapter)),
		commands.WithMetrics(metricsClient),
	)
	if err != nil {
		slog.Error("command handler initialization failed", "error", err)
		os.Exit(1)
	}
	bridgeServer, err := server.NewServer(
		server.WithCommands(commandHandler),
		server.WithStates(commandHandler.States()),
		server.WithRegistry(registry),
		server.WithSessionStatus(sessionManager),
		server.WithCoordinatorStatus(pollCoordinator),
		server.WithSyncConfigurationGetter(listonicClient),
		server.WithLoginURL(bridgeConfig.Identity.LoginRoutesBasePath+"/login"),
	)
	if err != nil {
		slog.Error("server handlers initialization failed", "error", err)
		os.Exit(1)
	}
	bridgeServer.RegisterHandlers(e, commonMiddlewares...)
	// Prometheus
	if bridgeConfig.Monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware("listonic_bridge"))
		go func() {
			metrics := echo.New()
			metrics.HideBanner = true
			metrics.HidePort = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			err := metrics.Start(fmt.Sprintf(":%d", bridgeConfig.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("prometheus server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}
	// Start polling listonic
	err = pollCoordinator.Start()
	if err != nil {
		slog.Error("starting the coordinator failed", "error", err)
		os.Exit(1)
	}
	// Start server
	address := fmt.Sprintf("%s:%d", bridgeConfig.Server.Host, bridgeConfig.Server.Port)
	slog.Info("starting the server on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && err != http.ErrServerClosed {
			slog.Error("shutting down the server gracefuly failed", "error", err)
			os.Exit(1)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("received signal to shut down the server")
	pollCoordinator.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutting down the server gracefully failed", "error", err)
		os.Exit(1)
	}
}
