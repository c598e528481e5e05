// Package coordinator polls listonic and keeps the latest snapshot of all lists and items.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/config"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/metrics"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron"
)

const defaultInterval time.Duration = 2 * time.Second

type Fetcher interface {
	GetLists(ctx context.Context) ([]models.List, error)
	GetItems(ctx context.Context, listID int64) ([]models.Item, error)
}

// Listener is notified with the new snapshot after every poll cycle, failed ones included.
type Listener func(ctx context.Context, snapshot models.Snapshot)

type Coordinator struct {
	fetcher   Fetcher
	interval  time.Duration
	metrics   *metrics.PrometheusMetricsClient
	scheduler *gocron.Scheduler

	// cycleLock serializes poll cycles so that a manual refresh never overlaps a scheduled one
	cycleLock  sync.Mutex
	lock       sync.RWMutex
	snapshot   models.Snapshot
	lastError  error
	lastUpdate time.Time
	listeners  []Listener
}

type CoordinatorOption func(*Coordinator) error

func WithSyncConfig(syncConfig config.SyncConfig) CoordinatorOption {
	return func(c *Coordinator) error {
		if syncConfig.IntervalSeconds <= 0 {
			return fmt.Errorf("invalid sync interval %d", syncConfig.IntervalSeconds)
		}
		c.interval = time.Duration(syncConfig.IntervalSeconds) * time.Second
		return nil
	}
}

func WithFetcher(fetcher Fetcher) CoordinatorOption {
	return func(c *Coordinator) error {
		c.fetcher = fetcher
		return nil
	}
}

func WithMetrics(client *metrics.PrometheusMetricsClient) CoordinatorOption {
	return func(c *Coordinator) error {
		c.metrics = client
		return nil
	}
}

func NewCoordinator(options ...CoordinatorOption) (*Coordinator, error) {
	c := Coordinator{interval: defaultInterval, snapshot: models.EmptySnapshot()}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return &Coordinator{}, err
		}
	}
	if c.fetcher == nil {
		return &Coordinator{}, fmt.Errorf("the listonic fetcher is not initialized")
	}
	return &c, nil
}

// Refresh runs one poll cycle. Failures degrade the snapshot to an empty one and are never returned.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.cycleLock.Lock()
	defer c.cycleLock.Unlock()

	snapshot, err := c.fetch(ctx)
	if err != nil {
		slog.Error("COORDINATOR", "message", "updating the listonic snapshot failed", "error", err)
		c.metrics.PollCycle(metrics.ResultFailure)
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		snapshot = models.EmptySnapshot()
	} else {
		c.metrics.PollCycle(metrics.ResultSuccess)
		if snapshot.IsEmpty() {
			slog.Debug("COORDINATOR", "message", "listonic returned no lists")
		}
	}

	c.lock.Lock()
	c.snapshot = snapshot
	c.lastError = err
	c.lastUpdate = time.Now()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.lock.Unlock()

	for _, listener := range listeners {
		listener(ctx, snapshot)
	}
}

// RequestRefresh runs an out of band poll cycle, used after mutations. The cycle is not cancelled
// with ctx, a request that goes away must not degrade the shared snapshot. Context values such as
// the sentry hub are kept.
func (c *Coordinator) RequestRefresh(ctx context.Context) {
	slog.Debug("COORDINATOR", "message", "refresh requested")
	c.Refresh(context.WithoutCancel(ctx))
}

// fetch reads all the lists and then the items of every list sequentially in list order.
func (c *Coordinator) fetch(ctx context.Context) (models.Snapshot, error) {
	lists, err := c.fetcher.GetLists(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot := models.NewSnapshot(lists)
	for _, list := range lists {
		items, err := c.fetcher.GetItems(ctx, list.ID)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("fetching the items of list %d: %w", list.ID, err)
		}
		snapshot.SetItems(list.ID, items)
	}
	return snapshot, nil
}

func (c *Coordinator) Snapshot() models.Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.snapshot
}

// LastError is the error of the last poll cycle, nil if it succeeded.
func (c *Coordinator) LastError() error {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.lastError
}

func (c *Coordinator) LastUpdate() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.lastUpdate
}

func (c *Coordinator) AddListener(listener Listener) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Coordinator) getScheduler() (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	refreshTask := func(job gocron.Job) {
		c.Refresh(job.Context())
	}
	_, err := s.Every(c.interval).
		SingletonMode().
		DoWithJobDetails(refreshTask)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start schedules the poll cycles, the first one runs immediately.
func (c *Coordinator) Start() error {
	s, err := c.getScheduler()
	if err != nil {
		return err
	}
	c.scheduler = s
	slog.Info("COORDINATOR", "message", "starting the listonic poll", "interval", c.interval.String())
	s.StartAsync()
	return nil
}

func (c *Coordinator) Stop() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
}
