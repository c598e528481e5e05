package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

type Subscriber func(event models.Event)

// EventBus fans out events to the in process subscribers and to the external publisher if one is set.
type EventBus struct {
	publisher   models.EventPublisher
	idGenerator models.IDGenerator

	lock        sync.RWMutex
	subscribers []Subscriber
}

func NewEventBus(publisher models.EventPublisher) *EventBus {
	return &EventBus{publisher: publisher, idGenerator: models.ULIDGenerator{}}
}

func (b *EventBus) Subscribe(subscriber Subscriber) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, subscriber)
}

// Fire never fails, publication errors are only logged.
func (b *EventBus) Fire(ctx context.Context, eventType string, data any) {
	id, err := b.idGenerator.ID()
	if err != nil {
		slog.Error("COMMANDS", "message", "generating the event ID failed", "error", err)
	}
	event := models.Event{ID: id, Type: eventType, Data: data, CreatedAt: time.Now().UTC()}

	b.lock.RLock()
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.lock.RUnlock()
	for _, subscriber := range subscribers {
		subscriber(event)
	}

	if b.publisher == nil {
		return
	}
	if err := b.publisher.PublishEvent(ctx, event); err != nil {
		slog.Error("COMMANDS", "message", "publishing event failed", "eventType", eventType, "error", err)
	}
}
