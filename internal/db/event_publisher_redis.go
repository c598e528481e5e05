package db

import (
	"context"
	"encoding/json"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

// PublishEvent publishes the JSON form of the event on the redis channel named after the event type
func (r RedisAdapter) PublishEvent(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, event.Type, string(payload)).Err()
}
