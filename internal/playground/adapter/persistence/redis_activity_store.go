package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	"data-playground/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

const activityStreamPrefix = "playground:activity:"

// RedisActivityStore keeps one capped Redis stream per collection.
type RedisActivityStore struct {
	client *redis.Client
	maxLen int64
	logger logger.Logger
}

// NewRedisActivityStore creates a store trimming each stream to about maxLen entries
func NewRedisActivityStore(client *redis.Client, maxLen int64, log logger.Logger) *RedisActivityStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RedisActivityStore{
		client: client,
		maxLen: maxLen,
		logger: log.WithComponent("activity_store"),
	}
}

func streamKey(collectionID string) string {
	return activityStreamPrefix + collectionID
}

// Append adds event to the collection's stream
func (r *RedisActivityStore) Append(ctx context.Context, event model.CollectionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode activity event: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(event.CollectionID),
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":  string(event.Type),
			"actor": event.ActorID,
			"event": payload,
		},
	}).Result()
	if err != nil {
		r.logger.WithContext(ctx).Errorf("failed to append %s to %s: %v", event.Type, streamKey(event.CollectionID), err)
		return err
	}

	r.logger.Debugf("activity %s stored as %s", event.Type, id)
	return nil
}

// Recent reads the newest limit events
func (r *RedisActivityStore) Recent(ctx context.Context, collectionID string, limit int64) ([]model.CollectionEvent, error) {
	msgs, err := r.client.XRevRangeN(ctx, streamKey(collectionID), "+", "-", limit).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.CollectionEvent{}, nil
		}
		return nil, err
	}

	events := make([]model.CollectionEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := parseActivityMessage(msg)
		if err != nil {
			r.logger.Warnf("skipping activity message %s: %v", msg.ID, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Drop deletes the collection's stream
func (r *RedisActivityStore) Drop(ctx context.Context, collectionID string) error {
	return r.client.Del(ctx, streamKey(collectionID)).Err()
}

func parseActivityMessage(msg redis.XMessage) (model.CollectionEvent, error) {
	var event model.CollectionEvent
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return event, fmt.Errorf("missing event payload")
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, err
	}
	event.ID = msg.ID
	return event, nil
}

var _ repository.ActivityStore = (*RedisActivityStore)(nil)

// NopActivityStore is used when Redis is disabled.
type NopActivityStore struct{}

func (NopActivityStore) Append(ctx context.Context, event model.CollectionEvent) error { return nil }

func (NopActivityStore) Recent(ctx context.Context, collectionID string, limit int64) ([]model.CollectionEvent, error) {
	return []model.CollectionEvent{}, nil
}

func (NopActivityStore) Drop(ctx context.Context, collectionID string) error { return nil }

var _ repository.ActivityStore = NopActivityStore{}
