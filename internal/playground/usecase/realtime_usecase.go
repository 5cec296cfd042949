package usecase

import (
	"context"
	"sync"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/shared/logger"
)

// RealtimeUsecase fans collection events out to live websocket clients.
type RealtimeUsecase interface {
	// Subscribe registers eventChannel for events of one collection.
	// subscriberID must be unique per connection.
	Subscribe(ctx context.Context, subscriberID, collectionID string, eventChannel chan<- model.CollectionEvent) error
	Unsubscribe(ctx context.Context, subscriberID, collectionID string) error
	// PublishEvent never blocks on a slow subscriber.
	PublishEvent(ctx context.Context, event model.CollectionEvent) error
	SubscriberCount(collectionID string) int
}

type realtimeUsecaseImpl struct {
	// collection id -> subscriber id -> channel
	subscriptions map[string]map[string]chan<- model.CollectionEvent
	mu            sync.RWMutex
	log           logger.Logger
}

// NewRealtimeUsecase creates a new RealtimeUsecase
func NewRealtimeUsecase(log logger.Logger) RealtimeUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &realtimeUsecaseImpl{
		subscriptions: make(map[string]map[string]chan<- model.CollectionEvent),
		log:           log.WithComponent("realtime"),
	}
}

func (uc *realtimeUsecaseImpl) Subscribe(ctx context.Context, subscriberID, collectionID string, eventChannel chan<- model.CollectionEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.subscriptions[collectionID]; !ok {
		uc.subscriptions[collectionID] = make(map[string]chan<- model.CollectionEvent)
	}
	if _, ok := uc.subscriptions[collectionID][subscriberID]; ok {
		uc.log.WithContext(ctx).Warnf("subscriber %s already listening on %s, replacing channel", subscriberID, collectionID)
	}
	uc.subscriptions[collectionID][subscriberID] = eventChannel
	uc.log.WithContext(ctx).Debugf("subscriber %s listening on %s", subscriberID, collectionID)
	return nil
}

// Unsubscribe only forgets the channel; closing it is the caller's job.
func (uc *realtimeUsecaseImpl) Unsubscribe(ctx context.Context, subscriberID, collectionID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	subscribers, ok := uc.subscriptions[collectionID]
	if !ok {
		return nil
	}
	delete(subscribers, subscriberID)
	if len(subscribers) == 0 {
		delete(uc.subscriptions, collectionID)
	}
	uc.log.WithContext(ctx).Debugf("subscriber %s left %s", subscriberID, collectionID)
	return nil
}

func (uc *realtimeUsecaseImpl) PublishEvent(ctx context.Context, event model.CollectionEvent) error {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	subscribers, ok := uc.subscriptions[event.CollectionID]
	if !ok {
		return nil
	}
	for subID, ch := range subscribers {
		select {
		case ch <- event:
		default:
			uc.log.WithContext(ctx).Warnf("dropping %s for subscriber %s: channel full", event.Type, subID)
		}
	}
	return nil
}

func (uc *realtimeUsecaseImpl) SubscriberCount(collectionID string) int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.subscriptions[collectionID])
}
