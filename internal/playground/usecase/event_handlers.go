package usecase

import (
	"context"
	"fmt"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	"data-playground/internal/shared/eventbus"
	"data-playground/internal/shared/logger"
)

func collectionEventOf(event eventbus.Event) (model.CollectionEvent, error) {
	switch data := event.Data().(type) {
	case model.CollectionEvent:
		return data, nil
	case *model.CollectionEvent:
		if data != nil {
			return *data, nil
		}
	}
	return model.CollectionEvent{}, fmt.Errorf("unexpected payload %T for event %s", event.Data(), event.Type())
}

// NewActivityRecorder returns a handler that appends collection events to
// store. A deleted collection drops its stream.
func NewActivityRecorder(store repository.ActivityStore, log logger.Logger) eventbus.Handler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithComponent("activity_recorder")
	return func(ctx context.Context, event eventbus.Event) error {
		evt, err := collectionEventOf(event)
		if err != nil {
			log.Warnf("skipping event: %v", err)
			return nil
		}
		if evt.Type == model.EventCollectionDeleted {
			return store.Drop(ctx, evt.CollectionID)
		}
		return store.Append(ctx, evt)
	}
}

// NewRealtimeForwarder returns a handler that pushes collection events to
// websocket subscribers.
func NewRealtimeForwarder(rt RealtimeUsecase) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		evt, err := collectionEventOf(event)
		if err != nil {
			return nil
		}
		return rt.PublishEvent(ctx, evt)
	}
}

// SubscribeCollectionEvents registers handler for every collection event type
func SubscribeCollectionEvents(bus eventbus.EventBusInterface, handler eventbus.Handler) {
	for _, t := range model.CollectionEventTypes {
		bus.Subscribe(string(t), handler)
	}
}
