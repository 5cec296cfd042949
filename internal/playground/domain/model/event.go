package model

import "time"

// CollectionEventType names a mutation that happened to a collection.
type CollectionEventType string

const (
	EventCollectionCreated CollectionEventType = "collection.created"
	EventCollectionUpdated CollectionEventType = "collection.updated"
	EventCollectionDeleted CollectionEventType = "collection.deleted"
	EventEntryAdded        CollectionEventType = "entry.added"
	EventEntryUpdated      CollectionEventType = "entry.updated"
	EventEntryDeleted      CollectionEventType = "entry.deleted"
	EventShareUpserted     CollectionEventType = "share.upserted"
	EventShareRemoved      CollectionEventType = "share.removed"
)

// CollectionEvent is published after a successful mutation and recorded in
// the activity stream.
type CollectionEvent struct {
	ID           string              `json:"id,omitempty"`
	Type         CollectionEventType `json:"type"`
	CollectionID string              `json:"collectionId"`
	ActorID      string              `json:"actorId"`
	Index        *int                `json:"index,omitempty"`
	Email        string              `json:"email,omitempty"`
	Entry        Entry               `json:"entry,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// NewCollectionEvent stamps an event with the current time
func NewCollectionEvent(t CollectionEventType, collectionID, actorID string) CollectionEvent {
	return CollectionEvent{
		Type:         t,
		CollectionID: collectionID,
		ActorID:      actorID,
		Timestamp:    time.Now().UTC(),
	}
}

// WithIndex sets the entry index the event refers to
func (e CollectionEvent) WithIndex(i int) CollectionEvent {
	e.Index = &i
	return e
}

// CollectionEventTypes lists every event the playground publishes.
var CollectionEventTypes = []CollectionEventType{
	EventCollectionCreated,
	EventCollectionUpdated,
	EventCollectionDeleted,
	EventEntryAdded,
	EventEntryUpdated,
	EventEntryDeleted,
	EventShareUpserted,
	EventShareRemoved,
}
