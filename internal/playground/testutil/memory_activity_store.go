package testutil

import (
	"context"
	"strconv"
	"sync"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
)

// MemoryActivityStore records events per collection.
type MemoryActivityStore struct {
	mu     sync.Mutex
	events map[string][]model.CollectionEvent
	seq    int
}

// NewMemoryActivityStore creates an empty store
func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{events: make(map[string][]model.CollectionEvent)}
}

func (s *MemoryActivityStore) Append(ctx context.Context, e model.CollectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.ID = strconv.Itoa(s.seq)
	s.events[e.CollectionID] = append(s.events[e.CollectionID], e)
	return nil
}

func (s *MemoryActivityStore) Recent(ctx context.Context, collectionID string, limit int64) ([]model.CollectionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.events[collectionID]
	out := make([]model.CollectionEvent, 0, len(all))
	for i := len(all) - 1; i >= 0 && (limit <= 0 || int64(len(out)) < limit); i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryActivityStore) Drop(ctx context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, collectionID)
	return nil
}

// Types returns the recorded event types for a collection, oldest first
func (s *MemoryActivityStore) Types(collectionID string) []model.CollectionEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CollectionEventType, 0)
	for _, e := range s.events[collectionID] {
		out = append(out, e.Type)
	}
	return out
}

var _ repository.ActivityStore = (*MemoryActivityStore)(nil)
