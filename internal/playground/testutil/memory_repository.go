// Package testutil holds in-memory doubles and fixtures for playground tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	sharedErrors "data-playground/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollectionRepository is a CollectionRepository backed by a map. It
// stores deep copies so callers cannot mutate stored state without Save.
type MemoryCollectionRepository struct {
	mu          sync.RWMutex
	collections map[primitive.ObjectID]*model.Collection
	SaveCalls   int
}

// NewMemoryCollectionRepository creates an empty repository
func NewMemoryCollectionRepository() *MemoryCollectionRepository {
	return &MemoryCollectionRepository{collections: make(map[primitive.ObjectID]*model.Collection)}
}

// Clone deep-copies a collection
func Clone(c *model.Collection) *model.Collection {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Fields = append([]model.Field(nil), c.Fields...)
	cp.SharedWith = append([]model.Share(nil), c.SharedWith...)
	cp.Entries = make([]model.Entry, len(c.Entries))
	for i, e := range c.Entries {
		ne := make(model.Entry, len(e))
		for k, v := range e {
			ne[k] = v
		}
		cp.Entries[i] = ne
	}
	return &cp
}

func (r *MemoryCollectionRepository) FindByID(ctx context.Context, id string) (*model.Collection, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, sharedErrors.ErrCollectionNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[oid]
	if !ok {
		return nil, sharedErrors.ErrCollectionNotFound
	}
	return Clone(c), nil
}

func matches(c *model.Collection, f repository.ListFilter) bool {
	visible := c.Owner == f.UserID
	for _, s := range c.SharedWith {
		if (f.UserID != "" && s.UserID == f.UserID) || (f.Email != "" && strings.EqualFold(s.Email, f.Email)) {
			visible = true
		}
	}
	if !visible {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (r *MemoryCollectionRepository) filtered(f repository.ListFilter) []*model.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Collection, 0)
	for _, c := range r.collections {
		if matches(c, f) {
			out = append(out, Clone(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (r *MemoryCollectionRepository) Find(ctx context.Context, f repository.ListFilter) ([]*model.Collection, error) {
	all := r.filtered(f)
	start := len(all)
	if f.Skip >= 0 && f.Skip < int64(len(all)) {
		start = int(f.Skip)
	}
	end := len(all)
	if f.Limit > 0 && f.Limit < int64(end-start) {
		end = start + int(f.Limit)
	}
	return all[start:end], nil
}

func (r *MemoryCollectionRepository) Count(ctx context.Context, f repository.ListFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r *MemoryCollectionRepository) Create(ctx context.Context, c *model.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.collections[c.ID] = Clone(c)
	return nil
}

func (r *MemoryCollectionRepository) Save(ctx context.Context, c *model.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[c.ID]; !ok {
		return sharedErrors.ErrCollectionNotFound
	}
	r.SaveCalls++
	r.collections[c.ID] = Clone(c)
	return nil
}

func (r *MemoryCollectionRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return sharedErrors.ErrCollectionNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[oid]; !ok {
		return sharedErrors.ErrCollectionNotFound
	}
	delete(r.collections, oid)
	return nil
}

func (r *MemoryCollectionRepository) LinkShares(ctx context.Context, email, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var touched int64
	for _, c := range r.collections {
		changed := false
		for i := range c.SharedWith {
			if c.SharedWith[i].UserID == "" && strings.EqualFold(c.SharedWith[i].Email, email) {
				c.SharedWith[i].UserID = userID
				changed = true
			}
		}
		if changed {
			touched++
		}
	}
	return touched, nil
}

// Len returns the number of stored collections
func (r *MemoryCollectionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collections)
}

var _ repository.CollectionRepository = (*MemoryCollectionRepository)(nil)
