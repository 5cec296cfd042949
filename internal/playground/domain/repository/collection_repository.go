package repository

import (
	"context"

	"data-playground/internal/playground/domain/model"
)

// ListFilter selects the collections a user owns or has been shared.
type ListFilter struct {
	UserID string
	Email  string
	// Search is a case-insensitive substring of the collection name.
	Search string
	Skip   int64
	Limit  int64
}

// CollectionRepository persists whole collection documents. FindByID
// returns errors.ErrCollectionNotFound for absent or malformed ids.
type CollectionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Collection, error)
	// Find returns a page ordered by UpdatedAt, newest first.
	Find(ctx context.Context, filter ListFilter) ([]*model.Collection, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	Create(ctx context.Context, collection *model.Collection) error
	// Save replaces the stored document. Last writer wins.
	Save(ctx context.Context, collection *model.Collection) error
	Delete(ctx context.Context, id string) error
	// LinkShares sets userID on every share addressed to email that has
	// no user yet. Returns the number of collections touched.
	LinkShares(ctx context.Context, email, userID string) (int64, error)
}
