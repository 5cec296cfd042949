package repository

import (
	"context"

	"data-playground/internal/playground/domain/model"
)

// ActivityStore keeps a bounded, per-collection log of mutations.
type ActivityStore interface {
	Append(ctx context.Context, event model.CollectionEvent) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, collectionID string, limit int64) ([]model.CollectionEvent, error)
	Drop(ctx context.Context, collectionID string) error
}
