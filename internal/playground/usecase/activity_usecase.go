package usecase

import (
	"context"

	"data-playground/internal/playground/domain/model"
	sharedErrors "data-playground/internal/shared/errors"
)

const (
	defaultActivityLimit int64 = 20
	maxActivityLimit     int64 = 100
)

// RecentActivity returns the latest recorded events, newest first
func (uc *PlaygroundUsecase) RecentActivity(ctx context.Context, id string, limit int64) ([]model.CollectionEvent, error) {
	if _, _, err := uc.authorize(ctx, id, model.AccessRead); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if uc.activity == nil {
		return []model.CollectionEvent{}, nil
	}

	events, err := uc.activity.Recent(ctx, id, limit)
	if err != nil {
		return nil, sharedErrors.WrapError(err, "failed to read activity")
	}
	if events == nil {
		events = []model.CollectionEvent{}
	}
	return events, nil
}
