package usecase

import (
	"context"
	"math"
	"strings"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	"data-playground/internal/playground/domain/service"
	sharedErrors "data-playground/internal/shared/errors"
)

// ListCollections returns the caller's owned and shared collections, newest
// first.
func (uc *PlaygroundUsecase) ListCollections(ctx context.Context, req ListRequest) (*ListResult, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = uc.config.DefaultPageSize
	}
	if limit > uc.config.MaxPageSize {
		limit = uc.config.MaxPageSize
	}
	// (page-1)*limit must fit in the int64 skip
	if maxPage := math.MaxInt64 / int64(limit); int64(page) > maxPage {
		page = int(maxPage)
	}

	filter := repository.ListFilter{
		UserID: p.UserID,
		Email:  strings.ToLower(p.Email),
		Search: strings.TrimSpace(req.Search),
		Skip:   int64(page-1) * int64(limit),
		Limit:  int64(limit),
	}

	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, sharedErrors.WrapError(err, "failed to count collections")
	}
	collections, err := uc.repo.Find(ctx, filter)
	if err != nil {
		return nil, sharedErrors.WrapError(err, "failed to list collections")
	}

	summaries := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		access := service.Evaluate(c, p, model.AccessRead)
		level := string(access.Level)
		if access.IsOwner {
			level = OwnerAccessLevel
		}
		summaries = append(summaries, CollectionSummary{
			ID:          c.IDHex(),
			Name:        c.Name,
			Owner:       c.Owner,
			Fields:      c.Fields,
			EntryCount:  len(c.Entries),
			AccessLevel: level,
			IsOwner:     access.IsOwner,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	return &ListResult{
		Collections: summaries,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// CreateCollection stores a new collection owned by the caller
func (uc *PlaygroundUsecase) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*model.Collection, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.validate.Struct(req); err != nil {
		return nil, uc.validationErrors(err)
	}

	name, fields, err := service.NormalizeDefinition(req.Name, req.Fields)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	collection := &model.Collection{
		Name:       name,
		Owner:      p.UserID,
		Fields:     fields,
		Entries:    []model.Entry{},
		SharedWith: []model.Share{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, collection); err != nil {
		return nil, sharedErrors.WrapError(err, "failed to create collection")
	}

	uc.logger.WithContext(ctx).Infof("collection %s created with %d fields", collection.IDHex(), len(fields))
	uc.publish(ctx, model.NewCollectionEvent(model.EventCollectionCreated, collection.IDHex(), p.UserID))
	return collection, nil
}

func viewOf(res service.AccessResult) *CollectionView {
	c := res.Collection
	level := string(res.Level)
	if res.IsOwner {
		level = OwnerAccessLevel
	}
	view := &CollectionView{AccessLevel: level, IsOwner: res.IsOwner}
	if res.Level.Satisfies(model.AccessAdmin) {
		shares := c.SharedWith
		if shares == nil {
			shares = []model.Share{}
		}
		view.SharedWith = &shares
	} else {
		shallow := *c
		shallow.SharedWith = nil
		c = &shallow
	}
	view.Collection = c
	return view
}

// GetCollection returns the full collection when the caller may read it
func (uc *PlaygroundUsecase) GetCollection(ctx context.Context, id string) (*CollectionView, error) {
	_, res, err := uc.authorize(ctx, id, model.AccessRead)
	if err != nil {
		return nil, err
	}
	return viewOf(res), nil
}

// UpdateCollection renames the collection and/or replaces its schema.
func (uc *PlaygroundUsecase) UpdateCollection(ctx context.Context, id string, req UpdateCollectionRequest) (*CollectionView, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, uc.validationErrors(err)
	}
	if req.Name == nil && req.Fields == nil {
		return nil, sharedErrors.NewValidationError("nothing to update: provide name or fields")
	}

	p, res, err := uc.authorize(ctx, id, model.AccessAdmin)
	if err != nil {
		return nil, err
	}
	collection := res.Collection

	name := collection.Name
	if req.Name != nil {
		name = *req.Name
	}
	fields := collection.Fields
	if req.Fields != nil {
		fields = req.Fields
	}
	name, fields, err = service.NormalizeDefinition(name, fields)
	if err != nil {
		return nil, err
	}
	collection.Name = name
	collection.Fields = fields

	if err := uc.save(ctx, collection); err != nil {
		return nil, err
	}

	uc.publish(ctx, model.NewCollectionEvent(model.EventCollectionUpdated, collection.IDHex(), p.UserID))
	return viewOf(res), nil
}

// DeleteCollection removes the collection with its entries and shares.
// Only the owner may do this, whatever tier a share grants.
func (uc *PlaygroundUsecase) DeleteCollection(ctx context.Context, id string) error {
	p, err := principalFrom(ctx)
	if err != nil {
		return err
	}
	if _, err := uc.resolver.RequireOwner(ctx, id, p); err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		if sharedErrors.IsNotFound(err) {
			return sharedErrors.NewNotFoundError("collection").WithCause(sharedErrors.ErrCollectionNotFound)
		}
		return sharedErrors.WrapError(err, "failed to delete collection")
	}

	uc.logger.WithContext(ctx).Infof("collection %s deleted", id)
	uc.publish(ctx, model.NewCollectionEvent(model.EventCollectionDeleted, id, p.UserID))
	return nil
}
