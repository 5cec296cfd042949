package usecase

import (
	"context"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/service"
	sharedErrors "data-playground/internal/shared/errors"
)

func entryNotFound(index int) error {
	return sharedErrors.NewNotFoundError("entry").
		WithCause(sharedErrors.ErrEntryNotFound).
		WithDetail("index", index)
}

// ListEntries returns the entries with their positions. A non-empty filter
// is evaluated as a CEL expression over each entry.
func (uc *PlaygroundUsecase) ListEntries(ctx context.Context, id, filter string) ([]service.IndexedEntry, error) {
	_, res, err := uc.authorize(ctx, id, model.AccessRead)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return service.All(res.Collection.Entries), nil
	}
	return uc.filter.Apply(filter, res.Collection.Entries)
}

// AddEntry validates raw against the schema and appends it.
func (uc *PlaygroundUsecase) AddEntry(ctx context.Context, id string, raw map[string]interface{}) (*EntryResult, error) {
	p, res, err := uc.authorize(ctx, id, model.AccessWrite)
	if err != nil {
		return nil, err
	}
	collection := res.Collection

	entry, err := service.BuildRules(collection.Fields).Validate(raw)
	if err != nil {
		return nil, err
	}

	index := collection.AppendEntry(entry)
	if err := uc.save(ctx, collection); err != nil {
		return nil, err
	}

	evt := model.NewCollectionEvent(model.EventEntryAdded, collection.IDHex(), p.UserID).WithIndex(index)
	evt.Entry = entry
	uc.publish(ctx, evt)
	return &EntryResult{Index: index, Entry: entry}, nil
}

// UpdateEntry replaces the entry at index. Out-of-range indexes are NotFound.
func (uc *PlaygroundUsecase) UpdateEntry(ctx context.Context, id string, index int, raw map[string]interface{}) (*EntryResult, error) {
	p, res, err := uc.authorize(ctx, id, model.AccessWrite)
	if err != nil {
		return nil, err
	}
	collection := res.Collection
	if !collection.ValidIndex(index) {
		return nil, entryNotFound(index)
	}

	entry, err := service.BuildRules(collection.Fields).Validate(raw)
	if err != nil {
		return nil, err
	}
	if err := collection.ReplaceEntry(index, entry); err != nil {
		return nil, entryNotFound(index)
	}
	if err := uc.save(ctx, collection); err != nil {
		return nil, err
	}

	evt := model.NewCollectionEvent(model.EventEntryUpdated, collection.IDHex(), p.UserID).WithIndex(index)
	evt.Entry = entry
	uc.publish(ctx, evt)
	return &EntryResult{Index: index, Entry: entry}, nil
}

// DeleteEntry removes the entry at index; later entries shift down by one.
func (uc *PlaygroundUsecase) DeleteEntry(ctx context.Context, id string, index int) error {
	p, res, err := uc.authorize(ctx, id, model.AccessWrite)
	if err != nil {
		return err
	}
	collection := res.Collection
	if _, err := collection.RemoveEntry(index); err != nil {
		return entryNotFound(index)
	}
	if err := uc.save(ctx, collection); err != nil {
		return err
	}

	uc.publish(ctx, model.NewCollectionEvent(model.EventEntryDeleted, collection.IDHex(), p.UserID).WithIndex(index))
	return nil
}
