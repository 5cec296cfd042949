package service

import (
	"context"
	"errors"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/domain/repository"
	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/utils"
)

// Resolution reasons
const (
	ReasonNotFound           = "not found"
	ReasonOwner              = "owner"
	ReasonShared             = "shared"
	ReasonInsufficientAccess = "insufficient access"
	ReasonNoAccess           = "no access"
)

// AccessResult is the outcome of resolving a principal against a collection.
type AccessResult struct {
	Granted bool
	// Collection is nil only when the collection does not exist.
	Collection *model.Collection
	Reason     string
	// Level is the effective tier; AccessAdmin for the owner.
	Level   model.AccessLevel
	IsOwner bool
}

// Err converts a denied result into the matching taxonomy error.
func (r AccessResult) Err() error {
	switch {
	case r.Granted:
		return nil
	case r.Reason == ReasonNotFound:
		return sharedErrors.NewNotFoundError("collection").WithCause(sharedErrors.ErrCollectionNotFound)
	default:
		return sharedErrors.NewAuthorizationError(r.Reason).WithCause(sharedErrors.ErrForbidden)
	}
}

// AccessResolver decides whether a principal may act on a collection at a
// required tier.
type AccessResolver struct {
	repo repository.CollectionRepository
}

// NewAccessResolver creates a resolver over repo
func NewAccessResolver(repo repository.CollectionRepository) *AccessResolver {
	return &AccessResolver{repo: repo}
}

// Resolve loads the collection and evaluates the principal's tier. A denied
// result is not an error; the error return is reserved for lookup failures.
func (r *AccessResolver) Resolve(ctx context.Context, collectionID string, principal utils.Principal, required model.AccessLevel) (AccessResult, error) {
	if required == "" {
		required = model.AccessRead
	}

	collection, err := r.repo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, sharedErrors.ErrCollectionNotFound) {
			return AccessResult{Reason: ReasonNotFound}, nil
		}
		return AccessResult{}, sharedErrors.WrapError(err, "failed to look up collection")
	}

	return Evaluate(collection, principal, required), nil
}

// Evaluate applies the access rules to an already loaded collection.
func Evaluate(collection *model.Collection, principal utils.Principal, required model.AccessLevel) AccessResult {
	if collection == nil {
		return AccessResult{Reason: ReasonNotFound}
	}

	if collection.IsOwner(principal.UserID) {
		return AccessResult{
			Granted:    true,
			Collection: collection,
			Reason:     ReasonOwner,
			Level:      model.AccessAdmin,
			IsOwner:    true,
		}
	}

	i := collection.FindShare(principal.UserID, principal.Email)
	if i < 0 {
		return AccessResult{Collection: collection, Reason: ReasonNoAccess}
	}

	level := collection.SharedWith[i].AccessLevel
	if !level.Satisfies(required) {
		return AccessResult{Collection: collection, Reason: ReasonInsufficientAccess, Level: level}
	}
	return AccessResult{Granted: true, Collection: collection, Reason: ReasonShared, Level: level}
}

// Require resolves and turns a denial into an error.
func (r *AccessResolver) Require(ctx context.Context, collectionID string, principal utils.Principal, required model.AccessLevel) (AccessResult, error) {
	res, err := r.Resolve(ctx, collectionID, principal, required)
	if err != nil {
		return res, err
	}
	return res, res.Err()
}

// RequireOwner demands the admin tier and, on top of it, that the principal
// is the owner. Admin-tier shares are refused.
func (r *AccessResolver) RequireOwner(ctx context.Context, collectionID string, principal utils.Principal) (AccessResult, error) {
	res, err := r.Require(ctx, collectionID, principal, model.AccessAdmin)
	if err != nil {
		return res, err
	}
	if !res.IsOwner {
		return res, sharedErrors.NewAuthorizationError("only the owner can perform this action").WithCause(sharedErrors.ErrForbidden)
	}
	return res, nil
}
